package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"lead-reconciliation/internal/domain"
)

// CRM custom field codes.
const (
	fieldSchoolName    = "UF_CRM_6178C6D2EDA26"
	fieldSchoolType    = "UF_CRM_1742537683"
	fieldWard          = "UF_CRM_1755499870"
	fieldStudentName   = "UF_CRM_1718938262"
	fieldGrade         = "UF_CRM_1724832179"
	fieldClassName     = "UF_CRM_6178C6D3035AF"
	fieldEmail         = "UF_CRM_DEAL_1717076457153"
	fieldParentName    = "UF_CRM_6178C6D30C6A9"
	fieldPhone         = "UF_CRM_DEAL_1717076519247"
	fieldAddress       = "UF_CRM_6178C6D31587F"
	fieldSchoolNameTmp = "UF_CRM_1758164804"

	// DisabledField is the CRM flag set when a lead is soft-disabled.
	DisabledField = "UF_CRM_1759402265"
)

// selectFields lists the columns requested from crm.deal.list.
var selectFields = []string{
	"ID", "TITLE",
	fieldSchoolName, fieldSchoolType, fieldWard, fieldStudentName, fieldGrade,
	fieldClassName, fieldEmail, fieldParentName, fieldPhone, fieldAddress,
	"DATE_CREATE", fieldSchoolNameTmp, DisabledField,
}

// rawLead is one deal as returned by the CRM or stored in a JSON export.
type rawLead map[string]json.RawMessage

// pick returns the first present key, preferring CRM codes over mapped names.
func (r rawLead) pick(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (r rawLead) toLead() domain.LeadRecord {
	return domain.LeadRecord{
		ID:            r.pick("ID", "id"),
		Title:         r.pick("TITLE", "title"),
		StudentName:   r.pick(fieldStudentName, "studentName"),
		ParentName:    r.pick(fieldParentName, "parentOfStudentName"),
		Email:         r.pick(fieldEmail, "email"),
		Phone:         r.pick(fieldPhone, "phone"),
		SchoolName:    r.pick(fieldSchoolName, "schoolName"),
		SchoolType:    r.pick(fieldSchoolType, "schoolType"),
		SchoolNameTmp: r.pick(fieldSchoolNameTmp, "schoolNameTmp"),
		Ward:          r.pick(fieldWard, "ward"),
		Grade:         r.pick(fieldGrade, "grade"),
		ClassName:     r.pick(fieldClassName, "className"),
		Address:       r.pick(fieldAddress, "address"),
		CreatedAt:     parseCreated(r.pick("DATE_CREATE", "createdAt")),
		Disabled:      parseDisabled(r.pick(DisabledField, "isDisabled")),
	}
}

// scalarString flattens a JSON value to text. Arrays are joined with ", ";
// objects and null become "".
func scalarString(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := scalarString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case '{', 'n':
		return ""
	}
	return string(v)
}

var createdLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	time.DateOnly,
}

// parseCreated accepts the CRM timestamp and the common export layouts.
// Anything else is treated as absent.
func parseCreated(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range createdLayouts {
		if t, err := time.ParseInLocation(layout, s, crmLocation); err == nil {
			return &t
		}
	}
	return nil
}

func parseDisabled(s string) bool {
	switch strings.ToUpper(s) {
	case "Y", "1", "TRUE":
		return true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0
	}
	return false
}
