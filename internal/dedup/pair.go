package dedup

import (
	"strings"

	"lead-reconciliation/internal/domain"
)

// Field names compared between the two records of a pair.
const (
	FieldPhone       = "phone"
	FieldStudentName = "studentName"
	FieldParentName  = "parentName"
	FieldSchoolName  = "schoolName"
	FieldWard        = "ward"
	FieldClassName   = "className"
	FieldGrade       = "grade"
)

var comparedFields = []struct {
	name  string
	value func(domain.LeadRecord) string
}{
	{FieldPhone, func(l domain.LeadRecord) string { return l.Phone }},
	{FieldStudentName, func(l domain.LeadRecord) string { return l.StudentName }},
	{FieldParentName, func(l domain.LeadRecord) string { return l.ParentName }},
	{FieldSchoolName, func(l domain.LeadRecord) string { return l.SchoolName }},
	{FieldWard, func(l domain.LeadRecord) string { return l.Ward }},
	{FieldClassName, func(l domain.LeadRecord) string { return l.ClassName }},
	{FieldGrade, func(l domain.LeadRecord) string { return l.Grade }},
}

// DiffFields lists the compared fields whose trimmed, case-folded values differ.
// An empty result means a and b are exact duplicates.
func DiffFields(a, b domain.LeadRecord) []string {
	var diff []string
	for _, f := range comparedFields {
		if !strings.EqualFold(strings.TrimSpace(f.value(a)), strings.TrimSpace(f.value(b))) {
			diff = append(diff, f.name)
		}
	}
	return diff
}

// ResolvePair decides how a two-record group may be merged. Only exact
// duplicates get a removable record (the later one); otherwise the differing
// fields are reported so nobody deletes distinct facts by accident.
// ok is false for groups that do not hold exactly two leads.
func ResolvePair(g domain.DuplicateGroup) (res domain.PairResolution, ok bool) {
	if len(g.Leads) != 2 {
		return domain.PairResolution{}, false
	}
	first, second := g.Leads[0], g.Leads[1]
	res = domain.PairResolution{
		Identity:    g.Identity,
		Keep:        first.ID,
		Differences: DiffFields(first, second),
	}
	if res.Exact() {
		res.Removable = second.ID
	}
	return res, true
}

// ResolvePairs applies ResolvePair to every two-record group.
func ResolvePairs(groups []domain.DuplicateGroup) []domain.PairResolution {
	var out []domain.PairResolution
	for _, g := range groups {
		if res, ok := ResolvePair(g); ok {
			out = append(out, res)
		}
	}
	return out
}
