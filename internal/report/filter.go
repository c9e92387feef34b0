package report

import (
	"net/mail"
	"strings"
	"time"

	"lead-reconciliation/internal/domain"
)

// EmailValidity restricts leads by whether their email parses.
type EmailValidity string

const (
	EmailAny     EmailValidity = ""
	EmailValid   EmailValidity = "valid"
	EmailInvalid EmailValidity = "invalid"
)

// SchoolValidity restricts leads by whether a school was selected.
type SchoolValidity string

const (
	SchoolAny   SchoolValidity = ""
	SchoolValid SchoolValidity = "valid"
	SchoolEmpty SchoolValidity = "invalid_empty"
)

// Filter is the operator's view over a lead batch. Zero values match everything.
type Filter struct {
	Query          string         `json:"query"`
	Grade          string         `json:"grade"`
	School         string         `json:"school"`
	Ward           string         `json:"ward"`
	SchoolWardPair string         `json:"schoolWardPair"` // "school - ward", overrides School and Ward
	DuplicateEmail bool           `json:"duplicateEmail"`
	Email          EmailValidity  `json:"emailValidity"`
	SchoolState    SchoolValidity `json:"schoolValidity"`
	Start          *time.Time     `json:"startDate"`
	End            *time.Time     `json:"endDate"`
}

// Apply returns the leads matching f, preserving order. Duplicate-email
// detection looks at the whole batch, not only the leads that survive the
// other criteria.
func (f Filter) Apply(leads []domain.LeadRecord) []domain.LeadRecord {
	var emailCounts map[string]int
	if f.DuplicateEmail {
		emailCounts = make(map[string]int)
		for _, lead := range leads {
			if e := strings.ToLower(strings.TrimSpace(lead.Email)); e != "" {
				emailCounts[e]++
			}
		}
	}

	out := make([]domain.LeadRecord, 0, len(leads))
	for _, lead := range leads {
		if f.matches(lead, emailCounts) {
			out = append(out, lead)
		}
	}
	return out
}

func (f Filter) matches(lead domain.LeadRecord, emailCounts map[string]int) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hit := false
		for _, v := range []string{lead.StudentName, lead.ParentName, lead.Email, lead.Phone} {
			if strings.Contains(strings.ToLower(v), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if f.Grade != "" && lead.Grade != f.Grade {
		return false
	}

	if f.SchoolWardPair != "" {
		school, ward, _ := strings.Cut(f.SchoolWardPair, " - ")
		if lead.SchoolName != school || lead.Ward != ward {
			return false
		}
	} else {
		if f.School != "" && lead.SchoolName != f.School {
			return false
		}
		if f.Ward != "" && lead.Ward != f.Ward {
			return false
		}
	}

	if emailCounts != nil {
		e := strings.ToLower(strings.TrimSpace(lead.Email))
		if e == "" || emailCounts[e] < 2 {
			return false
		}
	}

	switch f.Email {
	case EmailValid, EmailInvalid:
		e := strings.TrimSpace(lead.Email)
		if e == "" || ValidEmail(e) != (f.Email == EmailValid) {
			return false
		}
	}

	switch f.SchoolState {
	case SchoolValid:
		if lead.SchoolName == "" {
			return false
		}
	case SchoolEmpty:
		if lead.SchoolName != "" {
			return false
		}
	}

	if f.Start != nil || f.End != nil {
		if lead.CreatedAt == nil {
			return false
		}
		created := lead.CreatedAt.In(Location)
		if f.Start != nil && created.Before(startOfDay(*f.Start)) {
			return false
		}
		if f.End != nil && !created.Before(startOfDay(*f.End).AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// ValidEmail reports whether s is a single bare address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	_, domainPart, ok := strings.Cut(addr.Address, "@")
	return ok && strings.Contains(domainPart, ".")
}

func startOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
