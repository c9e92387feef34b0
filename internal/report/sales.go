package report

import (
	"sort"
	"strings"

	"lead-reconciliation/internal/domain"
)

// CorrelateIssuedVsRequested builds one row per school that has issued
// accounts. A school is kept when it received registrations or is on the
// always-include list. Rows are ordered by school name.
func CorrelateIssuedVsRequested(issued, loggedIn, requested map[string]int, alwaysInclude map[string]bool) []domain.SchoolReport {
	schools := make([]string, 0, len(issued))
	for school := range issued {
		schools = append(schools, school)
	}
	sort.Strings(schools)

	out := make([]domain.SchoolReport, 0, len(schools))
	for _, school := range schools {
		req := requested[school]
		if req <= 0 && !alwaysInclude[school] {
			continue
		}
		iss := issued[school]
		unprocessed := req - iss
		if unprocessed < 0 {
			unprocessed = 0
		}
		out = append(out, domain.SchoolReport{
			School:        school,
			Issued:        iss,
			LoggedIn:      loggedIn[school],
			TotalRequests: req,
			Unprocessed:   unprocessed,
		})
	}
	return out
}

// RequestedBySchool counts registrations per school label, where the label is
// "school - ward" when a ward is present and the bare school otherwise.
// Leads without a school count toward "Unknown".
func RequestedBySchool(leads []domain.LeadRecord) map[string]int {
	counts := make(map[string]int)
	for _, lead := range leads {
		counts[SchoolLabel(lead.SchoolName, lead.Ward)]++
	}
	return counts
}

// SchoolLabel is the display name used to join leads with the account store.
func SchoolLabel(school, ward string) string {
	school = strings.TrimSpace(school)
	ward = strings.TrimSpace(ward)
	if school == "" {
		school = "Unknown"
	}
	if ward == "" {
		return school
	}
	return school + " - " + ward
}

// SplitCounts turns account-store rows into the issued and logged-in maps.
func SplitCounts(rows []domain.SchoolAccountCount) (issued, loggedIn map[string]int) {
	issued = make(map[string]int, len(rows))
	loggedIn = make(map[string]int, len(rows))
	for _, r := range rows {
		issued[r.School] += r.Issued
		loggedIn[r.School] += r.LoggedIn
	}
	return issued, loggedIn
}

// Summarize totals a sales report. TotalSchools counts every school known to
// the account store, not just the reported rows.
func Summarize(rows []domain.SchoolReport, knownSchools int) domain.SalesSummary {
	s := domain.SalesSummary{TotalSchools: knownSchools}
	for _, r := range rows {
		s.TotalAccounts += r.Issued
		s.TotalLoggedIn += r.LoggedIn
	}
	return s
}
