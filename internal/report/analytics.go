package report

import (
	"sort"
	"strings"
	"time"

	"lead-reconciliation/internal/domain"
)

// UnknownLabel replaces blank grade, ward and school values in distributions.
const UnknownLabel = "Không xác định"

// DailyWindow is how many of the most recent days DailyDeals keeps.
const DailyWindow = 30

// Location is the business time zone used for date bucketing.
var Location = time.FixedZone("ICT", 7*60*60)

// ComputeAnalytics builds the distribution overview of a batch.
func ComputeAnalytics(leads []domain.LeadRecord) domain.Analytics {
	a := domain.Analytics{
		GradeStats:  make(map[string]int),
		WardStats:   make(map[string]int),
		SchoolStats: make(map[string]int),
		TimeStats:   make(map[string]int),
	}
	daily := make(map[string]int)

	for _, lead := range leads {
		a.GradeStats[labelOrUnknown(lead.Grade)]++
		a.WardStats[labelOrUnknown(lead.Ward)]++
		a.SchoolStats[labelOrUnknown(lead.SchoolName)]++

		hasEmail := strings.TrimSpace(lead.Email) != ""
		hasPhone := strings.TrimSpace(lead.Phone) != ""
		a.ContactStats.Total++
		switch {
		case hasEmail && hasPhone:
			a.ContactStats.WithEmail++
			a.ContactStats.WithPhone++
			a.ContactStats.WithBoth++
		case hasEmail:
			a.ContactStats.WithEmail++
		case hasPhone:
			a.ContactStats.WithPhone++
		default:
			a.ContactStats.WithNone++
		}

		if lead.CreatedAt != nil {
			local := lead.CreatedAt.In(Location)
			a.TimeStats[local.Format("2006-01")]++
			daily[local.Format(time.DateOnly)]++
		}
	}

	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)
	if len(days) > DailyWindow {
		days = days[len(days)-DailyWindow:]
	}
	a.DailyDeals = make([]domain.DailyCount, 0, len(days))
	for _, d := range days {
		a.DailyDeals = append(a.DailyDeals, domain.DailyCount{Date: d, Deals: daily[d]})
	}
	return a
}

func labelOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return UnknownLabel
}
