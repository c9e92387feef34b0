// Package report aggregates lead batches into per-school statistics.
package report

import (
	"sort"
	"strings"

	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
)

// MinPairSize is the smallest (school, ward) population worth reporting.
const MinPairSize = 3

type pairKey struct {
	school string
	ward   string
}

// pairTally accumulates one (school, ward) pair during aggregation.
type pairTally struct {
	total      int
	duplicates int
	seen       map[domain.NormalizedIdentity]bool
}

func (t pairTally) add(lead domain.LeadRecord) pairTally {
	t.total++
	id := dedup.IdentityOf(lead)
	if id.Name == "" {
		return t
	}
	if t.seen[id] {
		t.duplicates++
		return t
	}
	t.seen[id] = true
	return t
}

// AggregateSchoolWard summarizes duplicates per (school, ward) pair. Leads
// missing either value are ignored, and pairs with fewer than MinPairSize
// leads are dropped. Duplicates are counted inside each pair only: the first
// occurrence of an identity is unique, every later one is a duplicate.
// Results are ordered by total descending, then school and ward.
func AggregateSchoolWard(leads []domain.LeadRecord) []domain.SchoolWardSummary {
	var order []pairKey
	tallies := make(map[pairKey]pairTally)

	for _, lead := range leads {
		key := pairKey{school: strings.TrimSpace(lead.SchoolName), ward: strings.TrimSpace(lead.Ward)}
		if key.school == "" || key.ward == "" {
			continue
		}
		t, ok := tallies[key]
		if !ok {
			t = pairTally{seen: make(map[domain.NormalizedIdentity]bool)}
			order = append(order, key)
		}
		tallies[key] = t.add(lead)
	}

	out := make([]domain.SchoolWardSummary, 0, len(order))
	for _, key := range order {
		t := tallies[key]
		if t.total < MinPairSize {
			continue
		}
		out = append(out, domain.SchoolWardSummary{
			School:        key.school,
			Ward:          key.ward,
			Total:         t.total,
			Unique:        t.total - t.duplicates,
			Duplicates:    t.duplicates,
			DuplicateRate: DuplicateRate(t.duplicates, t.total),
		})
	}

	SortSummaries(out, SortByTotal, true)
	return out
}

// DuplicateRate returns duplicates as a percentage of total, or 0 when total is 0.
func DuplicateRate(duplicates, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(duplicates) / float64(total) * 100
}

// SortField selects the column summaries are ordered by.
type SortField string

const (
	SortBySchoolWard    SortField = "schoolWard"
	SortBySchool        SortField = "school"
	SortByWard          SortField = "ward"
	SortByTotal         SortField = "total"
	SortByUnique        SortField = "unique"
	SortByDuplicates    SortField = "duplicates"
	SortByDuplicateRate SortField = "duplicateRate"
)

// SortSummaries orders summaries in place. Ties fall back to school then ward
// ascending so output is deterministic.
func SortSummaries(s []domain.SchoolWardSummary, field SortField, desc bool) {
	sort.SliceStable(s, func(i, j int) bool {
		c := compareSummaries(s[i], s[j], field)
		if c == 0 {
			return compareSummaries(s[i], s[j], SortBySchoolWard) < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareSummaries(a, b domain.SchoolWardSummary, field SortField) int {
	switch field {
	case SortBySchool:
		return strings.Compare(a.School, b.School)
	case SortByWard:
		return strings.Compare(a.Ward, b.Ward)
	case SortByUnique:
		return a.Unique - b.Unique
	case SortByDuplicates:
		return a.Duplicates - b.Duplicates
	case SortByDuplicateRate:
		switch {
		case a.DuplicateRate < b.DuplicateRate:
			return -1
		case a.DuplicateRate > b.DuplicateRate:
			return 1
		}
		return 0
	case SortByTotal:
		return a.Total - b.Total
	default:
		if c := strings.Compare(a.School, b.School); c != 0 {
			return c
		}
		return strings.Compare(a.Ward, b.Ward)
	}
}
