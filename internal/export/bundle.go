package export

import (
	"strings"
	"time"

	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/report"
)

// Format is an output container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a user-supplied name to a Format, defaulting to XLSX.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatXLSX:
		return FormatXLSX, true
	case FormatCSV, FormatJSON:
		return Format(s), true
	}
	return "", false
}

// Options selects what an operator export contains.
type Options struct {
	Summary    bool
	Deals      bool
	Duplicates bool
	// Flat lists duplicates one per row instead of grouped.
	Flat       bool
	Selections map[string][]string
}

// FlatDuplicate is one duplicate lead tagged with its group.
type FlatDuplicate struct {
	Group    string            `json:"group"`
	Lead     domain.LeadRecord `json:"deal"`
	Selected bool              `json:"isCorrect"`
}

// Bundle is the data behind an operator export. Its JSON form is the JSON
// export.
type Bundle struct {
	Summary           []domain.SchoolWardSummary `json:"summary,omitempty"`
	Deals             []domain.LeadRecord        `json:"deals,omitempty"`
	DuplicatesGrouped []domain.DuplicateGroup    `json:"duplicatesGrouped,omitempty"`
	DuplicatesFlat    []FlatDuplicate            `json:"duplicatesFlat,omitempty"`

	groups     []domain.DuplicateGroup
	selections map[string][]string
	flat       bool
}

// Collect gathers the requested sections. It fails with ErrNothingToExport
// when every requested section is empty.
func Collect(leads []domain.LeadRecord, opts Options) (*Bundle, error) {
	b := &Bundle{selections: opts.Selections, flat: opts.Flat}

	if opts.Summary {
		b.Summary = report.AggregateSchoolWard(leads)
	}
	if opts.Deals && len(leads) > 0 {
		b.Deals = SortByEmail(leads)
	}
	if opts.Duplicates {
		b.groups = dedup.DuplicateGroups(dedup.GroupByIdentity(leads))
		if opts.Flat {
			b.DuplicatesFlat = flatten(b.groups, opts.Selections)
		} else {
			b.DuplicatesGrouped = b.groups
		}
	}

	if len(b.Summary) == 0 && len(b.Deals) == 0 && len(b.groups) == 0 {
		return nil, ErrNothingToExport
	}
	return b, nil
}

// Document lays the bundle out as sheets: summary, deals, then duplicates.
func (b *Bundle) Document() *Document {
	doc := &Document{}
	if len(b.Summary) > 0 {
		doc.Sheets = append(doc.Sheets, SummarySheet(b.Summary))
	}
	if len(b.Deals) > 0 {
		doc.Sheets = append(doc.Sheets, DealsSheet(b.Deals))
	}
	if len(b.groups) > 0 {
		if b.flat {
			doc.Sheets = append(doc.Sheets, DuplicatesFlatSheet(b.groups, b.selections))
		} else {
			doc.Sheets = append(doc.Sheets, DuplicatesGroupedSheet(b.groups, b.selections))
		}
	}
	return doc
}

func flatten(groups []domain.DuplicateGroup, selections map[string][]string) []FlatDuplicate {
	var out []FlatDuplicate
	for _, g := range groups {
		selected := selectedSet(selections, g.Identity)
		label := g.Identity.Name + " - " + emailLabel(g.Identity.Email)
		for _, lead := range g.Leads {
			out = append(out, FlatDuplicate{Group: label, Lead: lead, Selected: selected[lead.ID]})
		}
	}
	return out
}

// Sections names the requested sections in export order.
func (o Options) Sections() []string {
	var s []string
	if o.Summary {
		s = append(s, "summary")
	}
	if o.Deals {
		s = append(s, "deals")
	}
	if o.Duplicates {
		s = append(s, "duplicates")
	}
	return s
}

// FileName is the download name of an export: export-<sections>-<date><ext>.
func FileName(opts Options, ext string, now time.Time) string {
	return "export-" + strings.Join(opts.Sections(), "-") + "-" + now.In(report.Location).Format(time.DateOnly) + ext
}
