// Package export turns lead batches into tabular documents and renders them
// as XLSX, CSV or JSON.
package export

import (
	"errors"
	"sort"
	"strings"
	"time"

	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/report"
)

// ErrNothingToExport is returned when a request selects no sheet with data.
var ErrNothingToExport = errors.New("nothing to export")

// Fill colors used by every sheet.
const (
	HeaderFill    = "800080"
	HeaderFont    = "FFFFFF"
	UnmappedFill  = "FFFF00"
	DuplicateFill = "FFC7CE"
)

// Style is the presentation annotation of a row.
type Style struct {
	Fill      string
	Bold      bool
	FontColor string
}

// HeaderStyle is applied to the first row of every sheet.
var HeaderStyle = Style{Fill: HeaderFill, Bold: true, FontColor: HeaderFont}

// Column is a named column and its display width in characters.
type Column struct {
	Header string
	Width  float64
}

// Row holds one value per column. Values are strings or ints.
type Row struct {
	Values []any
	Style  Style
}

// Sheet is one named table.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// Headers returns the column titles in order.
func (s Sheet) Headers() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Header
	}
	return out
}

// Document is an ordered collection of sheets.
type Document struct {
	Sheets []Sheet
}

// SortByEmail returns a copy of leads ordered by case-insensitive email.
// Blank emails go last; leads with equal emails keep their input order.
func SortByEmail(leads []domain.LeadRecord) []domain.LeadRecord {
	out := make([]domain.LeadRecord, len(leads))
	copy(out, leads)
	sort.SliceStable(out, func(i, j int) bool {
		return emailLess(out[i].Email, out[j].Email)
	})
	return out
}

func emailLess(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "":
		return false
	case b == "":
		return true
	}
	return a < b
}

// FormatCreated renders a creation time in the business time zone.
func FormatCreated(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(report.Location).Format("02/01/2006 15:04:05")
}
