package export

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
)

func duplicateBatch() []domain.LeadRecord {
	return []domain.LeadRecord{
		{ID: "1", StudentName: "An", Email: "b@x.com", SchoolName: "S", Ward: "W"},
		{ID: "2", StudentName: "An", Email: "b@x.com", SchoolName: "S", Ward: "W"},
		{ID: "3", StudentName: "Bình", Email: "a@x.com", SchoolName: "S", Ward: "W"},
		{ID: "4", StudentName: "Bình", Email: "a@x.com"},
		{ID: "5", StudentName: "Chi", Email: "c@x.com"},
	}
}

func TestFormatCreated(t *testing.T) {
	ts := time.Date(2025, 9, 30, 18, 5, 9, 0, time.UTC)
	assert.Equal(t, "01/10/2025 01:05:09", FormatCreated(&ts))
	assert.Equal(t, "", FormatCreated(nil))
}

func TestDealsSheet(t *testing.T) {
	sheet := DealsSheet(duplicateBatch())

	require.Len(t, sheet.Rows, 5)
	assert.Equal(t, "3", sheet.Rows[0].Values[0])
	assert.Equal(t, DuplicateFill, sheet.Rows[0].Style.Fill)
	assert.Equal(t, "5", sheet.Rows[4].Values[0])
	assert.Equal(t, "", sheet.Rows[4].Style.Fill)
}

func TestSummarySheet(t *testing.T) {
	sheet := SummarySheet([]domain.SchoolWardSummary{
		{School: "S", Ward: "W", Total: 3, Unique: 2, Duplicates: 1, DuplicateRate: 33.3333},
	})

	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, []any{1, "S", "W", 3, 2, 1, "33.3%"}, sheet.Rows[0].Values)
}

func TestDuplicatesGroupedSheet(t *testing.T) {
	groups := dedup.DuplicateGroups(dedup.GroupByIdentity(duplicateBatch()))
	require.Len(t, groups, 2)
	selections := map[string][]string{groups[0].Identity.Key(): {"2"}}

	sheet := DuplicatesGroupedSheet(groups, selections)

	// header, two members and a separator per group
	require.Len(t, sheet.Rows, 8)
	assert.Equal(t, "Nhóm 1: an - b@x.com", sheet.Rows[0].Values[0])
	assert.True(t, sheet.Rows[0].Style.Bold)
	assert.Equal(t, "1", sheet.Rows[1].Values[5])
	assert.Equal(t, "", sheet.Rows[1].Values[16])
	assert.Equal(t, "2", sheet.Rows[2].Values[5])
	assert.Equal(t, SelectedMark, sheet.Rows[2].Values[16])
	assert.Equal(t, "", sheet.Rows[3].Values[0])
	assert.Len(t, sheet.Rows[3].Values, len(sheet.Columns))
	assert.Equal(t, "Nhóm 2: binh - a@x.com", sheet.Rows[4].Values[0])
}

func TestDuplicatesFlatSheet(t *testing.T) {
	groups := dedup.DuplicateGroups(dedup.GroupByIdentity(duplicateBatch()))
	selections := map[string][]string{groups[1].Identity.Key(): {"4"}}

	sheet := DuplicatesFlatSheet(groups, selections)

	require.Len(t, sheet.Rows, 4)
	var ids, marks []any
	for _, r := range sheet.Rows {
		ids = append(ids, r.Values[1])
		marks = append(marks, r.Values[len(r.Values)-1])
	}
	assert.Equal(t, []any{"3", "4", "1", "2"}, ids)
	assert.Equal(t, []any{"", SelectedMark, "", ""}, marks)
	assert.Equal(t, "binh - a@x.com", sheet.Rows[0].Values[0])
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name       string
		leads      []domain.LeadRecord
		opts       Options
		wantSheets []string
		wantErr    error
	}{
		{
			name:       "all sections grouped",
			leads:      duplicateBatch(),
			opts:       Options{Summary: true, Deals: true, Duplicates: true},
			wantSheets: []string{SummarySheetName, DealsSheetName, DuplicatesGroupedSheetName},
		},
		{
			name:       "flat duplicates only",
			leads:      duplicateBatch(),
			opts:       Options{Duplicates: true, Flat: true},
			wantSheets: []string{DuplicatesFlatSheetName},
		},
		{
			name:    "nothing requested",
			leads:   duplicateBatch(),
			opts:    Options{},
			wantErr: ErrNothingToExport,
		},
		{
			name:    "requested sections are empty",
			leads:   []domain.LeadRecord{{ID: "1", StudentName: "An"}},
			opts:    Options{Summary: true, Duplicates: true},
			wantErr: ErrNothingToExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Collect(tt.leads, tt.opts)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)

			var names []string
			for _, s := range b.Document().Sheets {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.wantSheets, names)
		})
	}
}
