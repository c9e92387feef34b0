package export

import (
	"fmt"
	"sort"

	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
)

const (
	DealsSheetName             = "Deals Data"
	SummarySheetName           = "Bảng tổng hợp"
	DuplicatesGroupedSheetName = "Duplicate Data (Grouped)"
	DuplicatesFlatSheetName    = "Duplicate Data (Flat)"

	// SelectedMark flags the record an operator picked as correct.
	SelectedMark = "✓"
	noEmailLabel = "Không có email"
)

var dealColumns = []Column{
	{Header: "ID", Width: 10},
	{Header: "Tên học sinh", Width: 20},
	{Header: "Tên phụ huynh", Width: 20},
	{Header: "Khối", Width: 10},
	{Header: "Lớp", Width: 15},
	{Header: "Email", Width: 30},
	{Header: "Số điện thoại", Width: 15},
	{Header: "Trường học", Width: 25},
	{Header: "Phường/Quận", Width: 20},
	{Header: "Địa chỉ", Width: 30},
	{Header: "Ngày tạo", Width: 20},
	{Header: "Trường (PH tự nhập)", Width: 30},
}

var summaryColumns = []Column{
	{Header: "STT", Width: 6},
	{Header: "Trường học", Width: 25},
	{Header: "Phường/Quận", Width: 20},
	{Header: "Tổng deals", Width: 12},
	{Header: "Duy nhất", Width: 12},
	{Header: "Trùng lặp", Width: 12},
	{Header: "Tỷ lệ trùng", Width: 15},
}

var groupedColumns = []Column{
	{Header: "Nhóm trùng lặp", Width: 25},
	{Header: "Nhóm", Width: 8},
	{Header: "Tên trùng", Width: 20},
	{Header: "Email trùng", Width: 30},
	{Header: "Số lượng", Width: 10},
	{Header: "ID", Width: 10},
	{Header: "Tên học sinh", Width: 20},
	{Header: "Tên phụ huynh", Width: 20},
	{Header: "Khối", Width: 8},
	{Header: "Lớp", Width: 15},
	{Header: "Email", Width: 30},
	{Header: "Số điện thoại", Width: 15},
	{Header: "Trường học", Width: 25},
	{Header: "Phường/Quận", Width: 20},
	{Header: "Địa chỉ", Width: 30},
	{Header: "Ngày tạo", Width: 20},
	{Header: "Đánh dấu dữ liệu đúng", Width: 20},
}

var flatColumns = append([]Column{{Header: "Nhóm trùng lặp", Width: 30}}, groupedColumns[5:]...)

// DealsSheet lists every lead sorted by email, highlighting duplicates.
func DealsSheet(leads []domain.LeadRecord) Sheet {
	duplicates := dedup.DuplicateIDs(leads)
	sheet := Sheet{Name: DealsSheetName, Columns: dealColumns}
	for _, lead := range SortByEmail(leads) {
		row := Row{Values: []any{
			lead.ID,
			lead.StudentName,
			lead.ParentName,
			lead.Grade,
			lead.ClassName,
			lead.Email,
			lead.Phone,
			lead.SchoolName,
			lead.Ward,
			lead.Address,
			FormatCreated(lead.CreatedAt),
			lead.SchoolNameTmp,
		}}
		if duplicates[lead.ID] {
			row.Style.Fill = DuplicateFill
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// SummarySheet lists school-ward summaries with a running number.
func SummarySheet(summaries []domain.SchoolWardSummary) Sheet {
	sheet := Sheet{Name: SummarySheetName, Columns: summaryColumns}
	for i, s := range summaries {
		sheet.Rows = append(sheet.Rows, Row{Values: []any{
			i + 1,
			s.School,
			s.Ward,
			s.Total,
			s.Unique,
			s.Duplicates,
			fmt.Sprintf("%.1f%%", s.DuplicateRate),
		}})
	}
	return sheet
}

// DuplicatesGroupedSheet writes a bold header row per group, its members, and
// a blank separator row. selections maps an identity key to the lead IDs an
// operator marked as correct.
func DuplicatesGroupedSheet(groups []domain.DuplicateGroup, selections map[string][]string) Sheet {
	sheet := Sheet{Name: DuplicatesGroupedSheetName, Columns: groupedColumns}
	blank := make([]any, len(groupedColumns))
	for i := range blank {
		blank[i] = ""
	}

	for i, g := range groups {
		email := emailLabel(g.Identity.Email)
		header := append([]any{
			fmt.Sprintf("Nhóm %d: %s - %s", i+1, g.Identity.Name, email),
			i + 1,
			g.Identity.Name,
			email,
			g.Count,
		}, blank[5:]...)
		sheet.Rows = append(sheet.Rows, Row{Values: header, Style: Style{Bold: true}})

		selected := selectedSet(selections, g.Identity)
		for _, lead := range g.Leads {
			values := append([]any{"", "", "", "", ""}, leadCells(lead)...)
			values = append(values, mark(selected[lead.ID]))
			sheet.Rows = append(sheet.Rows, Row{Values: values})
		}
		sheet.Rows = append(sheet.Rows, Row{Values: append([]any(nil), blank...)})
	}
	return sheet
}

// DuplicatesFlatSheet writes every duplicate lead on its own row, sorted by
// email, labelled with its group.
func DuplicatesFlatSheet(groups []domain.DuplicateGroup, selections map[string][]string) Sheet {
	entries := flatten(groups, selections)
	sort.SliceStable(entries, func(i, j int) bool {
		return emailLess(entries[i].Lead.Email, entries[j].Lead.Email)
	})

	sheet := Sheet{Name: DuplicatesFlatSheetName, Columns: flatColumns}
	for _, e := range entries {
		values := append([]any{e.Group}, leadCells(e.Lead)...)
		values = append(values, mark(e.Selected))
		sheet.Rows = append(sheet.Rows, Row{Values: values})
	}
	return sheet
}

func leadCells(lead domain.LeadRecord) []any {
	return []any{
		lead.ID,
		lead.StudentName,
		lead.ParentName,
		lead.Grade,
		lead.ClassName,
		lead.Email,
		lead.Phone,
		lead.SchoolName,
		lead.Ward,
		lead.Address,
		FormatCreated(lead.CreatedAt),
	}
}

func selectedSet(selections map[string][]string, id domain.NormalizedIdentity) map[string]bool {
	set := make(map[string]bool)
	for _, leadID := range selections[id.Key()] {
		set[leadID] = true
	}
	return set
}

func emailLabel(email string) string {
	if email == "" {
		return noEmailLabel
	}
	return email
}

func mark(selected bool) string {
	if selected {
		return SelectedMark
	}
	return ""
}
