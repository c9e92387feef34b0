package export

import (
	"strings"

	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/normalize"
)

// TemplateSheetName is the sheet the account-issuance template lives in.
const TemplateSheetName = "Template Export"

// TemplateOptions carries the per-run values the template needs beyond the
// lead batch and catalog.
type TemplateOptions struct {
	// Usernames maps lead ID to its assigned username.
	Usernames map[string]string
}

var templateColumns = []Column{
	{Header: "STT", Width: 6},
	{Header: "id", Width: 15},
	{Header: "Họ tên bé", Width: 25},
	{Header: "Tên đăng nhập", Width: 30},
	{Header: "Email", Width: 30},
	{Header: "Số điện thoại", Width: 15},
	{Header: "Mật khẩu", Width: 15},
	{Header: "Giới tính (1 - nam / 2- nữ / 3 khác)", Width: 30},
	{Header: "Kích hoạt", Width: 10},
	{Header: "Cấm tài khoản", Width: 15},
	{Header: "Tên người liên hệ", Width: 25},
	{Header: "Trường", Width: 25},
	{Header: "Lớp", Width: 15},
	{Header: "Nhóm", Width: 15},
	{Header: "Khóa học", Width: 15},
}

// BuildSpreadsheet renders the account-issuance template. Rows are sorted by
// email. A row whose school-ward has no curriculum is filled UnmappedFill; a
// row whose identity recurs in the batch is filled DuplicateFill, which wins
// when both apply.
func BuildSpreadsheet(leads []domain.LeadRecord, catalog domain.Catalog, opts TemplateOptions) *Document {
	duplicates := dedup.DuplicateIDs(leads)
	sorted := SortByEmail(leads)

	sheet := Sheet{Name: TemplateSheetName, Columns: templateColumns, Rows: make([]Row, 0, len(sorted))}
	for _, lead := range sorted {
		curriculum, mapped := catalog.CurriculumFor(lead.SchoolName, lead.Ward)

		active, banned := "1", "0"
		if lead.Disabled {
			active, banned = "0", "1"
		}

		row := Row{Values: []any{
			"",
			"",
			normalize.TitleCase(lead.StudentName),
			opts.Usernames[lead.ID],
			lead.Email,
			normalize.Phone(lead.Phone),
			catalog.DefaultPassword,
			"3",
			active,
			banned,
			normalize.TitleCase(lead.ParentName),
			lead.SchoolName + " - " + lead.Ward,
			lead.ClassName,
			GroupTags(catalog, lead.SchoolName, lead.Ward),
			CourseName(catalog.CoursePrefix, curriculum, lead.Grade),
		}}
		if !mapped {
			row.Style.Fill = UnmappedFill
		}
		if duplicates[lead.ID] {
			row.Style.Fill = DuplicateFill
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return &Document{Sheets: []Sheet{sheet}}
}

// CourseName renders the course a lead is enrolled in, or "" when the
// curriculum is unknown.
func CourseName(prefix string, curriculum domain.Curriculum, grade string) string {
	n := GradeNumber(grade)
	switch curriculum {
	case domain.CurriculumOld:
		return prefix + " (khối " + n + ")"
	case domain.CurriculumNew:
		return prefix + " (k" + n + ")"
	}
	return ""
}

// GradeNumber extracts "3" from "Khối 3". A single-token grade is returned as is.
func GradeNumber(grade string) string {
	fields := strings.Fields(grade)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	return fields[1]
}

// GroupTags builds the "Nhóm" cell: the catalog's leading tags, the
// school-ward tag, then the trailing tags.
func GroupTags(catalog domain.Catalog, school, ward string) string {
	tags := make([]string, 0, len(catalog.GroupTagsBefore)+len(catalog.GroupTagsAfter)+1)
	tags = append(tags, catalog.GroupTagsBefore...)
	tags = append(tags, "tih-"+normalize.RemoveTones(strings.TrimSpace(school+" "+ward)))
	tags = append(tags, catalog.GroupTagsAfter...)
	return strings.Join(tags, ", ")
}
