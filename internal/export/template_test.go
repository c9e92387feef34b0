package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-reconciliation/internal/domain"
)

func testCatalog() domain.Catalog {
	return domain.Catalog{
		Curriculum: map[string]domain.Curriculum{
			"Hòa Bình-Sài Gòn": domain.CurriculumOld,
			"Kim Đồng-Gò Vấp":  domain.CurriculumNew,
		},
		CoursePrefix:    "Tiếng Anh Toán - Khoa học thực nghiệm",
		DefaultPassword: "iclc2025",
		GroupTagsBefore: []string{"FTDP"},
		GroupTagsAfter:  []string{"TKTC"},
	}
}

func TestSortByEmail(t *testing.T) {
	leads := []domain.LeadRecord{
		{ID: "1", Email: ""},
		{ID: "2", Email: "b@x.com"},
		{ID: "3", Email: "A@x.com"},
		{ID: "4", Email: "  "},
		{ID: "5", Email: "a@x.com"},
		{ID: "6", Email: "B@x.com"},
	}

	got := SortByEmail(leads)

	var ids []string
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"3", "5", "2", "6", "1", "4"}, ids)
	assert.Equal(t, "1", leads[0].ID, "input must not be reordered")
}

func TestBuildSpreadsheet(t *testing.T) {
	leads := []domain.LeadRecord{
		{ID: "10", StudentName: "nguyễn văn an", ParentName: "TRẦN THỊ BÌNH", Email: "z@x.com", Phone: "+84 903 123 456",
			SchoolName: "Hòa Bình", Ward: "Sài Gòn", Grade: "Khối 3", ClassName: "3A"},
		{ID: "11", StudentName: "Lê Chi", Email: "a@x.com", Phone: "903.123.456",
			SchoolName: "Kim Đồng", Ward: "Phường Gò Vấp", Grade: "Khối 4", Disabled: true},
		{ID: "12", StudentName: "Dũng", Email: "", SchoolName: "Unknown", Ward: "Nowhere"},
	}
	opts := TemplateOptions{Usernames: map[string]string{"10": "z@x.com", "11": "a@x.com2"}}

	doc := BuildSpreadsheet(leads, testCatalog(), opts)

	require.Len(t, doc.Sheets, 1)
	sheet := doc.Sheets[0]
	assert.Equal(t, TemplateSheetName, sheet.Name)
	assert.Len(t, sheet.Columns, 15)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, []any{
		"", "", "Lê Chi", "a@x.com2", "a@x.com", "0903123456", "iclc2025", "3", "0", "1", "",
		"Kim Đồng - Phường Gò Vấp", "", "FTDP, tih-Kim Dong Phuong Go Vap, TKTC",
		"Tiếng Anh Toán - Khoa học thực nghiệm (k4)",
	}, sheet.Rows[0].Values)
	assert.Equal(t, Style{}, sheet.Rows[0].Style)

	assert.Equal(t, []any{
		"", "", "Nguyễn Văn An", "z@x.com", "z@x.com", "0903123456", "iclc2025", "3", "1", "0", "Trần Thị Bình",
		"Hòa Bình - Sài Gòn", "3A", "FTDP, tih-Hoa Binh Sai Gon, TKTC",
		"Tiếng Anh Toán - Khoa học thực nghiệm (khối 3)",
	}, sheet.Rows[1].Values)

	// blank email sorts last and has no curriculum
	assert.Equal(t, "Dũng", sheet.Rows[2].Values[2])
	assert.Equal(t, "", sheet.Rows[2].Values[3])
	assert.Equal(t, "", sheet.Rows[2].Values[14])
	assert.Equal(t, UnmappedFill, sheet.Rows[2].Style.Fill)
}

func TestBuildSpreadsheet_DuplicateFillWins(t *testing.T) {
	leads := []domain.LeadRecord{
		{ID: "1", StudentName: "An", Email: "a@x.com", SchoolName: "Nowhere", Ward: "X"},
		{ID: "2", StudentName: "an", Email: "A@x.com", SchoolName: "Nowhere", Ward: "X"},
		{ID: "3", StudentName: "Bình", Email: "b@x.com", SchoolName: "Hòa Bình", Ward: "Sài Gòn"},
	}

	doc := BuildSpreadsheet(leads, testCatalog(), TemplateOptions{})

	rows := doc.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, DuplicateFill, rows[0].Style.Fill)
	assert.Equal(t, DuplicateFill, rows[1].Style.Fill)
	assert.Equal(t, "", rows[2].Style.Fill)
}

func TestCourseName(t *testing.T) {
	tests := []struct {
		name       string
		curriculum domain.Curriculum
		grade      string
		want       string
	}{
		{name: "old scheme", curriculum: domain.CurriculumOld, grade: "Khối 2", want: "P (khối 2)"},
		{name: "new scheme", curriculum: domain.CurriculumNew, grade: "Khối 5", want: "P (k5)"},
		{name: "single token grade", curriculum: domain.CurriculumNew, grade: "5", want: "P (k5)"},
		{name: "unmapped", curriculum: "", grade: "Khối 1", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CourseName("P", tt.curriculum, tt.grade))
		})
	}
}

func TestGradeNumber(t *testing.T) {
	assert.Equal(t, "3", GradeNumber("Khối 3"))
	assert.Equal(t, "10", GradeNumber("10"))
	assert.Equal(t, "", GradeNumber("  "))
}

func TestGroupTags(t *testing.T) {
	assert.Equal(t, "FTDP, tih-Dinh Tien Hoang Tan Dinh, TKTC", GroupTags(testCatalog(), "Đinh Tiên Hoàng", "Tân Định"))
	assert.Equal(t, "tih-A", GroupTags(domain.Catalog{}, "A", ""))
}
