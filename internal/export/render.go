package export

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"lead-reconciliation/internal/normalize"
)

const utf8BOM = "\ufeff"

// RenderXLSX writes every sheet of doc into one workbook.
func RenderXLSX(w io.Writer, doc *Document) error {
	if doc == nil || len(doc.Sheets) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	styles := &styleCache{file: f, ids: make(map[Style]int)}
	for i, sheet := range doc.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("could not name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("could not add sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, styles, sheet); err != nil {
			return fmt.Errorf("could not write sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, styles *styleCache, sheet Sheet) error {
	if len(sheet.Columns) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(sheet.Columns))
	if err != nil {
		return err
	}

	for i, c := range sheet.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, name, name, c.Width); err != nil {
			return err
		}
	}

	headers := make([]any, len(sheet.Columns))
	for i, h := range sheet.Headers() {
		headers[i] = h
	}
	rows := append([]Row{{Values: headers, Style: HeaderStyle}}, sheet.Rows...)

	for r, row := range rows {
		first, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := row.Values
		if err := f.SetSheetRow(sheet.Name, first, &values); err != nil {
			return err
		}
		id, err := styles.get(row.Style)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, first, fmt.Sprintf("%s%d", lastCol, r+1), id); err != nil {
			return err
		}
	}
	return nil
}

// styleCache registers each distinct row style with the workbook once.
type styleCache struct {
	file *excelize.File
	ids  map[Style]int
}

func (c *styleCache) get(s Style) (int, error) {
	if id, ok := c.ids[s]; ok {
		return id, nil
	}

	border := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "right", "bottom"} {
		border = append(border, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	style := &excelize.Style{Border: border}
	if s.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	if s.Bold || s.FontColor != "" {
		style.Font = &excelize.Font{Bold: s.Bold, Color: s.FontColor}
	}
	if s == HeaderStyle {
		style.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	}

	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("could not register style: %w", err)
	}
	c.ids[s] = id
	return id, nil
}

// RenderCSV writes one sheet as UTF-8 CSV with a byte-order mark so
// spreadsheet tools detect the encoding.
func RenderCSV(w io.Writer, sheet Sheet) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Headers()); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}
	for _, row := range sheet.Rows {
		record := make([]string, len(row.Values))
		for i, v := range row.Values {
			record[i] = fmt.Sprint(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("could not write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderCSVArchive writes one CSV per sheet into a zip archive.
func RenderCSVArchive(w io.Writer, doc *Document) error {
	if doc == nil || len(doc.Sheets) == 0 {
		return ErrNothingToExport
	}
	zw := zip.NewWriter(w)
	for _, sheet := range doc.Sheets {
		entry, err := zw.Create(FileSlug(sheet.Name) + ".csv")
		if err != nil {
			return fmt.Errorf("could not add %q to archive: %w", sheet.Name, err)
		}
		if err := RenderCSV(entry, sheet); err != nil {
			return err
		}
	}
	return zw.Close()
}

// RenderJSON writes the bundle as indented JSON.
func RenderJSON(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("could not encode export: %w", err)
	}
	return nil
}

// FileSlug turns a sheet name into a file-name fragment.
func FileSlug(name string) string {
	name = strings.ToLower(normalize.RemoveTones(strings.TrimSpace(name)))
	var b strings.Builder
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Output describes a rendered export file.
type Output struct {
	ContentType string
	Ext         string
}

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeZIP  = "application/zip"
	ContentTypeJSON = "application/json"
)

// OutputFor reports what Render produces for b in format f. CSV with more
// than one sheet becomes a zip archive.
func OutputFor(b *Bundle, f Format) Output {
	switch f {
	case FormatJSON:
		return Output{ContentType: ContentTypeJSON, Ext: ".json"}
	case FormatCSV:
		if len(b.Document().Sheets) > 1 {
			return Output{ContentType: ContentTypeZIP, Ext: ".zip"}
		}
		return Output{ContentType: ContentTypeCSV, Ext: ".csv"}
	}
	return Output{ContentType: ContentTypeXLSX, Ext: ".xlsx"}
}

// Render writes b in format f.
func Render(w io.Writer, b *Bundle, f Format) error {
	switch f {
	case FormatJSON:
		return RenderJSON(w, b)
	case FormatCSV:
		doc := b.Document()
		if len(doc.Sheets) == 1 {
			return RenderCSV(w, doc.Sheets[0])
		}
		return RenderCSVArchive(w, doc)
	}
	return RenderXLSX(w, b.Document())
}
