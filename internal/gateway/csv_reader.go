package gateway

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lead-reconciliation/internal/domain"
)

// ErrReadOnlySource is returned when a file-backed source is asked to disable a lead.
var ErrReadOnlySource = errors.New("lead source is read-only")

// exportHeaders maps the column titles of the deals export back to lead keys.
// Headers not listed here are used as keys verbatim, so CRM field codes and
// mapped names work too.
var exportHeaders = map[string]string{
	"Tên học sinh":        "studentName",
	"Tên phụ huynh":       "parentOfStudentName",
	"Khối":                "grade",
	"Lớp":                 "className",
	"Email":               "email",
	"Số điện thoại":       "phone",
	"Trường học":          "schoolName",
	"Phường/Quận":         "ward",
	"Địa chỉ":             "address",
	"Ngày tạo":            "createdAt",
	"Trường (PH tự nhập)": "schoolNameTmp",
}

// FileLeadRepository implements the LeadRepository interface for CSV and JSON files.
type FileLeadRepository struct {
	path string
}

// NewFileLeadRepository creates a new repository reading from path. The
// format is picked by extension: .json, anything else is CSV.
func NewFileLeadRepository(path string) *FileLeadRepository {
	return &FileLeadRepository{path: path}
}

// FetchLeads reads and parses the whole file.
func (r *FileLeadRepository) FetchLeads(ctx context.Context) ([]domain.LeadRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lead file %s: %w", r.path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(r.path), ".json") {
		return readJSONLeads(file, r.path)
	}
	return readCSVLeads(file, r.path)
}

// DisableLead always fails: files are a read-only source.
func (r *FileLeadRepository) DisableLead(ctx context.Context, id string) error {
	return fmt.Errorf("disable %s: %w", id, ErrReadOnlySource)
}

func readJSONLeads(rd io.Reader, path string) ([]domain.LeadRecord, error) {
	var raws []rawLead
	if err := json.NewDecoder(rd).Decode(&raws); err != nil {
		return nil, fmt.Errorf("could not decode leads from %s: %w", path, err)
	}
	leads := make([]domain.LeadRecord, 0, len(raws))
	for _, raw := range raws {
		leads = append(leads, raw.toLead())
	}
	return leads, nil
}

func readCSVLeads(rd io.Reader, path string) ([]domain.LeadRecord, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if k, ok := exportHeaders[h]; ok {
			h = k
		}
		keys[i] = h
	}

	var leads []domain.LeadRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}

		raw := make(rawLead, len(keys))
		for i, cell := range record {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			b, err := json.Marshal(cell)
			if err != nil {
				return nil, fmt.Errorf("could not encode cell %q: %w", cell, err)
			}
			raw[keys[i]] = b
		}
		leads = append(leads, raw.toLead())
	}
	return leads, nil
}
