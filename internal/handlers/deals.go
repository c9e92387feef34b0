package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/export"
	"lead-reconciliation/internal/report"
	"lead-reconciliation/internal/usecase"
)

// maxBodyBytes bounds uploaded lead batches.
const maxBodyBytes = 64 << 20

// ReconciliationService is the use case surface the HTTP API drives.
type ReconciliationService interface {
	FetchLeads(ctx context.Context) ([]domain.LeadRecord, error)
	Template(ctx context.Context, leads []domain.LeadRecord) (*usecase.TemplateResult, error)
	Analyze(leads []domain.LeadRecord) (*usecase.AnalysisResult, error)
	Export(leads []domain.LeadRecord, opts export.Options) (*export.Bundle, error)
	SalesReport(ctx context.Context) (*usecase.SalesResult, error)
	DisableLead(ctx context.Context, id string) error
}

// ListDealsResponse is the body of GET /api/deals.
type ListDealsResponse struct {
	Success bool                `json:"success"`
	Data    []domain.LeadRecord `json:"data"`
	Count   int                 `json:"count"`
	// FetchTime is the CRM round trip in milliseconds.
	FetchTime int64 `json:"fetchTime"`
}

// AnalyticsRequest is the body of POST /api/deals/analytics.
type AnalyticsRequest struct {
	Data   []domain.LeadRecord `json:"data"`
	Filter *report.Filter      `json:"filter,omitempty"`
}

// AnalyticsResponse is the body returned by POST /api/deals/analytics.
type AnalyticsResponse struct {
	Success   bool                    `json:"success"`
	Analytics *usecase.AnalysisResult `json:"analytics"`
}

// TemplateRequest is the body of POST /api/deals/template.
type TemplateRequest struct {
	Deals []domain.LeadRecord `json:"deals"`
}

// ExportRequest is the body of POST /api/deals/export.
type ExportRequest struct {
	Format            string              `json:"format"`
	IncludeSummary    bool                `json:"includeSummary"`
	IncludeDeals      bool                `json:"includeDeals"`
	IncludeDuplicates bool                `json:"includeDuplicates"`
	Grouped           *bool               `json:"grouped,omitempty"` // defaults to true
	Selections        map[string][]string `json:"selections,omitempty"`
	Filter            *report.Filter      `json:"filter,omitempty"`
	Data              []domain.LeadRecord `json:"data"`
}

// UpdateRequest is the body of POST /api/deals/update.
type UpdateRequest struct {
	ID string `json:"id"`
}

// DealsHandler serves the operator endpoints over lead batches.
type DealsHandler struct {
	service ReconciliationService
	logger  *zap.Logger
	now     func() time.Time
}

// NewDealsHandler creates a new deals handler.
func NewDealsHandler(service ReconciliationService, logger *zap.Logger) *DealsHandler {
	return &DealsHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes registers the deals handler's routes on the given mux.
// Every route requires the admin credentials.
func (h *DealsHandler) RegisterRoutes(mux *http.ServeMux, auth *BasicAuth) {
	mux.HandleFunc("GET /api/deals", auth.Require(h.List))
	mux.HandleFunc("POST /api/deals/analytics", auth.Require(h.Analytics))
	mux.HandleFunc("POST /api/deals/template", auth.Require(h.Template))
	mux.HandleFunc("POST /api/deals/export", auth.Require(h.Export))
	mux.HandleFunc("POST /api/deals/update", auth.Require(h.Update))
}

// List handles GET /api/deals
// Returns the current lead batch from the CRM.
func (h *DealsHandler) List(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	leads, err := h.service.FetchLeads(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch deals", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "fetch_failed", "Failed to fetch deals")
		return
	}
	if leads == nil {
		leads = []domain.LeadRecord{}
	}

	response := ListDealsResponse{
		Success:   true,
		Data:      leads,
		Count:     len(leads),
		FetchTime: h.now().Sub(start).Milliseconds(),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Analytics handles POST /api/deals/analytics
// Returns distributions, school-ward statistics and duplicate groups of the
// posted batch, optionally narrowed by a filter first.
func (h *DealsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	var req AnalyticsRequest
	if !h.decode(w, r, &req) {
		return
	}
	leads := req.Data
	if req.Filter != nil {
		leads = req.Filter.Apply(leads)
	}

	res, err := h.service.Analyze(leads)
	if err != nil {
		h.handleUseCaseError(w, err, "Failed to analyze deals")
		return
	}
	if err := WriteJSON(w, http.StatusOK, AnalyticsResponse{Success: true, Analytics: res}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Template handles POST /api/deals/template
// Returns the account-issuance workbook as an attachment.
func (h *DealsHandler) Template(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Template(r.Context(), req.Deals)
	if err != nil {
		h.handleUseCaseError(w, err, "Failed to build template")
		return
	}

	var buf bytes.Buffer
	if err := export.RenderXLSX(&buf, res.Document); err != nil {
		h.logger.Error("Failed to render template", zap.String("run_id", res.RunID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "render_failed", "Failed to render template")
		return
	}

	name := fmt.Sprintf("template-export-%s.xlsx", h.now().In(report.Location).Format(time.DateOnly))
	w.Header().Set("X-Run-Id", res.RunID)
	h.writeFile(w, export.ContentTypeXLSX, name, buf.Bytes())
}

// Export handles POST /api/deals/export
// Returns the requested operator sections as XLSX, CSV (zipped when there
// is more than one sheet) or JSON.
func (h *DealsHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !h.decode(w, r, &req) {
		return
	}

	format, ok := export.ParseFormat(req.Format)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_format", "Format must be xlsx, csv or json")
		return
	}
	opts := export.Options{
		Summary:    req.IncludeSummary,
		Deals:      req.IncludeDeals,
		Duplicates: req.IncludeDuplicates,
		Flat:       req.Grouped != nil && !*req.Grouped,
		Selections: req.Selections,
	}
	leads := req.Data
	if req.Filter != nil {
		leads = req.Filter.Apply(leads)
	}

	bundle, err := h.service.Export(leads, opts)
	if err != nil {
		h.handleUseCaseError(w, err, "Failed to export deals")
		return
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, bundle, format); err != nil {
		h.logger.Error("Failed to render export", zap.String("format", string(format)), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "render_failed", "Failed to render export")
		return
	}
	out := export.OutputFor(bundle, format)
	h.writeFile(w, out.ContentType, export.FileName(opts, out.Ext, h.now()), buf.Bytes())
}

// Update handles POST /api/deals/update
// Soft-disables one deal in the CRM.
func (h *DealsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.DisableLead(r.Context(), req.ID); err != nil {
		if errors.Is(err, usecase.ErrMissingLeadID) {
			h.writeError(w, http.StatusBadRequest, "missing_id", "Deal ID is required")
			return
		}
		h.logger.Error("Failed to disable deal", zap.String("lead_id", req.ID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "update_failed", err.Error())
		return
	}

	response := ApiResponse{Success: true, Message: fmt.Sprintf("Deal %s marked as disabled", req.ID)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DealsHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

func (h *DealsHandler) handleUseCaseError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, usecase.ErrNoLeads):
		h.writeError(w, http.StatusBadRequest, "no_leads", "No deals provided")
	case errors.Is(err, export.ErrNothingToExport):
		h.writeError(w, http.StatusBadRequest, "nothing_to_export", "Nothing to export for the selected options")
	default:
		h.logger.Error(message, zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", message)
	}
}

func (h *DealsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *DealsHandler) writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write file response", zap.String("file", name), zap.Error(err))
	}
}
