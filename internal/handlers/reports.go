package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"lead-reconciliation/internal/usecase"
)

// SalesResponse is the body of GET /api/reports/sales.
type SalesResponse struct {
	Success bool `json:"success"`
	*usecase.SalesResult
}

// ReportsHandler serves the sales-facing reports.
type ReportsHandler struct {
	service ReconciliationService
	logger  *zap.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(service ReconciliationService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{service: service, logger: logger}
}

// RegisterRoutes registers the reports handler's routes on the given mux.
// Every route requires the sales credentials.
func (h *ReportsHandler) RegisterRoutes(mux *http.ServeMux, auth *BasicAuth) {
	mux.HandleFunc("GET /api/reports/sales", auth.Require(h.Sales))
}

// Sales handles GET /api/reports/sales
// Returns issued and logged-in accounts against registrations per school.
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.SalesReport(r.Context())
	if err != nil {
		h.logger.Error("Failed to build sales report", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to build sales report"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := WriteJSON(w, http.StatusOK, SalesResponse{Success: true, SalesResult: res}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
