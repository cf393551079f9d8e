package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/services"
)

// TransferHandler handles CSV export and import endpoints.
type TransferHandler struct {
	transfer services.TransferService
	logger   *zap.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(transfer services.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		transfer: transfer,
		logger:   logger,
	}
}

// RegisterRoutes registers the transfer handler's routes on the given mux.
func (h *TransferHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/export/agreements", h.ExportAgreements)
	mux.HandleFunc("GET /api/export/pos", h.ExportPOs)
	mux.HandleFunc("POST /api/import/agreements", h.ImportAgreements)
	mux.HandleFunc("POST /api/import/pos", h.ImportPOs)
}

// ExportAgreements handles GET /api/export/agreements
func (h *TransferHandler) ExportAgreements(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=agreements_%s.csv", time.Now().Format("2006-01-02")))

	if err := h.transfer.ExportAgreementsCSV(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("Failed to export agreements", zap.Error(err))
	}
}

// ExportPOs handles GET /api/export/pos
func (h *TransferHandler) ExportPOs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=purchase_orders_%s.csv", time.Now().Format("2006-01-02")))

	if err := h.transfer.ExportPOsCSV(r.Context(), w); err != nil {
		h.logger.Error("Failed to export purchase orders", zap.Error(err))
	}
}

// ImportAgreements handles POST /api/import/agreements
// The request body is the CSV file itself.
func (h *TransferHandler) ImportAgreements(w http.ResponseWriter, r *http.Request) {
	result, err := h.transfer.ImportAgreementsCSV(r.Context(), r.Body)
	if err != nil {
		h.logger.Error("Failed to import agreements", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "import_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ImportPOs handles POST /api/import/pos
// The request body is the CSV file itself.
func (h *TransferHandler) ImportPOs(w http.ResponseWriter, r *http.Request) {
	result, err := h.transfer.ImportPOsCSV(r.Context(), r.Body)
	if err != nil {
		h.logger.Error("Failed to import purchase orders", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "import_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
