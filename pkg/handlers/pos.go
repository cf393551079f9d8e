package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/services"
)

// POListResponse for PO list endpoints.
type POListResponse struct {
	POs   []models.PurchaseOrder `json:"pos"`
	Total int                    `json:"total"`
}

// POHandler handles purchase order HTTP requests.
type POHandler struct {
	ledger services.LedgerService
	logger *zap.Logger
}

// NewPOHandler creates a new purchase order handler.
func NewPOHandler(ledger services.LedgerService, logger *zap.Logger) *POHandler {
	return &POHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers the purchase order handler's routes on the given mux.
func (h *POHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agreements/{aid}/pos", h.ListByAgreement)
	mux.HandleFunc("POST /api/agreements/{aid}/pos", h.Create)
	mux.HandleFunc("GET /api/pos", h.ListAll)
	mux.HandleFunc("GET /api/pos/{poid}", h.Get)
	mux.HandleFunc("DELETE /api/pos/{poid}", h.Delete)
}

// ListByAgreement handles GET /api/agreements/{aid}/pos
func (h *POHandler) ListByAgreement(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	pos, err := h.ledger.ListPOs(r.Context(), agreementID)
	if err != nil {
		h.logger.Error("Failed to list purchase orders",
			zap.String("agreement_id", agreementID),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "list_pos_failed")
		return
	}

	response := POListResponse{
		POs:   pos,
		Total: len(pos),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/agreements/{aid}/pos
// The override_ceiling query parameter skips the ceiling check.
func (h *POHandler) Create(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	override, _ := strconv.ParseBool(r.URL.Query().Get("override_ceiling"))

	var po models.PurchaseOrder
	if err := json.NewDecoder(r.Body).Decode(&po); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	po.AgreementID = agreementID

	id, err := h.ledger.CreatePO(r.Context(), &po, override)
	if err != nil {
		h.logger.Error("Failed to create purchase order",
			zap.String("agreement_id", agreementID),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "create_po_failed")
		return
	}

	created, err := h.ledger.GetPO(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get created purchase order",
			zap.String("po_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "get_po_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListAll handles GET /api/pos
func (h *POHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	pos, err := h.ledger.ListAllPOs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list purchase orders", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "list_pos_failed")
		return
	}

	response := POListResponse{
		POs:   pos,
		Total: len(pos),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/pos/{poid}
func (h *POHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePOID(w, r, h.logger)
	if !ok {
		return
	}

	po, err := h.ledger.GetPO(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get purchase order",
			zap.String("po_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "get_po_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: po}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/pos/{poid}
// Ceilings are never re-validated on deletion.
func (h *POHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePOID(w, r, h.logger)
	if !ok {
		return
	}

	removed, err := h.ledger.DeletePO(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete purchase order",
			zap.String("po_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "delete_po_failed")
		return
	}

	if !removed {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Purchase order not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
