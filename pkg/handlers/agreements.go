package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/services"
)

// AgreementListResponse for GET /api/agreements
type AgreementListResponse struct {
	Agreements []*models.AgreementView `json:"agreements"`
	Total      int                     `json:"total"`
}

// StatusHistoryResponse for GET /api/agreements/{aid}/history
type StatusHistoryResponse struct {
	Transitions []models.StatusTransition `json:"transitions"`
	Total       int                       `json:"total"`
}

// AgreementHandler handles agreement HTTP requests.
type AgreementHandler struct {
	ledger services.LedgerService
	logger *zap.Logger
}

// NewAgreementHandler creates a new agreement handler.
func NewAgreementHandler(ledger services.LedgerService, logger *zap.Logger) *AgreementHandler {
	return &AgreementHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers the agreement handler's routes on the given mux.
func (h *AgreementHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agreements", h.List)
	mux.HandleFunc("POST /api/agreements", h.Create)
	mux.HandleFunc("GET /api/agreements/{aid}", h.Get)
	mux.HandleFunc("PUT /api/agreements/{aid}", h.Update)
	mux.HandleFunc("DELETE /api/agreements/{aid}", h.Delete)
	mux.HandleFunc("GET /api/agreements/{aid}/history", h.History)
}

// List handles GET /api/agreements
func (h *AgreementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AgreementFilter{
		Status:          models.AgreementStatus(q.Get("status")),
		AccountManager:  q.Get("account_manager"),
		CustomerName:    q.Get("customer_name"),
		Region:          q.Get("region"),
		Industry:        q.Get("industry"),
		CustomerSegment: models.CustomerSegment(q.Get("customer_segment")),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_status", "Unknown status filter"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if filter.CustomerSegment != "" && !filter.CustomerSegment.Valid() {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_customer_segment", "Unknown customer segment filter"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	views, err := h.ledger.ListAgreements(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list agreements", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "list_agreements_failed")
		return
	}

	response := AgreementListResponse{
		Agreements: views,
		Total:      len(views),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/agreements
func (h *AgreementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a models.Agreement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	id, err := h.ledger.CreateAgreement(r.Context(), &a)
	if err != nil {
		h.logger.Error("Failed to create agreement",
			zap.String("agreement_name", a.Name),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "create_agreement_failed")
		return
	}

	view, err := h.ledger.GetAgreement(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get created agreement",
			zap.String("agreement_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "get_agreement_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: view}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/agreements/{aid}
func (h *AgreementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.ledger.GetAgreement(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get agreement",
			zap.String("agreement_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "get_agreement_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: view}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/agreements/{aid}
// Partial update semantics: fields absent from the body are left untouched.
func (h *AgreementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	var upd models.AgreementUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	view, err := h.ledger.UpdateAgreement(r.Context(), id, &upd)
	if err != nil {
		h.logger.Error("Failed to update agreement",
			zap.String("agreement_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "update_agreement_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: view}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/agreements/{aid}
func (h *AgreementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	removed, err := h.ledger.DeleteAgreement(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete agreement",
			zap.String("agreement_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "delete_agreement_failed")
		return
	}

	if !removed {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Agreement not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/agreements/{aid}/history
func (h *AgreementHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAgreementID(w, r, h.logger)
	if !ok {
		return
	}

	transitions, err := h.ledger.GetStatusHistory(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get status history",
			zap.String("agreement_id", id),
			zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "get_status_history_failed")
		return
	}

	response := StatusHistoryResponse{
		Transitions: transitions,
		Total:       len(transitions),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
