package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/services"
)

// AnalyticsHandler exposes the read-side aggregations.
type AnalyticsHandler struct {
	analytics services.AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analytics/pipeline", h.Pipeline)
	mux.HandleFunc("GET /api/analytics/monetization", h.Monetization)
	mux.HandleFunc("GET /api/analytics/account-managers", h.AccountManagers)
	mux.HandleFunc("GET /api/analytics/aging-risk", h.AgingRisk)
	mux.HandleFunc("GET /api/analytics/forecast", h.Forecast)
}

// Pipeline handles GET /api/analytics/pipeline
func (h *AnalyticsHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.PipelineStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute pipeline stats", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "pipeline_stats_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Monetization handles GET /api/analytics/monetization
func (h *AnalyticsHandler) Monetization(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.MonetizationStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute monetization stats", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "monetization_stats_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AccountManagers handles GET /api/analytics/account-managers
func (h *AnalyticsHandler) AccountManagers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.AccountManagerStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute account manager stats", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "account_manager_stats_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AgingRisk handles GET /api/analytics/aging-risk
func (h *AnalyticsHandler) AgingRisk(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.analytics.AgingRiskMatrix(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute aging-risk matrix", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "aging_risk_matrix_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: matrix}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Forecast handles GET /api/analytics/forecast
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.ForecastData(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute forecast data", zap.Error(err))
		ServiceErrorResponse(w, h.logger, err, "forecast_data_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
