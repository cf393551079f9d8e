package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/apperrors"
)

// ApiResponse is the standard JSON envelope for API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ApiResponse{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceErrorResponse maps a service error onto the wire: validation
// failures are 400, unknown ids 404, state-machine and ceiling rejections
// 409. A ceiling rejection additionally carries the normalized amounts so
// clients can render a useful message. Anything else is a 500 with the
// given fallback code.
func ServiceErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	var transitionErr *apperrors.InvalidTransitionError
	var ceilingErr *apperrors.CeilingExceededError

	status := http.StatusInternalServerError
	code := fallbackCode

	switch {
	case errors.As(err, &ceilingErr):
		resp := ApiResponse{
			Success: false,
			Error:   "ceiling_exceeded",
			Message: ceilingErr.Error(),
			Data: map[string]string{
				"current_total": ceilingErr.CurrentTotal.StringFixed(2),
				"new_value":     ceilingErr.NewValue.StringFixed(2),
				"ceiling":       ceilingErr.Ceiling.StringFixed(2),
			},
		}
		if err := WriteJSON(w, http.StatusConflict, resp); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	case errors.As(err, &transitionErr):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, apperrors.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
