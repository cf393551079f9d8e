package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ParseAgreementID extracts and validates the agreement ID from the request
// path. Returns the ID and true on success, or "" and false on error (after
// writing an error response).
// Expects path parameter: aid
func ParseAgreementID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePrefixedID(w, r, "aid", "AGR-", "invalid_agreement_id", "Invalid agreement ID format", logger)
}

// ParsePOID extracts and validates the purchase order ID from the request
// path. Returns the ID and true on success, or "" and false on error (after
// writing an error response).
// Expects path parameter: poid
func ParsePOID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePrefixedID(w, r, "poid", "PO-", "invalid_po_id", "Invalid purchase order ID format", logger)
}

// parsePrefixedID is the internal helper that does the actual parsing work.
func parsePrefixedID(w http.ResponseWriter, r *http.Request, pathParam, prefix, errorCode, errorMessage string, logger *zap.Logger) (string, bool) {
	id := r.PathValue(pathParam)
	if !strings.HasPrefix(id, prefix) || len(id) == len(prefix) {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return id, true
}
