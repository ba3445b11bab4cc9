package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"carepay-gateway/internal/domain"
)

type errorBody struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       string         `json:"type,omitempty"`
	ProviderID string         `json:"provider_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// StatusFor maps a gateway error onto an HTTP status code.
func StatusFor(err error) int {
	pe, ok := domain.AsPaymentError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if strings.HasSuffix(pe.Code, "_NOT_FOUND") {
		return http.StatusNotFound
	}
	switch pe.Code {
	case domain.CodeIntentAlreadyFinalized, domain.CodeIntentProcessing, domain.CodeInvalidTransition:
		return http.StatusConflict
	}
	switch pe.Type {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case domain.ErrorTypeProcessing:
		return http.StatusPaymentRequired
	case domain.ErrorTypeNetwork:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorBody{Code: "INTERNAL", Message: "internal error"}
	if pe, ok := domain.AsPaymentError(err); ok {
		body = errorBody{
			Code:       pe.Code,
			Message:    pe.Message,
			Type:       string(pe.Type),
			ProviderID: pe.ProviderID,
			Details:    pe.Details,
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]any{"error": body})
}
