package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/leadscout/internal/usecase"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError maps the usecase error taxonomy onto HTTP statuses. prefix is
// the status-line prefix used for non-validation failures.
func writeError(w http.ResponseWriter, prefix string, err error) {
	var vErr usecase.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: vErr.Message,
			Field:   vErr.Field,
		})
		return
	}

	var dErr *usecase.DomainError
	if errors.As(err, &dErr) {
		status := http.StatusConflict
		if errors.Is(err, usecase.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		writeErrorResponse(w, status, dErr.Code, dErr.Message)
		return
	}

	var uErr *usecase.UpstreamError
	if errors.As(err, &uErr) {
		status := http.StatusBadGateway
		if uErr.Service == "auth" {
			status = http.StatusUnauthorized
		}
		writeErrorResponse(w, status, "UPSTREAM_ERROR", prefix+": "+uErr.Message)
		return
	}

	var tErr *usecase.TechnicalError
	if errors.As(err, &tErr) {
		writeErrorResponse(w, http.StatusBadGateway, tErr.Code, prefix+": "+tErr.Error())
		return
	}

	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", prefix+": "+err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return false
	}
	return true
}
