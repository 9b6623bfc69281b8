package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-insights/internal/database"
	"github.com/trogers1052/stock-insights/internal/screener"
)

// Error codes carried alongside the message of a failed response
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeExternalAPI      = "EXTERNAL_API_ERROR"
	ErrCodeParse            = "PARSE_ERROR"
)

// Response is the envelope of every API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Count     *int        `json:"count,omitempty"`
	Code      string      `json:"code,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := RequestIDFromContext(r.Context())

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Str("request_id", requestID).
		Str("error_code", code).
		Str("message", message).
		Int("status", status).
		Msg("API error response")

	respondJSON(w, status, Response{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

// respondErr maps a domain error onto a status code and error response
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case database.IsValidation(err):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case database.IsNotFound(err):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Stock not found")
	case errors.Is(err, screener.ErrMissingCredentials):
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, err.Error())
	case errors.Is(err, screener.ErrUnknownFilter):
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, err.Error())
	case errors.Is(err, screener.ErrCSRFTokenMissing):
		respondError(w, r, http.StatusBadRequest, ErrCodeExternalAPI, screener.ErrCSRFTokenMissing.Error())
	case errors.Is(err, screener.ErrSessionNotFound):
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, screener.ErrSessionNotFound.Error())
	case errors.Is(err, screener.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, screener.ErrInvalidCredentials.Error())
	case errors.Is(err, screener.ErrParse):
		respondError(w, r, http.StatusBadGateway, ErrCodeParse, screener.ErrParse.Error())
	case errors.Is(err, screener.ErrUpstreamFetch):
		respondError(w, r, http.StatusBadGateway, ErrCodeExternalAPI, screener.ErrUpstreamFetch.Error())
	default:
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("Unhandled error")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalServer, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

// maxBodyBytes bounds request bodies; imports of large screens are the biggest
const maxBodyBytes = 5 << 20
