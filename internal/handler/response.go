package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mveiga/tradepost/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status
// code, error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// domainStatus maps sentinel errors to HTTP status codes.
var domainStatus = map[error]int{
	domain.ErrSelfTrade:            http.StatusBadRequest,
	domain.ErrAlreadyInSession:     http.StatusConflict,
	domain.ErrNoSuchSession:        http.StatusNotFound,
	domain.ErrNotParticipant:       http.StatusForbidden,
	domain.ErrNotInvitee:           http.StatusForbidden,
	domain.ErrNotReady:             http.StatusConflict,
	domain.ErrAlreadyConfirmed:     http.StatusConflict,
	domain.ErrOfferLocked:          http.StatusConflict,
	domain.ErrTransferFailed:       http.StatusConflict,
	domain.ErrAccountAlreadyExists: http.StatusConflict,
	domain.ErrAccountNotFound:      http.StatusNotFound,
	domain.ErrCallbackNotFound:     http.StatusNotFound,
}

// WriteDomainError maps a service error to the standard error response.
// Validation errors are 400; unknown errors are 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
		return
	}
	for sentinel, status := range domainStatus {
		if errors.Is(err, sentinel) {
			WriteError(w, status, sentinel.Error(), err.Error())
			return
		}
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
}
