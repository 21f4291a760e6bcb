package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/service"
)

// CallbackHandler handles HTTP requests for notification callback
// endpoints.
type CallbackHandler struct {
	notifySvc *service.NotifyService
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(notifySvc *service.NotifyService) *CallbackHandler {
	return &CallbackHandler{notifySvc: notifySvc}
}

// subscribeRequest is the JSON request body for POST /callbacks.
type subscribeRequest struct {
	ParticipantID string   `json:"participant_id"`
	URL           string   `json:"url"`
	Events        []string `json:"events"`
}

// callbackResponse is the JSON response for callback registration.
type callbackResponse struct {
	ParticipantID string   `json:"participant_id"`
	URL           string   `json:"url"`
	Events        []string `json:"events"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toCallbackResponse(cb *domain.Callback) callbackResponse {
	return callbackResponse{
		ParticipantID: cb.ParticipantID,
		URL:           cb.URL,
		Events:        cb.Events,
		CreatedAt:     cb.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     cb.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Subscribe handles POST /callbacks. Returns 201 when a new callback
// was registered, 200 when an existing one was replaced.
func (h *CallbackHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cb, created, err := h.notifySvc.Subscribe(service.SubscribeRequest{
		ParticipantID: req.ParticipantID,
		URL:           req.URL,
		Events:        req.Events,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, toCallbackResponse(cb))
}

// Unsubscribe handles DELETE /callbacks/{participant_id}.
func (h *CallbackHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	if err := h.notifySvc.Unsubscribe(participantID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
