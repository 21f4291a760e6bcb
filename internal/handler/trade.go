package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/service"
)

// TradeHandler handles HTTP requests for trade session endpoints.
type TradeHandler struct {
	tradeSvc *service.TradeService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeSvc *service.TradeService) *TradeHandler {
	return &TradeHandler{tradeSvc: tradeSvc}
}

// itemPayload is a single item in offer requests and responses.
type itemPayload struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// offerPayload is one side's offer in requests and responses. Money is
// a decimal string.
type offerPayload struct {
	Money decimal.Decimal `json:"money"`
	Items []itemPayload   `json:"items"`
}

// sessionResponse is the JSON representation of a session snapshot.
type sessionResponse struct {
	SessionID          string       `json:"session_id"`
	InitiatorID        string       `json:"initiator_id"`
	InviteeID          string       `json:"invitee_id"`
	State              string       `json:"state"`
	InitiatorOffer     offerPayload `json:"initiator_offer"`
	InviteeOffer       offerPayload `json:"invitee_offer"`
	InitiatorReady     bool         `json:"initiator_ready"`
	InviteeReady       bool         `json:"invitee_ready"`
	InitiatorConfirmed bool         `json:"initiator_confirmed"`
	InviteeConfirmed   bool         `json:"invitee_confirmed"`
	CreatedAt          string       `json:"created_at"`
	ExpiresAt          string       `json:"expires_at"`
	RemainingMS        int64        `json:"remaining_ms"`
}

func toItemPayloads(items []domain.Item) []itemPayload {
	out := make([]itemPayload, 0, len(items))
	for _, it := range items {
		out = append(out, itemPayload{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity})
	}
	return out
}

func toOfferPayload(o domain.Offer) offerPayload {
	return offerPayload{Money: o.Money, Items: toItemPayloads(o.Items)}
}

func toSessionResponse(snap domain.SessionSnapshot) sessionResponse {
	return sessionResponse{
		SessionID:          snap.SessionID,
		InitiatorID:        snap.InitiatorID,
		InviteeID:          snap.InviteeID,
		State:              string(snap.State),
		InitiatorOffer:     toOfferPayload(snap.OfferA),
		InviteeOffer:       toOfferPayload(snap.OfferB),
		InitiatorReady:     snap.ReadyA,
		InviteeReady:       snap.ReadyB,
		InitiatorConfirmed: snap.ConfirmedA,
		InviteeConfirmed:   snap.ConfirmedB,
		CreatedAt:          snap.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:          snap.ExpiresAt.UTC().Format(time.RFC3339),
		RemainingMS:        snap.Remaining.Milliseconds(),
	}
}

// createTradeRequest is the JSON request body for POST /trades.
type createTradeRequest struct {
	InitiatorID string `json:"initiator_id"`
	InviteeID   string `json:"invitee_id"`
}

// CreateTrade handles POST /trades.
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	snap, err := h.tradeSvc.CreateTrade(req.InitiatorID, req.InviteeID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toSessionResponse(snap))
}

// Status handles GET /trades/{session_id}?participant_id=.
func (h *TradeHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	callerID := r.URL.Query().Get("participant_id")
	if callerID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "participant_id query parameter is required")
		return
	}

	snap, err := h.tradeSvc.Status(sessionID, callerID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// Current handles GET /participants/{participant_id}/trade.
func (h *TradeHandler) Current(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	snap, err := h.tradeSvc.CurrentSession(participantID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// setOfferRequest is the JSON request body for PUT /participants/{id}/offer.
type setOfferRequest struct {
	Money decimal.Decimal `json:"money"`
	Items []itemPayload   `json:"items"`
}

// SetOffer handles PUT /participants/{participant_id}/offer.
func (h *TradeHandler) SetOffer(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	var req setOfferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	offer := domain.Offer{Money: req.Money}
	for _, it := range req.Items {
		offer.Items = append(offer.Items, domain.Item{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity})
	}

	snap, err := h.tradeSvc.SetOffer(participantID, offer)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// setReadyRequest is the JSON request body for PUT /participants/{id}/ready.
type setReadyRequest struct {
	Ready bool `json:"ready"`
}

// SetReady handles PUT /participants/{participant_id}/ready.
func (h *TradeHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	var req setReadyRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	snap, err := h.tradeSvc.SetReady(participantID, req.Ready)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// Confirm handles POST /participants/{participant_id}/confirm. A failed
// transfer returns 409 with the reverted session so the client can
// adjust offers and retry.
func (h *TradeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	snap, err := h.tradeSvc.Confirm(participantID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// Cancel handles POST /participants/{participant_id}/cancel.
func (h *TradeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	snap, err := h.tradeSvc.Cancel(participantID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}

// Decline handles POST /participants/{participant_id}/decline.
func (h *TradeHandler) Decline(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	snap, err := h.tradeSvc.Decline(participantID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(snap))
}
