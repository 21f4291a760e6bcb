package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// registerAccountRequest is the JSON request body for POST /accounts.
type registerAccountRequest struct {
	ParticipantID string          `json:"participant_id"`
	Balance       decimal.Decimal `json:"balance"`
	Items         []itemPayload   `json:"items"`
}

// accountResponse is the JSON response for account endpoints.
type accountResponse struct {
	ParticipantID string          `json:"participant_id"`
	Balance       decimal.Decimal `json:"balance"`
	Items         []itemPayload   `json:"items"`
	CreatedAt     string          `json:"created_at"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	items := make([]itemPayload, 0, len(a.Inventory))
	for id, e := range a.Inventory {
		items = append(items, itemPayload{ItemID: id, Name: e.Name, Quantity: e.Quantity})
	}
	// Map iteration order is random; keep the response stable.
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })

	return accountResponse{
		ParticipantID: a.ParticipantID,
		Balance:       a.Balance,
		Items:         items,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register handles POST /accounts.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items := make([]domain.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.Item{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity})
	}

	a, err := h.accountSvc.Register(service.RegisterAccountRequest{
		ParticipantID: req.ParticipantID,
		Balance:       req.Balance,
		Items:         items,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAccountResponse(a))
}

// Get handles GET /accounts/{participant_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participant_id")

	a, err := h.accountSvc.Get(participantID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAccountResponse(a))
}
