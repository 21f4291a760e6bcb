package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/store"
)

// RegisterAccountRequest represents the input for account registration.
type RegisterAccountRequest struct {
	ParticipantID string
	Balance       decimal.Decimal
	Items         []domain.Item
}

// AccountService handles participant account registration and lookup.
type AccountService struct {
	accounts *store.AccountStore
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts *store.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// Register validates the request and creates the account with its
// starting balance and inventory.
func (s *AccountService) Register(req RegisterAccountRequest) (*domain.Account, error) {
	if err := validParticipantID(req.ParticipantID); err != nil {
		return nil, err
	}
	if req.Balance.IsNegative() {
		return nil, &domain.ValidationError{Message: "balance must be non-negative"}
	}
	if req.Balance.Exponent() < -2 {
		return nil, &domain.ValidationError{Message: "balance must have at most 2 decimal places"}
	}
	// Reuse the offer item rules for the starting inventory.
	if err := (domain.Offer{Money: decimal.Zero, Items: req.Items}).Validate(); err != nil {
		return nil, err
	}

	a := &domain.Account{
		ParticipantID: req.ParticipantID,
		Balance:       req.Balance,
		Inventory:     make(map[string]*domain.InventoryEntry, len(req.Items)),
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	for _, item := range req.Items {
		a.Inventory[item.ItemID] = &domain.InventoryEntry{
			Name:     item.Name,
			Quantity: item.Quantity,
		}
	}

	if err := s.accounts.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get retrieves an account by participant ID.
func (s *AccountService) Get(participantID string) (*domain.Account, error) {
	return s.accounts.Get(participantID)
}
