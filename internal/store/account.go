package store

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
)

// AccountStore is a thread-safe in-memory store for participant
// accounts. It implements the engine's TransferExecutor: both legs of a
// swap run against it, each leg validating and committing under one
// lock so a failed leg leaves both accounts untouched.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if the participant is already
// registered.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ParticipantID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[a.ParticipantID] = a.Clone()
	return nil
}

// Get retrieves a copy of an account by participant ID. It returns
// domain.ErrAccountNotFound if the participant is not registered.
func (s *AccountStore) Get(participantID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[participantID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// Exists returns true if the participant has an account.
func (s *AccountStore) Exists(participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[participantID]
	return ok
}

// ApplyTransfer moves money and items from one participant to the
// other. Validation and commit happen under the store lock: the
// transfer either applies in full or returns an error with no state
// changed.
func (s *AccountStore) ApplyTransfer(from, to string, money decimal.Decimal, items []domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.accounts[from]
	if !ok {
		return domain.ErrAccountNotFound
	}
	dst, ok := s.accounts[to]
	if !ok {
		return domain.ErrAccountNotFound
	}

	// Validate the full leg before touching anything.
	if src.Balance.LessThan(money) {
		return domain.ErrInsufficientFunds
	}
	for _, item := range items {
		held, ok := src.Inventory[item.ItemID]
		if !ok || held.Quantity < item.Quantity {
			return domain.ErrInsufficientItems
		}
	}

	// Commit.
	src.Balance = src.Balance.Sub(money)
	dst.Balance = dst.Balance.Add(money)
	for _, item := range items {
		held := src.Inventory[item.ItemID]
		held.Quantity -= item.Quantity
		if held.Quantity == 0 {
			delete(src.Inventory, item.ItemID)
		}
		entry, ok := dst.Inventory[item.ItemID]
		if !ok {
			entry = &domain.InventoryEntry{Name: item.Name}
			if entry.Name == "" {
				entry.Name = held.Name
			}
			dst.Inventory[item.ItemID] = entry
		}
		entry.Quantity += item.Quantity
	}
	return nil
}
