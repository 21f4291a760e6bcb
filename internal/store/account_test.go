package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
)

func newTestAccount(id string, balance string, items map[string]int64) *domain.Account {
	a := &domain.Account{
		ParticipantID: id,
		Balance:       decimal.RequireFromString(balance),
		Inventory:     make(map[string]*domain.InventoryEntry),
		CreatedAt:     time.Now(),
	}
	for itemID, qty := range items {
		a.Inventory[itemID] = &domain.InventoryEntry{Name: itemID, Quantity: qty}
	}
	return a
}

func TestAccountStore_Create_Duplicate(t *testing.T) {
	s := NewAccountStore()

	if err := s.Create(newTestAccount("alice", "10.00", nil)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := s.Create(newTestAccount("alice", "20.00", nil)); !errors.Is(err, domain.ErrAccountAlreadyExists) {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
}

func TestAccountStore_Get_NotFound(t *testing.T) {
	s := NewAccountStore()
	if _, err := s.Get("ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStore_Get_ReturnsCopy(t *testing.T) {
	s := NewAccountStore()
	if err := s.Create(newTestAccount("alice", "10.00", map[string]int64{"gem": 5})); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	a, err := s.Get("alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	a.Balance = decimal.Zero
	a.Inventory["gem"].Quantity = 0

	b, _ := s.Get("alice")
	if !b.Balance.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("stored balance changed: %s", b.Balance)
	}
	if b.Inventory["gem"].Quantity != 5 {
		t.Errorf("stored inventory changed: %d", b.Inventory["gem"].Quantity)
	}
}

func TestAccountStore_ApplyTransfer(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount("alice", "10.00", map[string]int64{"gem": 5}))
	_ = s.Create(newTestAccount("bob", "1.00", nil))

	err := s.ApplyTransfer("alice", "bob",
		decimal.RequireFromString("2.50"),
		[]domain.Item{{ItemID: "gem", Name: "Gem", Quantity: 3}},
	)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	alice, _ := s.Get("alice")
	bob, _ := s.Get("bob")

	if !alice.Balance.Equal(decimal.RequireFromString("7.50")) {
		t.Errorf("alice balance = %s, want 7.50", alice.Balance)
	}
	if !bob.Balance.Equal(decimal.RequireFromString("3.50")) {
		t.Errorf("bob balance = %s, want 3.50", bob.Balance)
	}
	if alice.Inventory["gem"].Quantity != 2 {
		t.Errorf("alice gems = %d, want 2", alice.Inventory["gem"].Quantity)
	}
	if bob.Inventory["gem"].Quantity != 3 {
		t.Errorf("bob gems = %d, want 3", bob.Inventory["gem"].Quantity)
	}
}

func TestAccountStore_ApplyTransfer_FullQuantityRemovesEntry(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount("alice", "0", map[string]int64{"gem": 2}))
	_ = s.Create(newTestAccount("bob", "0", nil))

	err := s.ApplyTransfer("alice", "bob", decimal.Zero,
		[]domain.Item{{ItemID: "gem", Quantity: 2}})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	alice, _ := s.Get("alice")
	if _, ok := alice.Inventory["gem"]; ok {
		t.Error("fully transferred item should be removed from inventory")
	}
	bob, _ := s.Get("bob")
	// The entry name falls back to the source inventory's name when the
	// offered item carries none.
	if bob.Inventory["gem"].Name != "gem" {
		t.Errorf("bob gem name = %q, want %q", bob.Inventory["gem"].Name, "gem")
	}
}

func TestAccountStore_ApplyTransfer_InsufficientFunds(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount("alice", "1.00", map[string]int64{"gem": 5}))
	_ = s.Create(newTestAccount("bob", "0", nil))

	err := s.ApplyTransfer("alice", "bob",
		decimal.RequireFromString("1.01"),
		[]domain.Item{{ItemID: "gem", Quantity: 1}},
	)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The failed leg must not touch either account.
	alice, _ := s.Get("alice")
	if !alice.Balance.Equal(decimal.RequireFromString("1.00")) || alice.Inventory["gem"].Quantity != 5 {
		t.Error("failed transfer mutated the source account")
	}
	bob, _ := s.Get("bob")
	if !bob.Balance.IsZero() || len(bob.Inventory) != 0 {
		t.Error("failed transfer mutated the destination account")
	}
}

func TestAccountStore_ApplyTransfer_InsufficientItems(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount("alice", "10.00", map[string]int64{"gem": 1}))
	_ = s.Create(newTestAccount("bob", "0", nil))

	err := s.ApplyTransfer("alice", "bob",
		decimal.RequireFromString("5.00"),
		[]domain.Item{{ItemID: "gem", Quantity: 2}},
	)
	if !errors.Is(err, domain.ErrInsufficientItems) {
		t.Fatalf("expected ErrInsufficientItems, got %v", err)
	}

	alice, _ := s.Get("alice")
	if !alice.Balance.Equal(decimal.RequireFromString("10.00")) {
		t.Error("money moved even though the item check failed")
	}
}

func TestAccountStore_ApplyTransfer_UnknownAccount(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount("alice", "10.00", nil))

	if err := s.ApplyTransfer("alice", "ghost", decimal.Zero, nil); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := s.ApplyTransfer("ghost", "alice", decimal.Zero, nil); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
