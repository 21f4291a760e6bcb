package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/store"
)

func TestAccountService_Register(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	a, err := svc.Register(RegisterAccountRequest{
		ParticipantID: "alice",
		Balance:       decimal.RequireFromString("25.50"),
		Items: []domain.Item{
			{ItemID: "gem", Name: "Gem", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !a.Balance.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("balance = %s", a.Balance)
	}
	if a.Inventory["gem"] == nil || a.Inventory["gem"].Quantity != 3 {
		t.Errorf("inventory = %v", a.Inventory)
	}

	got, err := svc.Get("alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ParticipantID != "alice" {
		t.Errorf("participant = %q", got.ParticipantID)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	tests := []struct {
		name string
		req  RegisterAccountRequest
	}{
		{"bad id", RegisterAccountRequest{ParticipantID: "no spaces", Balance: decimal.Zero}},
		{"negative balance", RegisterAccountRequest{
			ParticipantID: "alice",
			Balance:       decimal.RequireFromString("-0.01"),
		}},
		{"too many decimals", RegisterAccountRequest{
			ParticipantID: "alice",
			Balance:       decimal.RequireFromString("1.001"),
		}},
		{"bad item quantity", RegisterAccountRequest{
			ParticipantID: "alice",
			Balance:       decimal.Zero,
			Items:         []domain.Item{{ItemID: "gem", Quantity: 0}},
		}},
		{"duplicate item ids", RegisterAccountRequest{
			ParticipantID: "alice",
			Balance:       decimal.Zero,
			Items: []domain.Item{
				{ItemID: "gem", Quantity: 1},
				{ItemID: "gem", Quantity: 2},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	if _, err := svc.Register(RegisterAccountRequest{ParticipantID: "alice", Balance: decimal.Zero}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := svc.Register(RegisterAccountRequest{ParticipantID: "alice", Balance: decimal.Zero})
	if !errors.Is(err, domain.ErrAccountAlreadyExists) {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
}
