package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryEntry tracks how many units of one item a participant holds.
type InventoryEntry struct {
	Name     string
	Quantity int64
}

// Account holds a participant's balance and item inventory. The engine
// only ever touches accounts through the transfer executor; accounts
// exist so the swap has something real to validate against.
type Account struct {
	ParticipantID string
	Balance       decimal.Decimal
	Inventory     map[string]*InventoryEntry // item_id → entry
	CreatedAt     time.Time
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := &Account{
		ParticipantID: a.ParticipantID,
		Balance:       a.Balance,
		Inventory:     make(map[string]*InventoryEntry, len(a.Inventory)),
		CreatedAt:     a.CreatedAt,
	}
	for id, e := range a.Inventory {
		entry := *e
		c.Inventory[id] = &entry
	}
	return c
}
