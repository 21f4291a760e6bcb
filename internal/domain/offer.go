package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a single good inside an offer: an opaque item ID, a display
// name, and how many units are being offered.
type Item struct {
	ItemID   string
	Name     string
	Quantity int64
}

// Offer is the bundle one participant proposes to give up: a money
// amount plus an ordered list of items.
type Offer struct {
	Money decimal.Decimal
	Items []Item
}

// EmptyOffer returns an offer with zero money and no items. Sessions
// start with an empty offer on both sides.
func EmptyOffer() Offer {
	return Offer{Money: decimal.Zero}
}

// Clone returns a deep copy of the offer. The engine hands out clones
// so callers can never mutate session-owned state.
func (o Offer) Clone() Offer {
	c := Offer{Money: o.Money}
	if len(o.Items) > 0 {
		c.Items = make([]Item, len(o.Items))
		copy(c.Items, o.Items)
	}
	return c
}

// IsEmpty reports whether the offer carries no money and no items.
func (o Offer) IsEmpty() bool {
	return o.Money.IsZero() && len(o.Items) == 0
}

// Validate checks the offer against the monetary and item rules:
// non-negative money with at most 2 decimal places, non-empty item IDs,
// and positive item quantities. Returns a *ValidationError on failure.
func (o Offer) Validate() error {
	if o.Money.IsNegative() {
		return &ValidationError{Message: "money must be non-negative"}
	}
	if o.Money.Exponent() < -2 {
		return &ValidationError{Message: "money must have at most 2 decimal places"}
	}
	seen := make(map[string]bool, len(o.Items))
	for i, item := range o.Items {
		if item.ItemID == "" {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: item_id is required", i)}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: quantity must be a positive integer", i)}
		}
		if seen[item.ItemID] {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: duplicate item_id %q", i, item.ItemID)}
		}
		seen[item.ItemID] = true
	}
	return nil
}
