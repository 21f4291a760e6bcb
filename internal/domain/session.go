package domain

import (
	"sync"
	"time"
)

// SessionState represents the lifecycle state of a trade session.
type SessionState string

const (
	// SessionStatePending means the invitee has not yet interacted with
	// the session. The invitee's first offer or ready interaction is the
	// implicit accept that moves the session to active.
	SessionStatePending   SessionState = "pending"
	SessionStateActive    SessionState = "active"
	SessionStateCancelled SessionState = "cancelled"
	SessionStateDeclined  SessionState = "declined"
	SessionStateExpired   SessionState = "expired"
	SessionStateCompleted SessionState = "completed"
)

// Terminal reports whether the state admits no further transitions.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionStatePending, SessionStateActive:
		return false
	}
	return true
}

// TradeSession is the per-pair negotiation state machine. The initiator
// is side A, the invitee side B. All mutable fields are guarded by Mu;
// the registry is the only code that locks it.
type TradeSession struct {
	SessionID   string
	InitiatorID string
	InviteeID   string
	State       SessionState
	OfferA      Offer // initiator's offer
	OfferB      Offer // invitee's offer
	ReadyA      bool
	ReadyB      bool
	ConfirmedA  bool
	ConfirmedB  bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Mu          sync.Mutex // per-session lock for state mutations
}

// IsParticipant reports whether id is one of the two sides.
func (s *TradeSession) IsParticipant(id string) bool {
	return id == s.InitiatorID || id == s.InviteeID
}

// Counterpart returns the other side's participant ID. The caller must
// already know id is a participant.
func (s *TradeSession) Counterpart(id string) string {
	if id == s.InitiatorID {
		return s.InviteeID
	}
	return s.InitiatorID
}

// BothReady reports whether both sides have locked their offers.
func (s *TradeSession) BothReady() bool {
	return s.ReadyA && s.ReadyB
}

// BothConfirmed reports whether both sides have confirmed execution.
func (s *TradeSession) BothConfirmed() bool {
	return s.ConfirmedA && s.ConfirmedB
}

// SessionSnapshot is an immutable copy of a session's observable state,
// safe to hand to callers and to serialize for status display.
type SessionSnapshot struct {
	SessionID   string
	InitiatorID string
	InviteeID   string
	State       SessionState
	OfferA      Offer
	OfferB      Offer
	ReadyA      bool
	ReadyB      bool
	ConfirmedA  bool
	ConfirmedB  bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Remaining   time.Duration // zero once expired or terminal
}

// Snapshot copies the session's observable state. Must be called with
// Mu held.
func (s *TradeSession) Snapshot(now time.Time) SessionSnapshot {
	snap := SessionSnapshot{
		SessionID:   s.SessionID,
		InitiatorID: s.InitiatorID,
		InviteeID:   s.InviteeID,
		State:       s.State,
		OfferA:      s.OfferA.Clone(),
		OfferB:      s.OfferB.Clone(),
		ReadyA:      s.ReadyA,
		ReadyB:      s.ReadyB,
		ConfirmedA:  s.ConfirmedA,
		ConfirmedB:  s.ConfirmedB,
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
	if !s.State.Terminal() && now.Before(s.ExpiresAt) {
		snap.Remaining = s.ExpiresAt.Sub(now)
	}
	return snap
}
