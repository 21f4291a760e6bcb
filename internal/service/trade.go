package service

import (
	"errors"
	"regexp"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/engine"
	"github.com/mveiga/tradepost/internal/store"
)

var participantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// TradeService validates requests and orchestrates the session engine.
// Authorization and economic policy stay outside: the service only
// checks that the actors exist and the inputs are well-formed before
// delegating to the registry.
type TradeService struct {
	registry *engine.SessionRegistry
	accounts *store.AccountStore
	archive  *store.SessionArchive
}

// NewTradeService creates a TradeService with the given dependencies.
func NewTradeService(
	registry *engine.SessionRegistry,
	accounts *store.AccountStore,
	archive *store.SessionArchive,
) *TradeService {
	return &TradeService{
		registry: registry,
		accounts: accounts,
		archive:  archive,
	}
}

func validParticipantID(id string) error {
	if !participantIDRegex.MatchString(id) {
		return &domain.ValidationError{
			Message: "participant_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return nil
}

// CreateTrade starts a new session between two registered participants.
func (s *TradeService) CreateTrade(initiatorID, inviteeID string) (domain.SessionSnapshot, error) {
	if err := validParticipantID(initiatorID); err != nil {
		return domain.SessionSnapshot{}, err
	}
	if err := validParticipantID(inviteeID); err != nil {
		return domain.SessionSnapshot{}, err
	}
	if !s.accounts.Exists(initiatorID) || !s.accounts.Exists(inviteeID) {
		return domain.SessionSnapshot{}, domain.ErrAccountNotFound
	}
	return s.registry.Create(initiatorID, inviteeID)
}

// Status returns a snapshot of the named session for one of its
// participants. Terminal sessions are served from the archive for as
// long as they remain there.
func (s *TradeService) Status(sessionID, callerID string) (domain.SessionSnapshot, error) {
	snap, err := s.registry.Snapshot(sessionID, callerID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrNoSuchSession) {
		return domain.SessionSnapshot{}, err
	}

	snap, err = s.archive.Get(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if callerID != snap.InitiatorID && callerID != snap.InviteeID {
		return domain.SessionSnapshot{}, domain.ErrNotParticipant
	}
	return snap, nil
}

// CurrentSession returns the participant's active session, if any.
func (s *TradeService) CurrentSession(participantID string) (domain.SessionSnapshot, error) {
	return s.registry.SessionFor(participantID)
}

// SetOffer validates and replaces the participant's side of the offer.
// Whether the participant can actually cover the offer is only checked
// at execution time, so both sides can negotiate freely.
func (s *TradeService) SetOffer(participantID string, offer domain.Offer) (domain.SessionSnapshot, error) {
	if err := offer.Validate(); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return s.registry.SetOffer(participantID, offer)
}

// SetReady flips the participant's ready flag.
func (s *TradeService) SetReady(participantID string, ready bool) (domain.SessionSnapshot, error) {
	return s.registry.SetReady(participantID, ready)
}

// Confirm records the participant's confirmation; the second
// confirmation executes the swap.
func (s *TradeService) Confirm(participantID string) (domain.SessionSnapshot, error) {
	return s.registry.Confirm(participantID)
}

// Cancel cancels the participant's session.
func (s *TradeService) Cancel(participantID string) (domain.SessionSnapshot, error) {
	return s.registry.Cancel(participantID)
}

// Decline declines the session; invitee only.
func (s *TradeService) Decline(participantID string) (domain.SessionSnapshot, error) {
	return s.registry.Decline(participantID)
}
