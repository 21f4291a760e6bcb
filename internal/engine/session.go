package engine

import (
	"fmt"
	"time"

	"github.com/mveiga/tradepost/internal/domain"
)

// sideOf binds the mutable per-side fields of a locked session to the
// acting participant, so transitions read the same regardless of which
// side triggered them.
type sideOf struct {
	offer          *domain.Offer
	ready          *bool
	confirmed      *bool
	otherReady     *bool
	otherConfirmed *bool
}

func side(s *domain.TradeSession, participant string) sideOf {
	if participant == s.InitiatorID {
		return sideOf{
			offer:          &s.OfferA,
			ready:          &s.ReadyA,
			confirmed:      &s.ConfirmedA,
			otherReady:     &s.ReadyB,
			otherConfirmed: &s.ConfirmedB,
		}
	}
	return sideOf{
		offer:          &s.OfferB,
		ready:          &s.ReadyB,
		confirmed:      &s.ConfirmedB,
		otherReady:     &s.ReadyA,
		otherConfirmed: &s.ConfirmedA,
	}
}

// activate performs the invitee's implicit accept on a pending session.
// Must be called with the session lock held. Returns a notification for
// the initiator when the state actually changed.
func activate(s *domain.TradeSession, participant string) (notification, bool) {
	if s.State != domain.SessionStatePending || participant != s.InviteeID {
		return notification{}, false
	}
	s.State = domain.SessionStateActive
	return notification{
		participant: s.InitiatorID,
		event:       EventActivated,
		payload:     map[string]any{"session_id": s.SessionID},
	}, true
}

// SetOffer replaces the participant's side of the offer. The offer must
// not be locked by a ready flag; the invitee's first interaction
// activates a pending session.
func (r *SessionRegistry) SetOffer(participant string, offer domain.Offer) (domain.SessionSnapshot, error) {
	s, err := r.lookup(participant)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	s.Mu.Lock()
	if s.State.Terminal() {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}

	var ns []notification
	if n, ok := activate(s, participant); ok {
		ns = append(ns, n)
	}

	sd := side(s, participant)
	if *sd.ready {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrOfferLocked
	}
	*sd.offer = offer.Clone()

	ns = append(ns, notification{
		participant: s.Counterpart(participant),
		event:       EventOfferChanged,
		payload:     map[string]any{"session_id": s.SessionID, "by": participant},
	})
	snap := s.Snapshot(time.Now())
	s.Mu.Unlock()

	r.emit(ns)
	return snap, nil
}

// SetReady flips the participant's ready flag. Readying locks the
// current offer as final. Un-readying also clears the counterpart's
// ready flag and both confirmations: ready is relative to the offers
// shown, and dropping it invalidates the counterpart's agreement.
func (r *SessionRegistry) SetReady(participant string, ready bool) (domain.SessionSnapshot, error) {
	s, err := r.lookup(participant)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	s.Mu.Lock()
	if s.State.Terminal() {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}

	var ns []notification
	if ready {
		if n, ok := activate(s, participant); ok {
			ns = append(ns, n)
		}
	}

	sd := side(s, participant)
	if *sd.ready != ready {
		*sd.ready = ready
		if !ready {
			*sd.otherReady = false
			*sd.confirmed = false
			*sd.otherConfirmed = false
		}
		ns = append(ns, notification{
			participant: s.Counterpart(participant),
			event:       EventReadyChanged,
			payload:     map[string]any{"session_id": s.SessionID, "by": participant, "ready": ready},
		})
	}
	snap := s.Snapshot(time.Now())
	s.Mu.Unlock()

	r.emit(ns)
	return snap, nil
}

// Confirm records the participant's instruction to execute the swap.
// When the second confirmation lands, the swap runs leg by leg while the
// session lock is held; any failed leg rolls the session back to active
// with both confirmations cleared.
func (r *SessionRegistry) Confirm(participant string) (domain.SessionSnapshot, error) {
	s, err := r.lookup(participant)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	s.Mu.Lock()
	if s.State.Terminal() {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	if !s.BothReady() {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrNotReady
	}

	sd := side(s, participant)
	if *sd.confirmed {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrAlreadyConfirmed
	}
	*sd.confirmed = true

	if !s.BothConfirmed() {
		ns := []notification{{
			participant: s.Counterpart(participant),
			event:       EventConfirmed,
			payload:     map[string]any{"session_id": s.SessionID, "by": participant},
		}}
		snap := s.Snapshot(time.Now())
		s.Mu.Unlock()
		r.emit(ns)
		return snap, nil
	}

	// Both sides confirmed: execute the swap under the session lock so
	// no cancel or second confirm can interleave mid-swap.
	if legErr := r.transfer.ApplyTransfer(s.InitiatorID, s.InviteeID, s.OfferA.Money, s.OfferA.Items); legErr != nil {
		return r.rollback(s, legErr)
	}
	if legErr := r.transfer.ApplyTransfer(s.InviteeID, s.InitiatorID, s.OfferB.Money, s.OfferB.Items); legErr != nil {
		// Compensate the first leg. The bundle was just credited to the
		// invitee, so the reverse transfer cannot lack funds or items.
		_ = r.transfer.ApplyTransfer(s.InviteeID, s.InitiatorID, s.OfferA.Money, s.OfferA.Items)
		return r.rollback(s, legErr)
	}

	s.State = domain.SessionStateCompleted
	snap := s.Snapshot(time.Now())
	r.unindex(s)
	r.archive(snap)
	ns := terminalNotifications(s, EventCompleted, participant)
	s.Mu.Unlock()

	r.emit(ns)
	return snap, nil
}

// rollback reverts a session to active after a failed swap, clearing
// both confirmations so either side can adjust offers and retry. Called
// with the session lock held; releases it.
func (r *SessionRegistry) rollback(s *domain.TradeSession, cause error) (domain.SessionSnapshot, error) {
	s.ConfirmedA = false
	s.ConfirmedB = false
	ns := []notification{
		{participant: s.InitiatorID, event: EventTransferFailed, payload: map[string]any{"session_id": s.SessionID, "reason": cause.Error()}},
		{participant: s.InviteeID, event: EventTransferFailed, payload: map[string]any{"session_id": s.SessionID, "reason": cause.Error()}},
	}
	snap := s.Snapshot(time.Now())
	s.Mu.Unlock()

	r.emit(ns)
	return snap, fmt.Errorf("%w: %v", domain.ErrTransferFailed, cause)
}

// Cancel moves the participant's session to cancelled. Either side may
// cancel; cancelling with no active session reports ErrNoSuchSession
// without touching any state.
func (r *SessionRegistry) Cancel(participant string) (domain.SessionSnapshot, error) {
	return r.terminate(participant, domain.SessionStateCancelled, EventCancelled, false)
}

// Decline moves the session to declined. Only the invitee may decline;
// the initiator cancels instead.
func (r *SessionRegistry) Decline(participant string) (domain.SessionSnapshot, error) {
	return r.terminate(participant, domain.SessionStateDeclined, EventDeclined, true)
}

func (r *SessionRegistry) terminate(participant string, state domain.SessionState, event string, inviteeOnly bool) (domain.SessionSnapshot, error) {
	s, err := r.lookup(participant)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if inviteeOnly && participant != s.InviteeID {
		return domain.SessionSnapshot{}, domain.ErrNotInvitee
	}

	s.Mu.Lock()
	if s.State.Terminal() {
		s.Mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	s.State = state
	snap := s.Snapshot(time.Now())
	r.unindex(s)
	r.archive(snap)
	ns := terminalNotifications(s, event, participant)
	s.Mu.Unlock()

	r.emit(ns)
	return snap, nil
}

// Expire transitions the named session to expired if it is still
// non-terminal and its deadline has passed. Racing against a manual
// cancel or a completed handshake is a no-op, reported by the false
// return.
func (r *SessionRegistry) Expire(sessionID string, now time.Time) bool {
	r.mu.RLock()
	s, ok := r.byID[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	s.Mu.Lock()
	if s.State.Terminal() || now.Before(s.ExpiresAt) {
		s.Mu.Unlock()
		return false
	}
	s.State = domain.SessionStateExpired
	snap := s.Snapshot(now)
	r.unindex(s)
	r.archive(snap)
	ns := terminalNotifications(s, EventExpired, "")
	s.Mu.Unlock()

	r.emit(ns)
	return true
}

// terminalNotifications builds one notification per participant for a
// terminal transition. by is empty for sweeper-driven transitions.
func terminalNotifications(s *domain.TradeSession, event, by string) []notification {
	payload := map[string]any{"session_id": s.SessionID}
	if by != "" {
		payload["by"] = by
	}
	return []notification{
		{participant: s.InitiatorID, event: event, payload: payload},
		{participant: s.InviteeID, event: event, payload: payload},
	}
}
