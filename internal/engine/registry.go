package engine

import (
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mveiga/tradepost/internal/domain"
)

// Notifier delivers a fire-and-forget event to one participant. The
// registry never awaits delivery and never retries.
type Notifier interface {
	Notify(participantID, event string, payload map[string]any)
}

// TransferExecutor applies one leg of a swap: move money and items from
// one participant to the other. A failed leg must leave both accounts
// untouched.
type TransferExecutor interface {
	ApplyTransfer(from, to string, money decimal.Decimal, items []domain.Item) error
}

// Archiver receives terminal session snapshots so status queries keep
// working briefly after a session leaves the active index.
type Archiver interface {
	Archive(snap domain.SessionSnapshot)
}

// Event kinds emitted through the Notifier.
const (
	EventInvited        = "trade.invited"
	EventActivated      = "trade.activated"
	EventOfferChanged   = "trade.offer_changed"
	EventReadyChanged   = "trade.ready_changed"
	EventConfirmed      = "trade.confirmed"
	EventCancelled      = "trade.cancelled"
	EventDeclined       = "trade.declined"
	EventExpired        = "trade.expired"
	EventCompleted      = "trade.completed"
	EventTransferFailed = "trade.transfer_failed"
)

// deadline is an entry in the expiration index, ordered by expiry time
// with the session ID as tie-breaker.
type deadline struct {
	at time.Time
	id string
}

func deadlineLess(a, b deadline) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.id < b.id
}

// SessionRegistry is the single authority mapping participants to their
// active trade session. It enforces at most one non-terminal session per
// participant and owns every session transition.
//
// Locking discipline: the registry mutex guards the three indexes; each
// session has its own lock for field mutations. Lookups release the
// registry lock before taking the session lock and re-check the state
// afterwards, so operations on unrelated sessions never contend. The
// registry lock is only ever taken after a session lock when unindexing
// a terminal session, never the other way around.
type SessionRegistry struct {
	ttl      time.Duration
	notifier Notifier
	transfer TransferExecutor
	archiver Archiver

	mu            sync.RWMutex
	byParticipant map[string]*domain.TradeSession
	byID          map[string]*domain.TradeSession
	deadlines     *btree.BTreeG[deadline] // expiresAt ASC
}

// NewSessionRegistry creates a registry with the given session TTL and
// collaborators. notifier and archiver may be nil; transfer must be
// non-nil for Confirm to complete a swap.
func NewSessionRegistry(ttl time.Duration, transfer TransferExecutor, notifier Notifier, archiver Archiver) *SessionRegistry {
	const degree = 32
	return &SessionRegistry{
		ttl:           ttl,
		notifier:      notifier,
		transfer:      transfer,
		archiver:      archiver,
		byParticipant: make(map[string]*domain.TradeSession),
		byID:          make(map[string]*domain.TradeSession),
		deadlines:     btree.NewG[deadline](degree, deadlineLess),
	}
}

// notification is a queued Notifier call, collected under the session
// lock and dispatched after it is released.
type notification struct {
	participant string
	event       string
	payload     map[string]any
}

func (r *SessionRegistry) emit(ns []notification) {
	if r.notifier == nil {
		return
	}
	for _, n := range ns {
		r.notifier.Notify(n.participant, n.event, n.payload)
	}
}

// Create starts a new pending session between initiator and invitee.
// The exclusivity check and the index insert are one critical section:
// two concurrent creates naming the same participant cannot both
// succeed.
func (r *SessionRegistry) Create(initiator, invitee string) (domain.SessionSnapshot, error) {
	if initiator == invitee {
		return domain.SessionSnapshot{}, domain.ErrSelfTrade
	}

	now := time.Now()
	s := &domain.TradeSession{
		SessionID:   uuid.New().String(),
		InitiatorID: initiator,
		InviteeID:   invitee,
		State:       domain.SessionStatePending,
		OfferA:      domain.EmptyOffer(),
		OfferB:      domain.EmptyOffer(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.ttl),
	}

	r.mu.Lock()
	if _, busy := r.byParticipant[initiator]; busy {
		r.mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrAlreadyInSession
	}
	if _, busy := r.byParticipant[invitee]; busy {
		r.mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrAlreadyInSession
	}
	r.byParticipant[initiator] = s
	r.byParticipant[invitee] = s
	r.byID[s.SessionID] = s
	r.deadlines.ReplaceOrInsert(deadline{at: s.ExpiresAt, id: s.SessionID})
	r.mu.Unlock()

	// The session is not reachable by other goroutines until the insert
	// above, so snapshotting without its lock is safe here.
	snap := s.Snapshot(now)

	r.emit([]notification{{
		participant: invitee,
		event:       EventInvited,
		payload: map[string]any{
			"session_id": s.SessionID,
			"initiator":  initiator,
			"expires_at": s.ExpiresAt,
		},
	}})
	return snap, nil
}

// lookup returns the active session for a participant, or
// domain.ErrNoSuchSession. The caller must lock the session and re-check
// its state before mutating.
func (r *SessionRegistry) lookup(participant string) (*domain.TradeSession, error) {
	r.mu.RLock()
	s, ok := r.byParticipant[participant]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNoSuchSession
	}
	return s, nil
}

// unindex removes a session from all three indexes. Called with the
// session lock held, after the state turned terminal; the participant
// entries are only removed if they still point at this session.
func (r *SessionRegistry) unindex(s *domain.TradeSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byParticipant[s.InitiatorID]; ok && cur == s {
		delete(r.byParticipant, s.InitiatorID)
	}
	if cur, ok := r.byParticipant[s.InviteeID]; ok && cur == s {
		delete(r.byParticipant, s.InviteeID)
	}
	delete(r.byID, s.SessionID)
	r.deadlines.Delete(deadline{at: s.ExpiresAt, id: s.SessionID})
}

// archive hands a terminal snapshot to the archiver, if configured.
// Called with the session lock held.
func (r *SessionRegistry) archive(snap domain.SessionSnapshot) {
	if r.archiver != nil {
		r.archiver.Archive(snap)
	}
}

// SessionFor returns a snapshot of the participant's active session.
func (r *SessionRegistry) SessionFor(participant string) (domain.SessionSnapshot, error) {
	s, err := r.lookup(participant)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.State.Terminal() {
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	return s.Snapshot(time.Now()), nil
}

// Snapshot returns a snapshot of the named session for one of its
// participants. Callers that are neither side get ErrNotParticipant.
// Terminal sessions are not found here; the archive serves those.
func (r *SessionRegistry) Snapshot(sessionID, caller string) (domain.SessionSnapshot, error) {
	r.mu.RLock()
	s, ok := r.byID[sessionID]
	r.mu.RUnlock()
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	if !s.IsParticipant(caller) {
		return domain.SessionSnapshot{}, domain.ErrNotParticipant
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.State.Terminal() {
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	return s.Snapshot(time.Now()), nil
}

// DueSessionIDs returns the IDs of sessions whose deadline is at or
// before now, oldest first.
func (r *SessionRegistry) DueSessionIDs(now time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	r.deadlines.Ascend(func(d deadline) bool {
		if d.at.After(now) {
			return false
		}
		ids = append(ids, d.id)
		return true
	})
	return ids
}

// ActiveCount returns the number of sessions in the active index.
// Useful for testing.
func (r *SessionRegistry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
