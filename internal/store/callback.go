package store

import (
	"sync"

	"github.com/mveiga/tradepost/internal/domain"
)

// CallbackStore is a thread-safe in-memory store for notification
// subscriptions, keyed by participant ID.
type CallbackStore struct {
	mu        sync.RWMutex
	callbacks map[string]*domain.Callback
}

// NewCallbackStore creates an empty CallbackStore.
func NewCallbackStore() *CallbackStore {
	return &CallbackStore{
		callbacks: make(map[string]*domain.Callback),
	}
}

// Upsert inserts or replaces the subscription for a participant. The
// CreatedAt of an existing subscription is preserved. Returns true if a
// new subscription was created.
func (s *CallbackStore) Upsert(cb *domain.Callback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.callbacks[cb.ParticipantID]
	if ok {
		cb.CreatedAt = existing.CreatedAt
	}
	s.callbacks[cb.ParticipantID] = cb
	return !ok
}

// Get retrieves the subscription for a participant. It returns
// domain.ErrCallbackNotFound if none is registered.
func (s *CallbackStore) Get(participantID string) (*domain.Callback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cb, ok := s.callbacks[participantID]
	if !ok {
		return nil, domain.ErrCallbackNotFound
	}
	return cb, nil
}

// Delete removes the subscription for a participant. It returns
// domain.ErrCallbackNotFound if none is registered.
func (s *CallbackStore) Delete(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.callbacks[participantID]; !ok {
		return domain.ErrCallbackNotFound
	}
	delete(s.callbacks, participantID)
	return nil
}
