package store

import (
	"sync"

	"github.com/mveiga/tradepost/internal/domain"
)

// SessionArchive keeps a bounded number of terminal session snapshots
// so status queries keep working briefly after a session leaves the
// registry's active index. Oldest entries are evicted first.
type SessionArchive struct {
	mu       sync.RWMutex
	capacity int
	order    []string // session IDs, oldest first
	byID     map[string]domain.SessionSnapshot
}

// NewSessionArchive creates an archive holding at most capacity
// snapshots.
func NewSessionArchive(capacity int) *SessionArchive {
	return &SessionArchive{
		capacity: capacity,
		byID:     make(map[string]domain.SessionSnapshot),
	}
}

// Archive stores a terminal snapshot, evicting the oldest entry when
// the archive is full. Re-archiving the same session ID overwrites in
// place.
func (a *SessionArchive) Archive(snap domain.SessionSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.capacity <= 0 {
		return
	}
	if _, exists := a.byID[snap.SessionID]; exists {
		a.byID[snap.SessionID] = snap
		return
	}
	for len(a.order) >= a.capacity {
		oldest := a.order[0]
		a.order = a.order[1:]
		delete(a.byID, oldest)
	}
	a.order = append(a.order, snap.SessionID)
	a.byID[snap.SessionID] = snap
}

// Get retrieves an archived snapshot by session ID. It returns
// domain.ErrNoSuchSession if the session was never archived or has
// been evicted.
func (a *SessionArchive) Get(sessionID string) (domain.SessionSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap, ok := a.byID[sessionID]
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrNoSuchSession
	}
	return snap, nil
}

// Len returns the number of archived snapshots. Useful for testing.
func (a *SessionArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}
