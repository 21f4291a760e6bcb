package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/store"
)

func TestSweeper_Tick_ExpiresDueSessions(t *testing.T) {
	r, _, notifier, _ := newTestRegistry(t, time.Minute)
	sw := NewSweeper(time.Second, r, nil)

	snap, _ := r.Create("alice", "bob")
	_, _ = r.Create("carol", "dave")

	// Only the first session is past its deadline.
	sw.Tick(snap.ExpiresAt.Add(-time.Second))
	if r.ActiveCount() != 2 {
		t.Fatal("nothing should expire before the deadline")
	}

	// Both sessions share the same TTL, so both are due shortly after
	// the first deadline.
	sw.Tick(snap.ExpiresAt.Add(time.Second))
	if r.ActiveCount() != 0 {
		t.Fatalf("active count = %d, want 0", r.ActiveCount())
	}
	if len(notifier.eventsFor("alice", EventExpired)) != 1 || len(notifier.eventsFor("bob", EventExpired)) != 1 {
		t.Error("both participants should be notified of expiry")
	}

	// Participants are immediately free to start a new session.
	if _, err := r.Create("alice", "dave"); err != nil {
		t.Errorf("participants should be free after the sweep: %v", err)
	}
}

func TestSweeper_Tick_OrderedByDeadline(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, time.Minute)

	s1, _ := r.Create("alice", "bob")
	time.Sleep(2 * time.Millisecond)
	s2, _ := r.Create("carol", "dave")

	due := r.DueSessionIDs(s2.ExpiresAt.Add(time.Second))
	if len(due) != 2 {
		t.Fatalf("due sessions = %d, want 2", len(due))
	}
	if due[0] != s1.SessionID || due[1] != s2.SessionID {
		t.Errorf("due order = %v, want oldest deadline first", due)
	}
}

func TestSweeper_Tick_RaceWithCancelIsNoOp(t *testing.T) {
	r, _, notifier, _ := newTestRegistry(t, time.Minute)
	sw := NewSweeper(time.Second, r, nil)

	snap, _ := r.Create("alice", "bob")
	if _, err := r.Cancel("alice"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	sw.Tick(snap.ExpiresAt.Add(time.Second))
	if len(notifier.eventsFor("alice", EventExpired)) != 0 {
		t.Error("a cancelled session must not emit an expiry notification")
	}
}

func TestSweeper_Start_ExpiresWithinInterval(t *testing.T) {
	r, _, _, _ := newTestRegistry(t, 30*time.Millisecond)
	sw := NewSweeper(10*time.Millisecond, r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sw.Start(ctx)

	if _, err := r.Create("alice", "bob"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Poll until the sweeper frees the participants.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := r.SessionFor("alice"); errors.Is(err, domain.ErrNoSuchSession) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session not expired by the background sweeper")
}

func TestSweeper_Stop(t *testing.T) {
	r := NewSessionRegistry(10*time.Millisecond, store.NewAccountStore(), nil, nil)
	sw := NewSweeper(5*time.Millisecond, r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sw.Start(ctx)
	cancel()
	// Give the goroutine a moment to observe cancellation.
	time.Sleep(20 * time.Millisecond)

	snap, _ := r.Create("alice", "bob")
	time.Sleep(30 * time.Millisecond)
	if _, err := r.SessionFor("alice"); err != nil {
		t.Fatal("stopped sweeper must not expire sessions")
	}

	// Manual tick still works through the same path.
	sw.Tick(snap.ExpiresAt)
	if _, err := r.SessionFor("alice"); !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatal("manual tick should expire the due session")
	}
}
