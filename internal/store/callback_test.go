package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mveiga/tradepost/internal/domain"
)

func TestCallbackStore_UpsertAndGet(t *testing.T) {
	s := NewCallbackStore()

	created := s.Upsert(&domain.Callback{
		ParticipantID: "alice",
		URL:           "https://example.com/hook",
		CreatedAt:     time.Now(),
	})
	if !created {
		t.Fatal("first upsert should report created")
	}

	cb, err := s.Get("alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cb.URL != "https://example.com/hook" {
		t.Errorf("url = %q", cb.URL)
	}
}

func TestCallbackStore_Upsert_PreservesCreatedAt(t *testing.T) {
	s := NewCallbackStore()
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Upsert(&domain.Callback{ParticipantID: "alice", URL: "https://a.example", CreatedAt: first})
	created := s.Upsert(&domain.Callback{
		ParticipantID: "alice",
		URL:           "https://b.example",
		CreatedAt:     time.Now(),
	})
	if created {
		t.Fatal("replacing upsert should not report created")
	}

	cb, _ := s.Get("alice")
	if cb.URL != "https://b.example" {
		t.Errorf("url not replaced: %q", cb.URL)
	}
	if !cb.CreatedAt.Equal(first) {
		t.Errorf("CreatedAt = %v, want %v", cb.CreatedAt, first)
	}
}

func TestCallbackStore_Delete(t *testing.T) {
	s := NewCallbackStore()
	s.Upsert(&domain.Callback{ParticipantID: "alice", URL: "https://a.example"})

	if err := s.Delete("alice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.Get("alice"); !errors.Is(err, domain.ErrCallbackNotFound) {
		t.Fatalf("expected ErrCallbackNotFound, got %v", err)
	}
	if err := s.Delete("alice"); !errors.Is(err, domain.ErrCallbackNotFound) {
		t.Fatalf("double delete: expected ErrCallbackNotFound, got %v", err)
	}
}

func TestCallback_Wants(t *testing.T) {
	all := &domain.Callback{ParticipantID: "a", URL: "https://a.example"}
	if !all.Wants("trade.expired") {
		t.Error("empty event list should cover all events")
	}

	filtered := &domain.Callback{
		ParticipantID: "a",
		URL:           "https://a.example",
		Events:        []string{"trade.completed"},
	}
	if !filtered.Wants("trade.completed") {
		t.Error("subscribed event should match")
	}
	if filtered.Wants("trade.expired") {
		t.Error("unsubscribed event should not match")
	}
}
