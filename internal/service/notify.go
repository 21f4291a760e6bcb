package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mveiga/tradepost/internal/domain"
	"github.com/mveiga/tradepost/internal/engine"
	"github.com/mveiga/tradepost/internal/store"
)

// Valid notification event kinds.
var validEvents = map[string]bool{
	engine.EventInvited:        true,
	engine.EventActivated:      true,
	engine.EventOfferChanged:   true,
	engine.EventReadyChanged:   true,
	engine.EventConfirmed:      true,
	engine.EventCancelled:      true,
	engine.EventDeclined:       true,
	engine.EventExpired:        true,
	engine.EventCompleted:      true,
	engine.EventTransferFailed: true,
}

// SubscribeRequest represents the input for callback registration.
type SubscribeRequest struct {
	ParticipantID string
	URL           string
	Events        []string
}

// NotifyService implements the engine's Notifier port: it delivers
// trade events to participant callback URLs over HTTP POST,
// fire-and-forget, with a bounded timeout and no retries.
type NotifyService struct {
	store  *store.CallbackStore
	client *http.Client
}

// NewNotifyService creates a NotifyService with the given delivery
// timeout.
func NewNotifyService(callbackStore *store.CallbackStore, notifyTimeout time.Duration) *NotifyService {
	return &NotifyService{
		store: callbackStore,
		client: &http.Client{
			Timeout: notifyTimeout,
		},
	}
}

// Subscribe validates the request and registers (or replaces) the
// participant's callback.
func (s *NotifyService) Subscribe(req SubscribeRequest) (*domain.Callback, bool, error) {
	if !participantIDRegex.MatchString(req.ParticipantID) {
		return nil, false, &domain.ValidationError{
			Message: "participant_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use http or https scheme"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	events := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event,
			}
		}
		if !seen[event] {
			seen[event] = true
			events = append(events, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	cb := &domain.Callback{
		ParticipantID: req.ParticipantID,
		URL:           req.URL,
		Events:        events,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created := s.store.Upsert(cb)
	return cb, created, nil
}

// Unsubscribe removes the participant's callback.
func (s *NotifyService) Unsubscribe(participantID string) error {
	return s.store.Delete(participantID)
}

// eventEnvelope is the JSON body delivered to callback URLs.
type eventEnvelope struct {
	EventID       string         `json:"event_id"`
	Event         string         `json:"event"`
	ParticipantID string         `json:"participant_id"`
	Timestamp     string         `json:"timestamp"`
	Data          map[string]any `json:"data"`
}

// Notify delivers one event to one participant's callback, if any is
// registered and subscribed to the event kind. Fire-and-forget — errors
// are silently ignored.
func (s *NotifyService) Notify(participantID, event string, payload map[string]any) {
	cb, err := s.store.Get(participantID)
	if err != nil || !cb.Wants(event) {
		return
	}

	envelope := eventEnvelope{
		EventID:       uuid.New().String(),
		Event:         event,
		ParticipantID: participantID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Data:          payload,
	}

	go s.deliver(cb.URL, event, envelope)
}

// deliver sends the event envelope via HTTP POST. Errors are silently
// ignored (fire-and-forget).
func (s *NotifyService) deliver(callbackURL, event string, envelope eventEnvelope) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", envelope.EventID)
	req.Header.Set("X-Event-Type", event)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
