package domain

import "time"

// Callback is a participant's notification subscription: a URL that
// receives trade events, optionally filtered to specific event kinds.
type Callback struct {
	ParticipantID string
	URL           string
	Events        []string // empty means all events
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Wants reports whether the subscription covers the given event kind.
func (c *Callback) Wants(event string) bool {
	if len(c.Events) == 0 {
		return true
	}
	for _, e := range c.Events {
		if e == event {
			return true
		}
	}
	return false
}
