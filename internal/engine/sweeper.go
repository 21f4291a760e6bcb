package engine

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically expires sessions whose deadline has passed. It
// goes through the registry's Expire path, so sweeper-driven expiry has
// exactly the same locking and notification behavior as participant
// triggers.
type Sweeper struct {
	interval time.Duration
	registry *SessionRegistry
	logger   *slog.Logger
}

// NewSweeper creates a sweeper ticking at the given interval. The
// interval should be well below the session TTL so "free to trade
// again" never lags far behind the deadline.
func NewSweeper(interval time.Duration, registry *SessionRegistry, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		interval: interval,
		registry: registry,
		logger:   logger,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and expires due sessions. It stops when ctx is cancelled.
func (sw *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				sw.Tick(t)
			}
		}
	}()
}

// Tick expires every session due at t. Sessions that turned terminal
// since being collected (race with a manual cancel) are skipped.
func (sw *Sweeper) Tick(t time.Time) {
	for _, id := range sw.registry.DueSessionIDs(t) {
		if sw.registry.Expire(id, t) && sw.logger != nil {
			sw.logger.Info("session expired", slog.String("session_id", id))
		}
	}
}
