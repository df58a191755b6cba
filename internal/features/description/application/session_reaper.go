package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"productprose/backend/internal/metrics"
)

// SessionReaper periodically drops sessions that have been idle longer than ttl.
type SessionReaper struct {
	store   SessionStore
	ttl     time.Duration
	metrics *metrics.Registry
	cron    *cron.Cron
	now     func() time.Time
}

func NewSessionReaper(store SessionStore, ttl time.Duration, reg *metrics.Registry) *SessionReaper {
	return &SessionReaper{
		store:   store,
		ttl:     ttl,
		metrics: reg,
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start runs Sweep on a cron schedule such as "@every 10m".
func (r *SessionReaper) Start(schedule string) error {
	if r.ttl <= 0 {
		return fmt.Errorf("session idle ttl must be positive, got %s", r.ttl)
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	log.Info().Str("schedule", schedule).Dur("ttl", r.ttl).Msg("session reaper started")
	return nil
}

// Sweep removes idle sessions once and returns how many were removed.
func (r *SessionReaper) Sweep(ctx context.Context) int {
	n := r.store.ExpireIdle(ctx, r.now().Add(-r.ttl))
	if n > 0 {
		r.metrics.Inc(ctx, metrics.SessionsExpired, nil, int64(n))
		log.Info().Int("expired", n).Int("open", r.store.Len()).Msg("idle sessions removed")
	}
	return n
}

// Stop stops the schedule and waits for a running sweep to finish.
func (r *SessionReaper) Stop() {
	<-r.cron.Stop().Done()
}
