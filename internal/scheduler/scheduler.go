package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/service"
)

// Scheduler runs the daily sweep: for every user, drain the pending
// observation pool through the pipeline and refresh the weekday caches.
// Users are independent, so one user's failure never stops the sweep.
type Scheduler struct {
	store      service.UserStore
	locations  *service.LocationService
	aggregates *service.AggregationService
	hour       int
	now        func() time.Time
}

// New creates a scheduler that fires once a day at the given hour (0-23).
func New(store service.UserStore, locations *service.LocationService, aggregates *service.AggregationService, hour int) *Scheduler {
	return &Scheduler{
		store:      store,
		locations:  locations,
		aggregates: aggregates,
		hour:       hour,
		now:        time.Now,
	}
}

// Run blocks until ctx is cancelled, firing Sweep at the configured hour.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFire()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep processes every user's pending observations and recomputes their
// cached aggregates.
func (s *Scheduler) Sweep(ctx context.Context) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		log.Printf("[Scheduler] Failed to list users: %v", err)
		return
	}

	log.Printf("[Scheduler] Starting sweep over %d users", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.locations.ProcessBackgroundData(ctx, id); err != nil {
			log.Printf("[Scheduler] Background processing failed for user %s: %v", id, err)
		}
		if err := s.aggregates.RecomputeAllWindows(ctx, id); err != nil {
			log.Printf("[Scheduler] Aggregate recompute failed for user %s: %v", id, err)
		}
	}

	log.Printf("[Scheduler] Sweep completed")
}

// nextFire returns the next occurrence of the configured hour.
func (s *Scheduler) nextFire() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
