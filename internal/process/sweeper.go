package process

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Evicter drops stale origin records and expired response cache entries.
type Evicter interface {
	EvictStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Sweeper runs eviction cycles against an Evicter, once or periodically.
type Sweeper struct {
	evicter  Evicter
	Interval time.Duration
	MaxAge   time.Duration

	cycles  atomic.Int64
	evicted atomic.Int64
	failed  atomic.Int64
}

const defaultCycleTimeout = 5 * time.Minute

// NewSweeper returns a Sweeper that removes records idle for longer than maxAge.
func NewSweeper(evicter Evicter, interval, maxAge time.Duration) (*Sweeper, error) {
	if evicter == nil {
		return nil, fmt.Errorf("evicter cannot be nil")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("maxAge must be positive")
	}
	return &Sweeper{evicter: evicter, Interval: interval, MaxAge: maxAge}, nil
}

// RunOnce executes a single eviction cycle.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cycleCtx, cancel := context.WithTimeout(ctx, defaultCycleTimeout)
	defer cancel()

	s.cycles.Add(1)
	startTime := time.Now()
	n, err := s.evicter.EvictStale(cycleCtx, s.MaxAge)
	if err != nil {
		s.failed.Add(1)
		return 0, err
	}
	s.evicted.Add(n)

	log.Debug().
		Int64("evicted", n).
		Dur("duration", time.Since(startTime)).
		Msg("Sweep cycle finished")
	return n, nil
}

// Run executes a cycle immediately and then every Interval until ctx is
// done. With a non-positive Interval it runs a single cycle.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Error().Err(err).Msg("Sweep cycle failed")
	}

	if s.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", s.Interval).
		Dur("max_age", s.MaxAge).
		Time("next_run", time.Now().Add(s.Interval)).
		Msg("Waiting for next sweep cycle")

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				// Keep going; the next cycle may succeed.
				log.Error().Err(err).Msg("Sweep cycle failed")
			}

		case <-ctx.Done():
			cycles, evicted, failed := s.Stats()
			log.Info().
				Int64("cycles", cycles).
				Int64("evicted", evicted).
				Int64("failed", failed).
				Msg("Shutting down periodic sweep")
			return nil
		}
	}
}

// Stats returns the number of cycles run, records evicted and failed cycles.
func (s *Sweeper) Stats() (cycles, evicted, failed int64) {
	return s.cycles.Load(), s.evicted.Load(), s.failed.Load()
}
