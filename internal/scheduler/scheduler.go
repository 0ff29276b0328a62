// Package scheduler runs the trading workflow on a fixed cadence with
// market-hours gating and bounded per-tick retry. Ticks never overlap: the
// next wait starts only after the current tick fully settles.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fundbot/internal/logger"
)

// Outcome is the terminal result of one tick.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Default interval validity bounds, applied when Options leaves its own
// bounds zero. New rejects any interval outside the effective bounds before
// the first tick.
const (
	MinInterval = 5 * time.Minute
	MaxInterval = 24 * time.Hour
)

// TickFunc is one full workflow invocation. A non-nil error marks the
// attempt failed and eligible for retry.
type TickFunc func(ctx context.Context) error

// Options configure the cadence and the per-tick retry policy.
type Options struct {
	Interval        time.Duration
	MarketHoursOnly bool
	// RetryAttempts is the total attempts per tick, including the first.
	RetryAttempts int
	RetryDelay    time.Duration
	// Location is the exchange timezone used by the market-hours gate.
	Location *time.Location
	// MinInterval/MaxInterval override the default validity bounds for
	// Interval; zero keeps the package defaults.
	MinInterval time.Duration
	MaxInterval time.Duration
}

func (o *Options) normalize() {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MinInterval <= 0 {
		o.MinInterval = MinInterval
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = MaxInterval
	}
}

func (o Options) validate() error {
	if o.MinInterval > o.MaxInterval {
		return fmt.Errorf("scheduler: interval bounds inverted [%s, %s]",
			o.MinInterval, o.MaxInterval)
	}
	if o.Interval < o.MinInterval || o.Interval > o.MaxInterval {
		return fmt.Errorf("scheduler: interval %s outside allowed range [%s, %s]",
			o.Interval, o.MinInterval, o.MaxInterval)
	}
	return nil
}

// State is a snapshot of the scheduler's counters, safe to read while the
// loop is running.
type State struct {
	TicksStarted   int       `json:"ticks_started"`
	TicksSucceeded int       `json:"ticks_succeeded"`
	TicksFailed    int       `json:"ticks_failed"`
	TicksSkipped   int       `json:"ticks_skipped"`
	LastOutcome    Outcome   `json:"last_outcome,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastTickAt     time.Time `json:"last_tick_at"`
	// NextEligibleAt is set when a tick was skipped by the market-hours
	// gate: the next session open as of that tick.
	NextEligibleAt time.Time `json:"next_eligible_at"`
}

// Scheduler drives TickFunc at the configured interval until the context
// is cancelled.
type Scheduler struct {
	opts  Options
	run   TickFunc
	nowFn func() time.Time

	mu    sync.Mutex
	state State
}

// New validates the options and builds the scheduler. An out-of-range
// interval fails here, before any tick runs.
func New(run TickFunc, opts Options) (*Scheduler, error) {
	if run == nil {
		return nil, fmt.Errorf("scheduler: nil tick function")
	}
	opts.normalize()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{opts: opts, run: run, nowFn: time.Now}, nil
}

// Start runs the loop until ctx is done. The first tick fires immediately;
// each subsequent tick fires one interval after the previous tick settled.
// Cancellation between ticks returns without starting another; an in-flight
// tick is left to its own context handling and is never killed mid-stage.
func (s *Scheduler) Start(ctx context.Context) error {
	logger.Infof("scheduler: started interval=%s market_hours_only=%v retry_attempts=%d",
		s.opts.Interval, s.opts.MarketHoursOnly, s.opts.RetryAttempts)

	for {
		s.tick(ctx)

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("scheduler: stop requested, exiting after %d ticks", s.snapshot().TicksStarted)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tick gates on market hours, then attempts the workflow up to
// RetryAttempts times with a fixed delay between attempts. The tick's
// outcome is recorded either way; a failed tick never stops the loop.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.nowFn()
	s.mu.Lock()
	s.state.TicksStarted++
	s.state.LastTickAt = now
	s.mu.Unlock()

	if s.opts.MarketHoursOnly && !IsMarketOpen(now, s.opts.Location) {
		next := NextMarketOpen(now, s.opts.Location)
		logger.Infof("scheduler: market closed, skipping tick, next open %s", next.Format(time.RFC3339))
		s.record(OutcomeSkipped, "", next)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		lastErr = s.run(ctx)
		if lastErr == nil {
			s.record(OutcomeSucceeded, "", time.Time{})
			return
		}
		logger.Warnf("scheduler: tick attempt %d/%d failed: %v", attempt, s.opts.RetryAttempts, lastErr)
		if attempt == s.opts.RetryAttempts {
			break
		}
		if !s.sleep(ctx, s.opts.RetryDelay) {
			break
		}
	}
	s.record(OutcomeFailed, lastErr.Error(), time.Time{})
	logger.Errorf("scheduler: tick exhausted %d attempts: %v", s.opts.RetryAttempts, lastErr)
}

// sleep waits d or until ctx is done; reports whether the full delay
// elapsed.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) record(outcome Outcome, errMsg string, nextEligible time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastOutcome = outcome
	s.state.LastError = errMsg
	switch outcome {
	case OutcomeSucceeded:
		s.state.TicksSucceeded++
	case OutcomeFailed:
		s.state.TicksFailed++
	case OutcomeSkipped:
		s.state.TicksSkipped++
		s.state.NextEligibleAt = nextEligible
	}
}

func (s *Scheduler) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// State returns a copy of the current counters.
func (s *Scheduler) State() State { return s.snapshot() }
