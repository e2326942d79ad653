// Package scheduler drives periodic collection while the overlay is
// visible and stops all collection while it is hidden.
//
// Each Show starts a new generation: a ticker, a context for its
// collections, and one goroutine running them. Hide ends the
// generation. A snapshot is delivered only if its generation is still
// the current one when collection finishes, so nothing collected before
// a Hide ever reaches the presentation layer.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prabalesh/crophud/internal/clock"
	"github.com/prabalesh/crophud/internal/models"
)

type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Collector produces one snapshot per call and returns when ctx is done.
type Collector interface {
	Collect(ctx context.Context) models.Snapshot
}

type Config struct {
	// Interval between collections. Required.
	Interval time.Duration

	// Clock drives the ticker. Defaults to clock.Real.
	Clock clock.Clock

	Logger *slog.Logger
}

type Scheduler struct {
	collector Collector
	interval  time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	// updates holds at most the latest undelivered snapshot.
	updates chan models.Snapshot

	mutex      sync.Mutex
	state      State
	generation uint64
	ticker     *clock.Ticker
	cancel     context.CancelFunc
	closed     bool
}

// New returns a Hidden scheduler. It panics if cfg.Interval is not
// positive.
func New(collector Collector, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		panic("scheduler: interval must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		collector: collector,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		updates:   make(chan models.Snapshot, 1),
	}
}

// Updates delivers snapshots while Visible. The channel has capacity
// one; an unread snapshot is replaced by a newer one. It is closed by
// Close.
func (s *Scheduler) Updates() <-chan models.Snapshot { return s.updates }

func (s *Scheduler) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Show starts collecting: once immediately, then every interval. It is
// a no-op while already Visible or after Close.
func (s *Scheduler) Show() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.showLocked()
}

// Hide stops the ticker before returning, cancels any collection in
// flight, and discards a snapshot not yet received. It is a no-op while
// Hidden.
func (s *Scheduler) Hide() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.hideLocked()
}

// Toggle switches between Visible and Hidden and returns the new state.
func (s *Scheduler) Toggle() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == Visible {
		s.hideLocked()
	} else {
		s.showLocked()
	}
	return s.state
}

// Close hides the scheduler and closes Updates. Later calls to Show are
// ignored.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}
	s.hideLocked()
	s.closed = true
	close(s.updates)
}

func (s *Scheduler) showLocked() {
	if s.closed || s.state == Visible {
		return
	}
	s.state = Visible
	s.generation++

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ticker = s.clock.NewTicker(s.interval)
	s.logger.Debug("collection started", "generation", s.generation, "interval", s.interval)

	go s.run(ctx, s.generation, s.ticker.C)
}

func (s *Scheduler) hideLocked() {
	if s.state != Visible {
		return
	}
	s.state = Hidden
	s.ticker.Stop()
	s.ticker = nil
	s.cancel()
	s.cancel = nil

	select {
	case <-s.updates:
	default:
	}
	s.logger.Debug("collection stopped", "generation", s.generation)
}

func (s *Scheduler) run(ctx context.Context, generation uint64, ticks <-chan time.Time) {
	s.collect(ctx, generation)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			s.collect(ctx, generation)
		}
	}
}

func (s *Scheduler) collect(ctx context.Context, generation uint64) {
	if ctx.Err() != nil {
		return
	}
	snapshot := s.collector.Collect(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Visible || s.generation != generation {
		s.logger.Debug("snapshot discarded", "generation", generation, "current", s.generation)
		return
	}

	// Latest wins: replace an unread snapshot. Sends happen only under
	// the mutex, so after the drain there is room.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snapshot
}
