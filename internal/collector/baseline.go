package collector

import (
	"fmt"
	"sync"
	"time"

	"github.com/prabalesh/crophud/internal/clock"
	"github.com/prabalesh/crophud/internal/probe"
)

// A baseline older than this is discarded rather than averaged
// over. Collections stop while the overlay is hidden, so the first
// reading after a Show would otherwise report the mean since the Hide.
const RateBaselineMaxAge = 5 * time.Second

var (
	errNoBaseline   = fmt.Errorf("%w: no previous reading", probe.ErrNoData)
	errCounterReset = fmt.Errorf("%w: counter went backwards", probe.ErrNoData)
)

// counterBaseline holds the previous reading of a set of monotonic
// counters so a probe can report the change between two collections.
// Probes may run concurrently with themselves when a collection is cut
// short, so access is serialized.
type counterBaseline struct {
	clock  clock.Clock
	maxAge time.Duration

	mutex    sync.Mutex
	previous []uint64
	taken    time.Time
}

// newCounterBaseline returns an empty baseline. A zero maxAge keeps
// baselines regardless of age.
func newCounterBaseline(c clock.Clock, maxAge time.Duration) *counterBaseline {
	return &counterBaseline{clock: c, maxAge: maxAge}
}

// advance records counters as the new baseline and returns how much
// each one grew since the previous baseline, and over how long.
//
// It returns errNoBaseline on the first call or when the previous
// reading is stale, and errCounterReset when any counter decreased
// (an interface went away, a driver reloaded). Either way the new
// reading still becomes the baseline for the next call.
func (b *counterBaseline) advance(counters []uint64) ([]uint64, time.Duration, error) {
	now := b.clock.Now()

	b.mutex.Lock()
	defer b.mutex.Unlock()

	previous, taken := b.previous, b.taken
	b.previous = append([]uint64(nil), counters...)
	b.taken = now

	if previous == nil || len(previous) != len(counters) {
		return nil, 0, errNoBaseline
	}
	elapsed := now.Sub(taken)
	if b.maxAge > 0 && elapsed > b.maxAge {
		return nil, 0, errNoBaseline
	}

	deltas := make([]uint64, len(counters))
	for i, counter := range counters {
		if counter < previous[i] {
			return nil, 0, errCounterReset
		}
		deltas[i] = counter - previous[i]
	}
	return deltas, elapsed, nil
}
