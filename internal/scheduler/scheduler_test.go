package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prabalesh/crophud/internal/clock"
	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/testutil"
)

const (
	interval = time.Second
	timeout  = 5 * time.Second
	quiet    = 50 * time.Millisecond
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// collectCall is one pending Collect. The test decides what it returns
// and when.
type collectCall struct {
	ctx   context.Context
	reply chan models.Snapshot
}

type scriptedCollector struct {
	calls chan collectCall
}

func newScriptedCollector() *scriptedCollector {
	return &scriptedCollector{calls: make(chan collectCall, 16)}
}

func (c *scriptedCollector) Collect(ctx context.Context) models.Snapshot {
	call := collectCall{ctx: ctx, reply: make(chan models.Snapshot, 1)}
	c.calls <- call
	return <-call.reply
}

// next waits for the scheduler to start a collection.
func (c *scriptedCollector) next(t *testing.T) collectCall {
	t.Helper()
	return testutil.RequireReceive[collectCall](t, c.calls, timeout, "waiting for a collection")
}

func snapshotAt(seconds int) models.Snapshot {
	return models.NewSnapshot(epoch.Add(time.Duration(seconds)*time.Second), []models.Metric{models.CpuUsage},
		map[models.Metric]models.Value{models.CpuUsage: models.Number(float64(seconds), models.UnitPercent)})
}

func newTestScheduler(t *testing.T) (*Scheduler, *scriptedCollector, *clock.FakeClock) {
	t.Helper()
	collector := newScriptedCollector()
	fake := clock.Fake(epoch)
	s := New(collector, Config{Interval: interval, Clock: fake})
	t.Cleanup(s.Close)
	return s, collector, fake
}

func TestStartsHidden(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	if s.State() != Hidden {
		t.Fatalf("State() = %v, want hidden", s.State())
	}
	if got := fake.ActiveTickers(); got != 0 {
		t.Errorf("ActiveTickers() = %d while hidden", got)
	}
	fake.Advance(3 * interval)
	testutil.RequireNoReceive[collectCall](t, collector.calls, quiet, "collection while hidden")
}

func TestShowCollectsImmediatelyThenEveryInterval(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	s.Show()

	collector.next(t).reply <- snapshotAt(0)
	first := testutil.RequireReceive(t, s.Updates(), timeout, "first snapshot")
	if !first.Taken().Equal(epoch) {
		t.Errorf("first snapshot taken %v, want %v", first.Taken(), epoch)
	}

	fake.Advance(interval)
	collector.next(t).reply <- snapshotAt(1)
	second := testutil.RequireReceive(t, s.Updates(), timeout, "second snapshot")
	if got := second.Get(models.CpuUsage).Number(); got != 1 {
		t.Errorf("second snapshot cpu = %v, want 1", got)
	}
}

func TestRepeatedShowKeepsOneTicker(t *testing.T) {
	s, collector, fake := newTestScheduler(t)

	s.Show()
	collector.next(t).reply <- snapshotAt(0)
	s.Hide()
	if got := fake.ActiveTickers(); got != 0 {
		t.Fatalf("ActiveTickers() after Hide = %d, want 0", got)
	}

	s.Show()
	s.Show()
	if got := fake.ActiveTickers(); got != 1 {
		t.Fatalf("ActiveTickers() after Show, Hide, Show, Show = %d, want 1", got)
	}
	if s.State() != Visible {
		t.Errorf("State() = %v, want visible", s.State())
	}

	// Only one immediate collection for the second visible period.
	collector.next(t).reply <- snapshotAt(1)
	testutil.RequireReceive(t, s.Updates(), timeout, "snapshot after re-show")
	testutil.RequireNoReceive[collectCall](t, collector.calls, quiet, "duplicate collection from repeated Show")
}

func TestHideStopsDelivery(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	s.Show()
	collector.next(t).reply <- snapshotAt(0)
	testutil.RequireReceive(t, s.Updates(), timeout, "first snapshot")

	s.Hide()
	fake.Advance(5 * interval)
	testutil.RequireNoReceive[collectCall](t, collector.calls, quiet, "collection after Hide")
	testutil.RequireNoReceive(t, s.Updates(), quiet, "snapshot after Hide")
}

func TestHideCancelsAndDiscardsInFlight(t *testing.T) {
	s, collector, _ := newTestScheduler(t)
	s.Show()
	stale := collector.next(t)

	s.Hide()
	select {
	case <-stale.ctx.Done():
	default:
		t.Fatal("in-flight collection not canceled by Hide")
	}

	s.Show()
	current := collector.next(t)

	// The first generation finishes late; its snapshot must not surface.
	stale.reply <- snapshotAt(0)
	testutil.RequireNoReceive(t, s.Updates(), quiet, "snapshot from a hidden generation")

	current.reply <- snapshotAt(7)
	got := testutil.RequireReceive(t, s.Updates(), timeout, "snapshot from the current generation")
	if want := epoch.Add(7 * time.Second); !got.Taken().Equal(want) {
		t.Errorf("delivered snapshot taken %v, want %v", got.Taken(), want)
	}
}

func TestHideDiscardsUnreadSnapshot(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	s.Show()
	collector.next(t).reply <- snapshotAt(0)

	// Wait for the delivery without consuming it: the next collection
	// only starts once the first has been delivered.
	fake.Advance(interval)
	collector.next(t).reply <- snapshotAt(1)
	fake.Advance(interval)
	collector.next(t).reply <- snapshotAt(2)

	s.Hide()
	if got := len(s.Updates()); got != 0 {
		t.Errorf("%d snapshots left after Hide, want 0", got)
	}
}

func TestLatestSnapshotWins(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	s.Show()
	collector.next(t).reply <- snapshotAt(0)

	fake.Advance(interval)
	collector.next(t).reply <- snapshotAt(1)

	// The third collection starts only after the second was delivered.
	fake.Advance(interval)
	third := collector.next(t)

	got := testutil.RequireReceive(t, s.Updates(), timeout, "latest snapshot")
	if want := epoch.Add(time.Second); !got.Taken().Equal(want) {
		t.Errorf("received snapshot taken %v, want the newer %v", got.Taken(), want)
	}
	third.reply <- snapshotAt(2)
}

func TestToggle(t *testing.T) {
	s, collector, fake := newTestScheduler(t)

	if got := s.Toggle(); got != Visible {
		t.Fatalf("Toggle() from hidden = %v", got)
	}
	collector.next(t).reply <- snapshotAt(0)
	if got := fake.ActiveTickers(); got != 1 {
		t.Errorf("ActiveTickers() = %d, want 1", got)
	}

	if got := s.Toggle(); got != Hidden {
		t.Fatalf("Toggle() from visible = %v", got)
	}
	if got := fake.ActiveTickers(); got != 0 {
		t.Errorf("ActiveTickers() = %d, want 0", got)
	}
}

func TestCloseClosesUpdates(t *testing.T) {
	s, collector, fake := newTestScheduler(t)
	s.Show()
	collector.next(t).reply <- snapshotAt(0)

	s.Close()
	s.Close()
	testutil.RequireClosed(t, s.Updates(), timeout, "updates after Close")
	if got := fake.ActiveTickers(); got != 0 {
		t.Errorf("ActiveTickers() after Close = %d", got)
	}

	s.Show()
	if s.State() != Hidden {
		t.Error("Show after Close made the scheduler visible")
	}
}

func TestNewPanicsOnZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New with zero interval did not panic")
		}
	}()
	New(newScriptedCollector(), Config{})
}
