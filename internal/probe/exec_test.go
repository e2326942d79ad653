package probe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// gatedRunner blocks every command until release is closed and records
// the highest number running at once.
type gatedRunner struct {
	release chan struct{}
	started chan struct{}
	running atomic.Int32
	peak    atomic.Int32
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (r *gatedRunner) Run(ctx context.Context, name string, _ ...string) ([]byte, error) {
	current := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		old := r.peak.Load()
		if current <= old || r.peak.CompareAndSwap(old, current) {
			break
		}
	}
	r.started <- struct{}{}
	select {
	case <-r.release:
		return []byte(name), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLimitRunnerBoundsConcurrency(t *testing.T) {
	gated := newGatedRunner()
	runner := LimitRunner(gated, 2)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := runner.Run(context.Background(), "sensors"); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}

	for range 2 {
		select {
		case <-gated.started:
		case <-time.After(5 * time.Second):
			t.Fatal("commands did not start")
		}
	}
	select {
	case <-gated.started:
		t.Fatal("third command started while two slots were taken")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	wg.Wait()
	if got := gated.peak.Load(); got != 2 {
		t.Errorf("peak concurrency = %d, want 2", got)
	}
}

func TestLimitRunnerWaitHonorsContext(t *testing.T) {
	gated := newGatedRunner()
	defer close(gated.release)
	runner := LimitRunner(gated, 1)

	go runner.Run(context.Background(), "nvidia-smi")
	select {
	case <-gated.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first command did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := runner.Run(ctx, "rocm-smi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("waiting Run() took %v", elapsed)
	}
}

func TestLimitRunnerWithoutLimit(t *testing.T) {
	stub := &stubRunner{}
	if got := LimitRunner(stub, 0); got != Runner(stub) {
		t.Errorf("LimitRunner(runner, 0) = %T, want the runner itself", got)
	}
}
