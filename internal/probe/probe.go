// Package probe defines a single way of reading one metric from the host
// and the ordered fallback chain that tries several of them.
//
// A Probe may fail for any reason: the tool is not installed, it exits
// non-zero, prints nothing, prints something unexpected, or hangs.
// Attempt is the boundary that turns every one of those outcomes into an
// unavailable value, so nothing a probe does can stall or crash the
// collector.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prabalesh/crophud/internal/models"
)

var (
	// ErrNoData reports a read that succeeded but produced nothing
	// usable: empty output, a missing field, or a vendor "[N/A]".
	ErrNoData = errors.New("no data")

	// ErrPanic wraps a panic recovered from a probe.
	ErrPanic = errors.New("probe panicked")
)

type Probe interface {
	// Name identifies the probe in logs, e.g. "nvidia-smi temperature.gpu".
	Name() string

	// Read queries the source. It should honor ctx, but Attempt does
	// not rely on it.
	Read(ctx context.Context) (models.Value, error)
}

// Failure records why a probe produced no value. It is only ever logged.
type Failure struct {
	Probe string
	Err   error
}

func (f *Failure) Error() string { return fmt.Sprintf("probe %s: %v", f.Probe, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

type funcProbe struct {
	name string
	read func(ctx context.Context) (models.Value, error)
}

// New wraps a read function as a Probe.
func New(name string, read func(ctx context.Context) (models.Value, error)) Probe {
	return &funcProbe{name: name, read: read}
}

func (p *funcProbe) Name() string { return p.name }

func (p *funcProbe) Read(ctx context.Context) (models.Value, error) { return p.read(ctx) }

// Attempt runs p with a timeout and always returns within it. The value
// is either available or Unavailable; in the latter case the error is a
// *Failure describing why. A zero timeout relies on ctx alone.
func Attempt(ctx context.Context, p Probe, timeout time.Duration) (models.Value, error) {
	if err := ctx.Err(); err != nil {
		return models.Unavailable(), &Failure{Probe: p.Name(), Err: err}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value models.Value
		err   error
	}
	// Buffered so a read that outlives the timeout can still finish and
	// exit without a receiver.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrPanic, recovered)}
			}
		}()
		value, err := p.Read(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil {
			return models.Unavailable(), &Failure{Probe: p.Name(), Err: result.err}
		}
		if !result.value.Available() {
			return models.Unavailable(), &Failure{Probe: p.Name(), Err: ErrNoData}
		}
		return result.value, nil
	case <-ctx.Done():
		return models.Unavailable(), &Failure{Probe: p.Name(), Err: ctx.Err()}
	}
}
