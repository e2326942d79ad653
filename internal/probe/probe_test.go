package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prabalesh/crophud/internal/models"
)

func fixed(name string, value models.Value) Probe {
	return New(name, func(context.Context) (models.Value, error) { return value, nil })
}

func failing(name string, err error) Probe {
	return New(name, func(context.Context) (models.Value, error) { return models.Unavailable(), err })
}

// hanging ignores ctx and blocks until released.
func hanging(name string, release <-chan struct{}) Probe {
	return New(name, func(context.Context) (models.Value, error) {
		<-release
		return models.Number(1, models.UnitNone), nil
	})
}

type counting struct {
	Probe
	calls atomic.Int32
}

func (c *counting) Read(ctx context.Context) (models.Value, error) {
	c.calls.Add(1)
	return c.Probe.Read(ctx)
}

func TestAttemptSuccess(t *testing.T) {
	value, err := Attempt(context.Background(), fixed("ok", models.Number(42, models.UnitCelsius)), time.Second)
	if err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if got := value.Number(); got != 42 {
		t.Errorf("Attempt() = %v, want 42", got)
	}
}

func TestAttemptErrorIsFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	value, err := Attempt(context.Background(), failing("nvidia-smi", cause), time.Second)
	if value.Available() {
		t.Fatal("failed probe produced an available value")
	}
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("error %v is not a *Failure", err)
	}
	if failure.Probe != "nvidia-smi" {
		t.Errorf("Failure.Probe = %q, want nvidia-smi", failure.Probe)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap the cause", err)
	}
}

func TestAttemptUnavailableWithoutError(t *testing.T) {
	_, err := Attempt(context.Background(), fixed("empty", models.Unavailable()), time.Second)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("error = %v, want ErrNoData", err)
	}
}

func TestAttemptRecoversPanic(t *testing.T) {
	p := New("boom", func(context.Context) (models.Value, error) {
		var values []float64
		return models.Number(values[3], models.UnitNone), nil
	})
	value, err := Attempt(context.Background(), p, time.Second)
	if value.Available() {
		t.Fatal("panicking probe produced a value")
	}
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("error = %v, want ErrPanic", err)
	}
}

func TestAttemptBoundedByTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	value, err := Attempt(context.Background(), hanging("stuck", release), 50*time.Millisecond)
	elapsed := time.Since(start)

	if value.Available() {
		t.Fatal("hung probe produced a value")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if elapsed > time.Second {
		t.Errorf("Attempt took %v, want it bounded by the 50ms timeout", elapsed)
	}
}

func TestAttemptCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &counting{Probe: fixed("ok", models.Number(1, models.UnitNone))}
	if _, err := Attempt(ctx, p, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("probe invoked %d times on a canceled context", got)
	}
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &counting{Probe: failing("sensors", ErrNoData)}
	second := &counting{Probe: fixed("thermal_zone0", models.Number(51, models.UnitCelsius))}
	third := &counting{Probe: fixed("hwmon", models.Number(99, models.UnitCelsius))}

	chain := NewChain(models.CpuTemp, time.Second, nil, first, second, third)
	value := chain.Resolve(context.Background())

	if got := value.Number(); got != 51 {
		t.Errorf("Resolve() = %v, want 51 from the second probe", got)
	}
	if got := first.calls.Load(); got != 1 {
		t.Errorf("first probe called %d times, want 1", got)
	}
	if got := third.calls.Load(); got != 0 {
		t.Errorf("probe after the first success called %d times, want 0", got)
	}
}

func TestChainAllFail(t *testing.T) {
	// A machine with no GPU tools: nvidia-smi and rocm-smi missing, no
	// amdgpu card in sysfs.
	chain := NewChain(models.GpuTemp, time.Second, nil,
		failing("nvidia-smi temperature.gpu", errors.New(`exec: "nvidia-smi": executable file not found in $PATH`)),
		failing("rocm-smi --showtemp", errors.New(`exec: "rocm-smi": executable file not found in $PATH`)),
		failing("amdgpu hwmon temp1_input", ErrNoData),
	)
	if value := chain.Resolve(context.Background()); value.Available() {
		t.Fatalf("Resolve() = %v, want unavailable", value)
	}
}

func TestChainSkipsWrongShape(t *testing.T) {
	chain := NewChain(models.RamUsage, time.Second, nil,
		fixed("meminfo", models.Number(50, models.UnitPercent)),
		fixed("sysinfo", models.Ratio(2048, 4096, models.UnitMiB)),
	)
	value := chain.Resolve(context.Background())
	if value.Kind() != models.KindRatio {
		t.Fatalf("Resolve() kind = %v, want ratio", value.Kind())
	}
}

func TestChainTimeoutIsPerProbe(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	chain := NewChain(models.CpuUsage, 50*time.Millisecond, nil,
		hanging("top", release),
		fixed("proc stat", models.Number(12.5, models.UnitPercent)),
	)
	value := chain.Resolve(context.Background())
	if got := value.Number(); got != 12.5 {
		t.Fatalf("Resolve() = %v, want the fallback after the hung probe", value)
	}
}

func TestChainStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &counting{Probe: fixed("ok", models.Number(1, models.UnitNone))}
	chain := NewChain(models.LoadAvg, time.Second, nil, p)
	if value := chain.Resolve(ctx); value.Available() {
		t.Fatalf("Resolve() = %v on a canceled context, want unavailable", value)
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("probe called %d times, want 0", got)
	}
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain(models.Battery, time.Second, nil)
	if value := chain.Resolve(context.Background()); value.Available() {
		t.Fatalf("empty chain resolved to %v", value)
	}
}
