// Package collector resolves every registered probe chain concurrently
// and assembles the results into a snapshot.
//
// A collection never outlives its deadline. Chains that have not
// resolved when it passes are reported Unavailable and left to finish
// on their own; each chain is itself bounded by its per-probe timeout.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prabalesh/crophud/internal/clock"
	"github.com/prabalesh/crophud/internal/config"
	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

type Options struct {
	// Deadline bounds one Collect call. Required.
	Deadline time.Duration

	// Clock stamps snapshots. Defaults to clock.Real.
	Clock clock.Clock

	// Logger receives debug output about late chains. Defaults to
	// discarding.
	Logger *slog.Logger
}

type Collector struct {
	chains   []*probe.Chain
	metrics  []models.Metric
	deadline time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// New validates the registry and returns a Collector for it. Each metric
// may be registered at most once and every chain needs at least one
// probe.
func New(chains []*probe.Chain, opts Options) (*Collector, error) {
	if len(chains) == 0 {
		return nil, &config.ConfigurationError{Field: "metrics", Reason: "no probe chains registered"}
	}
	if opts.Deadline <= 0 {
		return nil, &config.ConfigurationError{Field: "deadline", Reason: "must be positive"}
	}

	var seen [models.MetricCount]bool
	metrics := make([]models.Metric, 0, len(chains))
	for _, chain := range chains {
		metric := chain.Metric()
		if !metric.Valid() {
			return nil, &config.ConfigurationError{Field: "metrics", Reason: fmt.Sprintf("%s is not a known metric", metric)}
		}
		if seen[metric] {
			return nil, &config.ConfigurationError{Field: "metrics", Reason: fmt.Sprintf("%s registered twice", metric)}
		}
		if chain.Len() == 0 {
			return nil, &config.ConfigurationError{Field: "metrics", Reason: fmt.Sprintf("%s has no probes", metric)}
		}
		seen[metric] = true
		metrics = append(metrics, metric)
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Collector{
		chains:   chains,
		metrics:  metrics,
		deadline: opts.Deadline,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}, nil
}

// Metrics returns the registered metrics in registration order.
func (c *Collector) Metrics() []models.Metric {
	return append([]models.Metric(nil), c.metrics...)
}

func (c *Collector) Deadline() time.Duration { return c.deadline }

type resolved struct {
	metric models.Metric
	value  models.Value
}

// Collect resolves every chain and returns a snapshot holding an entry
// for each registered metric. It returns by the deadline or when ctx is
// done, whichever comes first.
func (c *Collector) Collect(ctx context.Context) models.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()
	started := c.clock.Now()

	// Buffered for every chain so late chains never block after Collect
	// has returned.
	results := make(chan resolved, len(c.chains))

	// Every chain starts at once so a hung tool in one chain cannot hold
	// back the others. Process spawns are bounded by the Host's Runner.
	go func() {
		var group errgroup.Group
		for _, chain := range c.chains {
			group.Go(func() error {
				results <- resolved{metric: chain.Metric(), value: chain.Resolve(ctx)}
				return nil
			})
		}
		_ = group.Wait()
		close(results)
	}()

	values := make(map[models.Metric]models.Value, len(c.chains))
	for {
		select {
		case result, ok := <-results:
			if !ok {
				return c.snapshot(started, values)
			}
			values[result.metric] = result.value
		case <-ctx.Done():
			c.logger.Debug("collection cut short",
				"resolved", len(values),
				"pending", len(c.chains)-len(values),
				"error", ctx.Err(),
			)
			return c.snapshot(started, values)
		}
	}
}

func (c *Collector) snapshot(started time.Time, values map[models.Metric]models.Value) models.Snapshot {
	snapshot := models.NewSnapshot(started, c.metrics, values)
	c.logger.Debug("collected",
		"available", snapshot.Available(),
		"registered", len(c.metrics),
	)
	return snapshot
}
