package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/prabalesh/crophud/internal/models"
)

// Chain is the ordered list of probes for one metric, most authoritative
// first.
type Chain struct {
	metric  models.Metric
	timeout time.Duration
	probes  []Probe
	logger  *slog.Logger
}

// NewChain builds the chain for metric. timeout bounds each probe
// individually. A nil logger discards output.
func NewChain(metric models.Metric, timeout time.Duration, logger *slog.Logger, probes ...Probe) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{
		metric:  metric,
		timeout: timeout,
		probes:  probes,
		logger:  logger,
	}
}

func (c *Chain) Metric() models.Metric { return c.metric }

func (c *Chain) Len() int { return len(c.probes) }

// ProbeNames lists the probes in priority order.
func (c *Chain) ProbeNames() []string {
	names := make([]string, len(c.probes))
	for i, p := range c.probes {
		names[i] = p.Name()
	}
	return names
}

// Resolve tries each probe in order and returns the first success.
// Probes after the first success are not invoked. It returns
// Unavailable when every probe fails or ctx is done.
func (c *Chain) Resolve(ctx context.Context) models.Value {
	for _, p := range c.probes {
		if err := ctx.Err(); err != nil {
			c.logger.Debug("chain abandoned", "metric", c.metric.String(), "error", err)
			return models.Unavailable()
		}

		value, err := Attempt(ctx, p, c.timeout)
		if err != nil {
			c.logger.Debug("probe failed", "metric", c.metric.String(), "probe", p.Name(), "error", err)
			continue
		}
		if !value.Matches(c.metric.Shape()) {
			c.logger.Debug("probe returned wrong shape", "metric", c.metric.String(), "probe", p.Name())
			continue
		}
		return value
	}
	return models.Unavailable()
}
