// Package session wires configuration into a running collection
// pipeline: probe chains, the collector, the scheduler and the chart
// history. A Session is the application context shared by the overlay
// and the one-shot command.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/prabalesh/crophud/internal/collector"
	"github.com/prabalesh/crophud/internal/config"
	"github.com/prabalesh/crophud/internal/history"
	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
	"github.com/prabalesh/crophud/internal/scheduler"
)

type Session struct {
	Config    *config.Config
	Host      *collector.Host
	Collector *collector.Collector
	Scheduler *scheduler.Scheduler
	History   *history.History

	logger *slog.Logger
}

// Open validates cfg and builds a Session probing the local machine. The
// scheduler starts Visible when cfg.AutoShow is set.
func Open(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	return OpenHost(cfg, collector.HostFromConfig(cfg), logger)
}

// OpenHost is Open with a caller-supplied Host.
func OpenHost(cfg *config.Config, host *collector.Host, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metrics, err := cfg.EnabledMetrics()
	if err != nil {
		return nil, err
	}
	charted, err := cfg.ChartedMetrics()
	if err != nil {
		return nil, err
	}

	// Tool probes share cfg.Workers process slots; file probes are not
	// limited.
	limited := *host
	limited.Runner = probe.LimitRunner(host.Runner, cfg.Workers)
	host = &limited

	chains := host.Chains(metrics, cfg.ProbeTimeout, logger.With("component", "probe"))
	c, err := collector.New(chains, collector.Options{
		Deadline: cfg.CollectDeadline(),
		Clock:    host.Clock,
		Logger:   logger.With("component", "collector"),
	})
	if err != nil {
		return nil, fmt.Errorf("build collector: %w", err)
	}

	s := &Session{
		Config:    cfg,
		Host:      host,
		Collector: c,
		Scheduler: scheduler.New(c, scheduler.Config{
			Interval: cfg.Interval,
			Clock:    host.Clock,
			Logger:   logger.With("component", "scheduler"),
		}),
		History: history.New(cfg.HistoryCapacity, charted...),
		logger:  logger,
	}
	logger.Info("session opened",
		"metrics", len(metrics),
		"interval", cfg.Interval,
		"deadline", cfg.CollectDeadline(),
		"auto_show", cfg.AutoShow)

	if cfg.AutoShow {
		s.Scheduler.Show()
	}
	return s, nil
}

// Collect takes one snapshot outside the scheduler and records it.
func (s *Session) Collect(ctx context.Context) models.Snapshot {
	snapshot := s.Collector.Collect(ctx)
	s.History.Record(snapshot)
	return snapshot
}

// deltaMetrics are computed from the change since a previous reading.
var deltaMetrics = []models.Metric{models.CpuUsage, models.NetDown, models.NetUp}

// CollectSettled takes a snapshot for one-off output. When a delta
// metric is enabled it first primes the baselines and waits settle, so
// rates and CPU usage cover that period instead of being unavailable or
// averaged since boot.
func (s *Session) CollectSettled(ctx context.Context, settle time.Duration) models.Snapshot {
	if settle <= 0 || !s.collectsAny(deltaMetrics) {
		return s.Collect(ctx)
	}

	s.Collector.Collect(ctx)
	ticker := s.Host.Clock.NewTicker(settle)
	defer ticker.Stop()
	select {
	case <-ticker.C:
	case <-ctx.Done():
	}
	return s.Collect(ctx)
}

func (s *Session) collectsAny(metrics []models.Metric) bool {
	for _, registered := range s.Collector.Metrics() {
		if slices.Contains(metrics, registered) {
			return true
		}
	}
	return false
}

// Close stops collection and closes the scheduler's update channel.
func (s *Session) Close() {
	s.Scheduler.Close()
	s.logger.Info("session closed")
}
