package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prabalesh/crophud/internal/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := cfg.CollectDeadline(); got != time.Second {
		t.Errorf("CollectDeadline() = %v, want the interval", got)
	}

	enabled, err := cfg.EnabledMetrics()
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != models.MetricCount {
		t.Errorf("default enables %d metrics, want %d", len(enabled), models.MetricCount)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
interval: 2s
deadline: 1500ms
metrics: [cpu_temp, cpu_usage, gpu_usage, cpu_temp]
chart_metrics: [cpu_usage]
auto_show: true
paths:
  proc: /tmp/proc
tools:
  nvidia_smi: /opt/nvidia/bin/nvidia-smi
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Interval)
	}
	if got := cfg.CollectDeadline(); got != 1500*time.Millisecond {
		t.Errorf("CollectDeadline() = %v, want 1.5s", got)
	}
	if !cfg.AutoShow {
		t.Error("AutoShow = false, want true")
	}
	if cfg.Paths.Proc != "/tmp/proc" || cfg.Paths.Sys != "/sys" {
		t.Errorf("Paths = %+v, want proc overridden and sys defaulted", cfg.Paths)
	}
	if cfg.Tools.NvidiaSMI != "/opt/nvidia/bin/nvidia-smi" || cfg.Tools.RocmSMI != "rocm-smi" {
		t.Errorf("Tools = %+v", cfg.Tools)
	}
	if cfg.ProbeTimeout != 750*time.Millisecond {
		t.Errorf("ProbeTimeout = %v, want the default", cfg.ProbeTimeout)
	}

	enabled, err := cfg.EnabledMetrics()
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Metric{models.CpuTemp, models.CpuUsage, models.GpuUsage}
	if len(enabled) != len(want) {
		t.Fatalf("EnabledMetrics() = %v, want %v", enabled, want)
	}
	for i := range want {
		if enabled[i] != want[i] {
			t.Errorf("EnabledMetrics()[%d] = %v, want %v", i, enabled[i], want[i])
		}
	}
}

func TestNarrowedMetricsTrimDefaultCharts(t *testing.T) {
	tests := []struct {
		yaml string
		want []models.Metric
	}{
		{"metrics: [cpu_temp, ram_usage]\n", nil},
		{"metrics: [gpu_usage, cpu_temp]\n", []models.Metric{models.GpuUsage}},
		{"", []models.Metric{models.CpuUsage, models.GpuUsage}},
	}
	for _, tt := range tests {
		cfg, err := Parse([]byte(tt.yaml))
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.yaml, err)
			continue
		}
		charted, err := cfg.ChartedMetrics()
		if err != nil {
			t.Fatal(err)
		}
		if len(charted) != len(tt.want) {
			t.Errorf("Parse(%q) charts %v, want %v", tt.yaml, charted, tt.want)
			continue
		}
		for i := range tt.want {
			if charted[i] != tt.want[i] {
				t.Errorf("Parse(%q) charts %v, want %v", tt.yaml, charted, tt.want)
			}
		}
	}
}

func TestExplicitChartMustBeEnabled(t *testing.T) {
	_, err := Parse([]byte("metrics: [cpu_temp]\nchart_metrics: [cpu_usage]\n"))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) || configErr.Field != "chart_metrics" {
		t.Errorf("Parse() error = %v, want chart_metrics ConfigurationError", err)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg.Interval != time.Second {
		t.Errorf("Interval = %v, want default", cfg.Interval)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("intervall: 2s\n"))
	if err == nil {
		t.Fatal("Parse() accepted an unknown key")
	}
	if !strings.Contains(err.Error(), "intervall") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval"},
		{"deadline beyond interval", func(c *Config) { c.Deadline = 2 * time.Second }, "deadline"},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = 0 }, "probe_timeout"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero history", func(c *Config) { c.HistoryCapacity = 0 }, "history_capacity"},
		{"unknown metric", func(c *Config) { c.Metrics = []string{"cpu_temp", "fps"} }, "metrics"},
		{"no metrics", func(c *Config) { c.Metrics = nil; c.ChartMetrics = nil }, "metrics"},
		{"chart not enabled", func(c *Config) {
			c.Metrics = []string{"cpu_temp"}
			c.ChartMetrics = []string{"cpu_usage"}
		}, "chart_metrics"},
		{"unknown chart metric", func(c *Config) { c.ChartMetrics = []string{"vram"} }, "chart_metrics"},
		{"empty toggle key", func(c *Config) { c.ToggleKey = "" }, "toggle_key"},
		{"empty sys path", func(c *Config) { c.Paths.Sys = "" }, "paths.sys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			var configErr *ConfigurationError
			if err := cfg.Validate(); !errors.As(err, &configErr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if configErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", configErr.Field, tt.field)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crophud.yaml")
	if err := os.WriteFile(path, []byte("history_capacity: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvVar, path)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.HistoryCapacity != 60 {
		t.Errorf("HistoryCapacity = %d, want 60", cfg.HistoryCapacity)
	}

	t.Setenv(EnvVar, "")
	cfg, err = LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() without %s error = %v", EnvVar, err)
	}
	if cfg.HistoryCapacity != 30 {
		t.Errorf("HistoryCapacity = %d, want default", cfg.HistoryCapacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not exist", err)
	}
}
