// Package config loads crophud configuration.
//
// Configuration comes from a single YAML file named by --config or the
// CROPHUD_CONFIG environment variable. The file is decoded over Default,
// so it only needs the keys it changes. Unknown keys are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prabalesh/crophud/internal/models"
)

// EnvVar names the environment variable LoadFromEnv reads.
const EnvVar = "CROPHUD_CONFIG"

// DefaultChartMetrics are charted when chart_metrics is not set.
var DefaultChartMetrics = []models.Metric{models.CpuUsage, models.GpuUsage}

type Config struct {
	// Interval is the time between collections while the overlay is
	// visible.
	Interval time.Duration `yaml:"interval"`

	// Deadline bounds one collection. Zero means Interval.
	Deadline time.Duration `yaml:"deadline"`

	// ProbeTimeout bounds a single probe, including an external command.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Workers bounds how many external tools run at once.
	Workers int `yaml:"workers"`

	// HistoryCapacity is the number of samples kept per charted metric.
	HistoryCapacity int `yaml:"history_capacity"`

	// Metrics lists the enabled metrics by name, e.g. "gpu_temp".
	Metrics []string `yaml:"metrics"`

	// ChartMetrics lists the metrics that keep history for charts.
	// Each must also be enabled. Unset means DefaultChartMetrics, less
	// any that are not enabled.
	ChartMetrics []string `yaml:"chart_metrics"`

	// DiskPath is the filesystem reported as DiskUsage.
	DiskPath string `yaml:"disk_path"`

	// Placeholder is rendered for unavailable values.
	Placeholder string `yaml:"placeholder"`

	// AutoShow starts the overlay visible.
	AutoShow bool `yaml:"auto_show"`

	// ToggleKey shows and hides the overlay, in bubbletea key notation.
	ToggleKey string `yaml:"toggle_key"`

	Paths PathsConfig `yaml:"paths"`
	Tools ToolsConfig `yaml:"tools"`
}

// PathsConfig locates the kernel pseudo-filesystems. Tests point these
// at synthetic trees.
type PathsConfig struct {
	Proc string `yaml:"proc"`
	Sys  string `yaml:"sys"`
}

// ToolsConfig names the external commands probes may run. Each is a
// name looked up in PATH or an absolute path.
type ToolsConfig struct {
	Sensors   string `yaml:"sensors"`
	NvidiaSMI string `yaml:"nvidia_smi"`
	RocmSMI   string `yaml:"rocm_smi"`
	Top       string `yaml:"top"`
	Df        string `yaml:"df"`
	Upower    string `yaml:"upower"`
}

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	metrics := models.AllMetrics()
	names := make([]string, len(metrics))
	for i, metric := range metrics {
		names[i] = metric.String()
	}

	return &Config{
		Interval:        time.Second,
		ProbeTimeout:    750 * time.Millisecond,
		Workers:         8,
		HistoryCapacity: 30,
		Metrics:         names,
		DiskPath:        "/",
		Placeholder:     "--",
		ToggleKey:       "ctrl+g",
		Paths: PathsConfig{
			Proc: "/proc",
			Sys:  "/sys",
		},
		Tools: ToolsConfig{
			Sensors:   "sensors",
			NvidiaSMI: "nvidia-smi",
			RocmSMI:   "rocm-smi",
			Top:       "top",
			Df:        "df",
			Upower:    "upower",
		},
	}
}

// Load decodes the file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by CROPHUD_CONFIG, or returns Default
// when the variable is unset.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CollectDeadline returns Deadline, or Interval when Deadline is unset.
func (c *Config) CollectDeadline() time.Duration {
	if c.Deadline > 0 {
		return c.Deadline
	}
	return c.Interval
}

// EnabledMetrics resolves Metrics in order, dropping duplicates.
func (c *Config) EnabledMetrics() ([]models.Metric, error) {
	return resolveMetrics("metrics", c.Metrics)
}

// ChartedMetrics resolves ChartMetrics in order, dropping duplicates.
// When ChartMetrics is unset it returns the enabled DefaultChartMetrics.
func (c *Config) ChartedMetrics() ([]models.Metric, error) {
	if c.ChartMetrics != nil {
		return resolveMetrics("chart_metrics", c.ChartMetrics)
	}

	enabled, err := c.EnabledMetrics()
	if err != nil {
		return nil, err
	}
	var isEnabled [models.MetricCount]bool
	for _, metric := range enabled {
		isEnabled[metric] = true
	}
	var charted []models.Metric
	for _, metric := range DefaultChartMetrics {
		if isEnabled[metric] {
			charted = append(charted, metric)
		}
	}
	return charted, nil
}

func resolveMetrics(field string, names []string) ([]models.Metric, error) {
	var seen [models.MetricCount]bool
	metrics := make([]models.Metric, 0, len(names))
	for _, name := range names {
		metric, err := models.ParseMetric(name)
		if err != nil {
			return nil, &ConfigurationError{Field: field, Reason: err.Error()}
		}
		if seen[metric] {
			continue
		}
		seen[metric] = true
		metrics = append(metrics, metric)
	}
	return metrics, nil
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Interval <= 0:
		return &ConfigurationError{Field: "interval", Reason: "must be positive"}
	case c.Deadline < 0:
		return &ConfigurationError{Field: "deadline", Reason: "must not be negative"}
	case c.Deadline > c.Interval:
		return &ConfigurationError{Field: "deadline", Reason: fmt.Sprintf("%v exceeds interval %v", c.Deadline, c.Interval)}
	case c.ProbeTimeout <= 0:
		return &ConfigurationError{Field: "probe_timeout", Reason: "must be positive"}
	case c.Workers <= 0:
		return &ConfigurationError{Field: "workers", Reason: "must be positive"}
	case c.HistoryCapacity <= 0:
		return &ConfigurationError{Field: "history_capacity", Reason: "must be positive"}
	case c.DiskPath == "":
		return &ConfigurationError{Field: "disk_path", Reason: "is required"}
	case c.ToggleKey == "":
		return &ConfigurationError{Field: "toggle_key", Reason: "is required"}
	case c.Paths.Proc == "":
		return &ConfigurationError{Field: "paths.proc", Reason: "is required"}
	case c.Paths.Sys == "":
		return &ConfigurationError{Field: "paths.sys", Reason: "is required"}
	}

	enabled, err := c.EnabledMetrics()
	if err != nil {
		return err
	}
	if len(enabled) == 0 {
		return &ConfigurationError{Field: "metrics", Reason: "at least one metric must be enabled"}
	}

	charted, err := c.ChartedMetrics()
	if err != nil {
		return err
	}
	var isEnabled [models.MetricCount]bool
	for _, metric := range enabled {
		isEnabled[metric] = true
	}
	for _, metric := range charted {
		if !isEnabled[metric] {
			return &ConfigurationError{Field: "chart_metrics", Reason: fmt.Sprintf("%s is not enabled", metric)}
		}
	}
	return nil
}
