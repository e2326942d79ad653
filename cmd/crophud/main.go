// crophud is a terminal stats overlay. It samples CPU, GPU and system
// metrics through per-metric probe chains while the overlay is visible
// and stops sampling entirely while it is hidden.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/prabalesh/crophud/internal/config"
	"github.com/prabalesh/crophud/internal/session"
	"github.com/prabalesh/crophud/internal/ui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		interval    time.Duration
		show        bool
		logFile     string
		logLevel    string
		once        bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("crophud", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file (default: $"+config.EnvVar+")")
	flagSet.DurationVar(&interval, "interval", 0, "polling interval, overriding the config file")
	flagSet.BoolVar(&show, "show", false, "start with the overlay visible")
	flagSet.StringVar(&logFile, "log-file", "", "write text log records to this file")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolVar(&once, "once", false, "print one snapshot and exit; rates are measured over one interval")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("crophud %s\n", version)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	logger, closeLog, err := openLogger(logFile, logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("interval") {
		cfg.Interval = interval
	}
	if show {
		cfg.AutoShow = true
	}
	if once {
		cfg.AutoShow = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := session.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if once {
		fmt.Print(ui.Plain(s.CollectSettled(ctx, cfg.Interval), cfg.Placeholder))
		return nil
	}

	program := tea.NewProgram(ui.FromSession(s), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running overlay: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// openLogger returns a text logger writing to path, or a discarding one
// when path is empty. The terminal belongs to the overlay.
func openLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { file.Close() }, nil
}
