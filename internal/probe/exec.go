package probe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/prabalesh/crophud/internal/models"
)

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs real processes. Output is forced into the C locale so
// parsers see stable decimal separators where the tool honors it.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.WaitDelay = 100 * time.Millisecond
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// LimitRunner bounds how many commands run through runner at once. A
// command waiting for a slot gives up when ctx is done. A limit below
// one returns runner unchanged.
func LimitRunner(runner Runner, limit int) Runner {
	if limit < 1 {
		return runner
	}
	return &limitedRunner{runner: runner, slots: semaphore.NewWeighted(int64(limit))}
}

type limitedRunner struct {
	runner Runner
	slots  *semaphore.Weighted
}

func (r *limitedRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)
	return r.runner.Run(ctx, name, args...)
}

// Command builds a probe that runs tool with args and parses its stdout.
// Output that is empty after trimming is ErrNoData.
func Command(name string, runner Runner, parse func(output string) (models.Value, error), tool string, args ...string) Probe {
	return New(name, func(ctx context.Context) (models.Value, error) {
		output, err := runner.Run(ctx, tool, args...)
		if err != nil {
			return models.Unavailable(), err
		}
		text := strings.TrimSpace(string(output))
		if text == "" {
			return models.Unavailable(), ErrNoData
		}
		return parse(text)
	})
}
