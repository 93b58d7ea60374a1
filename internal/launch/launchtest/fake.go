// Package launchtest provides a scripted launch.Runner for tests.
package launchtest

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"git.home.luguber.info/inful/astrokit/internal/launch"
)

// Runner records every call and answers from the configured handlers.
type Runner struct {
	mu sync.Mutex

	// OnOutput answers Output calls; nil returns empty output.
	OnOutput func(cmd launch.Cmd) ([]byte, error)
	// OnRun answers Run calls; nil returns exit code 0.
	OnRun func(cmd launch.Cmd) (int, error)
	// Paths maps executable names to LookPath results.
	Paths map[string]string

	outputs []launch.Cmd
	runs    []launch.Cmd
}

// Output implements launch.Runner.
func (r *Runner) Output(_ context.Context, cmd launch.Cmd) ([]byte, error) {
	r.mu.Lock()
	r.outputs = append(r.outputs, cmd)
	handler := r.OnOutput
	r.mu.Unlock()
	if handler == nil {
		return nil, nil
	}
	return handler(cmd)
}

// Run implements launch.Runner.
func (r *Runner) Run(_ context.Context, cmd launch.Cmd) (int, error) {
	r.mu.Lock()
	r.runs = append(r.runs, cmd)
	handler := r.OnRun
	r.mu.Unlock()
	if handler == nil {
		return 0, nil
	}
	return handler(cmd)
}

// LookPath implements launch.Runner.
func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Outputs returns the captured Output calls.
func (r *Runner) Outputs() []launch.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]launch.Cmd(nil), r.outputs...)
}

// Runs returns the captured Run calls.
func (r *Runner) Runs() []launch.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]launch.Cmd(nil), r.runs...)
}
