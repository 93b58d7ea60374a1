// Package launch runs external executables on behalf of astro.
//
// Install and verify actions capture output through Runner.Output. Launch
// commands hand the terminal to the child through Runner.Run, which forwards
// arguments verbatim, applies the resolved environment, waits for the child
// and returns its exit code. The astro process is never replaced.
package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// Cmd describes one child process.
type Cmd struct {
	Path string
	Args []string
	Env  []string // complete environment; nil inherits the parent's
	Dir  string

	Stdin  io.Reader // Run only; defaults to os.Stdin
	Stdout io.Writer // Run only; defaults to os.Stdout
	Stderr io.Writer // Run only; defaults to os.Stderr
}

// String renders the command line for logs and messages.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Runner abstracts child process execution so install, verify and launch
// logic can be tested without spawning processes.
type Runner interface {
	// Output runs cmd to completion and returns its stdout. A non-zero exit
	// is an error that includes stderr.
	Output(ctx context.Context, cmd Cmd) ([]byte, error)
	// Run attaches the child to the terminal and returns its exit code.
	Run(ctx context.Context, cmd Cmd) (int, error)
	// LookPath resolves an executable name on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, c Cmd) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.DebugContext(ctx, "Running command", slog.String("cmd", c.String()))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", c.Path, err, lastLines(msg, 5))
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", c.Path, err)
	}
	return stdout.Bytes(), nil
}

// Run implements Runner. Interrupts from the terminal already reach the
// child through the foreground process group, so astro only swallows them
// while it waits. SIGTERM is forwarded explicitly.
func (ExecRunner) Run(ctx context.Context, c Cmd) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	if err := cmd.Start(); err != nil {
		return -1, err
	}
	slog.DebugContext(ctx, "Started child process", slog.String("cmd", c.String()), slog.Int("pid", cmd.Process.Pid))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-signals:
				if sig == syscall.SIGTERM {
					_ = cmd.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	signal.Stop(signals)
	close(done)

	code := exitCode(cmd, err)
	slog.DebugContext(ctx, "Child process exited", logfields.ExitCode(code))
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return code, err
	}
	return code, nil
}

// LookPath implements Runner.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func exitCode(cmd *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	if err != nil {
		return -1
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return 0
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
