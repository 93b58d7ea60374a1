package observability

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextValuesAccumulate(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithRunKind(ctx, "install")
	ctx = WithCommand(ctx, "install")
	ctx = WithComponent(ctx, "core")

	lc := GetContext(ctx)
	require.Equal(t, LogContext{RunID: "run-1", RunKind: "install", Command: "install", Component: "core"}, lc)
}

func TestWithComponentDoesNotLeakToParent(t *testing.T) {
	parent := WithRunID(context.Background(), "run-1")
	child := WithComponent(parent, "viz")

	require.Empty(t, GetContext(parent).Component)
	require.Equal(t, "viz", GetContext(child).Component)
	require.Equal(t, "run-1", GetContext(child).RunID)
}

func TestInfoContextIncludesContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := WithComponent(WithRunID(context.Background(), "run-42"), "topcat")
	InfoContext(ctx, "component installed", slog.String("extra", "x"))

	out := buf.String()
	require.Contains(t, out, "component installed")
	require.Contains(t, out, "run_id=run-42")
	require.Contains(t, out, "component=topcat")
	require.Contains(t, out, "extra=x")
}

func TestSetupFansOutToFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "astro.log")

	logger, closeFn, err := Setup(SetupOptions{Level: slog.LevelInfo, Console: &console, File: file})
	require.NoError(t, err)

	logger.Info("hello", "component", "core")
	logger.Debug("filtered")
	require.NoError(t, closeFn())

	require.Contains(t, console.String(), "hello")
	require.NotContains(t, console.String(), "filtered")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"msg":"hello"`)
	require.Contains(t, lines[0], `"component":"core"`)
}
