package launch

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_RunForwardsArgsEnvAndExitCode(t *testing.T) {
	sh := requireShell(t)
	var stdout bytes.Buffer

	code, err := ExecRunner{}.Run(context.Background(), Cmd{
		Path:   sh,
		Args:   []string{"-c", `echo "$GREETING $1"; exit 3`, "sh", "--with spaces"},
		Env:    []string{"GREETING=hello"},
		Stdout: &stdout,
	})

	require.NoError(t, err)
	require.Equal(t, 3, code)
	require.Equal(t, "hello --with spaces\n", stdout.String())
}

func TestExecRunner_RunMissingExecutable(t *testing.T) {
	code, err := ExecRunner{}.Run(context.Background(), Cmd{Path: "/nonexistent/astro-test-binary"})
	require.Error(t, err)
	require.Equal(t, -1, code)
}

func TestExecRunner_RunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExecRunner{}.Run(ctx, Cmd{Path: "/bin/true"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecRunner_OutputIncludesStderrOnFailure(t *testing.T) {
	sh := requireShell(t)

	out, err := ExecRunner{}.Output(context.Background(), Cmd{Path: sh, Args: []string{"-c", "echo ok"}})
	require.NoError(t, err)
	require.Equal(t, "ok\n", string(out))

	_, err = ExecRunner{}.Output(context.Background(), Cmd{Path: sh, Args: []string{"-c", "echo 'no module named numpy' >&2; exit 1"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no module named numpy")
}

func TestCmdString(t *testing.T) {
	require.Equal(t, "java -jar topcat.jar", Cmd{Path: "java", Args: []string{"-jar", "topcat.jar"}}.String())
}
