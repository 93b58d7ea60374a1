package report

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/astrokit/internal/doctor"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/repair"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

func TestInstallReportRendering(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Install(&installer.Report{
		Kind:     installer.KindInstall,
		Duration: 1500 * time.Millisecond,
		Items: []installer.Item{
			{Component: "home", Outcome: installer.OutcomeSkipped, Detail: "already installed"},
			{Component: "core", Outcome: installer.OutcomeFailed, Check: "pip-install", FixHint: "re-run astro install core"},
			{Component: "viz", Outcome: installer.OutcomeBlocked, Detail: "dependency core is failed"},
			{Component: "java", Outcome: installer.OutcomeOK},
		},
	})
	out := buf.String()

	assert.Contains(t, out, "Install\n")
	assert.Contains(t, out, "○ Home")
	assert.Contains(t, out, "✗ Core")
	assert.Contains(t, out, "check: pip-install")
	assert.Contains(t, out, "→ Fix: re-run astro install core")
	assert.Contains(t, out, "2 component(s) need attention")
	assert.Contains(t, out, "Duration: 1.50 seconds")
	assert.Contains(t, out, "Success Rate:")
	assert.Contains(t, out, " 50%")
	assert.NotContains(t, out, "\033[", "buffers are never colored")
}

func TestHealthReportRendering(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Health(doctor.NewHealthReport(time.Now(),
		doctor.Entry{Component: "python", Status: state.StatusOK, Detail: "Python 3.11.4"},
		doctor.Entry{Component: "topcat", Status: state.StatusBroken, Check: "jar-magic", FixHint: "astro repair",
			Disagreement: "state store records it installed but verify reports broken"},
	))
	out := buf.String()

	assert.Contains(t, out, "Health Report")
	assert.Contains(t, out, "✓ Python")
	assert.Contains(t, out, "✗ Topcat")
	assert.Contains(t, out, "check: jar-magic")
	assert.Contains(t, out, "state: state store records it installed")
}

func TestPlanRendering(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Plan(repair.Plan{})
	assert.Contains(t, buf.String(), "nothing to repair")

	buf.Reset()
	p.Plan(repair.Plan{
		Actions:   []repair.Action{{Component: "kit", Status: state.StatusDegraded, Check: "script:visual_foundations.py"}},
		Untouched: []string{"home", "python"},
	})
	assert.Contains(t, buf.String(), "? Kit")
	assert.Contains(t, buf.String(), "untouched: home, python")
}

func TestColorOnlyOnTerminals(t *testing.T) {
	env := func(v string) func(string) string { return func(string) string { return v } }
	assert.False(t, colorEnabled(&bytes.Buffer{}, env("")))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, colorEnabled(f, env("")), "regular files are not terminals")
	assert.False(t, colorEnabled(os.Stdout, env("1")), "NO_COLOR wins")

	var buf bytes.Buffer
	New(&buf).WithColor(true).Section("core")
	assert.Contains(t, buf.String(), ansiBold+"Core"+ansiReset)
}

func TestSuccessRate(t *testing.T) {
	assert.InDelta(t, 100.0, SuccessRate(0, 0), 0.001)
	assert.InDelta(t, 75.0, SuccessRate(3, 4), 0.001)
}

func TestStatusRendering(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	p := New(&buf)
	p.Status([]StatusRow{
		{Component: "python", Known: true, Record: state.Record{
			Installed: true, InstalledAt: now.Add(-72 * time.Hour), LastVerified: now.Add(-2 * time.Hour), LastStatus: state.StatusOK,
		}},
		{Component: "topcat", Description: "TOPCAT table viewer"},
	}, now)
	out := buf.String()

	assert.Contains(t, out, "Recorded State")
	assert.Contains(t, out, "installed 3 days ago, verified 2 hours ago")
	assert.Contains(t, out, "absent")

	buf.Reset()
	p.History([]state.Event{{Kind: "install", Component: "core", Outcome: "failed", Detail: "pip install failed", At: now.Add(-time.Minute)}}, now)
	assert.Contains(t, buf.String(), "1 minute ago  install core → failed (pip install failed)")
}
