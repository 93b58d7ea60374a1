// Package report renders install, health and repair results for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/astrokit/internal/doctor"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/repair"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[91m"
	ansiGreen  = "\033[92m"
	ansiYellow = "\033[93m"
	ansiCyan   = "\033[96m"
)

// Icons.
const (
	IconOK   = "✓"
	IconFail = "✗"
	IconWarn = "?"
	IconSkip = "○"
)

const barLength = 30

// Printer writes human-readable reports.
type Printer struct {
	w     io.Writer
	color bool
	title cases.Caser
}

// New returns a Printer for w. Color is enabled only when w is a terminal and
// NO_COLOR is unset.
func New(w io.Writer) *Printer {
	return &Printer{w: w, color: colorEnabled(w, os.Getenv), title: cases.Title(language.English)}
}

// WithColor forces color on or off.
func (p *Printer) WithColor(on bool) *Printer {
	p.color = on
	return p
}

func colorEnabled(w io.Writer, getenv func(string) string) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(code, s string) string {
	if !p.color || s == "" {
		return s
	}
	return code + s + ansiReset
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Section prints a heading underlined to a fixed width.
func (p *Printer) Section(title string) {
	p.printf("\n%s\n%s\n", p.paint(ansiBold, p.title.String(title)), p.paint(ansiBold, strings.Repeat("-", 50)))
}

func (p *Printer) statusIcon(s state.Status) string {
	switch s {
	case state.StatusOK:
		return p.paint(ansiGreen, IconOK)
	case state.StatusDegraded:
		return p.paint(ansiYellow, IconWarn)
	case state.StatusBroken:
		return p.paint(ansiRed, IconFail)
	case state.StatusUnknown:
		return p.paint(ansiCyan, IconSkip)
	default:
		return p.paint(ansiCyan, IconSkip)
	}
}

func (p *Printer) outcomeIcon(o installer.Outcome) string {
	switch o {
	case installer.OutcomeOK:
		return p.paint(ansiGreen, IconOK)
	case installer.OutcomeDegraded:
		return p.paint(ansiYellow, IconWarn)
	case installer.OutcomeBroken, installer.OutcomeFailed:
		return p.paint(ansiRed, IconFail)
	case installer.OutcomeSkipped, installer.OutcomeBlocked:
		return p.paint(ansiCyan, IconSkip)
	default:
		return IconSkip
	}
}

func (p *Printer) row(icon, name, label, detail string) {
	line := fmt.Sprintf("  %s %-10s %-9s", icon, p.title.String(name), label)
	if detail != "" {
		line += " " + detail
	}
	p.printf("%s\n", strings.TrimRight(line, " "))
}

func (p *Printer) hint(check, fix string) {
	if check != "" {
		p.printf("      %s %s\n", p.paint(ansiDim, "check:"), check)
	}
	if fix != "" {
		p.printf("      %s %s\n", p.paint(ansiCyan, "→ Fix:"), fix)
	}
}

// Install prints an installer report.
func (p *Printer) Install(r *installer.Report) {
	p.Section(r.Kind)
	for _, it := range r.Items {
		p.row(p.outcomeIcon(it.Outcome), it.Component, string(it.Outcome), it.Detail)
		if !it.Outcome.Satisfied() || it.Outcome == installer.OutcomeDegraded {
			p.hint(it.Check, it.FixHint)
		}
	}
	c := r.Counts()
	passed := c[installer.OutcomeOK] + c[installer.OutcomeSkipped]
	warned := c[installer.OutcomeDegraded]
	failed := c[installer.OutcomeFailed] + c[installer.OutcomeBroken] + c[installer.OutcomeBlocked]
	p.summary(passed, failed, warned, len(r.Items), r.Duration)
}

// Health prints a doctor report.
func (p *Printer) Health(r *doctor.HealthReport) {
	p.Section("health report")
	for _, e := range r.Entries() {
		p.row(p.statusIcon(e.Status), e.Component, string(e.Status), e.Detail)
		if !e.Status.IsHealthy() {
			p.hint(e.Check, e.FixHint)
		}
		if e.Disagreement != "" {
			p.printf("      %s %s\n", p.paint(ansiYellow, "state:"), e.Disagreement)
		}
	}
	c := r.Counts()
	p.summary(c[state.StatusOK], c[state.StatusBroken]+c[state.StatusUnknown], c[state.StatusDegraded], len(r.Entries()), 0)
}

// Plan prints a repair dry run.
func (p *Printer) Plan(plan repair.Plan) {
	p.Section("repair plan")
	if plan.Empty() {
		p.printf("  %s nothing to repair\n", p.paint(ansiGreen, IconOK))
		return
	}
	for _, a := range plan.Actions {
		p.row(p.statusIcon(a.Status), a.Component, "reinstall", a.Detail)
		p.hint(a.Check, "")
	}
	if len(plan.Untouched) > 0 {
		p.printf("  %s untouched: %s\n", p.paint(ansiDim, IconSkip), strings.Join(plan.Untouched, ", "))
	}
}

func (p *Printer) summary(passed, failed, warnings, total int, d time.Duration) {
	if failed == 0 {
		p.printf("\n  %s %s\n", p.paint(ansiGreen, IconOK), p.paint(ansiGreen, "all components usable"))
	} else {
		p.printf("\n  %s %s\n", p.paint(ansiRed, IconFail), p.paint(ansiRed, fmt.Sprintf("%d component(s) need attention", failed)))
	}
	p.printf("\n  Passed:   %d\n  Failed:   %d\n  Warnings: %d\n  Total:    %d\n", passed, failed, warnings, total)
	if d > 0 {
		p.printf("\n  Duration: %.2f seconds\n", d.Seconds())
	}

	rate := SuccessRate(passed, total)
	filled := int(float64(barLength) * rate / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)
	color := ansiRed
	switch {
	case rate >= 80:
		color = ansiGreen
	case rate >= 60:
		color = ansiYellow
	}
	p.printf("\n  Success Rate: %s %.0f%%\n", p.paint(color, bar), rate)
}

// SuccessRate returns passed/total as a percentage (100 for an empty run).
func SuccessRate(passed, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(passed) * 100 / float64(total)
}
