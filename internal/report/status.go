package report

import (
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/astrokit/internal/state"
)

// StatusRow is one component line of `astro status`.
type StatusRow struct {
	Component   string
	Description string
	Record      state.Record
	Known       bool // a record exists
}

func since(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Status prints what the state store records. It never probes the system.
func (p *Printer) Status(rows []StatusRow, now time.Time) {
	p.Section("recorded state")
	for _, row := range rows {
		switch {
		case !row.Known:
			p.row(p.paint(ansiDim, IconSkip), row.Component, "absent", row.Description)
		case !row.Record.Installed:
			p.row(p.statusIcon(row.Record.LastStatus), row.Component, "missing",
				"last "+string(row.Record.LastStatus)+", verified "+since(row.Record.LastVerified, now))
		default:
			p.row(p.statusIcon(row.Record.LastStatus), row.Component, string(row.Record.LastStatus),
				"installed "+since(row.Record.InstalledAt, now)+", verified "+since(row.Record.LastVerified, now))
		}
	}
	p.printf("\n  %s\n", p.paint(ansiDim, "recorded state is advisory; run astro doctor for live health"))
}

// History prints recent events, newest first.
func (p *Printer) History(events []state.Event, now time.Time) {
	p.Section("recent activity")
	if len(events) == 0 {
		p.printf("  no events recorded\n")
		return
	}
	for _, e := range events {
		line := since(e.At, now) + "  " + e.Kind + " " + e.Component + " → " + e.Outcome
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		p.printf("  %s\n", line)
	}
}
