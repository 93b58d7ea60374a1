// Package doctor re-runs every component's verify action and reports live
// health. It never installs anything.
package doctor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/metrics"
	"git.home.luguber.info/inful/astrokit/internal/observability"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Doctor runs diagnostics over the registry.
type Doctor struct {
	registry *component.Registry
	records  *state.Records
	env      *component.Env
	history  state.History
	recorder metrics.Recorder
	now      func() time.Time
}

// New returns a Doctor.
func New(registry *component.Registry, records *state.Records, env *component.Env) *Doctor {
	return &Doctor{
		registry: registry,
		records:  records,
		env:      env,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithHistory appends one verify event per component to h.
func (d *Doctor) WithHistory(h state.History) *Doctor {
	d.history = h
	return d
}

// WithRecorder publishes each component's health to r.
func (d *Doctor) WithRecorder(r metrics.Recorder) *Doctor {
	if r != nil {
		d.recorder = r
	}
	return d
}

// WithClock overrides the time source (for testing).
func (d *Doctor) WithClock(now func() time.Time) *Doctor {
	d.now = now
	return d
}

// Run verifies every component in resolved order regardless of what the
// store records. Only a configuration error is returned.
func (d *Doctor) Run(ctx context.Context) (*HealthReport, error) {
	order, err := d.registry.ResolveOrder()
	if err != nil {
		return nil, err
	}

	start := d.now()
	runID := uuid.NewString()
	ctx = observability.WithRunKind(observability.WithRunID(ctx, runID), "doctor")

	entries := make([]Entry, 0, len(order))
	for _, c := range order {
		entries = append(entries, d.check(observability.WithComponent(ctx, c.Name), c))
	}

	report := &HealthReport{RunID: runID, GeneratedAt: start, entries: entries}
	d.recorder.ObserveRunDuration("doctor", d.now().Sub(start))
	observability.InfoContext(ctx, "Diagnostics finished",
		slog.Bool("healthy", report.Healthy()),
		slog.Int("unhealthy", len(report.Unhealthy())))
	return report, nil
}

func (d *Doctor) check(ctx context.Context, c component.Component) Entry {
	h := c.Verify(ctx, d.env)
	if h.Status == "" {
		h.Status = state.StatusUnknown
	}
	entry := Entry{
		Component:   c.Name,
		Description: c.Description,
		Status:      h.Status,
		Check:       h.Check,
		Detail:      h.Detail,
		FixHint:     h.FixHint,
	}

	rec, exists, err := d.records.Get(ctx, c.Name)
	if err != nil {
		observability.WarnContext(ctx, "State store read failed", logfields.Error(err))
	}
	entry.Recorded = exists && rec.Installed
	switch {
	case entry.Recorded && h.Status != state.StatusOK:
		entry.Disagreement = "state store records it installed but verify reports " + string(h.Status)
	case !entry.Recorded && h.Status == state.StatusOK:
		entry.Disagreement = "verify reports ok but the state store has no install record"
	}
	if entry.Disagreement != "" {
		observability.WarnContext(ctx, "State store disagrees with live system",
			logfields.Status(string(h.Status)),
			slog.String("disagreement", entry.Disagreement))
	}

	now := d.now()
	if err := d.records.Update(ctx, c.Name, func(r *state.Record, _ bool) {
		r.LastVerified = now
		r.LastStatus = h.Status
		r.LastDetail = h.Detail
	}); err != nil {
		observability.WarnContext(ctx, "State store write failed", logfields.Error(err))
	}
	d.recorder.SetHealth(c.Name, string(h.Status))
	if d.history != nil {
		lc := observability.GetContext(ctx)
		if err := d.history.Append(ctx, state.Event{
			RunID: lc.RunID, Component: c.Name, Kind: "verify",
			Outcome: string(h.Status), Detail: h.Detail, At: now,
		}); err != nil {
			observability.WarnContext(ctx, "History append failed", logfields.Error(err))
		}
	}

	observability.DebugContext(ctx, "Component verified",
		logfields.Status(string(h.Status)),
		logfields.Check(h.Check))
	return entry
}
