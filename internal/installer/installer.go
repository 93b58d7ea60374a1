package installer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/metrics"
	"git.home.luguber.info/inful/astrokit/internal/observability"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Installer installs components in dependency order.
type Installer struct {
	registry *component.Registry
	records  *state.Records
	env      *component.Env
	history  state.History
	recorder metrics.Recorder
	now      func() time.Time
}

// New returns an Installer over registry that records into records.
func New(registry *component.Registry, records *state.Records, env *component.Env) *Installer {
	return &Installer{
		registry: registry,
		records:  records,
		env:      env,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithHistory appends one event per component to h.
func (i *Installer) WithHistory(h state.History) *Installer {
	i.history = h
	return i
}

// WithRecorder reports durations and outcomes to r.
func (i *Installer) WithRecorder(r metrics.Recorder) *Installer {
	if r != nil {
		i.recorder = r
	}
	return i
}

// WithClock overrides the time source (for testing).
func (i *Installer) WithClock(now func() time.Time) *Installer {
	i.now = now
	return i
}

// Env returns the environment install actions run with.
func (i *Installer) Env() *component.Env {
	return i.env
}

// InstallAll installs every component. Only a configuration error (a cyclic
// graph) is returned as an error; component failures live in the report.
func (i *Installer) InstallAll(ctx context.Context, force bool) (*Report, error) {
	order, err := i.registry.ResolveOrder()
	if err != nil {
		return nil, err
	}
	return i.run(ctx, KindInstall, order, i.envFor(force), force), nil
}

// Install installs the named components and their dependencies.
func (i *Installer) Install(ctx context.Context, force bool, names ...string) (*Report, error) {
	order, err := i.registry.Closure(names...)
	if err != nil {
		return nil, err
	}
	return i.run(ctx, KindInstall, order, i.envFor(force), force), nil
}

// Update reinstalls every component asking for newer versions.
func (i *Installer) Update(ctx context.Context) (*Report, error) {
	order, err := i.registry.ResolveOrder()
	if err != nil {
		return nil, err
	}
	env := i.env.WithReinstall()
	env.Upgrade = true
	return i.run(ctx, KindUpdate, order, env, true), nil
}

// Reinstall forces install and verify of exactly the given components, which
// must already be in dependency order. Dependencies outside the list are
// assumed satisfied.
func (i *Installer) Reinstall(ctx context.Context, kind string, components []component.Component) *Report {
	return i.run(ctx, kind, components, i.env.WithReinstall(), true)
}

func (i *Installer) envFor(force bool) *component.Env {
	if force {
		return i.env.WithReinstall()
	}
	return i.env
}

func (i *Installer) run(ctx context.Context, kind string, order []component.Component, env *component.Env, force bool) *Report {
	report := &Report{RunID: uuid.NewString(), Kind: kind, Started: i.now()}
	ctx = observability.WithRunID(ctx, report.RunID)
	ctx = observability.WithRunKind(ctx, kind)

	observability.InfoContext(ctx, "Run started", slog.Int("components", len(order)))

	outcomes := make(map[string]Outcome, len(order))
	for _, c := range order {
		item := i.step(observability.WithComponent(ctx, c.Name), env, c, force, outcomes)
		outcomes[c.Name] = item.Outcome
		report.Items = append(report.Items, item)
	}

	report.Duration = i.now().Sub(report.Started)
	i.recorder.ObserveRunDuration(kind, report.Duration)
	counts := report.Counts()
	observability.InfoContext(ctx, "Run finished",
		logfields.Duration(report.Duration),
		slog.Int("ok", counts[OutcomeOK]+counts[OutcomeDegraded]),
		slog.Int("skipped", counts[OutcomeSkipped]),
		slog.Int("failed", counts[OutcomeFailed]+counts[OutcomeBroken]),
		slog.Int("blocked", counts[OutcomeBlocked]))
	return report
}

func (i *Installer) step(ctx context.Context, env *component.Env, c component.Component, force bool, outcomes map[string]Outcome) Item {
	start := i.now()
	item := Item{Component: c.Name, Status: state.StatusUnknown}

	defer func() {
		item.Duration = i.now().Sub(start)
		i.recorder.ObserveInstallDuration(c.Name, string(item.Outcome), item.Duration)
		i.recorder.IncOutcome(c.Name, string(item.Outcome))
		i.appendEvent(ctx, item)
	}()

	if err := ctx.Err(); err != nil {
		item.Outcome = OutcomeBlocked
		item.Detail = "canceled"
		return item
	}
	if dep, o, blocked := unmetDependency(c, outcomes); blocked {
		item.Outcome = OutcomeBlocked
		item.Check = "dependency:" + dep
		item.Detail = fmt.Sprintf("dependency %s is %s", dep, o)
		item.FixHint = "fix " + dep + " first"
		observability.WarnContext(ctx, "Component blocked", logfields.Outcome(string(item.Outcome)), slog.String("dependency", dep))
		return item
	}

	if !force && c.IsInstalled(ctx, env) {
		item.Outcome = OutcomeSkipped
		item.Detail = "already installed"
		i.recordSkipped(ctx, c.Name, &item)
		observability.DebugContext(ctx, "Component already installed")
		return item
	}

	observability.InfoContext(ctx, "Installing component")
	if err := c.Install(ctx, env); err != nil {
		item.Outcome = OutcomeFailed
		item.Status = state.StatusBroken
		item.Err = ensureComponent(err, c.Name)
		item.Check = ferrors.CheckOf(err, "install")
		item.Detail = err.Error()
		item.FixHint = ferrors.FixHintOf(err)
		i.update(ctx, c.Name, func(rec *state.Record, _ bool) {
			rec.Installed = false
			rec.LastStatus = state.StatusBroken
			rec.LastDetail = item.Detail
		})
		observability.ErrorContext(ctx, "Component install failed",
			logfields.Check(item.Check),
			logfields.Error(err))
		return item
	}

	h := c.Verify(ctx, env)
	now := i.now()
	item.Status = h.Status
	item.Outcome = outcomeForStatus(h.Status)
	item.Check = h.Check
	item.Detail = h.Detail
	item.FixHint = h.FixHint
	i.recorder.SetHealth(c.Name, string(h.Status))
	i.update(ctx, c.Name, func(rec *state.Record, _ bool) {
		rec.Installed = true
		rec.InstalledAt = now
		rec.LastVerified = now
		rec.LastStatus = h.Status
		rec.LastDetail = h.Detail
	})

	switch h.Status {
	case state.StatusOK:
		observability.InfoContext(ctx, "Component installed", logfields.Status(string(h.Status)))
	case state.StatusDegraded, state.StatusBroken, state.StatusUnknown:
		observability.WarnContext(ctx, "Component installed but verify reports a problem",
			logfields.Status(string(h.Status)),
			logfields.Check(h.Check),
			slog.String("detail", h.Detail))
	}
	return item
}

// recordSkipped records a component found installed while the store says it
// is not. Its last verification no longer describes the artifact, so the
// status resets to unknown. An installed record is left untouched so repeated
// runs write nothing.
func (i *Installer) recordSkipped(ctx context.Context, name string, item *Item) {
	rec, exists, err := i.records.Get(ctx, name)
	if err != nil {
		observability.WarnContext(ctx, "State store read failed", logfields.Error(err))
		return
	}
	if exists && rec.Installed {
		item.Status = rec.LastStatus
		return
	}
	now := i.now()
	i.update(ctx, name, func(r *state.Record, _ bool) {
		r.Installed = true
		r.InstalledAt = now
		r.LastStatus = state.StatusUnknown
		r.LastDetail = ""
	})
}

func (i *Installer) update(ctx context.Context, name string, fn func(rec *state.Record, exists bool)) {
	if err := i.records.Update(ctx, name, fn); err != nil {
		observability.WarnContext(ctx, "State store write failed", logfields.Error(err))
	}
}

func (i *Installer) appendEvent(ctx context.Context, item Item) {
	if i.history == nil {
		return
	}
	lc := observability.GetContext(ctx)
	err := i.history.Append(ctx, state.Event{
		RunID:     lc.RunID,
		Component: item.Component,
		Kind:      lc.RunKind,
		Outcome:   string(item.Outcome),
		Detail:    item.Detail,
		At:        i.now(),
	})
	if err != nil {
		observability.WarnContext(ctx, "History append failed", logfields.Error(err))
	}
}

func unmetDependency(c component.Component, outcomes map[string]Outcome) (string, Outcome, bool) {
	for _, dep := range c.DependsOn {
		if o, ok := outcomes[dep]; ok && !o.Satisfied() {
			return dep, o, true
		}
	}
	return "", "", false
}

// ensureComponent guarantees the surfaced error names the component.
func ensureComponent(err error, name string) error {
	if ce, ok := ferrors.AsClassified(err); ok && ce.Component() != "" {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryInstall, "install failed").
		ForComponent(name).
		Check(ferrors.CheckOf(err, "install")).
		Build()
}
