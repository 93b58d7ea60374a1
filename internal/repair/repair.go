// Package repair reinstalls only the components a health report marks
// degraded or broken. Healthy components are never touched.
package repair

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/doctor"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/observability"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Action is one planned repair.
type Action struct {
	Component string
	Status    state.Status
	Check     string
	Detail    string
	FixHint   string
}

// Plan lists the repairs in install order.
type Plan struct {
	Actions []Action
	// Untouched lists healthy or unknown components that repair leaves alone.
	Untouched []string
}

// Empty reports whether nothing needs repair.
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Engine repairs components through the installer.
type Engine struct {
	registry  *component.Registry
	installer *installer.Installer
}

// New returns an Engine.
func New(registry *component.Registry, inst *installer.Installer) *Engine {
	return &Engine{registry: registry, installer: inst}
}

// DryRun returns the plan Repair would execute.
func (e *Engine) DryRun(report *doctor.HealthReport) (Plan, error) {
	order, err := e.registry.ResolveOrder()
	if err != nil {
		return Plan{}, err
	}
	var plan Plan
	for _, c := range order {
		entry, ok := report.Get(c.Name)
		if !ok {
			continue
		}
		if !entry.Status.NeedsRepair() {
			plan.Untouched = append(plan.Untouched, c.Name)
			continue
		}
		plan.Actions = append(plan.Actions, Action{
			Component: c.Name,
			Status:    entry.Status,
			Check:     entry.Check,
			Detail:    entry.Detail,
			FixHint:   entry.FixHint,
		})
	}
	return plan, nil
}

// Repair reinstalls and re-verifies exactly the degraded and broken
// components of report. When a repaired dependency fails, its repaired
// dependents are blocked.
func (e *Engine) Repair(ctx context.Context, report *doctor.HealthReport) (*installer.Report, error) {
	plan, err := e.DryRun(report)
	if err != nil {
		return nil, err
	}
	targets := make([]component.Component, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		c, _ := e.registry.Get(a.Component)
		targets = append(targets, c)
	}

	observability.InfoContext(ctx, "Repairing components",
		slog.Int("repair", len(plan.Actions)),
		slog.Int("untouched", len(plan.Untouched)))
	return e.installer.Reinstall(ctx, installer.KindRepair, targets), nil
}
