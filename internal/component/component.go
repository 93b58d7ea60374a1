// Package component defines installable components and the registry that
// orders them by dependency.
package component

import (
	"context"

	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/fetch"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
	"git.home.luguber.info/inful/astrokit/internal/state"
	"git.home.luguber.info/inful/astrokit/internal/workspace"
)

// Health is the graded result of a verify action.
type Health struct {
	Status  state.Status
	Detail  string
	Check   string // name of the check that determined Status
	FixHint string
}

// OK returns a healthy result.
func OK(detail string) Health {
	return Health{Status: state.StatusOK, Detail: detail}
}

// Degraded returns a usable-but-impaired result naming the failed check.
func Degraded(check, detail string) Health {
	return Health{Status: state.StatusDegraded, Check: check, Detail: detail}
}

// Broken returns an unusable result naming the failed check.
func Broken(check, detail string) Health {
	return Health{Status: state.StatusBroken, Check: check, Detail: detail}
}

// WithHint attaches a fix hint.
func (h Health) WithHint(hint string) Health {
	h.FixHint = hint
	return h
}

// Env carries the runtime collaborators component actions use.
type Env struct {
	Config  *config.Config
	Layout  workspace.Layout
	Runner  launch.Runner
	Fetcher fetch.Fetcher
	// Reinstall asks install actions to redo their work even when artifacts
	// are present. Set for forced installs, repairs and updates.
	Reinstall bool
	// Upgrade additionally asks for newer versions (pip --upgrade).
	Upgrade bool
}

// WithReinstall returns a copy of env with Reinstall set.
func (e *Env) WithReinstall() *Env {
	cp := *e
	cp.Reinstall = true
	return &cp
}

// LaunchSpec makes a component a launch target.
type LaunchSpec struct {
	// Command is the CLI name of the launch target.
	Command string
	// Resolve builds the child command. Leading arguments are fixed; user
	// arguments are appended verbatim by the router.
	Resolve func(ctx context.Context, env *Env) (launch.Cmd, error)
	// Overlay lists the environment variables the target needs.
	Overlay func(env *Env) *overlay.Spec
}

// Component is an immutable descriptor of something astro installs.
type Component struct {
	Name        string
	Description string
	DependsOn   []string

	// IsInstalled is a cheap, side-effect-free presence check.
	IsInstalled func(ctx context.Context, env *Env) bool
	// Install must be safe to call when IsInstalled already reports true.
	Install func(ctx context.Context, env *Env) error
	// Verify probes the real system and is authoritative over the store.
	Verify func(ctx context.Context, env *Env) Health
	// Artifacts lists the paths uninstall removes. They must lie under the
	// root and outside the work directory.
	Artifacts func(env *Env) []string
	// Uninstall optionally undoes what cannot be expressed as paths, such as
	// packages inside the shared virtual environment.
	Uninstall func(ctx context.Context, env *Env) error

	// Launches are the launch targets served by this component.
	Launches []LaunchSpec
}
