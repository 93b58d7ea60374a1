package router

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/observability"
)

// bootstrap runs a full install when nothing was ever recorded installed.
// This is the zero-configuration first run.
func (r *Router) bootstrap(ctx context.Context, ru *run) (State, error) {
	installed, err := r.opts.Records.AnyInstalled(ctx)
	if err != nil {
		observability.WarnContext(ctx, "State store unreadable, skipping first-run install", logfields.Error(err))
		return StateEnsure, nil
	}
	if installed {
		return StateEnsure, nil
	}

	observability.InfoContext(ctx, "First run: installing every component before launch")
	rep, err := r.opts.Installer.InstallAll(ctx, false)
	if err != nil {
		return StateDone, err
	}
	r.printer.Install(rep)
	r.writeMetrics(ctx, ru.req)
	ru.bootstrapped = true
	ru.bootstrap = rep
	return StateEnsure, nil
}

// ensure installs the target and its dependencies once when any of them is
// missing. A target the bootstrap run could not install is not retried.
func (r *Router) ensure(ctx context.Context, ru *run) (State, error) {
	closure, err := r.opts.Registry.Closure(ru.target.Name)
	if err != nil {
		return StateDone, err
	}
	missing := ""
	for _, c := range closure {
		if !c.IsInstalled(ctx, r.opts.Env) {
			missing = c.Name
			break
		}
	}
	if missing == "" {
		return StateResolve, nil
	}

	if ru.bootstrapped {
		return StateDone, r.launchFailure(ru, missing, ru.bootstrap)
	}
	observability.InfoContext(ctx, "Launch target not installed, installing just in time",
		logfields.Component(ru.target.Name),
		slog.String("missing", missing))
	rep, err := r.opts.Installer.Install(ctx, false, ru.target.Name)
	if err != nil {
		return StateDone, err
	}
	r.printer.Install(rep)
	if !rep.Succeeded() {
		return StateDone, r.launchFailure(ru, missing, rep)
	}
	return StateResolve, nil
}

// launchFailure surfaces the underlying install error rather than a generic
// launch message.
func (r *Router) launchFailure(ru *run, missing string, rep *installer.Report) error {
	b := ferrors.LaunchError(ru.target.Name, "cannot launch "+ru.req.Command+": "+missing+" is not installed").
		Check("installed:" + missing).
		Hint("run astro doctor, then astro repair")
	if rep != nil {
		if cause := rep.FirstError(); cause != nil {
			b = b.WithCause(cause)
			if hint := ferrors.FixHintOf(cause); hint != "" {
				b = b.Hint(hint)
			}
		}
		if failed := rep.Failed(); len(failed) > 0 {
			b = b.Check(failed[0].Component + ":" + failed[0].Check)
		}
	}
	return b.Build()
}

// resolve builds the child command and its overlay. The overlay is computed
// on every launch.
func (r *Router) resolve(ctx context.Context, ru *run) (State, error) {
	env := r.opts.Env
	cmd, err := ru.launch.Resolve(ctx, env)
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return StateDone, err
		}
		return StateDone, ferrors.WrapError(err, ferrors.CategoryLaunch, "cannot resolve "+ru.req.Command).
			ForComponent(ru.target.Name).
			Check("resolve").
			Build()
	}
	cmd.Args = append(cmd.Args, ru.req.Args...)

	environ := r.opts.Environ()
	if ru.launch.Overlay != nil {
		ov := r.opts.Resolver.Resolve(ctx, ru.launch.Overlay(env))
		for _, e := range ov.Entries() {
			observability.DebugContext(ctx, "Overlay variable",
				logfields.Variable(e.Name),
				logfields.Source(string(e.Source)))
		}
		environ = ov.Apply(environ)
	}
	cmd.Env = environ
	ru.cmd = cmd
	return StateHandoff, nil
}

// handoff runs the tool in the foreground and forwards its exit code.
func (r *Router) handoff(ctx context.Context, ru *run) (State, error) {
	observability.DebugContext(ctx, "Handing off", logfields.Command(ru.cmd.String()))
	code, err := r.opts.Env.Runner.Run(ctx, ru.cmd)
	if err != nil {
		return StateDone, ferrors.WrapError(err, ferrors.CategoryLaunch, "failed to start "+ru.req.Command).
			ForComponent(ru.target.Name).
			Check("exec").
			WithContext(ferrors.KeyPath, ru.cmd.Path).
			Hint("run astro doctor").
			Build()
	}
	ru.exit = code
	return StateDone, nil
}
