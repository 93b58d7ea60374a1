package router

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/observability"
)

// State is a node of the routing state machine.
type State string

const (
	StateParse     State = "parse"
	StateManage    State = "manage"
	StateBootstrap State = "bootstrap"
	StateEnsure    State = "ensure"
	StateResolve   State = "resolve"
	StateHandoff   State = "handoff"
	StateDone      State = "done"
)

// run carries one invocation through the machine.
type run struct {
	req  Request
	exit int

	target       component.Component
	launch       component.LaunchSpec
	bootstrapped bool
	bootstrap    *installer.Report
	cmd          launch.Cmd
}

// Route executes req and returns the process exit code.
func (r *Router) Route(ctx context.Context, req Request) int {
	ctx = observability.WithCommand(ctx, req.Command)
	r.trace = r.trace[:0]
	ru := &run{req: req}

	st := StateParse
	for st != StateDone {
		r.trace = append(r.trace, st)
		next, err := r.step(ctx, st, ru)
		if err != nil {
			ru.exit = r.fail(ctx, err)
			next = StateDone
		}
		st = next
	}
	r.trace = append(r.trace, StateDone)
	observability.DebugContext(ctx, "Command finished",
		logfields.ExitCode(ru.exit),
		slog.Any("states", r.trace))
	return ru.exit
}

func (r *Router) step(ctx context.Context, st State, ru *run) (State, error) {
	switch st {
	case StateParse:
		return r.parse(ru)
	case StateManage:
		code, err := r.manage(ctx, ru.req)
		ru.exit = code
		return StateDone, err
	case StateBootstrap:
		return r.bootstrap(ctx, ru)
	case StateEnsure:
		return r.ensure(ctx, ru)
	case StateResolve:
		return r.resolve(ctx, ru)
	case StateHandoff:
		return r.handoff(ctx, ru)
	case StateDone:
		return StateDone, nil
	default:
		return StateDone, ferrors.InternalError(fmt.Sprintf("router reached unknown state %q", st)).Build()
	}
}

func (r *Router) parse(ru *run) (State, error) {
	if ru.req.Command == "" {
		ru.req.Command = CmdHelp
	}
	if IsManagement(ru.req.Command) {
		return StateManage, nil
	}
	c, spec, ok := r.opts.Registry.LaunchTarget(ru.req.Command)
	if !ok {
		return StateDone, r.unknownCommand(ru.req.Command)
	}
	ru.target, ru.launch = c, spec
	return StateBootstrap, nil
}

func (r *Router) fail(ctx context.Context, err error) int {
	if r.opts.Errors != nil {
		return r.opts.Errors.Report(err)
	}
	observability.ErrorContext(ctx, "Command failed", logfields.Error(err))
	return ferrors.NewCLIErrorAdapter(false, slog.Default()).ExitCodeFor(err)
}
