// Package router maps a command to a management action or a launch.
//
// Every invocation runs through an explicit state machine:
//
//	parse ─┬─ manage ──────────────────────────────┐
//	       └─ bootstrap ─ ensure ─ resolve ─ handoff ┴─ done
//
// bootstrap runs a full install the first time any tool is launched,
// ensure installs the target's closure just in time, resolve computes the
// environment overlay and handoff runs the tool and forwards its exit code.
package router

import (
	"io"
	"os"
	"slices"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/doctor"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
	"git.home.luguber.info/inful/astrokit/internal/repair"
	"git.home.luguber.info/inful/astrokit/internal/report"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Management commands.
const (
	CmdInstall   = "install"
	CmdUpdate    = "update"
	CmdDoctor    = "doctor"
	CmdRepair    = "repair"
	CmdStatus    = "status"
	CmdUninstall = "uninstall"
	CmdHelp      = "help"
)

// ManagementCommands lists the management commands in help order.
var ManagementCommands = []string{CmdInstall, CmdUpdate, CmdDoctor, CmdRepair, CmdStatus, CmdUninstall, CmdHelp}

// Request is one parsed invocation.
type Request struct {
	Command string
	// Args are component names for install and uninstall, and the verbatim
	// arguments forwarded to a launched tool.
	Args []string

	Force       bool   // install: reinstall present components; uninstall: ignore installed dependents
	DryRun      bool   // repair: print the plan only
	Yes         bool   // uninstall: confirm removal of the whole environment
	PurgeWork   bool   // uninstall: also delete the work directory
	Output      string // doctor: export the report to this file
	Format      string // doctor: export format, derived from Output when empty
	History     int    // status: number of recent events to show
	MetricsFile string // install, update, doctor, repair: write a node-exporter textfile
}

// Options wires the router to its engines.
type Options struct {
	Registry  *component.Registry
	Records   *state.Records
	History   state.History
	Env       *component.Env
	Installer *installer.Installer
	Doctor    *doctor.Doctor
	Repair    *repair.Engine
	Resolver  *overlay.Resolver
	// Environ returns the base environment of launched tools (os.Environ by default).
	Environ func() []string
	Out     io.Writer
	Errors  *ferrors.CLIErrorAdapter
	// Metrics is written to Request.MetricsFile when set.
	Metrics prom.Gatherer
}

// Router dispatches requests.
type Router struct {
	opts    Options
	printer *report.Printer
	trace   []State
}

// New returns a Router.
func New(opts Options) *Router {
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Resolver == nil {
		opts.Resolver = overlay.NewResolver(overlay.HostSystem())
	}
	return &Router{opts: opts, printer: report.New(opts.Out)}
}

// WithPrinter overrides the report printer.
func (r *Router) WithPrinter(p *report.Printer) *Router {
	r.printer = p
	return r
}

// Trace returns the states visited by the last Route call.
func (r *Router) Trace() []State {
	return slices.Clone(r.trace)
}

// IsManagement reports whether name is a management command.
func IsManagement(name string) bool {
	return slices.Contains(ManagementCommands, name)
}

// KnownCommands lists management and launch commands.
func (r *Router) KnownCommands() []string {
	return append(slices.Clone(ManagementCommands), r.opts.Registry.LaunchCommands()...)
}

func (r *Router) unknownCommand(name string) error {
	return ferrors.ValidationError("unknown command " + quote(name) + ", known commands: " + strings.Join(r.KnownCommands(), ", ")).
		Hint("run astro help").
		Build()
}

func quote(s string) string {
	return `"` + s + `"`
}
