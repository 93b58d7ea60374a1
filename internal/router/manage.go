package router

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/astrokit/internal/doctor"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/installer"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
	"git.home.luguber.info/inful/astrokit/internal/metrics"
	"git.home.luguber.info/inful/astrokit/internal/observability"
	"git.home.luguber.info/inful/astrokit/internal/report"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

func (r *Router) manage(ctx context.Context, req Request) (int, error) {
	switch req.Command {
	case CmdInstall:
		return r.install(ctx, req)
	case CmdUpdate:
		rep, err := r.opts.Installer.Update(ctx)
		if err != nil {
			return 0, err
		}
		r.printer.Install(rep)
		r.writeMetrics(ctx, req)
		return rep.ExitCode(), nil
	case CmdDoctor:
		return r.doctor(ctx, req)
	case CmdRepair:
		return r.repair(ctx, req)
	case CmdStatus:
		return r.status(ctx, req)
	case CmdUninstall:
		return r.uninstall(ctx, req)
	case CmdHelp:
		r.help()
		return ferrors.ExitOK, nil
	default:
		return 0, r.unknownCommand(req.Command)
	}
}

func (r *Router) install(ctx context.Context, req Request) (int, error) {
	inst := r.opts.Installer
	var (
		rep *installer.Report
		err error
	)
	if len(req.Args) == 0 {
		rep, err = inst.InstallAll(ctx, req.Force)
	} else {
		rep, err = inst.Install(ctx, req.Force, req.Args...)
	}
	if err != nil {
		return 0, err
	}
	r.printer.Install(rep)
	r.writeMetrics(ctx, req)
	return rep.ExitCode(), nil
}

func (r *Router) doctor(ctx context.Context, req Request) (int, error) {
	health, err := r.opts.Doctor.Run(ctx)
	if err != nil {
		return 0, err
	}
	r.printer.Health(health)
	if req.Output != "" {
		if err := exportHealth(health, req.Output, req.Format); err != nil {
			return 0, err
		}
		_, _ = fmt.Fprintf(r.opts.Out, "\nReport written to %s\n", req.Output)
	}
	r.writeMetrics(ctx, req)
	return health.ExitCode(), nil
}

func exportHealth(health *doctor.HealthReport, path, format string) error {
	f := doctor.FormatForPath(path)
	if format != "" {
		parsed, err := doctor.ParseFormat(format)
		if err != nil {
			return err
		}
		f = parsed
	}
	out, err := os.Create(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write report").
			WithContext(ferrors.KeyPath, path).
			Build()
	}
	if err := health.Export(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (r *Router) repair(ctx context.Context, req Request) (int, error) {
	health, err := r.opts.Doctor.Run(ctx)
	if err != nil {
		return 0, err
	}
	if req.DryRun {
		plan, err := r.opts.Repair.DryRun(health)
		if err != nil {
			return 0, err
		}
		r.printer.Plan(plan)
		return ferrors.ExitOK, nil
	}
	rep, err := r.opts.Repair.Repair(ctx, health)
	if err != nil {
		return 0, err
	}
	if len(rep.Items) == 0 {
		r.printer.Health(health)
		return health.ExitCode(), nil
	}
	r.printer.Install(rep)
	r.writeMetrics(ctx, req)
	return rep.ExitCode(), nil
}

func (r *Router) status(ctx context.Context, req Request) (int, error) {
	records, err := r.opts.Records.All(ctx)
	if err != nil {
		return 0, err
	}
	comps := r.opts.Registry.All()
	rows := make([]report.StatusRow, 0, len(comps))
	for _, c := range comps {
		rec, ok := records[c.Name]
		rows = append(rows, report.StatusRow{Component: c.Name, Description: c.Description, Record: rec, Known: ok})
	}
	now := time.Now()
	r.printer.Status(rows, now)

	if req.History > 0 && r.opts.History != nil {
		events, err := r.opts.History.Recent(ctx, req.History)
		if err != nil {
			return 0, err
		}
		r.printer.History(events, now)
	}
	return ferrors.ExitOK, nil
}

func (r *Router) help() {
	var b strings.Builder
	b.WriteString("Usage: astro <command> [args...]\n\nManagement commands:\n")
	descriptions := map[string]string{
		CmdInstall:   "install every component (or the named ones) that is missing",
		CmdUpdate:    "reinstall every component asking for newer versions",
		CmdDoctor:    "verify every component against the live system",
		CmdRepair:    "reinstall only degraded or broken components",
		CmdStatus:    "show what the state store records",
		CmdUninstall: "remove one component or the whole environment",
		CmdHelp:      "show this help",
	}
	for _, c := range ManagementCommands {
		fmt.Fprintf(&b, "  %-10s %s\n", c, descriptions[c])
	}
	b.WriteString("\nLaunch commands (arguments are forwarded unchanged):\n")
	for _, cmd := range r.opts.Registry.LaunchCommands() {
		c, _, _ := r.opts.Registry.LaunchTarget(cmd)
		fmt.Fprintf(&b, "  %-10s %s\n", cmd, c.Description)
	}
	_, _ = fmt.Fprint(r.opts.Out, b.String())
}

func (r *Router) uninstall(ctx context.Context, req Request) (int, error) {
	ctx = observability.WithRunKind(observability.WithRunID(ctx, uuid.NewString()), CmdUninstall)
	if len(req.Args) == 0 {
		return r.uninstallAll(ctx, req)
	}
	for _, name := range req.Args {
		if err := r.uninstallOne(ctx, name, req.Force); err != nil {
			return 0, err
		}
	}
	return ferrors.ExitOK, nil
}

func (r *Router) uninstallOne(ctx context.Context, name string, force bool) error {
	c, ok := r.opts.Registry.Get(name)
	if !ok {
		return ferrors.ValidationError(fmt.Sprintf("unknown component %q, valid components: %s",
			name, strings.Join(r.opts.Registry.Names(), ", "))).Build()
	}
	ctx = observability.WithComponent(ctx, name)
	env := r.opts.Env

	var installedDependents []string
	for _, dep := range r.opts.Registry.Dependents(name) {
		if d, _ := r.opts.Registry.Get(dep); d.IsInstalled(ctx, env) {
			installedDependents = append(installedDependents, dep)
		}
	}
	if len(installedDependents) > 0 && !force {
		return ferrors.ValidationError(fmt.Sprintf("%s is required by installed components: %s",
			name, strings.Join(installedDependents, ", "))).
			ForComponent(name).
			Check("dependents").
			Hint("uninstall the dependents first or pass --force").
			Build()
	}

	if c.Uninstall != nil {
		if err := c.Uninstall(ctx, env); err != nil {
			return err
		}
	}
	if c.Artifacts != nil {
		if err := env.Layout.RemoveArtifacts(c.Artifacts(env)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot remove artifacts").
				ForComponent(name).
				Check("remove-artifacts").
				Build()
		}
	}
	if err := r.opts.Records.Delete(ctx, name); err != nil {
		return err
	}
	r.appendUninstallEvent(ctx, name)
	_, _ = fmt.Fprintf(r.opts.Out, "Uninstalled %s\n", name)
	return nil
}

func (r *Router) uninstallAll(ctx context.Context, req Request) (int, error) {
	layout := r.opts.Env.Layout
	work, err := layout.WorkEntries()
	if err != nil {
		observability.WarnContext(ctx, "Cannot list work directory", logfields.Error(err))
	}

	out := r.opts.Out
	_, _ = fmt.Fprintf(out, "This removes every component installed under %s.\n", layout.Root)
	switch {
	case len(work) == 0:
		_, _ = fmt.Fprintf(out, "The work directory %s is empty.\n", layout.Work)
	case req.PurgeWork:
		_, _ = fmt.Fprintf(out, "WARNING: %d entries in %s (your work) will be DELETED.\n", len(work), layout.Work)
	default:
		_, _ = fmt.Fprintf(out, "Your work in %s (%d entries) is kept; pass --purge-work to delete it.\n", layout.Work, len(work))
	}
	if foreign, err := layout.Unmanaged(); err != nil {
		observability.WarnContext(ctx, "Cannot list astro root", logfields.Error(err))
	} else if len(foreign) > 0 {
		_, _ = fmt.Fprintf(out, "Other entries under %s are left in place: %s\n", layout.Root, strings.Join(foreign, ", "))
	}
	if !req.Yes {
		return 0, ferrors.ValidationError("uninstall of the whole environment needs confirmation").
			Check("confirm").
			Hint("re-run with --yes").
			Build()
	}

	if err := layout.RemoveAll(!req.PurgeWork); err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot remove environment").
			WithContext(ferrors.KeyPath, layout.Root).
			Build()
	}
	records, err := r.opts.Records.All(ctx)
	if err != nil {
		return 0, err
	}
	for _, name := range recordOrder(r.opts.Registry.Names(), records) {
		if err := r.opts.Records.Delete(ctx, name); err != nil {
			return 0, err
		}
		r.appendUninstallEvent(ctx, name)
	}
	_, _ = fmt.Fprintln(out, "Environment removed.")
	return ferrors.ExitOK, nil
}

// recordOrder lists the recorded names in registry order. Records of
// components the registry no longer declares follow, sorted.
func recordOrder(declared []string, records map[string]state.Record) []string {
	var names, stale []string
	for _, name := range declared {
		if _, ok := records[name]; ok {
			names = append(names, name)
		}
	}
	for name := range records {
		if !slices.Contains(declared, name) {
			stale = append(stale, name)
		}
	}
	slices.Sort(stale)
	return append(names, stale...)
}

func (r *Router) appendUninstallEvent(ctx context.Context, name string) {
	if r.opts.History == nil {
		return
	}
	if err := r.opts.History.Append(ctx, state.Event{
		RunID: observability.GetContext(ctx).RunID, Component: name, Kind: CmdUninstall, Outcome: "removed", At: time.Now(),
	}); err != nil {
		observability.WarnContext(ctx, "History append failed", logfields.Error(err))
	}
}

func (r *Router) writeMetrics(ctx context.Context, req Request) {
	if req.MetricsFile == "" || r.opts.Metrics == nil {
		return
	}
	if err := metrics.WriteTextfile(req.MetricsFile, r.opts.Metrics); err != nil {
		observability.WarnContext(ctx, "Cannot write metrics textfile", logfields.Path(req.MetricsFile), logfields.Error(err))
	}
}
