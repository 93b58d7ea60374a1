package commands

import "git.home.luguber.info/inful/astrokit/internal/router"

// DoctorCmd implements the 'doctor' command.
type DoctorCmd struct {
	Output string `short:"o" help:"Also write the report to this file" type:"path"`
	Format string `help:"Report file format (json, yaml, markdown, html); derived from the file extension by default"`
}

func (d *DoctorCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdDoctor, Output: d.Output, Format: d.Format})
}

// RepairCmd implements the 'repair' command.
type RepairCmd struct {
	DryRun bool `name:"dry-run" help:"Print what would be reinstalled without changing anything"`
}

func (r *RepairCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdRepair, DryRun: r.DryRun})
}

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	History int `short:"n" help:"Number of recent history events to show" default:"10"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdStatus, History: s.History})
}
