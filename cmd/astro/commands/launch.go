package commands

import (
	"git.home.luguber.info/inful/astrokit/internal/catalog"
	"git.home.luguber.info/inful/astrokit/internal/router"
)

// Launch commands take no flags of their own. Their arguments are split off
// before parsing and forwarded verbatim through Global.Forwarded.

type PythonCmd struct{}

func (*PythonCmd) Run(g *Global, root *CLI) error { return root.launch(g, catalog.LaunchPython) }

type LabCmd struct{}

func (*LabCmd) Run(g *Global, root *CLI) error { return root.launch(g, catalog.LaunchLab) }

type DashboardCmd struct{}

func (*DashboardCmd) Run(g *Global, root *CLI) error { return root.launch(g, catalog.LaunchDashboard) }

type TopcatCmd struct{}

func (*TopcatCmd) Run(g *Global, root *CLI) error { return root.launch(g, catalog.LaunchTopcat) }

func (c *CLI) launch(g *Global, command string) error {
	return c.route(g, router.Request{Command: command, Args: g.Forwarded})
}

// HelpCmd implements the 'help' command.
type HelpCmd struct{}

func (h *HelpCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdHelp})
}
