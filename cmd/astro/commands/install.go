package commands

import "git.home.luguber.info/inful/astrokit/internal/router"

// InstallCmd implements the 'install' command.
type InstallCmd struct {
	Components []string `arg:"" optional:"" help:"Components to install together with their dependencies (default: all)"`
	Force      bool     `short:"f" help:"Reinstall components that are already present"`
}

func (i *InstallCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdInstall, Args: i.Components, Force: i.Force})
}

// UpdateCmd implements the 'update' command.
type UpdateCmd struct{}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{Command: router.CmdUpdate})
}
