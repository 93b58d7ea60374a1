package commands

import "git.home.luguber.info/inful/astrokit/internal/router"

// UninstallCmd implements the 'uninstall' command.
type UninstallCmd struct {
	Components []string `arg:"" optional:"" help:"Components to remove (default: the whole environment)"`
	Yes        bool     `short:"y" help:"Confirm removal of the whole environment"`
	PurgeWork  bool     `name:"purge-work" help:"Also delete the work directory"`
	Force      bool     `short:"f" help:"Remove a component even when installed components depend on it"`
}

func (u *UninstallCmd) Run(g *Global, root *CLI) error {
	return root.route(g, router.Request{
		Command:   router.CmdUninstall,
		Args:      u.Components,
		Yes:       u.Yes,
		PurgeWork: u.PurgeWork,
		Force:     u.Force,
	})
}
