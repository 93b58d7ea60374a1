package commands

import (
	"fmt"

	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/workspace"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		dir, err := config.ResolveRoot(root.Root, getenv)
		if err != nil {
			return err
		}
		path = workspace.New(dir).ConfigFile
	}
	return RunInit(path, i.Force)
}

func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
