package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/workspace"
)

func homeComponent() component.Component {
	return component.Component{
		Name:        Home,
		Description: "Root directory tree",
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			for _, dir := range env.Layout.Dirs() {
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					return false
				}
			}
			return true
		},
		Install: func(_ context.Context, env *component.Env) error {
			if err := env.Layout.Ensure(); err != nil {
				return ferrors.InstallError(Home, "cannot create root directories").
					Check("create-dirs").
					WithCause(err).
					WithContext(ferrors.KeyPath, env.Layout.Root).
					Hint("check permissions or set ASTRO_HOME to a writable location").
					Build()
			}
			return nil
		},
		Verify: func(_ context.Context, env *component.Env) component.Health {
			for _, dir := range env.Layout.Dirs() {
				if err := workspace.Writable(dir); err != nil {
					rel, _ := filepath.Rel(env.Layout.Root, dir)
					return component.Broken("dir:"+rel, fmt.Sprintf("%s is not a writable directory: %v", dir, err)).
						WithHint("astro repair")
				}
			}
			return component.OK(env.Layout.Root)
		},
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
