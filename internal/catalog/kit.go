package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// Scripts the starter kit ships. The dashboard needs its script; the visual
// helpers are optional for everything astro launches.
const (
	visualFoundationsScript = "visual_foundations.py"
	dashboardScriptName     = "foundation_dashboard.py"
)

func kitComponent() component.Component {
	return component.Component{
		Name:        Kit,
		Description: "Starter kit scripts",
		DependsOn:   []string{Home},
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			return dirExists(filepath.Join(env.Layout.Kit, ".git"))
		},
		Install: func(ctx context.Context, env *component.Env) error {
			if dirExists(filepath.Join(env.Layout.Kit, ".git")) && !env.Reinstall {
				return nil
			}
			if err := env.Fetcher.Fetch(ctx, env.Config.Kit.Source, env.Layout.Kit); err != nil {
				return ferrors.InstallError(Kit, "starter kit checkout failed").
					Check("git-checkout").
					WithCause(err).
					WithContext(ferrors.KeyURL, env.Config.Kit.Source.URL).
					Hint("check network access and re-run astro install kit").
					Build()
			}
			return nil
		},
		Verify:    verifyKit,
		Artifacts: func(env *component.Env) []string { return []string{env.Layout.Kit} },
	}
}

func verifyKit(_ context.Context, env *component.Env) component.Health {
	if !dirExists(filepath.Join(env.Layout.Kit, ".git")) {
		return component.Broken("checkout", "no starter kit checkout at "+env.Layout.Kit).WithHint("astro repair")
	}
	scripts, err := doublestar.FilepathGlob(filepath.Join(env.Layout.Kit, "**", "*.py"))
	if err != nil || len(scripts) == 0 {
		return component.Broken("scripts", "starter kit checkout contains no Python scripts").WithHint("astro repair")
	}
	present := make(map[string]bool, len(scripts))
	for _, s := range scripts {
		present[filepath.Base(s)] = true
	}
	for _, name := range []string{dashboardScriptName, visualFoundationsScript} {
		if !present[name] {
			return component.Degraded("script:"+name, name+" is missing from the starter kit").WithHint("astro repair")
		}
	}
	return component.OK(fmt.Sprintf("%d scripts", len(scripts)))
}
