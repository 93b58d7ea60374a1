package catalog

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

func jupyterComponent() component.Component {
	c := packageGroup(Jupyter, "JupyterLab", []string{Core}, groupOptions{})
	verifyPackages := c.Verify
	c.Verify = func(ctx context.Context, env *component.Env) component.Health {
		h := verifyPackages(ctx, env)
		if h.Status == state.StatusBroken {
			return h
		}
		if !fileExists(env.Layout.EnvBin("jupyter")) {
			return component.Broken("executable", "jupyter launcher missing from the environment").WithHint("astro repair")
		}
		return h
	}
	c.Launches = []component.LaunchSpec{{
		Command: LaunchLab,
		Resolve: func(_ context.Context, env *component.Env) (launch.Cmd, error) {
			return launch.Cmd{Path: env.Layout.EnvBin("jupyter"), Args: []string{"lab"}, Dir: env.Layout.Work}, nil
		},
		Overlay: func(env *component.Env) *overlay.Spec {
			return &overlay.Spec{Vars: []overlay.Var{
				{Name: "JUPYTER_CONFIG_DIR", Fallback: filepath.Join(env.Layout.Jupyter, "config")},
				{Name: "JUPYTER_DATA_DIR", Fallback: filepath.Join(env.Layout.Jupyter, "data")},
				{Name: "BROWSER"},
				rootVar(env),
			}}
		},
	}}
	return c
}

func dashboardScript(env *component.Env) string {
	return filepath.Join(env.Layout.Kit, "Scripts", "foundation_dashboard.py")
}

func dashboardComponent() component.Component {
	c := packageGroup(Dashboard, "Foundation dashboard", []string{Viz, Kit}, groupOptions{})
	verifyPackages := c.Verify
	c.Verify = func(ctx context.Context, env *component.Env) component.Health {
		if !fileExists(dashboardScript(env)) {
			return component.Broken("script", "foundation_dashboard.py missing from the starter kit").
				WithHint("astro repair kit")
		}
		return verifyPackages(ctx, env)
	}
	c.Launches = []component.LaunchSpec{{
		Command: LaunchDashboard,
		Resolve: func(_ context.Context, env *component.Env) (launch.Cmd, error) {
			return launch.Cmd{Path: venvPython(env), Args: []string{dashboardScript(env)}, Dir: env.Layout.Work}, nil
		},
		Overlay: func(env *component.Env) *overlay.Spec {
			return &overlay.Spec{Vars: []overlay.Var{
				{Name: "MPLBACKEND", Fallback: "Agg"},
				{Name: "BROWSER"},
				rootVar(env),
			}}
		},
	}}
	return c
}
