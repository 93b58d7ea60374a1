// Package catalog is the closed, compiled-in set of components astro manages.
package catalog

import (
	"os"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/config"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
)

// Component names.
const (
	Home      = "home"
	Python    = "python"
	Core      = config.GroupCore
	Astropy   = config.GroupAstropy
	Viz       = config.GroupViz
	Jupyter   = config.GroupJupyter
	Devtools  = config.GroupDevtools
	Kit       = "kit"
	Dashboard = config.GroupDashboard
	Java      = "java"
	Topcat    = "topcat"
)

// Launch command names.
const (
	LaunchPython    = "python"
	LaunchLab       = "lab"
	LaunchDashboard = "dashboard"
	LaunchTopcat    = "topcat"
)

// getenv is swapped in tests.
var getenv = os.Getenv

// Components returns the component descriptors in declaration order. Every
// dependency is declared before its dependents.
func Components() []component.Component {
	return []component.Component{
		homeComponent(),
		pythonComponent(),
		packageGroup(Core, "Core scientific stack", []string{Python}, groupOptions{smoke: coreSmoke}),
		packageGroup(Astropy, "Astronomy libraries", []string{Core}, groupOptions{
			extraImports: []probeSpec{
				{Name: "astropy", Import: "astropy.units"},
				{Name: "astropy", Import: "astropy.coordinates"},
			},
		}),
		packageGroup(Viz, "Visualization tools", []string{Core}, groupOptions{}),
		jupyterComponent(),
		packageGroup(Devtools, "Development tools", []string{Core}, groupOptions{}),
		kitComponent(),
		dashboardComponent(),
		javaComponent(),
		topcatComponent(),
	}
}

// NewRegistry builds the registry of the full catalog.
func NewRegistry() (*component.Registry, error) {
	return component.NewRegistry(Components()...)
}

// rootVar exposes the root to launched tools so scripts can find it.
func rootVar(env *component.Env) overlay.Var {
	return overlay.Var{Name: "ASTRO_HOME", Fallback: env.Layout.Root}
}

// LaunchCommands lists the launch command names of the catalog.
func LaunchCommands() []string {
	var names []string
	for _, c := range Components() {
		for _, l := range c.Launches {
			names = append(names, l.Command)
		}
	}
	return names
}
