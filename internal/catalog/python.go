package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
)

const pythonVersionScript = "import sys; print('%d.%d.%d' % sys.version_info[:3])"

func venvPython(env *component.Env) string {
	return env.Layout.EnvBin("python")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func pythonComponent() component.Component {
	return component.Component{
		Name:        Python,
		Description: "Isolated Python virtual environment",
		DependsOn:   []string{Home},
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			return fileExists(venvPython(env))
		},
		Install:   installVenv,
		Verify:    verifyPython,
		Artifacts: func(env *component.Env) []string { return []string{env.Layout.Env} },
		Launches: []component.LaunchSpec{{
			Command: LaunchPython,
			Resolve: func(_ context.Context, env *component.Env) (launch.Cmd, error) {
				return launch.Cmd{Path: venvPython(env)}, nil
			},
			Overlay: func(env *component.Env) *overlay.Spec {
				vars := overlay.DisplayVars()
				vars = append(vars,
					overlay.Var{Name: "MPLBACKEND", Probes: []overlay.Probe{overlay.HeadlessBackend}},
					rootVar(env))
				return &overlay.Spec{Vars: vars}
			},
		}},
	}
}

func installVenv(ctx context.Context, env *component.Env) error {
	exists := fileExists(venvPython(env))
	if exists && !env.Reinstall {
		return nil
	}

	interpreter, err := env.Runner.LookPath(env.Config.Python.Interpreter)
	if err != nil {
		return ferrors.InstallError(Python, fmt.Sprintf("base interpreter %q not found", env.Config.Python.Interpreter)).
			Check("base-interpreter").
			WithCause(err).
			UserAction().
			Hint("install Python " + env.Config.Python.Recommended + "+ or set python.interpreter in astro.yaml").
			Build()
	}

	args := []string{"-m", "venv"}
	if exists {
		// Rebuild in place; --upgrade keeps installed packages when the
		// interpreter itself is fine.
		if healthy := verifyPython(ctx, env); healthy.Status.IsHealthy() {
			args = append(args, "--upgrade")
		} else {
			args = append(args, "--clear")
		}
	}
	args = append(args, env.Layout.Env)

	if _, err := env.Runner.Output(ctx, launch.Cmd{Path: interpreter, Args: args}); err != nil {
		return ferrors.InstallError(Python, "virtual environment creation failed").
			Check("create-venv").
			WithCause(err).
			Hint("install the venv module (e.g. apt install python3-venv) and re-run astro install").
			Build()
	}

	pipArgs := []string{"-m", "pip", "install", "--disable-pip-version-check", "--upgrade", "pip"}
	if _, err := env.Runner.Output(ctx, launch.Cmd{Path: venvPython(env), Args: pipArgs}); err != nil {
		return ferrors.InstallError(Python, "pip bootstrap failed").
			Check("pip-bootstrap").
			WithCause(err).
			Hint("check network access and re-run astro install python").
			Build()
	}
	return nil
}

func verifyPython(ctx context.Context, env *component.Env) component.Health {
	py := venvPython(env)
	if !fileExists(py) {
		return component.Broken("interpreter", "no interpreter at "+py).WithHint("astro repair")
	}
	out, err := env.Runner.Output(ctx, launch.Cmd{Path: py, Args: []string{"-c", pythonVersionScript}})
	if err != nil {
		return component.Broken("interpreter", fmt.Sprintf("interpreter does not run: %v", err)).WithHint("astro repair")
	}
	version := strings.TrimSpace(string(out))
	cfg := env.Config.Python
	switch {
	case compareVersions(version, cfg.Required) < 0:
		return component.Broken("python-version", fmt.Sprintf("Python %s is below the required %s", version, cfg.Required)).
			WithHint("set python.interpreter to Python " + cfg.Recommended + "+ and run astro repair")
	case compareVersions(version, cfg.Recommended) < 0:
		return component.Degraded("python-version", fmt.Sprintf("Python %s works but %s+ is recommended", version, cfg.Recommended)).
			WithHint("set python.interpreter to Python " + cfg.Recommended + "+ and run astro repair")
	default:
		return component.OK("Python " + version)
	}
}
