package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/astrokit/internal/component"
	"git.home.luguber.info/inful/astrokit/internal/config"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// probeScript imports each requested module and prints one JSON line per
// module with its distribution version.
const probeScript = `
import importlib, json, sys
try:
    from importlib import metadata
except ImportError:
    metadata = None
for spec in json.loads(sys.argv[1]):
    out = {"name": spec["name"], "import": spec["import"], "ok": False, "version": ""}
    try:
        mod = importlib.import_module(spec["import"])
        out["ok"] = True
        version = ""
        if metadata is not None:
            try:
                version = metadata.version(spec["name"])
            except Exception:
                version = ""
        out["version"] = version or str(getattr(mod, "__version__", ""))
    except Exception as exc:
        out["error"] = "%s: %s" % (type(exc).__name__, exc)
    print(json.dumps(out))
`

// coreSmoke exercises the stack the way the starter kit does: array math,
// an FFT and a headless matplotlib render.
const coreSmoke = `
import io
import numpy as np
import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt
x = np.linspace(0, 2 * np.pi, 100)
y = np.sin(x) * np.exp(-x / 4)
np.fft.fft(y)
fig, ax = plt.subplots()
ax.plot(x, y)
buf = io.BytesIO()
fig.savefig(buf, format="png", dpi=72)
assert buf.tell() > 0
print("ok")
`

type probeSpec struct {
	Name       string `json:"name"`
	Import     string `json:"import"`
	MinVersion string `json:"-"`
	Optional   bool   `json:"-"`
}

type probeResult struct {
	Name    string `json:"name"`
	Import  string `json:"import"`
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	Error   string `json:"error"`
}

type groupOptions struct {
	extraImports []probeSpec
	smoke        string // optional script that must print "ok"
}

func groupPackages(env *component.Env, group string) []config.Package {
	return env.Config.Packages[group]
}

func packageGroup(name, description string, deps []string, opts groupOptions) component.Component {
	return component.Component{
		Name:        name,
		Description: description,
		DependsOn:   deps,
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			return distributionsPresent(env, groupPackages(env, name))
		},
		Install: func(ctx context.Context, env *component.Env) error {
			return pipInstall(ctx, env, name, groupPackages(env, name))
		},
		Verify: func(ctx context.Context, env *component.Env) component.Health {
			return verifyGroup(ctx, env, name, opts)
		},
		Uninstall: func(ctx context.Context, env *component.Env) error {
			return pipUninstall(ctx, env, name, groupPackages(env, name))
		},
	}
}

// normalizeDist applies the wheel naming normalization used for dist-info
// directory names.
func normalizeDist(name string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return strings.ToLower(r.Replace(name))
}

// installedDistributions lists normalized distribution names from the
// venv's dist-info directories.
func installedDistributions(env *component.Env) map[string]bool {
	pattern := filepath.Join(env.Layout.Env, "lib", "python*", "site-packages", "*.dist-info")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil
	}
	out := make(map[string]bool, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".dist-info")
		dist, _, _ := strings.Cut(base, "-")
		out[normalizeDist(dist)] = true
	}
	return out
}

// distributionsPresent is the cheap presence check: required packages must
// have dist-info directories. A group of only optional packages needs all of
// them.
func distributionsPresent(env *component.Env, pkgs []config.Package) bool {
	if !fileExists(venvPython(env)) {
		return false
	}
	installed := installedDistributions(env)
	required := 0
	for _, p := range pkgs {
		if !p.Optional {
			required++
		}
	}
	for _, p := range pkgs {
		if (p.Optional && required > 0) || installed[normalizeDist(p.Name)] {
			continue
		}
		return false
	}
	return true
}

func pipBaseArgs(env *component.Env) []string {
	args := []string{"-m", "pip", "install", "--disable-pip-version-check"}
	if env.Upgrade {
		args = append(args, "--upgrade")
	}
	if env.Config.Python.IndexURL != "" {
		args = append(args, "--index-url", env.Config.Python.IndexURL)
	}
	return append(args, env.Config.Python.PipArgs...)
}

// pipInstall installs required packages in one pip call. Optional packages
// are installed one at a time and a failure only logs a warning; verify
// reports them as degraded.
func pipInstall(ctx context.Context, env *component.Env, group string, pkgs []config.Package) error {
	if !env.Reinstall && !env.Upgrade && distributionsPresent(env, pkgs) {
		return nil
	}
	py := venvPython(env)

	var required []string
	for _, p := range pkgs {
		if !p.Optional {
			required = append(required, p.Requirement())
		}
	}
	if len(required) > 0 {
		args := append(pipBaseArgs(env), required...)
		if _, err := env.Runner.Output(ctx, launch.Cmd{Path: py, Args: args}); err != nil {
			return ferrors.InstallError(group, "pip install failed").
				Check("pip-install").
				WithCause(err).
				WithContext("packages", strings.Join(required, " ")).
				Hint("check network access and re-run astro install " + group).
				Build()
		}
	}

	for _, p := range pkgs {
		if !p.Optional {
			continue
		}
		args := append(pipBaseArgs(env), p.Requirement())
		if _, err := env.Runner.Output(ctx, launch.Cmd{Path: py, Args: args}); err != nil {
			warnOptional(ctx, p.Name, err)
		}
	}
	return nil
}

func pipUninstall(ctx context.Context, env *component.Env, group string, pkgs []config.Package) error {
	py := venvPython(env)
	if !fileExists(py) || len(pkgs) == 0 {
		return nil
	}
	args := []string{"-m", "pip", "uninstall", "--disable-pip-version-check", "-y"}
	for _, p := range pkgs {
		args = append(args, p.Name)
	}
	if _, err := env.Runner.Output(ctx, launch.Cmd{Path: py, Args: args}); err != nil {
		return ferrors.InstallError(group, "pip uninstall failed").
			Check("pip-uninstall").
			WithCause(err).
			Build()
	}
	return nil
}

func runProbe(ctx context.Context, env *component.Env, specs []probeSpec) (map[string]probeResult, error) {
	arg, err := json.Marshal(specs)
	if err != nil {
		return nil, err
	}
	out, err := env.Runner.Output(ctx, launch.Cmd{Path: venvPython(env), Args: []string{"-c", probeScript, string(arg)}})
	if err != nil {
		return nil, err
	}
	results := make(map[string]probeResult, len(specs))
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var r probeResult
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		results[r.Import] = r
	}
	return results, scanner.Err()
}

type finding struct {
	status state.Status
	check  string
	detail string
	hint   string
}

func verifyGroup(ctx context.Context, env *component.Env, group string, opts groupOptions) component.Health {
	if !fileExists(venvPython(env)) {
		return component.Broken("interpreter", "virtual environment is missing").WithHint("astro repair")
	}

	pkgs := groupPackages(env, group)
	specs := make([]probeSpec, 0, len(pkgs)+len(opts.extraImports))
	for _, p := range pkgs {
		specs = append(specs, probeSpec{Name: p.Name, Import: p.ImportName(), MinVersion: p.MinVersion, Optional: p.Optional})
	}
	specs = append(specs, opts.extraImports...)

	results, err := runProbe(ctx, env, specs)
	if err != nil {
		return component.Broken("import-probe", fmt.Sprintf("import probe failed: %v", err)).WithHint("astro repair")
	}

	var findings []finding
	for _, s := range specs {
		r, ok := results[s.Import]
		switch {
		case !ok || !r.OK:
			reason := r.Error
			if reason == "" {
				reason = "no probe result"
			}
			f := finding{status: state.StatusBroken, check: "import:" + s.Import,
				detail: fmt.Sprintf("%s not importable (%s)", s.Import, reason), hint: "pip install " + s.Name}
			if s.Optional {
				f.status = state.StatusDegraded
				f.detail = fmt.Sprintf("optional %s not importable", s.Import)
			}
			findings = append(findings, f)
		case s.MinVersion != "" && r.Version != "" && compareVersions(r.Version, s.MinVersion) < 0:
			findings = append(findings, finding{status: state.StatusDegraded, check: "version:" + s.Name,
				detail: fmt.Sprintf("%s %s is below %s", s.Name, r.Version, s.MinVersion),
				hint:   fmt.Sprintf("pip install --upgrade '%s>=%s'", s.Name, s.MinVersion)})
		}
	}

	if opts.smoke != "" && !hasStatus(findings, state.StatusBroken) {
		out, err := env.Runner.Output(ctx, launch.Cmd{Path: venvPython(env), Args: []string{"-c", opts.smoke}})
		if err != nil || !strings.Contains(string(out), "ok") {
			detail := "functional test failed"
			if err != nil {
				detail = fmt.Sprintf("functional test failed: %v", err)
			}
			findings = append(findings, finding{status: state.StatusDegraded, check: "smoke:" + group, detail: detail, hint: "astro repair"})
		}
	}

	if len(findings) == 0 {
		return component.OK(fmt.Sprintf("%d modules importable", len(specs)))
	}
	return summarize(findings)
}

func hasStatus(findings []finding, s state.Status) bool {
	for _, f := range findings {
		if f.status == s {
			return true
		}
	}
	return false
}

// summarize reports the first most severe finding's check and hint and all
// findings in the detail.
func summarize(findings []finding) component.Health {
	statuses := make([]state.Status, len(findings))
	for i, f := range findings {
		statuses[i] = f.status
	}
	worst := state.Worst(statuses...)

	details := make([]string, len(findings))
	for i, f := range findings {
		details[i] = f.detail
	}
	for _, f := range findings {
		if f.status == worst {
			return component.Health{Status: worst, Check: f.check, Detail: strings.Join(details, "; "), FixHint: f.hint}
		}
	}
	return component.Health{Status: worst, Detail: strings.Join(details, "; ")}
}
