package config

import "slices"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Package group names. Each is the name of the component that installs it.
const (
	GroupCore      = "core"
	GroupAstropy   = "astropy"
	GroupViz       = "viz"
	GroupJupyter   = "jupyter"
	GroupDevtools  = "devtools"
	GroupDashboard = "dashboard"
)

// DefaultPackages returns the package lists used when the config file does
// not override a group. Minimum versions match what the starter kit targets.
func DefaultPackages() map[string][]Package {
	return map[string][]Package{
		GroupCore: {
			{Name: "numpy", MinVersion: "1.20.0"},
			{Name: "scipy", MinVersion: "1.7.0"},
			{Name: "matplotlib", MinVersion: "3.4.0"},
			{Name: "pandas", MinVersion: "1.3.0"},
		},
		GroupAstropy: {
			{Name: "astropy", MinVersion: "5.0"},
		},
		GroupViz: {
			{Name: "plotly", MinVersion: "5.0.0"},
			{Name: "seaborn", MinVersion: "0.11.0"},
			{Name: "bokeh", Optional: true},
		},
		GroupJupyter: {
			{Name: "jupyterlab"},
			{Name: "ipywidgets"},
		},
		GroupDevtools: {
			{Name: "pytest", Optional: true},
			{Name: "h5py", Optional: true},
			{Name: "scikit-learn", Import: "sklearn", Optional: true},
		},
		GroupDashboard: {
			{Name: "dash"},
		},
	}
}

// PythonDefaultApplier handles interpreter defaults.
type PythonDefaultApplier struct{}

func (PythonDefaultApplier) Domain() string { return "python" }

func (PythonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Python.Interpreter == "" {
		cfg.Python.Interpreter = "python3"
	}
	if cfg.Python.Recommended == "" {
		cfg.Python.Recommended = "3.9"
	}
	if cfg.Python.Required == "" {
		cfg.Python.Required = "3.8"
	}
	return nil
}

// PackagesDefaultApplier fills in package groups the user did not override.
// A group present in the file replaces the default list entirely.
type PackagesDefaultApplier struct{}

func (PackagesDefaultApplier) Domain() string { return "packages" }

func (PackagesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Packages == nil {
		cfg.Packages = make(map[string][]Package)
	}
	for group, pkgs := range DefaultPackages() {
		if _, ok := cfg.Packages[group]; !ok {
			cfg.Packages[group] = slices.Clone(pkgs)
		}
	}
	return nil
}

// SourcesDefaultApplier handles fetched artifact sources.
type SourcesDefaultApplier struct{}

func (SourcesDefaultApplier) Domain() string { return "sources" }

func (SourcesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Kit.Source.URL == "" {
		cfg.Kit.Source = Source{Kind: SourceGit, URL: "https://github.com/RedChaosWolf92/astronomy-starter-kit.git"}
	}
	if cfg.Kit.Source.Kind == "" {
		cfg.Kit.Source.Kind = SourceGit
	}
	if cfg.Kit.Source.Kind == SourceGit && cfg.Kit.Source.Ref == "" {
		cfg.Kit.Source.Ref = "main"
	}

	if cfg.Topcat.Source.URL == "" {
		cfg.Topcat.Source = Source{Kind: SourceHTTP, URL: "https://www.star.bris.ac.uk/~mbt/topcat/topcat-full.jar"}
	}
	if cfg.Topcat.Source.Kind == "" {
		cfg.Topcat.Source.Kind = SourceHTTP
	}
	return nil
}

// LoggingDefaultApplier normalizes level and format.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// defaultAppliers is the fixed order defaults are applied in.
var defaultAppliers = []DefaultApplier{
	PythonDefaultApplier{},
	PackagesDefaultApplier{},
	SourcesDefaultApplier{},
	LoggingDefaultApplier{},
}

// ApplyDefaults runs every domain applier over cfg.
func ApplyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
