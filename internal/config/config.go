package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// ConfigFileName is the optional configuration file looked up under the root.
const ConfigFileName = "astro.yaml"

// Config is the single configuration object threaded through the installer,
// diagnostics and router. It is built once at startup by Load and not mutated
// afterwards.
type Config struct {
	// Root is the directory tree owned by astro. Not read from YAML; resolved
	// from flags and environment before the file is located.
	Root string `yaml:"-"`

	Python   PythonConfig         `yaml:"python"`
	Packages map[string][]Package `yaml:"packages,omitempty"`
	Kit      KitConfig            `yaml:"kit"`
	Topcat   TopcatConfig         `yaml:"topcat"`
	Logging  LoggingConfig        `yaml:"logging"`

	// path of the file this config was read from ("" when defaults only)
	source string
}

// PythonConfig controls the managed virtual environment.
type PythonConfig struct {
	Interpreter string   `yaml:"interpreter"`         // base interpreter used to create the venv
	Recommended string   `yaml:"recommended_version"` // below this verify reports degraded
	Required    string   `yaml:"required_version"`    // below this verify reports broken
	IndexURL    string   `yaml:"index_url,omitempty"` // optional pip index
	PipArgs     []string `yaml:"pip_args,omitempty"`  // extra pip install arguments
}

// Package is one Python distribution managed by a package-group component.
type Package struct {
	Name       string `yaml:"name"`                  // pip distribution name
	Import     string `yaml:"import,omitempty"`      // import name when it differs from Name
	MinVersion string `yaml:"min_version,omitempty"` // below this verify reports degraded
	Optional   bool   `yaml:"optional,omitempty"`    // missing optional packages degrade instead of break
}

// ImportName returns the module name used by the import probe.
func (p Package) ImportName() string {
	if p.Import != "" {
		return p.Import
	}
	return p.Name
}

// Requirement returns the pip requirement specifier.
func (p Package) Requirement() string {
	if p.MinVersion != "" {
		return p.Name + ">=" + p.MinVersion
	}
	return p.Name
}

// SourceKind selects the fetch collaborator.
type SourceKind string

const (
	SourceHTTP SourceKind = "http"
	SourceGit  SourceKind = "git"
)

// Source describes where an externally fetched artifact comes from.
type Source struct {
	Kind   SourceKind `yaml:"kind"`
	URL    string     `yaml:"url"`
	Ref    string     `yaml:"ref,omitempty"`    // git branch
	SHA256 string     `yaml:"sha256,omitempty"` // optional checksum for http downloads
}

// KitConfig points at the starter-kit scripts repository.
type KitConfig struct {
	Source Source `yaml:"source"`
}

// TopcatConfig configures the TOPCAT table viewer.
type TopcatConfig struct {
	Source      Source   `yaml:"source"`
	JavaOptions []string `yaml:"java_options,omitempty"`
}

// LoggingConfig controls the slog handlers.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
	File   *bool     `yaml:"file,omitempty"` // mirror logs to <root>/logs/astro.log (default true)
}

// FileEnabled reports whether the log file mirror is on.
func (l LoggingConfig) FileEnabled() bool {
	return l.File == nil || *l.File
}

// LoadOptions carries the CLI overrides that influence loading.
type LoadOptions struct {
	Root       string // --root flag
	ConfigPath string // --config flag; empty means <root>/astro.yaml if present
}

// Load builds the configuration: resolve the root, load <root>/.env, read the
// optional YAML file, apply defaults and validate.
func Load(opts LoadOptions) (*Config, error) {
	root, err := ResolveRoot(opts.Root, os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := loadEnvFile(filepath.Join(root, ".env")); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load .env").
			Fatal().
			WithContext(ferrors.KeyPath, filepath.Join(root, ".env")).
			Build()
	}

	cfg := &Config{}
	path := opts.ConfigPath
	if path == "" {
		path = filepath.Join(root, ConfigFileName)
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			path = ""
		}
	}
	if path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Root = root
	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourceFile returns the path of the file the configuration was read from.
func (c *Config) SourceFile() string {
	return c.source
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext(ferrors.KeyPath, path).
			Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			Fatal().
			WithContext(ferrors.KeyPath, path).
			Build()
	}
	cfg.source = path
	return nil
}

// Init writes an example configuration file containing the defaults.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}

	example := &Config{}
	if err := ApplyDefaults(example); err != nil {
		return err
	}
	example.Logging.File = nil

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}
	header := "# astro configuration. Every key is optional; omitted keys use the defaults shown here.\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config directory").Build()
	}
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext(ferrors.KeyPath, path).
			Build()
	}
	return nil
}
