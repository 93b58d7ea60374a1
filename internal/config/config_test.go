package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

func clearRootEnv(t *testing.T) {
	t.Helper()
	for _, name := range RootEnvVars {
		t.Setenv(name, "")
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearRootEnv(t)
	root := t.TempDir()

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	require.Equal(t, root, cfg.Root)
	require.Empty(t, cfg.SourceFile())
	require.Equal(t, "python3", cfg.Python.Interpreter)
	require.Equal(t, "3.9", cfg.Python.Recommended)
	require.Equal(t, "3.8", cfg.Python.Required)
	require.Equal(t, SourceGit, cfg.Kit.Source.Kind)
	require.Equal(t, "main", cfg.Kit.Source.Ref)
	require.Equal(t, SourceHTTP, cfg.Topcat.Source.Kind)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.True(t, cfg.Logging.FileEnabled())
	require.Len(t, cfg.Packages[GroupCore], 4)
}

func TestLoad_FileOverridesGroupAndExpandsEnv(t *testing.T) {
	clearRootEnv(t)
	root := t.TempDir()
	t.Setenv("ASTRO_TEST_INDEX", "https://pypi.example.invalid/simple")

	content := `python:
  interpreter: python3.11
  index_url: ${ASTRO_TEST_INDEX}
packages:
  viz:
    - name: plotly
      min_version: "5.10"
logging:
  level: WARNING
  format: json
  file: false
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o600))

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, ConfigFileName), cfg.SourceFile())
	require.Equal(t, "python3.11", cfg.Python.Interpreter)
	require.Equal(t, "https://pypi.example.invalid/simple", cfg.Python.IndexURL)
	require.Equal(t, []Package{{Name: "plotly", MinVersion: "5.10"}}, cfg.Packages[GroupViz])
	require.Len(t, cfg.Packages[GroupCore], 4, "groups missing from the file keep their defaults")
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.False(t, cfg.Logging.FileEnabled())
}

func TestLoad_EnvFileIsLoaded(t *testing.T) {
	clearRootEnv(t)
	root := t.TempDir()
	t.Setenv("ASTRO_TEST_FROM_DOTENV", "")
	require.NoError(t, os.Unsetenv("ASTRO_TEST_FROM_DOTENV"))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("ASTRO_TEST_FROM_DOTENV=yes\n"), 0o600))

	_, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	require.Equal(t, "yes", os.Getenv("ASTRO_TEST_FROM_DOTENV"))
}

func TestLoad_InvalidYAMLIsConfigError(t *testing.T) {
	clearRootEnv(t)
	root := t.TempDir()
	path := filepath.Join(root, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("python: [unterminated"), 0o600))

	_, err := Load(LoadOptions{Root: root, ConfigPath: path})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearRootEnv(t)
	root := t.TempDir()

	_, err := Load(LoadOptions{Root: root, ConfigPath: filepath.Join(root, "nope.yaml")})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestResolveRoot(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tests := []struct {
		name string
		flag string
		vars map[string]string
		want string
	}{
		{name: "flag wins", flag: "/opt/astro", vars: map[string]string{"ASTRO_HOME": "/srv/astro"}, want: "/opt/astro"},
		{name: "primary variable", vars: map[string]string{"ASTRO_HOME": "/srv/astro", "ASTRONOMY_HOME": "/old"}, want: "/srv/astro"},
		{name: "dev alternate", vars: map[string]string{"ASTRO_DEV_HOME": "/dev/astro", "ASTRONOMY_HOME": "/old"}, want: "/dev/astro"},
		{name: "legacy alternate", vars: map[string]string{"ASTRONOMY_HOME": "/old"}, want: "/old"},
		{name: "home default", vars: map[string]string{"HOME": "/home/sky"}, want: "/home/sky/.astro"},
		{name: "tilde expansion", flag: "~/kits/astro", vars: map[string]string{"HOME": "/home/sky"}, want: "/home/sky/kits/astro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRoot(tt.flag, env(tt.vars))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Root: "/srv/astro"}
		require.NoError(t, ApplyDefaults(cfg))
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "relative root", mutate: func(c *Config) { c.Root = "astro" }, field: "root"},
		{name: "bad recommended version", mutate: func(c *Config) { c.Python.Recommended = "three" }, field: "python.recommended_version"},
		{name: "unknown group", mutate: func(c *Config) { c.Packages["games"] = []Package{{Name: "pygame"}} }, field: "packages.games"},
		{name: "unnamed package", mutate: func(c *Config) { c.Packages[GroupCore] = []Package{{}} }, field: "packages.core"},
		{name: "duplicate package", mutate: func(c *Config) {
			c.Packages[GroupCore] = []Package{{Name: "numpy"}, {Name: "numpy"}}
		}, field: "packages.core"},
		{name: "unsupported source kind", mutate: func(c *Config) { c.Kit.Source.Kind = "svn" }, field: "kit.source"},
		{name: "http source with git url", mutate: func(c *Config) { c.Topcat.Source.URL = "git@host:repo.git" }, field: "topcat.source"},
	}

	require.NoError(t, ValidateConfig(valid()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			classified, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, ferrors.CategoryConfig, classified.Category())
			field, _ := classified.Context().GetString("field")
			require.Equal(t, tt.field, field)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ConfigFileName)

	require.NoError(t, Init(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "interpreter: python3")
	require.Contains(t, string(data), "astronomy-starter-kit")

	err = Init(path, false)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}

func TestPackageHelpers(t *testing.T) {
	p := Package{Name: "scikit-learn", Import: "sklearn", MinVersion: "1.0"}
	require.Equal(t, "sklearn", p.ImportName())
	require.Equal(t, "scikit-learn>=1.0", p.Requirement())

	bare := Package{Name: "dash"}
	require.Equal(t, "dash", bare.ImportName())
	require.Equal(t, "dash", bare.Requirement())
}
