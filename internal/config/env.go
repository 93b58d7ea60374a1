package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// RootEnvVars lists the variables consulted for the root directory, in
// priority order. The alternates are older names still found in user shells.
var RootEnvVars = []string{"ASTRO_HOME", "ASTRO_DEV_HOME", "ASTRONOMY_HOME"}

// DefaultRootName is the directory created under $HOME when nothing else is set.
const DefaultRootName = ".astro"

// ResolveRoot picks the root directory: explicit flag, then RootEnvVars, then
// ~/.astro. The result is always absolute.
func ResolveRoot(flag string, getenv func(string) string) (string, error) {
	candidate := flag
	for _, name := range RootEnvVars {
		if candidate != "" {
			break
		}
		candidate = getenv(name)
	}
	if candidate == "" {
		home := getenv("HOME")
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return "", ferrors.WrapError(err, ferrors.CategoryConfig, "cannot determine home directory").
					Fatal().
					Hint("set ASTRO_HOME to choose an installation directory").
					Build()
			}
		}
		candidate = filepath.Join(home, DefaultRootName)
	}

	abs, err := filepath.Abs(expandHome(candidate, getenv))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "invalid root directory").
			Fatal().
			WithContext(ferrors.KeyPath, candidate).
			Build()
	}
	return abs, nil
}

func expandHome(path string, getenv func(string) string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		if home := getenv("HOME"); home != "" {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// loadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Existing variables win and a missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
