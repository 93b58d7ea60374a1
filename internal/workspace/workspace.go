package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// Layout is the fixed directory tree under the root.
type Layout struct {
	Root       string
	Env        string // Python virtual environment
	Bin        string
	Apps       string // fetched applications (topcat, ...)
	Kit        string // starter kit scripts checkout
	Logs       string
	Work       string // user work product, preserved unless explicitly purged
	Jupyter    string // static fallback for Jupyter config and data dirs
	StateFile  string
	LogFile    string
	ConfigFile string
	EnvFile    string
}

// ErrOutsideRoot is returned when asked to remove a path the layout does not own.
var ErrOutsideRoot = errors.New("path is outside the astro root")

// ErrWorkDir is returned when asked to remove user work product as a component artifact.
var ErrWorkDir = errors.New("path is inside the work directory")

// New returns the layout rooted at root.
func New(root string) Layout {
	return Layout{
		Root:       root,
		Env:        filepath.Join(root, "env"),
		Bin:        filepath.Join(root, "bin"),
		Apps:       filepath.Join(root, "apps"),
		Kit:        filepath.Join(root, "kit"),
		Logs:       filepath.Join(root, "logs"),
		Work:       filepath.Join(root, "work"),
		Jupyter:    filepath.Join(root, "jupyter"),
		StateFile:  filepath.Join(root, "state.db"),
		LogFile:    filepath.Join(root, "logs", "astro.log"),
		ConfigFile: filepath.Join(root, "astro.yaml"),
		EnvFile:    filepath.Join(root, ".env"),
	}
}

// Dirs returns the directories created by Ensure.
func (l Layout) Dirs() []string {
	return []string{l.Root, l.Bin, l.Apps, l.Logs, l.Work}
}

// EnvBin returns the path of an executable inside the virtual environment.
func (l Layout) EnvBin(name string) string {
	return filepath.Join(l.Env, "bin", name)
}

// AppDir returns the install directory of a fetched application.
func (l Layout) AppDir(name string) string {
	return filepath.Join(l.Apps, name)
}

// Ensure creates the base directories. Existing directories are left alone.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	slog.Debug("Ensured root layout", logfields.Path(l.Root))
	return nil
}

// Writable checks that dir exists, is a directory, and accepts new files.
func Writable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".astro-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Owns reports whether path lies strictly inside the root.
func (l Layout) Owns(path string) bool {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (l Layout) inWork(path string) bool {
	return path == l.Work || strings.HasPrefix(path, l.Work+string(filepath.Separator))
}

// RemoveArtifacts deletes component artifacts. Paths outside the root or in
// the work directory are refused before anything is removed.
func (l Layout) RemoveArtifacts(paths []string) error {
	for _, p := range paths {
		clean := filepath.Clean(p)
		if !l.Owns(clean) {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, p)
		}
		if l.inWork(clean) {
			return fmt.Errorf("%w: %s", ErrWorkDir, p)
		}
	}
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		slog.Info("Removed artifact", logfields.Path(p))
	}
	return nil
}

// WorkEntries lists the top-level entries of the work directory.
func (l Layout) WorkEntries() ([]string, error) {
	entries, err := os.ReadDir(l.Work)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Managed returns the entries under the root that astro creates and may
// remove wholesale. The state store, configuration and logs are not listed.
func (l Layout) Managed() []string {
	return []string{l.Env, l.Bin, l.Apps, l.Kit, l.Jupyter}
}

// Unmanaged lists the top-level entries under the root that astro did not
// create. Uninstall leaves them in place.
func (l Layout) Unmanaged() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	known := []string{
		filepath.Base(l.StateFile),
		filepath.Base(l.StateFile) + "-wal",
		filepath.Base(l.StateFile) + "-shm",
		filepath.Base(l.ConfigFile),
		filepath.Base(l.EnvFile),
		filepath.Base(l.Logs),
		filepath.Base(l.Work),
	}
	for _, p := range l.Managed() {
		known = append(known, filepath.Base(p))
	}
	var out []string
	for _, e := range entries {
		if !slices.Contains(known, e.Name()) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// RemoveAll removes the managed entries under the root. The state store,
// configuration, logs and anything astro did not create stay. The work
// directory is kept when keepWork is set.
func (l Layout) RemoveAll(keepWork bool) error {
	targets := l.Managed()
	if !keepWork {
		targets = append(targets, l.Work)
	}
	for _, p := range targets {
		if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		slog.Info("Removed", logfields.Path(p))
	}
	return nil
}
