package overlay

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// Source records which step produced a value.
type Source string

const (
	SourceEnv      Source = "env"
	SourceProbe    Source = "probe"
	SourceFallback Source = "fallback"
)

// System is the host access probes are allowed to use. Tests swap in fakes.
type System struct {
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
	Glob     func(pattern string) ([]string, error)
	Stat     func(string) (fs.FileInfo, error)
	UID      func() int
}

// HostSystem returns a System backed by the real host.
func HostSystem() System {
	return System{
		Getenv:   os.Getenv,
		ReadFile: os.ReadFile,
		Glob:     func(pattern string) ([]string, error) { return doublestar.FilepathGlob(pattern) },
		Stat:     os.Stat,
		UID:      os.Getuid,
	}
}

// Probe inspects the session for a value. resolved holds the variables
// resolved earlier in the same spec.
type Probe func(ctx context.Context, sys System, resolved Overlay) (string, bool)

// Var is one variable of a Spec.
type Var struct {
	Name     string
	Probes   []Probe
	Fallback string // empty means no fallback
}

// Spec lists the variables of a launch target, resolved in order.
type Spec struct {
	Vars []Var
}

// Entry is one resolved variable.
type Entry struct {
	Name   string
	Value  string
	Source Source
}

// Overlay is the result of resolving a Spec.
type Overlay struct {
	entries []Entry
}

// Lookup returns the resolved value of name.
func (o Overlay) Lookup(name string) (string, bool) {
	for _, e := range o.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Entries returns a copy of the resolved variables in spec order.
func (o Overlay) Entries() []Entry {
	return append([]Entry(nil), o.entries...)
}

// Len returns the number of resolved variables.
func (o Overlay) Len() int {
	return len(o.entries)
}

// Apply merges the overlay onto environ (KEY=VALUE form), replacing existing
// keys in place and appending new ones.
func (o Overlay) Apply(environ []string) []string {
	out := make([]string, 0, len(environ)+len(o.entries))
	applied := make(map[string]bool, len(o.entries))
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if v, ok := o.Lookup(name); ok {
			if !applied[name] {
				out = append(out, name+"="+v)
				applied[name] = true
			}
			continue
		}
		out = append(out, kv)
	}
	for _, e := range o.entries {
		if !applied[e.Name] {
			out = append(out, e.Name+"="+e.Value)
		}
	}
	return out
}

// Resolver resolves specs against a System.
type Resolver struct {
	sys System
}

// NewResolver returns a Resolver using sys.
func NewResolver(sys System) *Resolver {
	return &Resolver{sys: sys}
}

// Resolve computes the overlay for spec. It never fails; a nil spec yields an
// empty overlay.
func (r *Resolver) Resolve(ctx context.Context, spec *Spec) Overlay {
	var o Overlay
	if spec == nil {
		return o
	}
	for _, v := range spec.Vars {
		if val := r.getenv(v.Name); val != "" {
			o.entries = append(o.entries, Entry{Name: v.Name, Value: val, Source: SourceEnv})
			continue
		}
		if val, ok := r.probe(ctx, v, o); ok {
			o.entries = append(o.entries, Entry{Name: v.Name, Value: val, Source: SourceProbe})
			continue
		}
		if v.Fallback != "" {
			o.entries = append(o.entries, Entry{Name: v.Name, Value: v.Fallback, Source: SourceFallback})
			continue
		}
		slog.DebugContext(ctx, "Overlay variable unresolved", logfields.Variable(v.Name))
	}
	return o
}

func (r *Resolver) getenv(name string) string {
	if r.sys.Getenv == nil {
		return ""
	}
	return r.sys.Getenv(name)
}

func (r *Resolver) probe(ctx context.Context, v Var, resolved Overlay) (string, bool) {
	for i, p := range v.Probes {
		val, ok, err := safeProbe(ctx, p, r.sys, resolved)
		if err != nil {
			slog.DebugContext(ctx, "Overlay probe failed",
				logfields.Variable(v.Name),
				slog.Int("probe", i),
				logfields.Error(err))
			continue
		}
		if ok && val != "" {
			return val, true
		}
	}
	return "", false
}

func safeProbe(ctx context.Context, p Probe, sys System, resolved Overlay) (val string, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val, ok, err = "", false, fmt.Errorf("probe panicked: %v", rec)
		}
	}()
	val, ok = p(ctx, sys, resolved)
	return val, ok, nil
}
