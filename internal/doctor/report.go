package doctor

import (
	"slices"
	"time"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Entry is the live health of one component.
type Entry struct {
	Component   string       `json:"component" yaml:"component"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Status      state.Status `json:"status" yaml:"status"`
	Check       string       `json:"check,omitempty" yaml:"check,omitempty"`
	Detail      string       `json:"detail,omitempty" yaml:"detail,omitempty"`
	FixHint     string       `json:"fix_hint,omitempty" yaml:"fix_hint,omitempty"`
	// Recorded is what the state store claimed before this run.
	Recorded bool `json:"recorded_installed" yaml:"recorded_installed"`
	// Disagreement is set when the store and the live system disagree.
	Disagreement string `json:"disagreement,omitempty" yaml:"disagreement,omitempty"`
}

// HealthReport is an immutable snapshot produced by one doctor run.
type HealthReport struct {
	RunID       string
	GeneratedAt time.Time
	entries     []Entry
}

// NewHealthReport builds a report from entries, copying them.
func NewHealthReport(generatedAt time.Time, entries ...Entry) *HealthReport {
	return &HealthReport{GeneratedAt: generatedAt, entries: slices.Clone(entries)}
}

// Entries returns a copy of the entries in resolved order.
func (r *HealthReport) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Get returns the entry of component name.
func (r *HealthReport) Get(name string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Component == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Healthy reports whether every component is ok.
func (r *HealthReport) Healthy() bool {
	for _, e := range r.entries {
		if !e.Status.IsHealthy() {
			return false
		}
	}
	return true
}

// Unhealthy returns every entry that is not ok.
func (r *HealthReport) Unhealthy() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if !e.Status.IsHealthy() {
			out = append(out, e)
		}
	}
	return out
}

// NeedsRepair returns the names of degraded or broken components.
func (r *HealthReport) NeedsRepair() []string {
	var out []string
	for _, e := range r.entries {
		if e.Status.NeedsRepair() {
			out = append(out, e.Component)
		}
	}
	return out
}

// Disagreements returns entries where the store and live system disagree.
func (r *HealthReport) Disagreements() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.Disagreement != "" {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of entries per status.
func (r *HealthReport) Counts() map[state.Status]int {
	counts := map[state.Status]int{}
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts
}

// ExitCode is 0 when healthy, partial when some component is ok and total
// when none is.
func (r *HealthReport) ExitCode() int {
	unhealthy := len(r.Unhealthy())
	switch {
	case unhealthy == 0:
		return ferrors.ExitOK
	case unhealthy < len(r.entries):
		return ferrors.ExitPartial
	default:
		return ferrors.ExitTotal
	}
}
