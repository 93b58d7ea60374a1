package installer

import (
	"time"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// Outcome is what happened to one component during a run.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeBroken   Outcome = "broken"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	OutcomeBlocked  Outcome = "blocked"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeOK, OutcomeDegraded, OutcomeSkipped, OutcomeBroken, OutcomeFailed, OutcomeBlocked}

func outcomeForStatus(s state.Status) Outcome {
	switch s {
	case state.StatusOK:
		return OutcomeOK
	case state.StatusDegraded:
		return OutcomeDegraded
	case state.StatusBroken, state.StatusUnknown:
		return OutcomeBroken
	default:
		return OutcomeBroken
	}
}

// Satisfied reports whether dependents may proceed after this outcome.
func (o Outcome) Satisfied() bool {
	switch o {
	case OutcomeOK, OutcomeDegraded, OutcomeSkipped:
		return true
	case OutcomeBroken, OutcomeFailed, OutcomeBlocked:
		return false
	default:
		return false
	}
}

// Run kinds recorded in history and metrics.
const (
	KindInstall = "install"
	KindUpdate  = "update"
	KindRepair  = "repair"
)

// Item is the result for one component.
type Item struct {
	Component string        `json:"component"`
	Outcome   Outcome       `json:"outcome"`
	Status    state.Status  `json:"status"`
	Check     string        `json:"check,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	FixHint   string        `json:"fix_hint,omitempty"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Report is the complete result of one run, in resolved order.
type Report struct {
	RunID    string        `json:"run_id"`
	Kind     string        `json:"kind"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Items    []Item        `json:"items"`
}

// Get returns the item of component name.
func (r *Report) Get(name string) (Item, bool) {
	for _, it := range r.Items {
		if it.Component == name {
			return it, true
		}
	}
	return Item{}, false
}

// Counts returns the number of items per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, len(Outcomes))
	for _, it := range r.Items {
		counts[it.Outcome]++
	}
	return counts
}

// Failed returns the items whose dependents could not proceed.
func (r *Report) Failed() []Item {
	var out []Item
	for _, it := range r.Items {
		if !it.Outcome.Satisfied() {
			out = append(out, it)
		}
	}
	return out
}

// Succeeded reports whether no component failed, broke or was blocked.
func (r *Report) Succeeded() bool {
	return len(r.Failed()) == 0
}

// ExitCode maps the report to the process exit code: 0 when every component
// is usable, partial when at least one is, total otherwise.
func (r *Report) ExitCode() int {
	failed := len(r.Failed())
	switch {
	case failed == 0:
		return ferrors.ExitOK
	case failed < len(r.Items):
		return ferrors.ExitPartial
	default:
		return ferrors.ExitTotal
	}
}

// FirstError returns the error of the first failed item, if any.
func (r *Report) FirstError() error {
	for _, it := range r.Items {
		if it.Err != nil {
			return it.Err
		}
	}
	return nil
}
