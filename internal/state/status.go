package state

import (
	"git.home.luguber.info/inful/astrokit/internal/foundation/normalization"
)

// Status is the closed set of health states a component can be in.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusBroken   Status = "broken"
	StatusUnknown  Status = "unknown"
)

var statusNormalizer = normalization.NewNormalizer("status", map[string]Status{
	"ok":       StatusOK,
	"degraded": StatusDegraded,
	"broken":   StatusBroken,
	"unknown":  StatusUnknown,
}, StatusUnknown)

// ParseStatus parses a status string, rejecting anything outside the enum.
func ParseStatus(raw string) (Status, error) {
	return statusNormalizer.Parse(raw)
}

// IsHealthy reports whether s is ok.
func (s Status) IsHealthy() bool {
	return s == StatusOK
}

// NeedsRepair reports whether repair should reinstall a component in state s.
func (s Status) NeedsRepair() bool {
	switch s {
	case StatusDegraded, StatusBroken:
		return true
	case StatusOK, StatusUnknown:
		return false
	default:
		return false
	}
}

func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnknown:
		return 2
	case StatusBroken:
		return 3
	default:
		return 2
	}
}

// Worst returns the most severe of the given statuses (ok when empty).
func Worst(statuses ...Status) Status {
	worst := StatusOK
	for _, s := range statuses {
		if s.rank() > worst.rank() {
			worst = s
		}
	}
	return worst
}
