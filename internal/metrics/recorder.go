package metrics

import "time"

// Recorder defines observability hooks for install runs and health checks.
type Recorder interface {
	ObserveInstallDuration(component, outcome string, d time.Duration)
	IncOutcome(component, outcome string)
	SetHealth(component, status string)
	ObserveRunDuration(kind string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveInstallDuration(string, string, time.Duration) {}
func (NoopRecorder) IncOutcome(string, string)                            {}
func (NoopRecorder) SetHealth(string, string)                             {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)             {}
