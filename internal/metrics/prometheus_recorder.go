package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// HealthStatuses are the label values of the health gauge. Exactly one is
// set to 1 per component.
var HealthStatuses = []string{"ok", "degraded", "broken", "unknown"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	installDuration *prom.HistogramVec
	outcomes        *prom.CounterVec
	health          *prom.GaugeVec
	runDuration     *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		installDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "astro",
			Name:      "component_install_duration_seconds",
			Help:      "Duration of component install and verify actions",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"component", "outcome"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "astro",
			Name:      "component_outcomes_total",
			Help:      "Per-component install outcomes",
		}, []string{"component", "outcome"}),
		health: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "astro",
			Name:      "component_health",
			Help:      "Last verified health per component (1 for the current status)",
		}, []string{"component", "status"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "astro",
			Name:      "run_duration_seconds",
			Help:      "Total duration of install, repair and doctor runs",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.installDuration, pr.outcomes, pr.health, pr.runDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveInstallDuration(component, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.installDuration.WithLabelValues(component, outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOutcome(component, outcome string) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(component, outcome).Inc()
}

func (p *PrometheusRecorder) SetHealth(component, status string) {
	if p == nil {
		return
	}
	for _, s := range HealthStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		p.health.WithLabelValues(component, s).Set(v)
	}
}

func (p *PrometheusRecorder) ObserveRunDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}
