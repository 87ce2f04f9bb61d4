package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "specpreview"

// statuses are the values of the status gauge; exactly one is 1 at a time.
var statuses = []string{"progress-unsaved", "success-process", "error-yaml", "error-swagger", "error-general"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration  *prom.HistogramVec
	buildOutcome   *prom.CounterVec
	gateSkips      *prom.CounterVec
	staleCompleted prom.Counter
	inflight       prom.Gauge
	status         *prom.GaugeVec
	annotations    *prom.GaugeVec
	backendHealthy prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Document build duration by result channel",
			Buckets:   prom.DefBuckets,
		}, []string{"channel"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Classified build outcomes by status",
		}, []string{"status"}),
		gateSkips: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gate_skips_total",
			Help:      "Document changes stopped before building, by gate",
		}, []string{"gate"}),
		staleCompleted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Builds that completed after a newer build had already completed",
		}),
		inflight: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "builds_inflight",
			Help:      "Builds started and not yet completed",
		}),
		status: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "status",
			Help:      "Current pipeline status (1 for the active value)",
		}, []string{"status"}),
		annotations: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "annotations",
			Help:      "Annotations currently applied, by kind",
		}, []string{"kind"}),
		backendHealthy: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_healthy",
			Help:      "1 when the build backend reports healthy",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.gateSkips, pr.staleCompleted,
		pr.inflight, pr.status, pr.annotations, pr.backendHealthy)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(channel string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(channel).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(status string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncGateSkip(gate GateLabel) {
	if p == nil {
		return
	}
	p.gateSkips.WithLabelValues(string(gate)).Inc()
}

func (p *PrometheusRecorder) IncStaleCompletion() {
	if p == nil {
		return
	}
	p.staleCompleted.Inc()
}

func (p *PrometheusRecorder) SetInflightBuilds(n int) {
	if p == nil {
		return
	}
	p.inflight.Set(float64(n))
}

func (p *PrometheusRecorder) SetStatus(status string) {
	if p == nil {
		return
	}
	for _, s := range statuses {
		v := 0.0
		if s == status {
			v = 1
		}
		p.status.WithLabelValues(s).Set(v)
	}
}

func (p *PrometheusRecorder) ObserveAnnotations(errors, warnings int) {
	if p == nil {
		return
	}
	p.annotations.WithLabelValues("error").Set(float64(errors))
	p.annotations.WithLabelValues("warning").Set(float64(warnings))
}

func (p *PrometheusRecorder) SetBackendHealthy(healthy bool) {
	if p == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	p.backendHealthy.Set(v)
}
