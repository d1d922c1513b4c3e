package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"

	OutcomeVerified = "verified"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics tracks certificate generation and verification. Each instance owns
// its registry so tests and multiple apps never collide. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	CertificatesGenerated prometheus.Counter
	RowsSkipped           prometheus.Counter
	GenerationRuns        *prometheus.CounterVec
	GenerationDuration    prometheus.Histogram
	Verifications         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		CertificatesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "certgen_certificates_generated_total",
			Help: "Total number of certificates written",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "certgen_rows_skipped_total",
			Help: "Total number of roster rows skipped for a field count mismatch",
		}),
		GenerationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_generation_runs_total",
			Help: "Generation runs by outcome",
		}, []string{"outcome"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgen_generation_duration_seconds",
			Help:    "Duration of a full generation run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_verifications_total",
			Help: "Verification lookups by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementCertificatesGenerated() {
	if m == nil {
		return
	}
	m.CertificatesGenerated.Inc()
}

func (m *Metrics) AddRowsSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsSkipped.Add(float64(n))
}

// ObserveGeneration records a finished run. Call with time.Now() taken at the
// start of the run.
func (m *Metrics) ObserveGeneration(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.GenerationRuns.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
