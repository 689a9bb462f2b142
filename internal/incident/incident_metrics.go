package incident

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the incident subsystem. All
// recording helpers tolerate a nil receiver so tests can pass nil.
type Metrics struct {
	SubmissionsTotal     *prometheus.CounterVec
	GenerateDuration     *prometheus.HistogramVec
	PersistFailuresTotal prometheus.Counter
	RecordsTotal         prometheus.Counter
}

// NewMetrics registers and returns incident metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commsbot_submissions_total",
			Help: "Incident submissions by trigger source and outcome.",
		}, []string{"source", "outcome"}),
		GenerateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commsbot_generate_duration_seconds",
			Help:    "Duration of LLM message generation calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}, []string{"outcome"}),
		PersistFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commsbot_persist_failures_total",
			Help: "Incident record writes that failed (best-effort, reply unaffected).",
		}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commsbot_records_total",
			Help: "Incident records built after successful generation.",
		}),
	}

	reg.MustRegister(
		m.SubmissionsTotal,
		m.GenerateDuration,
		m.PersistFailuresTotal,
		m.RecordsTotal,
	)
	return m
}

func (m *Metrics) countSubmission(src Source, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(string(src), outcome).Inc()
	if outcome == "ok" {
		m.RecordsTotal.Inc()
	}
}

func (m *Metrics) observeGenerate(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.GenerateDuration.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) countPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.Inc()
}
