package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the quiz engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	SessionsStarted prometheus.Counter
	SessionsActive  prometheus.Gauge
	Submissions     *prometheus.CounterVec
	PersistFailures prometheus.Counter
	ScorePercentage prometheus.Histogram
	PersistDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Number of quiz sessions currently open",
		}),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_submissions_total",
				Help: "Total number of scored submissions",
			},
			[]string{"trigger"},
		),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempt_persist_failures_total",
			Help: "Attempts that could not be persisted",
		}),
		ScorePercentage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_score_percentage",
			Help:    "Distribution of submitted score percentages",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_persist_duration_seconds",
			Help:    "Duration of attempt persistence calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	m.gatherer = reg
	reg.MustRegister(
		m.SessionsStarted,
		m.SessionsActive,
		m.Submissions,
		m.PersistFailures,
		m.ScorePercentage,
		m.PersistDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) Submitted(trigger string, percentage int) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(trigger).Inc()
	m.ScorePercentage.Observe(float64(percentage))
}

func (m *Metrics) Persisted(seconds float64, err error) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(seconds)
	if err != nil {
		m.PersistFailures.Inc()
	}
}
