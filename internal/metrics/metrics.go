package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Metrics holds the Prometheus collectors for the assignment engine
type Metrics struct {
	registry           *prometheus.Registry
	assignmentOutcomes *prometheus.CounterVec
	assignmentDuration *prometheus.HistogramVec
}

// New creates and registers the metrics collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_outcomes_total",
			Help: "Number of assignment pipeline invocations by outcome",
		},
		[]string{"outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assignment_duration_seconds",
			Help:    "Assignment pipeline duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(outcomes, duration)

	return &Metrics{
		registry:           registry,
		assignmentOutcomes: outcomes,
		assignmentDuration: duration,
	}
}

// RecordAssignment records one pipeline invocation
func (m *Metrics) RecordAssignment(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assignmentOutcomes.WithLabelValues(outcome).Inc()
	m.assignmentDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler returns a gin handler serving the metrics endpoint
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
