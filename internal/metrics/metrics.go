// Package metrics holds the Prometheus collectors for the HTTP API and the
// scoring engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/pitchscore/internal/model"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Analyses      *prometheus.CounterVec
	AnalysisScore prometheus.Histogram
	Notifications *prometheus.CounterVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchscore_http_requests_total",
				Help: "Total HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pitchscore_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchscore_analyses_total",
				Help: "Total analyses computed by rank",
			},
			[]string{"rank"},
		),
		AnalysisScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitchscore_analysis_score",
			Help:    "Distribution of composite scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchscore_notifications_total",
				Help: "Publish-request notifications by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAnalysis records one engine result.
func (m *Metrics) ObserveAnalysis(a model.Analysis) {
	m.Analyses.WithLabelValues(string(a.Rank)).Inc()
	m.AnalysisScore.Observe(float64(a.Score))
}

// ObserveNotification records a notification attempt.
func (m *Metrics) ObserveNotification(err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}
