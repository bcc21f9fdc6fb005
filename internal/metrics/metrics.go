// Package metrics exposes Prometheus metrics for rebalance runs and price lookups.
package metrics

import (
	"net/http"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the rebalancer.
// Each Registry owns its own prometheus.Registry so tests can create as many as they like.
type Registry struct {
	registry *prometheus.Registry

	// Rebalance run metrics
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	ActionsEmitted *prometheus.CounterVec
	PortfolioValue prometheus.Gauge
	LastRunTime    prometheus.Gauge

	// Price oracle metrics
	OracleRequests *prometheus.CounterVec
	OracleLatency  *prometheus.HistogramVec

	// Notifier metrics
	Notifications *prometheus.CounterVec
}

// NewRegistry creates a new registry with all rebalancer metrics registered
func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_runs_total",
				Help: "Total number of rebalance runs by result",
			},
			[]string{"result"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rebalancer_run_duration_seconds",
				Help:    "Duration of a rebalance run in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
		),

		ActionsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_actions_total",
				Help: "Total number of actions emitted by direction",
			},
			[]string{"direction"},
		),

		PortfolioValue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rebalancer_portfolio_value",
				Help: "Total portfolio value in the reference currency at the last successful run",
			},
		),

		LastRunTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rebalancer_last_run_timestamp_seconds",
				Help: "Unix time of the last successful rebalance run",
			},
		),

		OracleRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_oracle_requests_total",
				Help: "Total number of price oracle requests by source and status",
			},
			[]string{"source", "status"},
		),

		OracleLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rebalancer_oracle_latency_seconds",
				Help:    "Price oracle request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source"},
		),

		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_notifications_total",
				Help: "Total number of notifier invocations by notifier and status",
			},
			[]string{"notifier", "status"},
		),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ActionsEmitted,
		m.PortfolioValue,
		m.LastRunTime,
		m.OracleRequests,
		m.OracleLatency,
		m.Notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the HTTP handler serving this registry
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordRun records the outcome of a rebalance run
func (m *Registry) RecordRun(duration time.Duration, actions []domain.Action, totalValue float64, err error) {
	m.RunDuration.Observe(duration.Seconds())

	if err != nil {
		m.RunsTotal.WithLabelValues("error").Inc()
		return
	}

	m.RunsTotal.WithLabelValues("success").Inc()
	m.PortfolioValue.Set(totalValue)
	m.LastRunTime.SetToCurrentTime()
	for _, a := range actions {
		m.ActionsEmitted.WithLabelValues(string(a.Direction)).Inc()
	}
}

// RecordOracleRequest records a single upstream price or rate request
func (m *Registry) RecordOracleRequest(source string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OracleRequests.WithLabelValues(source, status).Inc()
	m.OracleLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordNotification records a notifier invocation
func (m *Registry) RecordNotification(notifier string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Notifications.WithLabelValues(notifier, status).Inc()
}
