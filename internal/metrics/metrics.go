// Package metrics records sync run metrics and exports them in the
// Prometheus textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for sync runs.
type Metrics struct {
	reg *prometheus.Registry

	Runs        *prometheus.CounterVec
	Processed   prometheus.Counter
	Unread      prometheus.Gauge
	Duration    prometheus.Histogram
	LastSuccess prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsheets_runs_total",
			Help: "Sync passes, by result",
		}, []string{"result"}),
		Processed: f.NewCounter(prometheus.CounterOpts{
			Name: "mailsheets_messages_processed_total",
			Help: "Messages appended to the sheet and marked read",
		}),
		Unread: f.NewGauge(prometheus.GaugeOpts{
			Name: "mailsheets_unread_messages",
			Help: "Unread inbox messages seen by the last pass",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailsheets_run_duration_seconds",
			Help:    "Time spent in a sync pass",
			Buckets: prometheus.DefBuckets,
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "mailsheets_last_success_timestamp_seconds",
			Help: "Unix time of the last pass that finished without error",
		}),
	}
}

// Observe records one finished pass.
func (m *Metrics) Observe(unread, processed int, elapsed time.Duration, err error) {
	m.Unread.Set(float64(unread))
	m.Processed.Add(float64(processed))
	m.Duration.Observe(elapsed.Seconds())
	if err != nil {
		m.Runs.WithLabelValues("failure").Inc()
		return
	}
	m.Runs.WithLabelValues("success").Inc()
	m.LastSuccess.SetToCurrentTime()
}

// WriteTextfile writes every collector to path for node_exporter's
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
