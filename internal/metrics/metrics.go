// Package metrics exposes Prometheus instrumentation for the bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "browserbridge"

// Metrics owns a private registry so several instances (e.g. in tests) never
// collide on registration. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	liveSessions  prometheus.Gauge
	launches      *prometheus.CounterVec
	admissionWait prometheus.Histogram
	rejected      prometheus.Counter
}

// New builds the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Commands handled, by command and outcome kind.",
		}, []string{"cmd", "kind"}),
		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a command from admission to response.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"cmd"}),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_sessions_live",
			Help:      "Browser processes currently running.",
		}),
		launches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_launches_total",
			Help:      "Browser launch attempts, by result.",
		}, []string{"result"}),
		admissionWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admission_wait_seconds",
			Help:      "Time spent waiting for a free session slot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_rejected_total",
			Help:      "Commands rejected because no slot freed up in time.",
		}),
	}
}

// ObserveSolve records one finished command. kind is "ok" on success.
func (m *Metrics) ObserveSolve(cmd, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(cmd, kind).Inc()
	m.solveDuration.WithLabelValues(cmd).Observe(d.Seconds())
}

// ObserveLaunch records a launch attempt.
func (m *Metrics) ObserveLaunch(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.launches.WithLabelValues(result).Inc()
}

// SetLiveSessions publishes the current number of running browsers.
func (m *Metrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.liveSessions.Set(float64(n))
}

// ObserveAdmission records how long a caller waited for a slot and whether
// it got one.
func (m *Metrics) ObserveAdmission(wait time.Duration, admitted bool) {
	if m == nil {
		return
	}
	m.admissionWait.Observe(wait.Seconds())
	if !admitted {
		m.rejected.Inc()
	}
}

// Register adds collectors owned by other components to the registry.
func (m *Metrics) Register(cs ...prometheus.Collector) error {
	if m == nil {
		return nil
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewLimitGauge returns a gauge that reads a configured limit at scrape time.
func NewLimitGauge(name, help string, value func() float64) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, value)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
