// Package metrics holds the Prometheus collectors for the supervisor,
// exposed on the control API's /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the supervisor-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gantry",
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Total number of readiness probe attempts.",
		},
		[]string{"service", "result"},
	)

	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gantry",
			Subsystem: "probe",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of readiness probe attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"service"},
	)

	serviceStates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gantry",
			Subsystem: "service",
			Name:      "state",
			Help:      "Current lifecycle state of each service (1 for the active state).",
		},
		[]string{"service", "state"},
	)

	servicesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gantry",
			Subsystem: "service",
			Name:      "running",
			Help:      "Number of services currently running.",
		},
	)
)

func init() {
	Registry.MustRegister(
		probeAttempts,
		probeDuration,
		serviceStates,
		servicesRunning,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordProbeAttempt records one readiness probe attempt.
func RecordProbeAttempt(service string, success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	probeAttempts.WithLabelValues(service, result).Inc()
	probeDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordServiceState points the state gauge of a service at its new state.
func RecordServiceState(service, state string) {
	serviceStates.DeletePartialMatch(prometheus.Labels{"service": service})
	serviceStates.WithLabelValues(service, state).Set(1)
}

// SetServicesRunning reports how many services are currently running.
func SetServicesRunning(n int) {
	servicesRunning.Set(float64(n))
}
