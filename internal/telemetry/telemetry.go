package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	chunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qaf",
			Subsystem: "provisioning",
			Name:      "chunks_total",
			Help:      "Capability calls by outcome (completed or aborted).",
		},
		[]string{"backend", "result"},
	)
	chunkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qaf",
			Subsystem: "provisioning",
			Name:      "chunk_duration_seconds",
			Help:      "Duration of a single CreateMany call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"backend"},
	)
	accountsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qaf",
			Subsystem: "provisioning",
			Name:      "accounts_total",
			Help:      "Accounts returned by backends, by outcome (created or failed).",
		},
		[]string{"backend", "outcome"},
	)
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qaf",
			Subsystem: "provisioning",
			Name:      "sessions_total",
			Help:      "Finished sessions by terminal state.",
		},
		[]string{"state"},
	)
	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qaf",
			Subsystem: "fleet",
			Name:      "probes_total",
			Help:      "Fleet probes by resulting status.",
		},
		[]string{"farm_host", "status"},
	)
	devicesOnline = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "qaf",
			Subsystem: "fleet",
			Name:      "devices_online",
			Help:      "Online devices seen by the last probe.",
		},
		[]string{"farm_host"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qaf",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by the farm health server.",
		},
		[]string{"path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(chunksTotal, chunkDuration, accountsTotal, sessionsTotal, probesTotal, devicesOnline, httpRequests)
	})
}

// RecordChunk records one CreateMany call. aborted marks a catastrophic failure.
func RecordChunk(backend string, created, failed int, duration time.Duration, aborted bool) {
	RegisterMetrics()
	result := "completed"
	if aborted {
		result = "aborted"
	}
	chunksTotal.WithLabelValues(backend, result).Inc()
	chunkDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if !aborted {
		accountsTotal.WithLabelValues(backend, "created").Add(float64(created))
		accountsTotal.WithLabelValues(backend, "failed").Add(float64(failed))
	}
}

func RecordSession(state string) {
	RegisterMetrics()
	sessionsTotal.WithLabelValues(state).Inc()
}

func RecordProbe(farmHost, status string, online int) {
	RegisterMetrics()
	probesTotal.WithLabelValues(farmHost, status).Inc()
	devicesOnline.WithLabelValues(farmHost).Set(float64(online))
}

func RecordHTTPRequest(path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
