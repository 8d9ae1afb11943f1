// Package metrics exposes Prometheus collectors for the block service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blocklayer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocklayer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blocklayer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	blockRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocklayer",
			Subsystem: "render",
			Name:      "blocks_total",
			Help:      "Total number of block render attempts by outcome.",
		},
		[]string{"type", "status"},
	)

	pageRenders = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blocklayer",
			Subsystem: "render",
			Name:      "page_duration_seconds",
			Help:      "Duration of full page render passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"cached"},
	)

	registryRebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocklayer",
			Subsystem: "registry",
			Name:      "rebuilds_total",
			Help:      "Total number of block registry rebuilds.",
		},
		[]string{"registry"},
	)

	layoutSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocklayer",
			Subsystem: "layouts",
			Name:      "saves_total",
			Help:      "Total number of dashboard layout saves.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		blockRenders,
		pageRenders,
		registryRebuilds,
		layoutSaves,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordBlockRender records one block render attempt. Status is one of
// "ok", "error", "unknown".
func RecordBlockRender(blockType, status string) {
	if blockType == "" {
		blockType = "unknown"
	}
	blockRenders.WithLabelValues(blockType, status).Inc()
}

// RecordPageRender records the duration of a full page render pass.
func RecordPageRender(duration time.Duration, cached bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	label := "false"
	if cached {
		label = "true"
	}
	pageRenders.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordRegistryRebuild records a registry rebuild.
func RecordRegistryRebuild(name string) {
	if name == "" {
		name = "unknown"
	}
	registryRebuilds.WithLabelValues(name).Inc()
}

// RecordLayoutSave records a dashboard layout save attempt.
func RecordLayoutSave(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	layoutSaves.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource identifiers so metric labels stay bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "users":
		if len(parts) == 1 {
			return "/users"
		}
		if len(parts) == 2 {
			return "/users/:id"
		}
		return "/users/:id/" + strings.Join(parts[2:], "/")
	case "pages":
		if len(parts) == 1 {
			return "/pages"
		}
		if len(parts) == 2 {
			return "/pages/:id"
		}
		return "/pages/:id/" + parts[2]
	case "sessions":
		if len(parts) == 1 {
			return "/sessions"
		}
		if len(parts) == 2 {
			return "/sessions/:id"
		}
		return "/sessions/:id/" + parts[2]
	default:
		return "/" + parts[0]
	}
}
