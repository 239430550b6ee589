package observability

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "hotel"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	QueueOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "queue_ops_total", Help: "Delayed queue operations."},
		[]string{"op", "outcome"}, // op: enqueue|claim|decode
	)
	QueueLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "queue_op_duration_seconds",
			Help:    "Delayed queue operation duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	WorkflowEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "workflow_events_total", Help: "Business workflow events."},
		[]string{"event"},
	)
	JobEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "jobs_total", Help: "Delayed jobs handled."},
		[]string{"type", "outcome"}, // outcome: ok|error|retry|dropped
	)
)

// Serve exposes /metrics on METRICS_ADDR for processes without an HTTP API.
func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, QueueOps, QueueLatency, CacheEvents, WorkflowEvents, JobEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveQueue(op string, err error, dur time.Duration) {
	QueueOps.WithLabelValues(op, LabelErr(err)).Inc()
	QueueLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveWorkflow(event string) { WorkflowEvents.WithLabelValues(event).Inc() }

func ObserveJob(jobType, outcome string) { JobEvents.WithLabelValues(jobType, outcome).Inc() }

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
