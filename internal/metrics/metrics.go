package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus series for the review server. Each
// collector owns its registry so tests can build as many as they need.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	streamSessions prometheus.Gauge
	streamRuns     *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chesscom_requests_total",
				Help:      "Requests sent to the Chess.com API by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chesscom_request_duration_seconds",
				Help:      "Chess.com API latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_evaluations_total",
				Help:      "Position evaluations by result (ok, fallback, unavailable)",
			},
			[]string{"result"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_evaluation_duration_seconds",
				Help:      "Time spent evaluating one position",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		streamSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_sessions_active",
				Help:      "Open analysis websocket sessions",
			},
		),
		streamRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_analyses_total",
				Help:      "Streamed game analyses by result",
			},
			[]string{"result"},
		),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.upstreamRequests,
		c.upstreamDuration,
		c.evaluations,
		c.evaluationDuration,
		c.streamSessions,
		c.streamRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler exposes the collector's registry in the text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	c.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Collector) ObserveEvaluation(result string, d time.Duration) {
	c.evaluations.WithLabelValues(result).Inc()
	c.evaluationDuration.Observe(d.Seconds())
}

func (c *Collector) SessionOpened() { c.streamSessions.Inc() }

func (c *Collector) SessionClosed() { c.streamSessions.Dec() }

// AnalysisFinished counts one streamed analysis; result is complete, empty, failed or aborted.
func (c *Collector) AnalysisFinished(result string) {
	c.streamRuns.WithLabelValues(result).Inc()
}
