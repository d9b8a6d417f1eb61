// Package metrics provides Prometheus metrics for pagecraft.
//
// A [Collector] implements the observability hook interfaces; [Collector.Install]
// registers it so the export pipeline, caches and translation seeding report
// through it.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/pagecraft/pkg/observability"
)

const namespace = "pagecraft"

// Collector holds all Prometheus metrics for pagecraft.
type Collector struct {
	// Export metrics
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	Exports       *prometheus.CounterVec
	ArchiveBytes  prometheus.Histogram

	// Cache metrics
	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	// Translation metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	Fallbacks        *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Export stage duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"stage"},
		),
		StageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_errors_total",
				Help:      "Total number of failed export stages",
			},
			[]string{"stage"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of exports by outcome",
			},
			[]string{"status"},
		),
		ArchiveBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "archive_bytes",
				Help:      "Size of exported archives in bytes",
				Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
			},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
		CacheBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Bytes written to the cache by kind",
			},
			[]string{"kind"},
		),

		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Translation provider calls by target locale and outcome",
			},
			[]string{"locale", "status"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_duration_seconds",
				Help:      "Translation provider call duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"locale"},
		),
		Fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translation_fallbacks_total",
				Help:      "Keys seeded with the source text after a provider failure",
			},
			[]string{"locale"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}
}

// Install registers c as the pipeline, cache and translation hooks.
func (c *Collector) Install() {
	observability.SetPipelineHooks(c)
	observability.SetCacheHooks(c)
	observability.SetTranslateHooks(c)
}

func (c *Collector) OnStageStart(context.Context, string) {}

func (c *Collector) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		c.StageErrors.WithLabelValues(stage).Inc()
	}
}

func (c *Collector) OnExportComplete(_ context.Context, _ string, size int, _ time.Duration, err error) {
	if err != nil {
		c.Exports.WithLabelValues("error").Inc()
		return
	}
	c.Exports.WithLabelValues("ok").Inc()
	c.ArchiveBytes.Observe(float64(size))
}

func (c *Collector) OnCacheHit(_ context.Context, kind string) {
	c.CacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, kind string) {
	c.CacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, kind string, size int) {
	c.CacheBytes.WithLabelValues(kind).Add(float64(size))
}

func (c *Collector) OnProviderCall(_ context.Context, target string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.ProviderCalls.WithLabelValues(target, status).Inc()
	c.ProviderDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (c *Collector) OnFallback(_ context.Context, target string) {
	c.Fallbacks.WithLabelValues(target).Inc()
}

// Middleware records request counts and durations labelled by chi route
// pattern, which keeps session ids out of the label values.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

var (
	_ observability.PipelineHooks  = (*Collector)(nil)
	_ observability.CacheHooks     = (*Collector)(nil)
	_ observability.TranslateHooks = (*Collector)(nil)
)
