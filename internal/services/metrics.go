package services

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrMetricRegister = errors.New("failed to register metric collector")

// MetricsCollector owns the process metrics registry.
// All Record methods are safe on a nil receiver so components can run without metrics.
type MetricsCollector struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	rateLimitHits     prometheus.Counter
	pteroRequests     *prometheus.CounterVec
	pteroRetries      *prometheus.CounterVec
	pteroDuration     *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	sweepActions      *prometheus.CounterVec
	sweepDuration     prometheus.Histogram
	webhookDeliveries *prometheus.CounterVec
}

func NewMetricsCollector() (*MetricsCollector, error) {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_http_requests_total",
			Help: "Number of handled HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helium_http_request_duration_seconds",
			Help:    "Duration of handled HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helium_http_rate_limited_total",
			Help: "Number of requests rejected by the inbound rate limiter.",
		}),
		pteroRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_ptero_requests_total",
			Help: "Number of panel API attempts by method and status (0 for network errors).",
		}, []string{"method", "status"}),
		pteroRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_ptero_retries_total",
			Help: "Number of panel API retries by reason.",
		}, []string{"reason"}),
		pteroDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helium_ptero_request_duration_seconds",
			Help:    "Duration of single panel API attempts.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_ptero_cache_lookups_total",
			Help: "Panel response cache lookups by result.",
		}, []string{"result"}),
		sweepActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_sweep_actions_total",
			Help: "Expiration sweep outcomes per resource.",
		}, []string{"action"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "helium_sweep_duration_seconds",
			Help:    "Wall clock duration of expiration sweep ticks.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_webhook_deliveries_total",
			Help: "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mc.httpRequests,
		mc.httpDuration,
		mc.rateLimitHits,
		mc.pteroRequests,
		mc.pteroRetries,
		mc.pteroDuration,
		mc.cacheLookups,
		mc.sweepActions,
		mc.sweepDuration,
		mc.webhookDeliveries,
	} {
		if err := mc.registry.Register(c); err != nil {
			return nil, errors.Join(ErrMetricRegister, err)
		}
	}

	return mc, nil
}

// Handler exposes the registry in the prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

func (mc *MetricsCollector) RecordRequest(method, route string, statusCode int, d time.Duration) {
	if mc == nil {
		return
	}
	mc.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	mc.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (mc *MetricsCollector) RecordRateLimitHit() {
	if mc == nil {
		return
	}
	mc.rateLimitHits.Inc()
}

func (mc *MetricsCollector) RecordPteroAttempt(method string, statusCode int, d time.Duration) {
	if mc == nil {
		return
	}
	mc.pteroRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	mc.pteroDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (mc *MetricsCollector) RecordPteroRetry(reason string) {
	if mc == nil {
		return
	}
	mc.pteroRetries.WithLabelValues(reason).Inc()
}

func (mc *MetricsCollector) RecordCacheHit() {
	if mc == nil {
		return
	}
	mc.cacheLookups.WithLabelValues("hit").Inc()
}

func (mc *MetricsCollector) RecordCacheMiss() {
	if mc == nil {
		return
	}
	mc.cacheLookups.WithLabelValues("miss").Inc()
}

func (mc *MetricsCollector) RecordSweepAction(action string) {
	if mc == nil {
		return
	}
	mc.sweepActions.WithLabelValues(action).Inc()
}

func (mc *MetricsCollector) RecordSweepDuration(d time.Duration) {
	if mc == nil {
		return
	}
	mc.sweepDuration.Observe(d.Seconds())
}

func (mc *MetricsCollector) RecordWebhookDelivery(success bool) {
	if mc == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "delivered"
	}
	mc.webhookDeliveries.WithLabelValues(outcome).Inc()
}
