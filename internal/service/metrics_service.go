package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the booking
// engine and its HTTP surface.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	bookingsTotal  *prometheus.CounterVec
	conflictsTotal *prometheus.CounterVec
	slotGeneration prometheus.Observer

	cacheLatency prometheus.Observer
	cacheWrite   prometheus.Observer
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter

	notificationsTotal *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Booking lifecycle operations by outcome",
	}, []string{"operation"})

	conflictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking conflicts detected by type",
	}, []string{"type"})

	slotGeneration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slot_generation_duration_seconds",
		Help:    "Duration of slot expansion per request",
		Buckets: prometheus.DefBuckets,
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	notificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_notifications_total",
		Help: "Notification dispatch attempts by event type and outcome",
	}, []string{"event", "outcome"})

	registry.MustRegister(requestDuration, requestTotal, bookingsTotal, conflictsTotal, slotGeneration, cacheLatency, cacheWrite, cacheHits, cacheMisses, notificationsTotal)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		bookingsTotal:      bookingsTotal,
		conflictsTotal:     conflictsTotal,
		slotGeneration:     slotGeneration,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		notificationsTotal: notificationsTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, statusLabel).Inc()
}

// RecordBookingOperation counts a committed booking lifecycle operation.
func (m *MetricsService) RecordBookingOperation(operation string) {
	m.bookingsTotal.WithLabelValues(operation).Inc()
}

// RecordConflict counts a detected booking conflict.
func (m *MetricsService) RecordConflict(conflictType string) {
	m.conflictsTotal.WithLabelValues(conflictType).Inc()
}

// ObserveSlotGeneration records the duration of one slot expansion.
func (m *MetricsService) ObserveSlotGeneration(duration time.Duration) {
	m.slotGeneration.Observe(duration.Seconds())
}

// RecordCacheOperation records a cache lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite records the latency of a cache set.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordNotification counts a notification dispatch attempt.
func (m *MetricsService) RecordNotification(event string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.notificationsTotal.WithLabelValues(event, outcome).Inc()
}
