// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// eventCounterNames maps an event type to the counter it increments
var eventCounterNames = map[string]struct{ name, help string }{
	"comment.created":       {"comments_created_total", "Total number of comments created"},
	"comment.updated":       {"comments_updated_total", "Total number of comments updated"},
	"comment.deleted":       {"comments_deleted_total", "Total number of comments deleted"},
	"comment.restored":      {"comments_restored_total", "Total number of comments restored"},
	"comment.liked":         {"comments_liked_total", "Total number of comment likes"},
	"comment.unliked":       {"comments_unliked_total", "Total number of comment unlikes"},
	"comments.bulk_deleted": {"comments_bulk_deleted_total", "Total number of bulk comment deletions"},
}

// Metrics owns the service registry and every collector the service reports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	eventCounters    map[string]prometheus.Counter
	publishFailures  *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	creationDuration prometheus.Histogram
}

// NewMetrics creates the registry and registers all collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry:      registry,
		eventCounters: make(map[string]prometheus.Counter, len(eventCounterNames)),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comment_events_publish_failures_total",
			Help: "Domain events dropped after the queue overflowed or retries were exhausted",
		}, []string{"event_type"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comment_rpc_duration_seconds",
			Help:    "Duration of broker RPC calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"operation"}),
		creationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "comment_creation_duration_seconds",
			Help:    "Duration of comment creation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}),
	}

	for eventType, def := range eventCounterNames {
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: def.name, Help: def.help})
		registry.MustRegister(counter)
		m.eventCounters[eventType] = counter
	}
	registry.MustRegister(m.publishFailures, m.rpcDuration, m.creationDuration)

	return m
}

// IncEvent increments the counter of an event type
func (m *Metrics) IncEvent(eventType string) {
	if m == nil {
		return
	}
	if counter, ok := m.eventCounters[eventType]; ok {
		counter.Inc()
	}
}

// IncPublishFailure counts an event that could not be delivered
func (m *Metrics) IncPublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

// ObserveRPC records the latency of a broker RPC call
func (m *Metrics) ObserveRPC(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCreation records the latency of a comment creation
func (m *Metrics) ObserveCreation(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.creationDuration.Observe(elapsed.Seconds())
}

// RegisterCacheStats exports cache hit and miss counters read from stats at scrape time
func (m *Metrics) RegisterCacheStats(stats func() (hits, misses int64)) {
	if m == nil || stats == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "comment_cache_hits_total",
			Help: "Comment cache lookups served from the cache",
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "comment_cache_misses_total",
			Help: "Comment cache lookups that fell through to the store",
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
