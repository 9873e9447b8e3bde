// Package metrics records client-side request and sync statistics.
package metrics

import (
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medigate"

type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestsBlocked *prometheus.CounterVec
	breakerOpen     prometheus.Gauge
	reloads         *prometheus.CounterVec
	feedbackPending prometheus.Gauge
	feedbackSynced  prometheus.Counter

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64
	blockedTotal    atomic.Int64

	responseTimes     []time.Duration
	responseTimesLock sync.Mutex
}

// New creates a Metrics with its own registry, so several clients in one
// process (and tests) do not collide.
func New() *Metrics {
	m := &Metrics{
		startTime:     time.Now(),
		registry:      prometheus.NewRegistry(),
		responseTimes: make([]time.Duration, 0, 1000),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by endpoint, backend mode and outcome.",
		}, []string{"endpoint", "mode", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "mode"}),
		requestsBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_blocked_total",
			Help:      "Requests refused before reaching the network.",
		}, []string{"reason"}),
		breakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_circuit_open",
			Help:      "1 while the remote circuit breaker is open.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_collection_loads_total",
			Help:      "Collection fetches during session reload.",
		}, []string{"collection", "outcome"}),
		feedbackPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feedback_pending",
			Help:      "Feedback submissions not yet delivered to the collector.",
		}),
		feedbackSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_synced_total",
			Help:      "Feedback submissions delivered to the collector.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requests,
		m.requestDuration,
		m.requestsBlocked,
		m.breakerOpen,
		m.reloads,
		m.feedbackPending,
		m.feedbackSynced,
	)
	return m
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *Metrics) RecordRequest(endpoint, mode string, success bool, d time.Duration) {
	m.requests.WithLabelValues(endpoint, mode, outcome(success)).Inc()
	m.requestDuration.WithLabelValues(endpoint, mode).Observe(d.Seconds())

	m.requestsTotal.Add(1)
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
	}

	m.responseTimesLock.Lock()
	defer m.responseTimesLock.Unlock()
	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
}

// RecordRequestBlocked counts a request refused locally (rate limit, open circuit).
func (m *Metrics) RecordRequestBlocked(reason string) {
	m.requestsBlocked.WithLabelValues(reason).Inc()
	m.blockedTotal.Add(1)
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.breakerOpen.Set(1)
		return
	}
	m.breakerOpen.Set(0)
}

func (m *Metrics) RecordCollectionLoad(collection string, success bool) {
	m.reloads.WithLabelValues(collection, outcome(success)).Inc()
}

func (m *Metrics) SetFeedbackPending(n int) {
	m.feedbackPending.Set(float64(n))
}

func (m *Metrics) RecordFeedbackSynced(n int) {
	m.feedbackSynced.Add(float64(n))
}

// CollectionLoads exposes the per-collection reload counter.
func (m *Metrics) CollectionLoads() *prometheus.CounterVec {
	return m.reloads
}

// Registry exposes the underlying registry for custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type Snapshot struct {
	Uptime          time.Duration `json:"uptime"`
	RequestsTotal   int64         `json:"requests_total"`
	RequestsSuccess int64         `json:"requests_success"`
	RequestsFailed  int64         `json:"requests_failed"`
	RequestsBlocked int64         `json:"requests_blocked"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	P99ResponseTime time.Duration `json:"p99_response_time"`
	SuccessRate     float64       `json:"success_rate"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:          time.Since(m.startTime),
		RequestsTotal:   m.requestsTotal.Load(),
		RequestsSuccess: m.requestsSuccess.Load(),
		RequestsFailed:  m.requestsFailed.Load(),
		RequestsBlocked: m.blockedTotal.Load(),
	}

	if s.RequestsTotal > 0 {
		s.SuccessRate = float64(s.RequestsSuccess) / float64(s.RequestsTotal) * 100
	}

	m.responseTimesLock.Lock()
	sorted := slices.Clone(m.responseTimes)
	m.responseTimesLock.Unlock()

	if len(sorted) > 0 {
		var total time.Duration
		for _, rt := range sorted {
			total += rt
		}
		s.AvgResponseTime = total / time.Duration(len(sorted))

		slices.Sort(sorted)
		p99Index := int(float64(len(sorted)) * 0.99)
		if p99Index >= len(sorted) {
			p99Index = len(sorted) - 1
		}
		s.P99ResponseTime = sorted[p99Index]
	}

	return s
}
