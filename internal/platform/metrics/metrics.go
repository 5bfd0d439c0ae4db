package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics: HTTP traffic and event
// relay delivery.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	RelayPublished     prometheus.Counter
	RelayFailures      prometheus.Counter
	RelayCursor        prometheus.Gauge
	RelayFlushDuration prometheus.Histogram
}

// New creates and registers all metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docreg_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docreg_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RelayPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "docreg_relay_events_published_total",
			Help: "Journal events delivered to the relay sink",
		}),
		RelayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "docreg_relay_publish_failures_total",
			Help: "Failed relay sink deliveries",
		}),
		RelayCursor: factory.NewGauge(prometheus.GaugeOpts{
			Name: "docreg_relay_cursor",
			Help: "Sequence number of the last delivered journal event",
		}),
		RelayFlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docreg_relay_flush_duration_seconds",
			Help:    "Duration of one relay drain",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, start time.Time) {
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// AddRelayPublished records n delivered events and the new cursor.
func (m *Metrics) AddRelayPublished(n int, cursor uint64) {
	m.RelayPublished.Add(float64(n))
	m.RelayCursor.Set(float64(cursor))
}

func (m *Metrics) IncrementRelayFailures() {
	m.RelayFailures.Inc()
}

// ObserveRelayFlush records the duration of a drain.
// Call with time.Now() at the start of the drain.
func (m *Metrics) ObserveRelayFlush(start time.Time) {
	m.RelayFlushDuration.Observe(time.Since(start).Seconds())
}
