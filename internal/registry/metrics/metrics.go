package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record registry.
// Tracks minted records per path, transfers, denials and mutation latency.
type Metrics struct {
	RecordsMinted     *prometheus.CounterVec
	Transfers         prometheus.Counter
	Denials           *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TotalSupply       prometheus.Gauge
}

// New registers the registry metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the registry metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsMinted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docreg_records_minted_total",
			Help: "Total number of records minted, by mint path",
		}, []string{"path"}),
		Transfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "docreg_transfers_total",
			Help: "Total number of record ownership transfers",
		}),
		Denials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docreg_denials_total",
			Help: "Rejected mutations by operation and error code",
		}, []string{"operation", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docreg_operation_duration_seconds",
			Help:    "Duration of registry mutations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
		TotalSupply: factory.NewGauge(prometheus.GaugeOpts{
			Name: "docreg_total_supply",
			Help: "Number of record ids issued",
		}),
	}
}

// AddMinted records n minted records on path.
func (m *Metrics) AddMinted(path string, n int) {
	m.RecordsMinted.WithLabelValues(path).Add(float64(n))
}

func (m *Metrics) IncrementTransfers() {
	m.Transfers.Inc()
}

// IncrementDenied records a rejected mutation.
func (m *Metrics) IncrementDenied(operation, code string) {
	m.Denials.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of a mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetTotalSupply(n uint64) {
	m.TotalSupply.Set(float64(n))
}
