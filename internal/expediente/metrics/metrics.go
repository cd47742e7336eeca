package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the expediente workflow and indicio
// management.
type Metrics struct {
	ExpedientesCreated prometheus.Counter
	Transitions        *prometheus.CounterVec
	Denied             *prometheus.CounterVec
	IndicioMutations   *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// New registers the metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExpedientesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "dicri_expedientes_created_total",
			Help: "Total number of expedientes created",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dicri_expediente_transitions_total",
			Help: "Committed workflow transitions by accion",
		}, []string{"accion"}),
		Denied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dicri_operations_denied_total",
			Help: "Operations rejected by the permission policy",
		}, []string{"action", "reason"}),
		IndicioMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dicri_indicio_mutations_total",
			Help: "Committed indicio creates, updates and deletes",
		}, []string{"op"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dicri_operation_duration_seconds",
			Help:    "Duration of workflow and indicio operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.ExpedientesCreated.Inc()
}

func (m *Metrics) IncrementTransition(accion string) {
	m.Transitions.WithLabelValues(accion).Inc()
}

func (m *Metrics) IncrementDenied(action, reason string) {
	m.Denied.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) IncrementIndicioMutation(op string) {
	m.IndicioMutations.WithLabelValues(op).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
