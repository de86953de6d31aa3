package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the data-access
// core. Registered on the default registry, which the gorm prometheus
// plugin's HTTP listener serves.
type Metrics struct {
	repoOperations    *prometheus.CounterVec
	saveDuration      *prometheus.HistogramVec
	saveBatchSize     prometheus.Histogram
	defaultPromotions *prometheus.CounterVec
	invariantRepairs  *prometheus.CounterVec
}

// NewMetrics registers and returns the core metrics.
func NewMetrics() *Metrics {
	repoOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campuskit_repository_operations_total",
		Help: "Counts repository operations by entity and operation.",
	}, []string{"entity", "operation"})

	saveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campuskit_unit_of_work_save_duration_seconds",
		Help:    "Unit-of-work commit latency by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	saveBatchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campuskit_unit_of_work_batch_size",
		Help:    "Number of staged mutations committed per Save.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	defaultPromotions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campuskit_default_member_promotions_total",
		Help: "Counts default-member promotions by member kind and cause.",
	}, []string{"kind", "cause"})

	invariantRepairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campuskit_default_member_clears_total",
		Help: "Counts cleared default flags while rebalancing an owner.",
	}, []string{"kind"})

	prometheus.MustRegister(
		repoOperations,
		saveDuration,
		saveBatchSize,
		defaultPromotions,
		invariantRepairs,
	)

	return &Metrics{
		repoOperations:    repoOperations,
		saveDuration:      saveDuration,
		saveBatchSize:     saveBatchSize,
		defaultPromotions: defaultPromotions,
		invariantRepairs:  invariantRepairs,
	}
}

// ObserveOperation counts one repository operation. Nil-safe.
func (m *Metrics) ObserveOperation(entity, operation string) {
	if m == nil {
		return
	}
	m.repoOperations.WithLabelValues(entity, operation).Inc()
}

// ObserveSave records a unit-of-work commit. Nil-safe.
func (m *Metrics) ObserveSave(status string, batch int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.saveDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	m.saveBatchSize.Observe(float64(batch))
}

// ObservePromotion records a default-member promotion. Nil-safe.
func (m *Metrics) ObservePromotion(kind, cause string) {
	if m == nil {
		return
	}
	m.defaultPromotions.WithLabelValues(kind, cause).Inc()
}

// ObserveDefaultClear records cleared default flags for an owner. Nil-safe.
func (m *Metrics) ObserveDefaultClear(kind string) {
	if m == nil {
		return
	}
	m.invariantRepairs.WithLabelValues(kind).Inc()
}
