package metrics

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/prometheus/client_golang/prometheus"
)

var _ inventory.MovementMetrics = (*MovementMetrics)(nil)

// MovementMetrics contadores e histograma de movimientos por tipo y resultado.
type MovementMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMovementMetrics registra las métricas en reg. Con reg nil devuelve un recolector inerte.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_total",
		Help: "Inventory movements processed, by type and outcome.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_movement_duration_seconds",
		Help:    "Duration of inventory movement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(total, duration)
	return &MovementMetrics{total: total, duration: duration}
}

// ObserveMovement registra un movimiento terminado.
func (m *MovementMetrics) ObserveMovement(movementType, outcome string, elapsed time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	movementType = normalizeLabel(movementType)
	m.total.WithLabelValues(movementType, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(movementType).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
