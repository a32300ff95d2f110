package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Nombres de métricas del ledger.
const (
	MetricMovementsTotal            = "inventory_ledger_movements_total"
	MetricInsufficientStockTotal    = "inventory_ledger_insufficient_stock_total"
	MetricCompositeFallbackTotal    = "inventory_ledger_composite_fallback_total"
	MetricAllocationDurationSeconds = "inventory_ledger_allocation_duration_seconds"
)

var _ appinv.Metrics = (*LedgerMetrics)(nil)

// LedgerMetrics implementación Prometheus de inventory.Metrics. Segura para uso concurrente.
type LedgerMetrics struct {
	registry          *prometheus.Registry
	movements         *prometheus.CounterVec
	insufficientStock prometheus.Counter
	compositeFallback prometheus.Counter
	allocation        prometheus.Histogram
}

// NewLedgerMetrics registra las métricas en un registry propio (más los collectors de Go y proceso).
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &LedgerMetrics{
		registry: reg,
		movements: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMovementsTotal,
			Help: "Movimientos agregados al libro, por tipo.",
		}, []string{"movement_type"}),
		insufficientStock: f.NewCounter(prometheus.CounterOpts{
			Name: MetricInsufficientStockTotal,
			Help: "Consumos FIFO rechazados por stock insuficiente.",
		}),
		compositeFallback: f.NewCounter(prometheus.CounterOpts{
			Name: MetricCompositeFallbackTotal,
			Help: "Recepciones de compuestos sin componentes activos registradas sin descomponer.",
		}),
		allocation: f.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricAllocationDurationSeconds,
			Help:    "Duración de la asignación FIFO incluyendo la transacción.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	for _, t := range entity.MovementTypes {
		m.movements.WithLabelValues(string(t))
	}
	return m
}

func (m *LedgerMetrics) MovementRecorded(t entity.MovementType) {
	m.movements.WithLabelValues(string(t)).Inc()
}

func (m *LedgerMetrics) InsufficientStock() { m.insufficientStock.Inc() }

func (m *LedgerMetrics) CompositeFallback() { m.compositeFallback.Inc() }

func (m *LedgerMetrics) ObserveAllocation(d time.Duration) {
	m.allocation.Observe(d.Seconds())
}

// Registry registry con las métricas del ledger.
func (m *LedgerMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler HTTP de exposición para /metrics.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
