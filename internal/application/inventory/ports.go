package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Materials    repository.MaterialRepository
	Batches      repository.BatchRepository
	Movements    repository.BatchMovementRepository
	Compositions repository.CompositionRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Run confirma si fn no devuelve error y revierte en caso contrario: lotes y movimientos
// se aplican juntos o no se aplican.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
	// ReadSnapshot ejecuta fn en una transacción de solo lectura con una única foto consistente.
	ReadSnapshot(ctx context.Context, fn func(r Repos) error) error
}

// MaterialLocker serializa las operaciones de escritura sobre un mismo material.
// Materiales distintos nunca comparten candado.
type MaterialLocker interface {
	Lock(ctx context.Context, materialID string) (unlock func(), err error)
}

// Metrics contadores del ledger. Las implementaciones deben ser seguras para uso concurrente.
type Metrics interface {
	MovementRecorded(movementType entity.MovementType)
	InsufficientStock()
	CompositeFallback()
	ObserveAllocation(d time.Duration)
}

// Clock fuente de fecha para movement_date y purchase_date por defecto.
type Clock func() time.Time

type nopMetrics struct{}

func (nopMetrics) MovementRecorded(entity.MovementType) {}
func (nopMetrics) InsufficientStock()                   {}
func (nopMetrics) CompositeFallback()                   {}
func (nopMetrics) ObserveAllocation(time.Duration)      {}
