package repository

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MovementFilter filtro del libro por material. From inclusivo, To exclusivo; Types vacío = todos.
// Ascending=false ordena (movement_date DESC, id DESC) para la línea de tiempo.
type MovementFilter struct {
	MaterialID string
	From       *time.Time
	To         *time.Time
	Types      []entity.MovementType
	Ascending  bool
}

// BatchMovementRepository puerto del libro de movimientos. Solo inserta y consulta:
// las correcciones son movimientos nuevos.
type BatchMovementRepository interface {
	Create(ctx context.Context, movement *entity.BatchMovement) error
	GetByID(ctx context.Context, id string) (*entity.BatchMovement, error)
	ListByMaterial(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.BatchMovement, error)
	// StreamByMaterial recorre el libro con un cursor sin materializarlo completo.
	StreamByMaterial(ctx context.Context, filter MovementFilter) iter.Seq2[*entity.BatchMovement, error]
	// DailyNetDeltas suma firmada por día (en loc) de los movimientos con día > after.
	DailyNetDeltas(ctx context.Context, materialID string, after time.Time, loc *time.Location) ([]entity.DailyDelta, error)
	// AggregateByType SUM(ABS(quantity)) por (día, tipo) para días en [from, to].
	AggregateByType(ctx context.Context, materialID string, from, to time.Time, loc *time.Location) ([]entity.MovementAggregate, error)
}
