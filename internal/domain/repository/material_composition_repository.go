package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// CompositionRepository puerto de las composiciones de materiales compuestos.
type CompositionRepository interface {
	Create(ctx context.Context, composition *entity.MaterialComposition) error
	GetByID(ctx context.Context, id string) (*entity.MaterialComposition, error)
	ListByComposite(ctx context.Context, compositeMaterialID string) ([]*entity.MaterialComposition, error)
	ListActiveByComposite(ctx context.Context, compositeMaterialID string) ([]*entity.MaterialComposition, error)
	Deactivate(ctx context.Context, id string) error
}
