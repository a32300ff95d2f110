package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MaterialRepository define el puerto de persistencia para Material (DIP).
// GetByID y GetByCompanyAndCode devuelven (nil, nil) si no existe.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Material, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Material, error)
	// Update solo modifica metadatos (code, name, unit, category, is_composite).
	Update(ctx context.Context, material *entity.Material) error
}
