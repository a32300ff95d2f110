package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// StockSummaryRow stock actual y valorización de un material, derivados de sus lotes.
type StockSummaryRow struct {
	MaterialID  string
	Code        string
	Name        string
	Unit        string
	OnHand      decimal.Decimal
	Value       decimal.Decimal
	OpenBatches int
}

// BatchRepository puerto de la tienda de lotes. Los lotes nunca se eliminan.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.InventoryBatch) error
	GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error)
	// GetByIDForUpdate bloquea la fila (SELECT FOR UPDATE) cuando corre dentro de una tx de escritura.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error)
	// ListAvailable lotes no agotados en orden FIFO (purchase_date ASC, id ASC).
	ListAvailable(ctx context.Context, materialID string) ([]*entity.InventoryBatch, error)
	// ListAvailableForUpdate igual que ListAvailable bloqueando las filas devueltas.
	ListAvailableForUpdate(ctx context.Context, materialID string) ([]*entity.InventoryBatch, error)
	// ListByMaterial todos los lotes (incluye agotados) en orden FIFO. limit <= 0 = sin límite.
	ListByMaterial(ctx context.Context, materialID string, limit, offset int) ([]*entity.InventoryBatch, error)
	// UpdateRemaining persiste remaining_quantity, is_depleted y updated_at.
	UpdateRemaining(ctx context.Context, batch *entity.InventoryBatch) error
	StockByCompany(ctx context.Context, companyID string) ([]StockSummaryRow, error)
}
