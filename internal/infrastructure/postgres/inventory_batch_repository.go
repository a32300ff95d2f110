package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes de costo sobre PostgreSQL. Las variantes ForUpdate solo bloquean dentro de una tx.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, material_id, supplier_id, purchase_order_id, parent_batch_id, batch_number,
	unit_cost, quantity_received, remaining_quantity, is_depleted, purchase_date, created_at, updated_at`

// fifoOrder orden de consumo; el id (UUIDv7) desempata por orden de creación.
const fifoOrder = ` ORDER BY purchase_date ASC, id ASC`

func scanBatch(row pgx.Row) (*entity.InventoryBatch, error) {
	var b entity.InventoryBatch
	var supplierID, poID, parentID *string
	if err := row.Scan(&b.ID, &b.MaterialID, &supplierID, &poID, &parentID, &b.BatchNumber,
		&b.UnitCost, &b.QuantityReceived, &b.RemainingQuantity, &b.IsDepleted,
		&b.PurchaseDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.SupplierID = deref(supplierID)
	b.PurchaseOrderID = deref(poID)
	b.ParentBatchID = deref(parentID)
	return &b, nil
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryBatch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Create persiste un lote nuevo.
func (r *BatchRepo) Create(ctx context.Context, b *entity.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.MaterialID, nullable(b.SupplierID), nullable(b.PurchaseOrderID), nullable(b.ParentBatchID),
		b.BatchNumber, b.UnitCost, b.QuantityReceived, b.RemainingQuantity, b.IsDepleted,
		b.PurchaseDate, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return fmt.Errorf("create batch: material %s: %w", b.MaterialID, domain.ErrNotFound)
		case isCheckViolation(err):
			return domain.NewValidationError("batch", err.Error())
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) get(ctx context.Context, query, id string) (*entity.InventoryBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// GetByID obtiene un lote por ID.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el lote bloqueando la fila hasta el fin de la tx.
func (r *BatchRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1 FOR UPDATE`, id)
}

// ListAvailable lotes consumibles en orden FIFO.
func (r *BatchRepo) ListAvailable(ctx context.Context, materialID string) ([]*entity.InventoryBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM inventory_batches
		WHERE material_id = $1 AND NOT is_depleted`+fifoOrder, materialID)
}

// ListAvailableForUpdate igual que ListAvailable tomando FOR UPDATE sobre las filas.
func (r *BatchRepo) ListAvailableForUpdate(ctx context.Context, materialID string) ([]*entity.InventoryBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM inventory_batches
		WHERE material_id = $1 AND NOT is_depleted`+fifoOrder+` FOR UPDATE`, materialID)
}

// ListByMaterial historia de lotes del material, incluidos los agotados.
func (r *BatchRepo) ListByMaterial(ctx context.Context, materialID string, limit, offset int) ([]*entity.InventoryBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM inventory_batches
		WHERE material_id = $1`+fifoOrder+` LIMIT $2 OFFSET $3`, materialID, limitArg(limit), offset)
}

// UpdateRemaining persiste el restante calculado por la entidad.
func (r *BatchRepo) UpdateRemaining(ctx context.Context, b *entity.InventoryBatch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_batches SET remaining_quantity = $2, is_depleted = $3, updated_at = $4
		WHERE id = $1`,
		b.ID, b.RemainingQuantity, b.IsDepleted, b.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.InvalidStateError{BatchID: b.ID, Reason: "restante fuera de rango"}
		}
		return fmt.Errorf("update batch remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// StockByCompany stock y valor de todos los materiales de la empresa; los que no tienen
// lotes abiertos aparecen en cero.
func (r *BatchRepo) StockByCompany(ctx context.Context, companyID string) ([]repository.StockSummaryRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT m.id, m.code, m.name, m.unit,
		       COALESCE(SUM(b.remaining_quantity), 0),
		       COALESCE(SUM(b.remaining_quantity * b.unit_cost), 0),
		       COUNT(b.id)
		FROM materials m
		LEFT JOIN inventory_batches b ON b.material_id = m.id AND NOT b.is_depleted
		WHERE m.company_id = $1
		GROUP BY m.id, m.code, m.name, m.unit
		ORDER BY m.code`, companyID)
	if err != nil {
		return nil, fmt.Errorf("stock by company: %w", err)
	}
	defer rows.Close()
	var out []repository.StockSummaryRow
	for rows.Next() {
		var s repository.StockSummaryRow
		if err := rows.Scan(&s.MaterialID, &s.Code, &s.Name, &s.Unit, &s.OnHand, &s.Value, &s.OpenBatches); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
