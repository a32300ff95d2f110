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

var _ repository.CompositionRepository = (*CompositionRepo)(nil)

// CompositionRepo composiciones de materiales compuestos.
type CompositionRepo struct {
	q Querier
}

// NewCompositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompositionRepository(q Querier) *CompositionRepo {
	return &CompositionRepo{q: q}
}

const compositionColumns = `id, composite_material_id, component_material_id, component_type, ratio, is_active, created_at`

func scanComposition(row pgx.Row) (*entity.MaterialComposition, error) {
	var c entity.MaterialComposition
	if err := row.Scan(&c.ID, &c.CompositeMaterialID, &c.ComponentMaterialID, &c.ComponentType,
		&c.Ratio, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompositionRepo) Create(ctx context.Context, c *entity.MaterialComposition) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO material_compositions (`+compositionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.CompositeMaterialID, c.ComponentMaterialID, c.ComponentType, c.Ratio, c.IsActive, c.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return fmt.Errorf("create composition: %w", domain.ErrNotFound)
		case isCheckViolation(err):
			return domain.NewValidationError("ratio", "debe ser mayor que cero")
		}
		return fmt.Errorf("insert composition: %w", err)
	}
	return nil
}

func (r *CompositionRepo) GetByID(ctx context.Context, id string) (*entity.MaterialComposition, error) {
	c, err := scanComposition(r.q.QueryRow(ctx, `SELECT `+compositionColumns+` FROM material_compositions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get composition: %w", err)
	}
	return c, nil
}

func (r *CompositionRepo) list(ctx context.Context, compositeID string, activeOnly bool) ([]*entity.MaterialComposition, error) {
	query := `SELECT ` + compositionColumns + ` FROM material_compositions WHERE composite_material_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, compositeID)
	if err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	defer rows.Close()
	var list []*entity.MaterialComposition
	for rows.Next() {
		c, err := scanComposition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan composition: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CompositionRepo) ListByComposite(ctx context.Context, compositeID string) ([]*entity.MaterialComposition, error) {
	return r.list(ctx, compositeID, false)
}

func (r *CompositionRepo) ListActiveByComposite(ctx context.Context, compositeID string) ([]*entity.MaterialComposition, error) {
	return r.list(ctx, compositeID, true)
}

// Deactivate marca la composición como inactiva; las filas no se eliminan.
func (r *CompositionRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE material_compositions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate composition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
