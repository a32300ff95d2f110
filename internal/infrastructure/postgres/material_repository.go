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

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo implementación del puerto MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

const materialColumns = `id, company_id, code, name, unit, category, is_composite, created_at, updated_at`

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	var category *string
	if err := row.Scan(&m.ID, &m.CompanyID, &m.Code, &m.Name, &m.Unit, &category,
		&m.IsComposite, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Category = deref(category)
	return &m, nil
}

// Create persiste un material nuevo.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.Code, m.Name, m.Unit, nullable(m.Category),
		m.IsComposite, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetByID obtiene un material por ID.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// GetByCompanyAndCode obtiene un material por empresa y código.
func (r *MaterialRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE company_id = $1 AND code = $2`, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material by code: %w", err)
	}
	return m, nil
}

// ListByCompany lista materiales de la empresa ordenados por código.
func (r *MaterialRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Material, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+materialColumns+` FROM materials
		WHERE company_id = $1 ORDER BY code LIMIT $2 OFFSET $3`,
		companyID, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var list []*entity.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update solo metadatos.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE materials SET code = $2, name = $3, unit = $4, category = $5, is_composite = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.Code, m.Name, m.Unit, nullable(m.Category), m.IsComposite, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
