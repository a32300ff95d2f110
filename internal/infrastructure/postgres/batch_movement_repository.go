package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.BatchMovementRepository = (*BatchMovementRepo)(nil)

// BatchMovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT; un trigger
// de la migración rechaza UPDATE y DELETE.
type BatchMovementRepo struct {
	q Querier
}

// NewBatchMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchMovementRepository(q Querier) *BatchMovementRepo {
	return &BatchMovementRepo{q: q}
}

const movementColumns = `id, batch_id, material_id, movement_type, quantity, reference_type, reference_id,
	movement_date, notes, created_at, created_by`

func scanMovement(row pgx.Row) (*entity.BatchMovement, error) {
	var m entity.BatchMovement
	var refType, refID, notes, createdBy *string
	if err := row.Scan(&m.ID, &m.BatchID, &m.MaterialID, &m.MovementType, &m.Quantity,
		&refType, &refID, &m.MovementDate, &notes, &m.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	m.Reference = entity.Reference{Type: entity.ReferenceType(deref(refType)), ID: deref(refID)}
	m.Notes = deref(notes)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

// Create agrega una fila al libro.
func (r *BatchMovementRepo) Create(ctx context.Context, m *entity.BatchMovement) error {
	query := `
		INSERT INTO batch_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.BatchID, m.MaterialID, string(m.MovementType), m.Quantity,
		nullable(string(m.Reference.Type)), nullable(m.Reference.ID),
		m.MovementDate, nullable(m.Notes), m.CreatedAt, nullable(m.CreatedBy),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return fmt.Errorf("create movement: batch %s: %w", m.BatchID, domain.ErrNotFound)
		case isCheckViolation(err):
			return &domain.InvalidStateError{BatchID: m.BatchID, Reason: "signo de la cantidad no coincide con el tipo"}
		}
		return fmt.Errorf("insert batch movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *BatchMovementRepo) GetByID(ctx context.Context, id string) (*entity.BatchMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM batch_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch movement: %w", err)
	}
	return m, nil
}

// filterQuery arma el SELECT del filtro; devuelve la consulta, sus args y la próxima posición libre.
func filterQuery(f repository.MovementFilter) (string, []any, int) {
	query := `SELECT ` + movementColumns + ` FROM batch_movements WHERE material_id = $1`
	args := []any{f.MaterialID}
	pos := 2
	if f.From != nil {
		query += fmt.Sprintf(" AND movement_date >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND movement_date < $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		query += fmt.Sprintf(" AND movement_type = ANY($%d)", pos)
		args = append(args, types)
		pos++
	}
	if f.Ascending {
		query += " ORDER BY movement_date ASC, id ASC"
	} else {
		query += " ORDER BY movement_date DESC, id DESC"
	}
	return query, args, pos
}

// ListByMaterial página de la línea de tiempo.
func (r *BatchMovementRepo) ListByMaterial(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.BatchMovement, error) {
	query, args, pos := filterQuery(f)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitArg(limit), offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batch movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.BatchMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// StreamByMaterial recorre el resultado fila por fila; cortar el range cierra el cursor.
func (r *BatchMovementRepo) StreamByMaterial(ctx context.Context, f repository.MovementFilter) iter.Seq2[*entity.BatchMovement, error] {
	return func(yield func(*entity.BatchMovement, error) bool) {
		query, args, _ := filterQuery(f)
		rows, err := r.q.Query(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("stream batch movements: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovement(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan batch movement: %w", err))
				return
			}
			if !yield(m, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// DailyNetDeltas agrupa en SQL por día local; el corte de día lo define loc.
func (r *BatchMovementRepo) DailyNetDeltas(ctx context.Context, materialID string, after time.Time, loc *time.Location) ([]entity.DailyDelta, error) {
	rows, err := r.q.Query(ctx, `
		SELECT (movement_date AT TIME ZONE $2)::date AS day, SUM(quantity)
		FROM batch_movements
		WHERE material_id = $1 AND (movement_date AT TIME ZONE $2)::date > $3::date
		GROUP BY day
		ORDER BY day`,
		materialID, loc.String(), after.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("daily net deltas: %w", err)
	}
	defer rows.Close()
	var out []entity.DailyDelta
	for rows.Next() {
		var day time.Time
		var net decimal.Decimal
		if err := rows.Scan(&day, &net); err != nil {
			return nil, fmt.Errorf("scan daily delta: %w", err)
		}
		out = append(out, entity.DailyDelta{Day: localDay(day, loc), Net: net})
	}
	return out, rows.Err()
}

// AggregateByType SUM(ABS(quantity)) por día local y tipo, días en [from, to].
func (r *BatchMovementRepo) AggregateByType(ctx context.Context, materialID string, from, to time.Time, loc *time.Location) ([]entity.MovementAggregate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT (movement_date AT TIME ZONE $2)::date AS day, movement_type, SUM(ABS(quantity)), COUNT(*)
		FROM batch_movements
		WHERE material_id = $1
		  AND (movement_date AT TIME ZONE $2)::date BETWEEN $3::date AND $4::date
		GROUP BY day, movement_type
		ORDER BY day, movement_type`,
		materialID, loc.String(), from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("aggregate movements: %w", err)
	}
	defer rows.Close()
	var out []entity.MovementAggregate
	for rows.Next() {
		var day time.Time
		var a entity.MovementAggregate
		if err := rows.Scan(&day, &a.MovementType, &a.Quantity, &a.Count); err != nil {
			return nil, fmt.Errorf("scan movement aggregate: %w", err)
		}
		a.Day = localDay(day, loc)
		out = append(out, a)
	}
	return out, rows.Err()
}

// localDay un DATE llega como medianoche UTC; se reinterpreta como medianoche en loc.
func localDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
