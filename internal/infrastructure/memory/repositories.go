package memory

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.MaterialRepository      = (*materialRepo)(nil)
	_ repository.BatchRepository         = (*batchRepo)(nil)
	_ repository.BatchMovementRepository = (*movementRepo)(nil)
	_ repository.CompositionRepository   = (*compositionRepo)(nil)
)

// ── materiales ──────────────────────────────────────────────────────────────

type materialRepo struct {
	st *state
	rw bool
}

func (r *materialRepo) codeTaken(m *entity.Material) bool {
	for _, other := range r.st.materials {
		if other.ID != m.ID && other.CompanyID == m.CompanyID && other.Code == m.Code {
			return true
		}
	}
	return false
}

func (r *materialRepo) Create(_ context.Context, m *entity.Material) error {
	if !r.rw {
		return ErrReadOnly
	}
	if _, ok := r.st.materials[m.ID]; ok || r.codeTaken(m) {
		return domain.ErrDuplicate
	}
	r.st.materials[m.ID] = *m
	return nil
}

func (r *materialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	m, ok := r.st.materials[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *materialRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.Material, error) {
	for _, m := range r.st.materials {
		if m.CompanyID == companyID && m.Code == code {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *materialRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Material, error) {
	var list []*entity.Material
	for _, m := range r.st.materials {
		if m.CompanyID == companyID {
			list = append(list, &m)
		}
	}
	slices.SortFunc(list, func(a, b *entity.Material) int { return cmp.Compare(a.Code, b.Code) })
	return page(list, limit, offset), nil
}

func (r *materialRepo) Update(_ context.Context, m *entity.Material) error {
	if !r.rw {
		return ErrReadOnly
	}
	cur, ok := r.st.materials[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.codeTaken(m) {
		return domain.ErrDuplicate
	}
	cur.Code, cur.Name, cur.Unit, cur.Category = m.Code, m.Name, m.Unit, m.Category
	cur.IsComposite = m.IsComposite
	cur.UpdatedAt = m.UpdatedAt
	r.st.materials[m.ID] = cur
	return nil
}

// ── lotes ───────────────────────────────────────────────────────────────────

type batchRepo struct {
	st *state
	rw bool
}

func (r *batchRepo) Create(_ context.Context, b *entity.InventoryBatch) error {
	if !r.rw {
		return ErrReadOnly
	}
	if _, ok := r.st.materials[b.MaterialID]; !ok {
		return fmt.Errorf("create batch: material %s: %w", b.MaterialID, domain.ErrNotFound)
	}
	if _, ok := r.st.batches[b.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.batches[b.ID] = *b
	return nil
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.InventoryBatch, error) {
	b, ok := r.st.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// GetByIDForUpdate la serialización la da el Store (una tx de escritura a la vez).
func (r *batchRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	return r.GetByID(ctx, id)
}

func (r *batchRepo) byMaterial(materialID string, availableOnly bool) []*entity.InventoryBatch {
	var list []*entity.InventoryBatch
	for _, b := range r.st.batches {
		if b.MaterialID != materialID || (availableOnly && !b.Available()) {
			continue
		}
		list = append(list, &b)
	}
	inventory.SortFIFO(list)
	return list
}

func (r *batchRepo) ListAvailable(_ context.Context, materialID string) ([]*entity.InventoryBatch, error) {
	return r.byMaterial(materialID, true), nil
}

func (r *batchRepo) ListAvailableForUpdate(ctx context.Context, materialID string) ([]*entity.InventoryBatch, error) {
	return r.ListAvailable(ctx, materialID)
}

func (r *batchRepo) ListByMaterial(_ context.Context, materialID string, limit, offset int) ([]*entity.InventoryBatch, error) {
	return page(r.byMaterial(materialID, false), limit, offset), nil
}

func (r *batchRepo) UpdateRemaining(_ context.Context, b *entity.InventoryBatch) error {
	if !r.rw {
		return ErrReadOnly
	}
	cur, ok := r.st.batches[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.RemainingQuantity = b.RemainingQuantity
	cur.IsDepleted = b.IsDepleted
	cur.UpdatedAt = b.UpdatedAt
	r.st.batches[b.ID] = cur
	return nil
}

func (r *batchRepo) StockByCompany(_ context.Context, companyID string) ([]repository.StockSummaryRow, error) {
	var rows []repository.StockSummaryRow
	for _, m := range r.st.materials {
		if m.CompanyID != companyID {
			continue
		}
		v := inventory.Valuate(r.byMaterial(m.ID, true))
		rows = append(rows, repository.StockSummaryRow{
			MaterialID:  m.ID,
			Code:        m.Code,
			Name:        m.Name,
			Unit:        m.Unit,
			OnHand:      v.OnHand,
			Value:       v.Value,
			OpenBatches: v.OpenBatches,
		})
	}
	slices.SortFunc(rows, func(a, b repository.StockSummaryRow) int { return cmp.Compare(a.Code, b.Code) })
	return rows, nil
}

// ── libro de movimientos ────────────────────────────────────────────────────

type movementRepo struct {
	st *state
	rw bool
}

func (r *movementRepo) Create(_ context.Context, m *entity.BatchMovement) error {
	if !r.rw {
		return ErrReadOnly
	}
	if _, ok := r.st.batches[m.BatchID]; !ok {
		return fmt.Errorf("create movement: batch %s: %w", m.BatchID, domain.ErrNotFound)
	}
	for i := range r.st.movements {
		if r.st.movements[i].ID == m.ID {
			return domain.ErrDuplicate
		}
	}
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.BatchMovement, error) {
	for i := range r.st.movements {
		if r.st.movements[i].ID == id {
			m := r.st.movements[i]
			return &m, nil
		}
	}
	return nil, nil
}

func matches(f repository.MovementFilter, m *entity.BatchMovement) bool {
	if m.MaterialID != f.MaterialID {
		return false
	}
	if f.From != nil && m.MovementDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.MovementDate.Before(*f.To) {
		return false
	}
	return len(f.Types) == 0 || slices.Contains(f.Types, m.MovementType)
}

// selectMovements filtra y ordena por (movement_date, id).
func (r *movementRepo) selectMovements(f repository.MovementFilter) []*entity.BatchMovement {
	var list []*entity.BatchMovement
	for i := range r.st.movements {
		m := r.st.movements[i]
		if matches(f, &m) {
			list = append(list, &m)
		}
	}
	slices.SortFunc(list, func(a, b *entity.BatchMovement) int {
		c := a.MovementDate.Compare(b.MovementDate)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !f.Ascending {
			c = -c
		}
		return c
	})
	return list
}

func (r *movementRepo) ListByMaterial(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.BatchMovement, error) {
	return page(r.selectMovements(f), limit, offset), nil
}

func (r *movementRepo) StreamByMaterial(ctx context.Context, f repository.MovementFilter) iter.Seq2[*entity.BatchMovement, error] {
	return func(yield func(*entity.BatchMovement, error) bool) {
		for _, m := range r.selectMovements(f) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

func (r *movementRepo) DailyNetDeltas(_ context.Context, materialID string, after time.Time, loc *time.Location) ([]entity.DailyDelta, error) {
	var list []*entity.BatchMovement
	for _, m := range r.selectMovements(repository.MovementFilter{MaterialID: materialID, Ascending: true}) {
		if inventory.Day(m.MovementDate, loc).After(after) {
			list = append(list, m)
		}
	}
	return inventory.DailyDeltas(list, loc), nil
}

func (r *movementRepo) AggregateByType(_ context.Context, materialID string, from, to time.Time, loc *time.Location) ([]entity.MovementAggregate, error) {
	var list []*entity.BatchMovement
	for _, m := range r.selectMovements(repository.MovementFilter{MaterialID: materialID, Ascending: true}) {
		d := inventory.Day(m.MovementDate, loc)
		if !d.Before(from) && !d.After(to) {
			list = append(list, m)
		}
	}
	return inventory.AggregateByType(list, loc), nil
}

// ── composiciones ───────────────────────────────────────────────────────────

type compositionRepo struct {
	st *state
	rw bool
}

func (r *compositionRepo) Create(_ context.Context, c *entity.MaterialComposition) error {
	if !r.rw {
		return ErrReadOnly
	}
	if _, ok := r.st.compositions[c.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, id := range []string{c.CompositeMaterialID, c.ComponentMaterialID} {
		if _, ok := r.st.materials[id]; !ok {
			return fmt.Errorf("create composition: material %s: %w", id, domain.ErrNotFound)
		}
	}
	r.st.compositions[c.ID] = *c
	return nil
}

func (r *compositionRepo) GetByID(_ context.Context, id string) (*entity.MaterialComposition, error) {
	c, ok := r.st.compositions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *compositionRepo) list(compositeID string, activeOnly bool) []*entity.MaterialComposition {
	var list []*entity.MaterialComposition
	for _, c := range r.st.compositions {
		if c.CompositeMaterialID != compositeID || (activeOnly && !c.IsActive) {
			continue
		}
		list = append(list, &c)
	}
	slices.SortFunc(list, func(a, b *entity.MaterialComposition) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}

func (r *compositionRepo) ListByComposite(_ context.Context, compositeID string) ([]*entity.MaterialComposition, error) {
	return r.list(compositeID, false), nil
}

func (r *compositionRepo) ListActiveByComposite(_ context.Context, compositeID string) ([]*entity.MaterialComposition, error) {
	return r.list(compositeID, true), nil
}

func (r *compositionRepo) Deactivate(_ context.Context, id string) error {
	if !r.rw {
		return ErrReadOnly
	}
	c, ok := r.st.compositions[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	r.st.compositions[id] = c
	return nil
}
