package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// BatchMismatch lote cuyo restante cacheado no coincide con la suma de sus movimientos.
type BatchMismatch struct {
	BatchID   string
	Remaining decimal.Decimal
	LedgerSum decimal.Decimal
}

// ReconcileReport resultado de comparar lotes contra el libro.
type ReconcileReport struct {
	MaterialID string
	Batches    int
	Movements  int
	Mismatches []BatchMismatch
}

// Consistent indica que todos los lotes coinciden con el libro.
func (r *ReconcileReport) Consistent() bool { return len(r.Mismatches) == 0 }

// Reconcile recorre el libro del material en orden ascendente y verifica, por lote, que
// sum(quantity) == remaining_quantity. Solo lectura.
func (uc *BalanceUseCase) Reconcile(ctx context.Context, companyID, materialID string) (*ReconcileReport, error) {
	report := &ReconcileReport{MaterialID: materialID}
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, materialID); err != nil {
			return err
		}
		batches, err := r.Batches.ListByMaterial(ctx, materialID, 0, 0)
		if err != nil {
			return err
		}
		sums := make(map[string]decimal.Decimal, len(batches))
		filter := repository.MovementFilter{MaterialID: materialID, Ascending: true}
		for m, err := range r.Movements.StreamByMaterial(ctx, filter) {
			if err != nil {
				return err
			}
			sums[m.BatchID] = sums[m.BatchID].Add(m.Quantity)
			report.Movements++
		}
		report.Batches = len(batches)
		for _, b := range batches {
			sum := sums[b.ID]
			if !sum.Equal(b.RemainingQuantity) {
				report.Mismatches = append(report.Mismatches, BatchMismatch{
					BatchID:   b.ID,
					Remaining: b.RemainingQuantity,
					LedgerSum: sum,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent() {
		uc.log.Error().
			Str("material_id", materialID).
			Int("mismatches", len(report.Mismatches)).
			Msg("el restante de los lotes no coincide con el libro")
	}
	return report, nil
}
