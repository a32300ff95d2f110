package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ConsumeInput salida de stock a satisfacer en orden FIFO. Quantity es positiva.
type ConsumeInput struct {
	CompanyID    string
	UserID       string
	MaterialID   string
	Quantity     decimal.Decimal
	MovementType entity.MovementType // sale, wastage, transfer_out o adjustment
	Reference    entity.Reference
	MovementDate time.Time // cero = ahora
	Notes        string
}

// ConsumedLine porción consumida de un lote y el movimiento que la registró.
type ConsumedLine struct {
	domaininv.AllocationLine
	MovementID string
	Depleted   bool
}

// ConsumeResult resultado de un consumo FIFO. WeightedCost es el costo de los lotes tocados,
// no el promedio general del material.
type ConsumeResult struct {
	MaterialID   string
	MovementType entity.MovementType
	Quantity     decimal.Decimal
	Lines        []ConsumedLine
	TotalCost    decimal.Decimal
	WeightedCost decimal.Decimal
}

// MovementIDs ids de los movimientos creados, en orden FIFO.
func (r *ConsumeResult) MovementIDs() []string {
	ids := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		ids = append(ids, l.MovementID)
	}
	return ids
}

func (in ConsumeInput) validate() error {
	if strings.TrimSpace(in.MaterialID) == "" {
		return domain.NewValidationError("material_id", "es requerido")
	}
	if !in.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if err := domaininv.CheckScale("quantity", in.Quantity); err != nil {
		return err
	}
	switch in.MovementType {
	case entity.MovementSale, entity.MovementWastage, entity.MovementTransferOut, entity.MovementAdjustment:
	case entity.MovementReceipt, entity.MovementTransferIn, entity.MovementReturn:
		return &domain.InvalidStateError{Reason: fmt.Sprintf("el consumo FIFO no admite movimientos de entrada (%s)", in.MovementType)}
	default:
		return domain.NewValidationError("movement_type", fmt.Sprintf("desconocido: %q", string(in.MovementType)))
	}
	return validateReference(in.Reference)
}

// Consume descuenta Quantity del material recorriendo sus lotes del más antiguo al más nuevo.
// Toma el candado del material, bloquea los lotes (FOR UPDATE en PostgreSQL) y registra un
// movimiento negativo por lote tocado. Si el stock no alcanza devuelve InsufficientStockError
// y no se aplica nada.
func (uc *LedgerUseCase) Consume(ctx context.Context, in ConsumeInput) (*ConsumeResult, error) {
	if in.MovementType == "" {
		in.MovementType = entity.MovementSale
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	unlock, err := uc.lockMaterial(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	var result *ConsumeResult
	var movs []*entity.BatchMovement
	err = uc.tx.Run(ctx, func(r Repos) error {
		movs = movs[:0]
		if _, err := loadMaterial(ctx, r, in.CompanyID, in.MaterialID); err != nil {
			return err
		}
		batches, err := r.Batches.ListAvailableForUpdate(ctx, in.MaterialID)
		if err != nil {
			return err
		}
		alloc, err := domaininv.PlanFIFO(in.MaterialID, batches, in.Quantity)
		if err != nil {
			return err
		}

		byID := make(map[string]*entity.InventoryBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}
		result = &ConsumeResult{
			MaterialID:   in.MaterialID,
			MovementType: in.MovementType,
			Quantity:     in.Quantity,
			TotalCost:    alloc.TotalCost,
			WeightedCost: alloc.WeightedCost,
			Lines:        make([]ConsumedLine, 0, len(alloc.Lines)),
		}
		for _, line := range alloc.Lines {
			b := byID[line.BatchID]
			mov, err := uc.applyMovement(ctx, r, b, movementSpec{
				movementType: in.MovementType,
				quantity:     line.Quantity.Neg(),
				reference:    in.Reference,
				date:         in.MovementDate,
				notes:        in.Notes,
				userID:       in.UserID,
			})
			if err != nil {
				return err
			}
			movs = append(movs, mov)
			result.Lines = append(result.Lines, ConsumedLine{
				AllocationLine: line,
				MovementID:     mov.ID,
				Depleted:       b.IsDepleted,
			})
		}
		return nil
	})
	uc.metrics.ObserveAllocation(time.Since(start))
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			uc.metrics.InsufficientStock()
			uc.log.Warn().
				Str("material_id", in.MaterialID).
				Str("requested", stockErr.Requested.String()).
				Str("available", stockErr.Available.String()).
				Msg("consumo rechazado por stock insuficiente")
		}
		return nil, err
	}

	uc.recordMetrics(movs...)
	uc.log.Info().
		Str("material_id", in.MaterialID).
		Str("movement_type", string(in.MovementType)).
		Str("quantity", in.Quantity.String()).
		Str("weighted_cost", result.WeightedCost.StringFixed(4)).
		Int("batches", len(result.Lines)).
		Msg("consumo FIFO registrado")
	return result, nil
}
