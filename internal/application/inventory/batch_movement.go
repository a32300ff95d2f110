package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// BatchMovementInput movimiento manual sobre un lote concreto (devolución o ajuste).
type BatchMovementInput struct {
	CompanyID    string
	UserID       string
	BatchID      string
	Quantity     decimal.Decimal // firmada
	Reference    entity.Reference
	MovementDate time.Time
	Notes        string
}

// BatchMovementResult lote tras el movimiento y la fila agregada al libro.
type BatchMovementResult struct {
	Batch    *entity.InventoryBatch
	Movement *entity.BatchMovement
}

// ReturnToBatch devuelve cantidad a un lote existente (movimiento return, positivo).
// Es el único movimiento que puede reabrir un lote agotado.
func (uc *LedgerUseCase) ReturnToBatch(ctx context.Context, in BatchMovementInput) (*BatchMovementResult, error) {
	if in.Reference.Type == "" && in.Reference.ID != "" {
		in.Reference.Type = entity.ReferenceReturnNote
	}
	return uc.moveBatch(ctx, entity.MovementReturn, in)
}

// AdjustBatch corrige el restante de un lote con un movimiento adjustment de cualquier signo.
// Un ajuste positivo no puede reabrir un lote agotado ni superar la cantidad recibida.
func (uc *LedgerUseCase) AdjustBatch(ctx context.Context, in BatchMovementInput) (*BatchMovementResult, error) {
	if in.Reference.Type == "" {
		in.Reference.Type = entity.ReferenceManualAdjustment
	}
	return uc.moveBatch(ctx, entity.MovementAdjustment, in)
}

func (uc *LedgerUseCase) moveBatch(ctx context.Context, mt entity.MovementType, in BatchMovementInput) (*BatchMovementResult, error) {
	if strings.TrimSpace(in.BatchID) == "" {
		return nil, domain.NewValidationError("batch_id", "es requerido")
	}
	if err := mt.CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := domaininv.CheckScale("quantity", in.Quantity); err != nil {
		return nil, err
	}
	if err := validateReference(in.Reference); err != nil {
		return nil, err
	}

	materialID, err := uc.materialOfBatch(ctx, in.BatchID)
	if err != nil {
		return nil, err
	}
	unlock, err := uc.lockMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *BatchMovementResult
	err = uc.tx.Run(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, in.CompanyID, materialID); err != nil {
			return err
		}
		b, err := r.Batches.GetByIDForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		mov, err := uc.applyMovement(ctx, r, b, movementSpec{
			movementType: mt,
			quantity:     in.Quantity,
			reference:    in.Reference,
			date:         in.MovementDate,
			notes:        in.Notes,
			userID:       in.UserID,
		})
		if err != nil {
			return err
		}
		result = &BatchMovementResult{Batch: b, Movement: mov}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.recordMetrics(result.Movement)
	uc.log.Info().
		Str("material_id", materialID).
		Str("batch_id", in.BatchID).
		Str("movement_type", string(mt)).
		Str("quantity", in.Quantity.String()).
		Bool("depleted", result.Batch.IsDepleted).
		Msg("movimiento de lote registrado")
	return result, nil
}
