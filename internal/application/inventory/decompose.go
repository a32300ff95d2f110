package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// DecomposeInput descomposición de un lote compuesto ya registrado.
type DecomposeInput struct {
	CompanyID    string
	UserID       string
	BatchID      string
	Reference    entity.Reference
	MovementDate time.Time
	Notes        string
}

// DecomposeResult lote de origen (agotado), su transfer_out y los lotes de componentes.
type DecomposeResult struct {
	SourceBatch *entity.InventoryBatch
	TransferOut *entity.BatchMovement
	Components  []ReceivedBatch
}

// DecomposeComposite reparte el restante de un lote compuesto (recibido sin descomponer) entre
// los componentes activos del material: transfer_out por el restante del lote y un lote hijo
// con transfer_in por componente. Sin componentes activos devuelve ConfigurationError.
func (uc *LedgerUseCase) DecomposeComposite(ctx context.Context, in DecomposeInput) (*DecomposeResult, error) {
	if strings.TrimSpace(in.BatchID) == "" {
		return nil, domain.NewValidationError("batch_id", "es requerido")
	}
	if err := validateReference(in.Reference); err != nil {
		return nil, err
	}
	ref := in.Reference
	if ref.Type == "" {
		ref = entity.Reference{Type: entity.ReferenceTransfer, ID: in.BatchID}
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

	var result *DecomposeResult
	var movs []*entity.BatchMovement
	err = uc.tx.Run(ctx, func(r Repos) error {
		movs = movs[:0]
		material, err := loadMaterial(ctx, r, in.CompanyID, materialID)
		if err != nil {
			return err
		}
		if !material.IsComposite {
			return &domain.InvalidStateError{BatchID: in.BatchID, Reason: "el material del lote no es compuesto"}
		}
		src, err := r.Batches.GetByIDForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if src == nil {
			return domain.ErrNotFound
		}
		if !src.Available() {
			return &domain.InvalidStateError{BatchID: src.ID, Reason: "el lote está agotado"}
		}
		comps, err := r.Compositions.ListActiveByComposite(ctx, material.ID)
		if err != nil {
			return err
		}
		qty := src.RemainingQuantity
		plan, err := domaininv.PlanDecomposition(material.ID, comps, qty, src.UnitCost)
		if err != nil {
			return err
		}

		spec := movementSpec{
			reference: ref,
			date:      in.MovementDate,
			notes:     in.Notes,
			userID:    in.UserID,
		}
		out := spec
		out.movementType = entity.MovementTransferOut
		out.quantity = qty.Neg()
		transferOut, err := uc.applyMovement(ctx, r, src, out)
		if err != nil {
			return err
		}
		movs = append(movs, transferOut)

		result = &DecomposeResult{SourceBatch: src, TransferOut: transferOut}
		for _, c := range plan {
			b, err := entity.NewInventoryBatch(newID(), c.Composition.ComponentMaterialID, c.Quantity, c.UnitCost, entity.BatchMetadata{
				SupplierID:      src.SupplierID,
				PurchaseOrderID: src.PurchaseOrderID,
				ParentBatchID:   src.ID,
				BatchNumber:     src.BatchNumber + "-" + c.Composition.ComponentType,
				PurchaseDate:    src.PurchaseDate,
			}, uc.now())
			if err != nil {
				return err
			}
			transferIn := spec
			transferIn.movementType = entity.MovementTransferIn
			mov, err := uc.openBatch(ctx, r, b, transferIn)
			if err != nil {
				return err
			}
			movs = append(movs, mov)
			result.Components = append(result.Components, ReceivedBatch{Batch: b, Movement: mov})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.recordMetrics(movs...)
	uc.log.Info().
		Str("material_id", materialID).
		Str("batch_id", in.BatchID).
		Int("components", len(result.Components)).
		Msg("lote compuesto descompuesto")
	return result, nil
}
