package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ReceiveInput entrada de una recepción de material.
type ReceiveInput struct {
	CompanyID       string
	UserID          string
	MaterialID      string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	SupplierID      string
	PurchaseOrderID string
	BatchNumber     string
	PurchaseDate    time.Time // cero = ahora
	Reference       entity.Reference
	Notes           string
}

// ReceivedBatch lote creado y su movimiento de entrada.
type ReceivedBatch struct {
	Batch    *entity.InventoryBatch
	Movement *entity.BatchMovement
}

// ReceiveResult resultado de Receive. Decomposed=false con Warning indica que el material es
// compuesto pero no tenía componentes activos y se recibió como lote simple.
type ReceiveResult struct {
	MaterialID string
	Decomposed bool
	Warning    string
	Batches    []ReceivedBatch
}

func (in ReceiveInput) validate() error {
	if strings.TrimSpace(in.MaterialID) == "" {
		return domain.NewValidationError("material_id", "es requerido")
	}
	if !in.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if in.UnitCost.IsNegative() {
		return domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	if err := domaininv.CheckScale("quantity", in.Quantity); err != nil {
		return err
	}
	if err := domaininv.CheckScale("unit_cost", in.UnitCost); err != nil {
		return err
	}
	return validateReference(in.Reference)
}

// Receive registra la entrada de un material. Si el material es compuesto y tiene componentes
// activos, la recepción se reparte en un lote por componente (cantidad * ratio); todo en una tx.
// Sin componentes activos se registra un lote simple y se reporta la advertencia.
func (uc *LedgerUseCase) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ref := in.Reference
	if ref.Type == "" && in.PurchaseOrderID != "" {
		ref = entity.Reference{Type: entity.ReferencePurchaseOrder, ID: in.PurchaseOrderID}
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = uc.now()
	}

	var result *ReceiveResult
	var fallback *domain.ConfigurationError
	err := uc.tx.Run(ctx, func(r Repos) error {
		fallback = nil
		material, err := loadMaterial(ctx, r, in.CompanyID, in.MaterialID)
		if err != nil {
			return err
		}
		result = &ReceiveResult{MaterialID: material.ID}

		spec := movementSpec{
			movementType: entity.MovementReceipt,
			reference:    ref,
			date:         purchaseDate,
			notes:        in.Notes,
			userID:       in.UserID,
		}
		meta := entity.BatchMetadata{
			SupplierID:      in.SupplierID,
			PurchaseOrderID: in.PurchaseOrderID,
			BatchNumber:     in.BatchNumber,
			PurchaseDate:    purchaseDate,
		}

		if material.IsComposite {
			comps, err := r.Compositions.ListActiveByComposite(ctx, material.ID)
			if err != nil {
				return err
			}
			plan, err := domaininv.PlanDecomposition(material.ID, comps, in.Quantity, in.UnitCost)
			switch {
			case err == nil:
				received, err := uc.receiveComponents(ctx, r, plan, meta, spec)
				if err != nil {
					return err
				}
				result.Decomposed = true
				result.Batches = received
				return nil
			case errors.As(err, &fallback):
				result.Warning = fallback.Error()
			default:
				return err
			}
		}

		rb, err := uc.receivePlain(ctx, r, material.ID, in.Quantity, in.UnitCost, meta, spec)
		if err != nil {
			return err
		}
		result.Batches = []ReceivedBatch{rb}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fallback != nil {
		uc.metrics.CompositeFallback()
		uc.log.Warn().
			Str("material_id", in.MaterialID).
			Str("quantity", in.Quantity.String()).
			Str("reason", fallback.Reason).
			Msg("material compuesto sin componentes activos, recepción sin descomponer")
	}
	for _, rb := range result.Batches {
		uc.recordMetrics(rb.Movement)
	}
	uc.log.Info().
		Str("material_id", result.MaterialID).
		Str("quantity", in.Quantity.String()).
		Bool("decomposed", result.Decomposed).
		Int("batches", len(result.Batches)).
		Msg("recepción registrada")
	return result, nil
}

func (uc *LedgerUseCase) receivePlain(ctx context.Context, r Repos, materialID string, qty, unitCost decimal.Decimal, meta entity.BatchMetadata, spec movementSpec) (ReceivedBatch, error) {
	id := newID()
	if meta.BatchNumber == "" {
		meta.BatchNumber = defaultBatchNumber(id, meta.PurchaseDate)
	}
	b, err := entity.NewInventoryBatch(id, materialID, qty, unitCost, meta, uc.now())
	if err != nil {
		return ReceivedBatch{}, err
	}
	mov, err := uc.openBatch(ctx, r, b, spec)
	if err != nil {
		return ReceivedBatch{}, err
	}
	return ReceivedBatch{Batch: b, Movement: mov}, nil
}

// receiveComponents crea un lote por componente planificado. El número de lote lleva el
// tipo de componente como sufijo.
func (uc *LedgerUseCase) receiveComponents(ctx context.Context, r Repos, plan []domaininv.ComponentReceipt, meta entity.BatchMetadata, spec movementSpec) ([]ReceivedBatch, error) {
	base := meta.BatchNumber
	out := make([]ReceivedBatch, 0, len(plan))
	for _, c := range plan {
		id := newID()
		m := meta
		if base == "" {
			m.BatchNumber = defaultBatchNumber(id, meta.PurchaseDate)
		}
		m.BatchNumber += "-" + c.Composition.ComponentType
		b, err := entity.NewInventoryBatch(id, c.Composition.ComponentMaterialID, c.Quantity, c.UnitCost, m, uc.now())
		if err != nil {
			return nil, err
		}
		mov, err := uc.openBatch(ctx, r, b, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, ReceivedBatch{Batch: b, Movement: mov})
	}
	return out, nil
}

// defaultBatchNumber LOT-<fecha>-<últimos 6 del id>.
func defaultBatchNumber(id string, date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "LOT-" + date.Format("20060102") + "-" + suffix
}
