package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// InventoryBatch lote de costo: una cantidad recibida de un material a un costo unitario.
// Invariante: 0 <= RemainingQuantity <= QuantityReceived; IsDepleted == (RemainingQuantity <= 0).
// Los lotes nunca se eliminan para conservar la historia de costos.
type InventoryBatch struct {
	ID                string
	MaterialID        string
	SupplierID        string // opcional
	PurchaseOrderID   string // opcional
	ParentBatchID     string // lote compuesto del que proviene (descomposición)
	BatchNumber       string
	UnitCost          decimal.Decimal
	QuantityReceived  decimal.Decimal // inmutable
	RemainingQuantity decimal.Decimal
	IsDepleted        bool
	PurchaseDate      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BatchMetadata datos opcionales de origen del lote.
type BatchMetadata struct {
	SupplierID      string
	PurchaseOrderID string
	ParentBatchID   string
	BatchNumber     string
	PurchaseDate    time.Time
}

// NewInventoryBatch valida y construye un lote con RemainingQuantity = QuantityReceived.
// El ID lo asigna el caller (UUIDv7) para que el desempate FIFO sea por orden de creación.
func NewInventoryBatch(id, materialID string, quantity, unitCost decimal.Decimal, meta BatchMetadata, now time.Time) (*InventoryBatch, error) {
	if strings.TrimSpace(materialID) == "" {
		return nil, domain.NewValidationError("material_id", "es requerido")
	}
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if unitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	purchaseDate := meta.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = now
	}
	return &InventoryBatch{
		ID:                id,
		MaterialID:        materialID,
		SupplierID:        meta.SupplierID,
		PurchaseOrderID:   meta.PurchaseOrderID,
		ParentBatchID:     meta.ParentBatchID,
		BatchNumber:       meta.BatchNumber,
		UnitCost:          unitCost,
		QuantityReceived:  quantity,
		RemainingQuantity: quantity,
		IsDepleted:        false,
		PurchaseDate:      purchaseDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ApplyDelta aplica un delta firmado a RemainingQuantity según el tipo de movimiento.
//   - resultado negativo: InsufficientStockError
//   - resultado 0: el lote queda agotado
//   - aumento sobre un lote agotado sin movimiento "return": InvalidStateError
//   - resultado mayor que QuantityReceived: InvalidStateError
//
// Si devuelve error el lote no se modifica.
func (b *InventoryBatch) ApplyDelta(delta decimal.Decimal, movementType MovementType, now time.Time) error {
	if delta.IsZero() {
		return domain.NewValidationError("quantity", "no puede ser cero")
	}
	result := b.RemainingQuantity.Add(delta)
	if result.IsNegative() {
		return &domain.InsufficientStockError{
			MaterialID: b.MaterialID,
			BatchID:    b.ID,
			Requested:  delta.Neg(),
			Available:  b.RemainingQuantity,
		}
	}
	if delta.IsPositive() {
		if b.IsDepleted && movementType != MovementReturn {
			return &domain.InvalidStateError{BatchID: b.ID, Reason: "un lote agotado solo puede aumentar con un movimiento return"}
		}
		if result.GreaterThan(b.QuantityReceived) {
			return &domain.InvalidStateError{BatchID: b.ID, Reason: "la cantidad restante superaría la cantidad recibida"}
		}
	}
	b.RemainingQuantity = result
	b.IsDepleted = !result.IsPositive()
	b.UpdatedAt = now
	return nil
}

// Value valor a costo de la cantidad restante.
func (b *InventoryBatch) Value() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.UnitCost)
}

// Available indica si el lote puede participar en un consumo FIFO.
func (b *InventoryBatch) Available() bool {
	return !b.IsDepleted && b.RemainingQuantity.IsPositive()
}
