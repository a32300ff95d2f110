package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// MovementType tipo cerrado de movimiento de lote.
type MovementType string

// Tipos de movimiento de lote.
const (
	MovementReceipt     MovementType = "receipt"      // entrada por compra o descomposición
	MovementSale        MovementType = "sale"         // salida por venta
	MovementWastage     MovementType = "wastage"      // merma
	MovementAdjustment  MovementType = "adjustment"   // ajuste manual, cualquier signo
	MovementTransferOut MovementType = "transfer_out" // salida por traslado
	MovementTransferIn  MovementType = "transfer_in"  // entrada por traslado
	MovementReturn      MovementType = "return"       // devolución a un lote existente
)

// MovementTypes lista completa en orden estable (para validaciones y reportes).
var MovementTypes = []MovementType{
	MovementReceipt, MovementSale, MovementWastage, MovementAdjustment,
	MovementTransferOut, MovementTransferIn, MovementReturn,
}

// Direction sentido del movimiento: +1 entrada, -1 salida, 0 cualquiera (adjustment).
func (t MovementType) Direction() int {
	switch t {
	case MovementReceipt, MovementTransferIn, MovementReturn:
		return 1
	case MovementSale, MovementWastage, MovementTransferOut:
		return -1
	case MovementAdjustment:
		return 0
	}
	return 0
}

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementSale, MovementWastage, MovementAdjustment,
		MovementTransferOut, MovementTransferIn, MovementReturn:
		return true
	}
	return false
}

// ParseMovementType convierte texto externo al tipo cerrado.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.Valid() {
		return "", domain.NewValidationError("movement_type", fmt.Sprintf("desconocido: %q", s))
	}
	return t, nil
}

// CheckQuantity valida que el signo de la cantidad coincida con el tipo.
// Cantidad cero es ValidationError; signo contrario al tipo es InvalidStateError.
func (t MovementType) CheckQuantity(quantity decimal.Decimal) error {
	if !t.Valid() {
		return domain.NewValidationError("movement_type", fmt.Sprintf("desconocido: %q", string(t)))
	}
	if quantity.IsZero() {
		return domain.NewValidationError("quantity", "no puede ser cero")
	}
	switch t.Direction() {
	case 1:
		if quantity.IsNegative() {
			return &domain.InvalidStateError{Reason: fmt.Sprintf("el movimiento %s requiere cantidad positiva", t)}
		}
	case -1:
		if quantity.IsPositive() {
			return &domain.InvalidStateError{Reason: fmt.Sprintf("el movimiento %s requiere cantidad negativa", t)}
		}
	}
	return nil
}

// ReferenceType tipo del documento de negocio que causó el movimiento.
type ReferenceType string

// Tipos de referencia.
const (
	ReferenceSalesOrder       ReferenceType = "sales_order"
	ReferencePurchaseOrder    ReferenceType = "purchase_order"
	ReferenceWastageRecord    ReferenceType = "wastage_record"
	ReferenceManualAdjustment ReferenceType = "manual_adjustment"
	ReferenceTransfer         ReferenceType = "transfer"
	ReferenceReturnNote       ReferenceType = "return_note"
)

// Valid indica si el tipo de referencia es conocido. Vacío se acepta (sin referencia).
func (t ReferenceType) Valid() bool {
	switch t {
	case "", ReferenceSalesOrder, ReferencePurchaseOrder, ReferenceWastageRecord,
		ReferenceManualAdjustment, ReferenceTransfer, ReferenceReturnNote:
		return true
	}
	return false
}

// Reference documento de negocio asociado a un movimiento. No se valida su existencia.
type Reference struct {
	Type ReferenceType
	ID   string
}

// BatchMovement fila inmutable del libro de movimientos.
// Quantity es firmada: positiva en entradas, negativa en salidas.
type BatchMovement struct {
	ID           string
	BatchID      string
	MaterialID   string
	MovementType MovementType
	Quantity     decimal.Decimal
	Reference    Reference
	MovementDate time.Time
	Notes        string
	CreatedAt    time.Time
	CreatedBy    string
}
