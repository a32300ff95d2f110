package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidState      = errors.New("estado inválido")
	ErrConfiguration     = errors.New("configuración incompleta")
)

// ValidationError entrada con forma incorrecta; se rechaza antes de cualquier mutación.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError el consumo FIFO no puede satisfacerse con los lotes disponibles.
type InsufficientStockError struct {
	MaterialID string
	BatchID    string // vacío cuando el faltante es a nivel de material
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.BatchID != "" {
		return fmt.Sprintf("stock insuficiente en lote %s: solicitado %s, disponible %s",
			e.BatchID, e.Requested.String(), e.Available.String())
	}
	return fmt.Sprintf("stock insuficiente para material %s: solicitado %s, disponible %s",
		e.MaterialID, e.Requested.String(), e.Available.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// ConfigurationError material compuesto sin componentes activos. Recuperable: la recepción
// se registra sin descomponer.
type ConfigurationError struct {
	MaterialID string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuración del material %s: %s", e.MaterialID, e.Reason)
}

// Is permite errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InvalidStateError la operación contradice el estado del lote o el tipo de movimiento.
type InvalidStateError struct {
	BatchID string
	Reason  string
}

func (e *InvalidStateError) Error() string {
	if e.BatchID == "" {
		return "estado inválido: " + e.Reason
	}
	return fmt.Sprintf("estado inválido en lote %s: %s", e.BatchID, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidState).
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
