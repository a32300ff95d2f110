package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialComposition define un componente de un material compuesto.
// Ratio es la fracción de la cantidad del compuesto que se convierte en este componente.
// Las composiciones no guardan cantidad: solo abren una recepción en lotes por componente.
type MaterialComposition struct {
	ID                  string
	CompositeMaterialID string
	ComponentMaterialID string
	ComponentType       string // etiqueta, ej. "drum" u "oil"
	Ratio               decimal.Decimal
	IsActive            bool
	CreatedAt           time.Time
}
