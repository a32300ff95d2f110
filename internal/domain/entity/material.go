package entity

import "time"

// Material representa un insumo o producto con stock por lotes.
// La identidad es inmutable; solo se modifican metadatos, nunca el stock.
type Material struct {
	ID          string
	CompanyID   string
	Code        string // único por empresa
	Name        string
	Unit        string // unidad de medida (kg, l, und...)
	Category    string
	IsComposite bool // al recibirlo se descompone según MaterialComposition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
