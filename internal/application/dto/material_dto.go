package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest entrada para crear un material.
type CreateMaterialRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Category    string `json:"category"`
	IsComposite bool   `json:"is_composite"`
}

// UpdateMaterialRequest solo metadatos; el stock se maneja vía movimientos.
type UpdateMaterialRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Unit        *string `json:"unit"`
	Category    *string `json:"category"`
	IsComposite *bool   `json:"is_composite"`
}

// MaterialResponse salida de un material.
type MaterialResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category"`
	IsComposite bool      `json:"is_composite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MaterialListResponse lista paginada de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CreateCompositionRequest define un componente de un material compuesto.
type CreateCompositionRequest struct {
	ComponentMaterialID string          `json:"component_material_id"`
	ComponentType       string          `json:"component_type"`
	Ratio               decimal.Decimal `json:"ratio"`
}

// CompositionResponse salida de una composición.
type CompositionResponse struct {
	ID                  string          `json:"id"`
	CompositeMaterialID string          `json:"composite_material_id"`
	ComponentMaterialID string          `json:"component_material_id"`
	ComponentType       string          `json:"component_type"`
	Ratio               decimal.Decimal `json:"ratio"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
}

// CompositionListResponse composiciones de un compuesto y la suma de ratios activos.
// RatioSum > 1 no es error: se reporta para revisión.
type CompositionListResponse struct {
	Items    []CompositionResponse `json:"items"`
	RatioSum decimal.Decimal       `json:"ratio_sum"`
}
