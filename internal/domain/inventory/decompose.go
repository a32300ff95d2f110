package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// ComponentReceipt recepción planificada para un componente de un compuesto.
type ComponentReceipt struct {
	Composition *entity.MaterialComposition
	Quantity    decimal.Decimal // cantidad del compuesto * ratio
	UnitCost    decimal.Decimal
}

// PlanDecomposition reparte la recepción de un compuesto entre sus componentes activos.
// Los ratios no tienen que sumar 1: la diferencia es merma de rendimiento y no se normaliza.
// El costo total del compuesto se asigna a los componentes: costo_componente = costo / sum(ratios).
// Cantidad y costo planificados se redondean a Scale, igual que se persisten.
// Sin componentes activos devuelve ConfigurationError.
func PlanDecomposition(compositeID string, compositions []*entity.MaterialComposition, quantity, unitCost decimal.Decimal) ([]ComponentReceipt, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	active := make([]*entity.MaterialComposition, 0, len(compositions))
	ratioSum := decimal.Zero
	for _, c := range compositions {
		if !c.IsActive || c.CompositeMaterialID != compositeID || !c.Ratio.IsPositive() {
			continue
		}
		active = append(active, c)
		ratioSum = ratioSum.Add(c.Ratio)
	}
	if len(active) == 0 {
		return nil, &domain.ConfigurationError{MaterialID: compositeID, Reason: "material compuesto sin componentes activos"}
	}

	componentCost := unitCost.Div(ratioSum).Round(Scale)
	out := make([]ComponentReceipt, 0, len(active))
	for _, c := range active {
		qty := quantity.Mul(c.Ratio).Round(Scale)
		if !qty.IsPositive() {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("la cantidad del componente %s redondea a cero", c.ComponentMaterialID))
		}
		out = append(out, ComponentReceipt{
			Composition: c,
			Quantity:    qty,
			UnitCost:    componentCost,
		})
	}
	return out, nil
}

// RatioSum suma de ratios activos; usada para advertir cuando supera 1.
func RatioSum(compositions []*entity.MaterialComposition) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range compositions {
		if c.IsActive {
			sum = sum.Add(c.Ratio)
		}
	}
	return sum
}
