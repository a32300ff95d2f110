package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// WeightedCost costo promedio ponderado de un consumo a partir de los lotes tocados:
// sum(consumido_i * costo_i) / sum(consumido_i). Devuelve cero si no se consumió nada.
func WeightedCost(lines []AllocationLine) decimal.Decimal {
	qty := decimal.Zero
	total := decimal.Zero
	for _, l := range lines {
		qty = qty.Add(l.Quantity)
		total = total.Add(l.Cost())
	}
	if !qty.IsPositive() {
		return decimal.Zero
	}
	return total.Div(qty)
}

// Valuation stock disponible y su valor a costo de lote.
type Valuation struct {
	OnHand      decimal.Decimal
	Value       decimal.Decimal
	AverageCost decimal.Decimal
	OpenBatches int
}

// Valuate suma RemainingQuantity y valor de los lotes no agotados.
// Es el camino rápido de "stock actual": no recorre el libro de movimientos.
func Valuate(batches []*entity.InventoryBatch) Valuation {
	v := Valuation{OnHand: decimal.Zero, Value: decimal.Zero, AverageCost: decimal.Zero}
	for _, b := range batches {
		if !b.Available() {
			continue
		}
		v.OnHand = v.OnHand.Add(b.RemainingQuantity)
		v.Value = v.Value.Add(b.Value())
		v.OpenBatches++
	}
	if v.OnHand.IsPositive() {
		v.AverageCost = v.Value.Div(v.OnHand)
	}
	return v
}
