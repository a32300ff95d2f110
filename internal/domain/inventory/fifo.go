package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// AllocationLine porción consumida de un lote.
type AllocationLine struct {
	BatchID        string
	BatchNumber    string
	Quantity       decimal.Decimal // positiva; el movimiento la registra negativa
	UnitCost       decimal.Decimal
	RemainingAfter decimal.Decimal
}

// Cost costo de la porción consumida.
func (l AllocationLine) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Allocation plan de consumo FIFO para un material.
type Allocation struct {
	MaterialID   string
	Requested    decimal.Decimal
	Lines        []AllocationLine
	TotalCost    decimal.Decimal
	WeightedCost decimal.Decimal
}

// SortFIFO ordena por PurchaseDate ascendente y, en empate, por ID ascendente.
// Es el orden de consumo usado en todo el ledger.
func SortFIFO(batches []*entity.InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		return a.ID < b.ID
	})
}

// PlanFIFO recorre los lotes disponibles del más antiguo al más nuevo consumiendo
// min(restante, pendiente) de cada uno. No modifica los lotes recibidos.
// Si los lotes no alcanzan devuelve InsufficientStockError y ningún plan.
func PlanFIFO(materialID string, batches []*entity.InventoryBatch, quantity decimal.Decimal) (*Allocation, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}

	ordered := make([]*entity.InventoryBatch, 0, len(batches))
	available := decimal.Zero
	for _, b := range batches {
		if b.MaterialID != materialID || !b.Available() {
			continue
		}
		ordered = append(ordered, b)
		available = available.Add(b.RemainingQuantity)
	}
	if available.LessThan(quantity) {
		return nil, &domain.InsufficientStockError{MaterialID: materialID, Requested: quantity, Available: available}
	}
	SortFIFO(ordered)

	outstanding := quantity
	lines := make([]AllocationLine, 0, 2)
	for _, b := range ordered {
		if !outstanding.IsPositive() {
			break
		}
		take := decimal.Min(b.RemainingQuantity, outstanding)
		lines = append(lines, AllocationLine{
			BatchID:        b.ID,
			BatchNumber:    b.BatchNumber,
			Quantity:       take,
			UnitCost:       b.UnitCost,
			RemainingAfter: b.RemainingQuantity.Sub(take),
		})
		outstanding = outstanding.Sub(take)
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Cost())
	}
	return &Allocation{
		MaterialID:   materialID,
		Requested:    quantity,
		Lines:        lines,
		TotalCost:    total,
		WeightedCost: WeightedCost(lines),
	}, nil
}
