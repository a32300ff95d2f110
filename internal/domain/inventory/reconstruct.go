package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

const dayLayout = "2006-01-02"

// Day trunca t a la medianoche de su fecha en loc.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func indexDeltas(deltas []entity.DailyDelta) map[string]decimal.Decimal {
	byDay := make(map[string]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		k := d.Day.Format(dayLayout)
		byDay[k] = byDay[k].Add(d.Net)
	}
	return byDay
}

// ReconstructBalances deriva el saldo de cierre diario caminando hacia atrás desde el total actual:
//
//	stock(through) = currentTotal
//	stock(d-1)     = stock(d) - Δ(d)
//
// Δ(d) ya codifica stock(d) = stock(d-1) + Δ(d), por eso restar el neto del día reproduce el
// cierre del día anterior. Los días sin movimientos arrastran el saldo. from y through deben
// ser medianoches (ver Day) en la misma zona. Devuelve la serie ascendente [from, through].
func ReconstructBalances(currentTotal decimal.Decimal, deltas []entity.DailyDelta, from, through time.Time) []entity.BalancePoint {
	if from.After(through) {
		return nil
	}
	byDay := indexDeltas(deltas)

	points := make([]entity.BalancePoint, 0, int(through.Sub(from).Hours()/24)+1)
	running := currentTotal
	for d := through; !d.Before(from); d = d.AddDate(0, 0, -1) {
		points = append(points, entity.BalancePoint{Day: d, Stock: running})
		running = running.Sub(byDay[d.Format(dayLayout)])
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}

// ReplayForward es la inversa de ReconstructBalances: parte del cierre de from y suma Δ(d)
// de cada día siguiente hasta through.
func ReplayForward(opening decimal.Decimal, deltas []entity.DailyDelta, from, through time.Time) []entity.BalancePoint {
	if from.After(through) {
		return nil
	}
	byDay := indexDeltas(deltas)

	points := make([]entity.BalancePoint, 0, int(through.Sub(from).Hours()/24)+1)
	running := opening
	for d := from; !d.After(through); d = d.AddDate(0, 0, 1) {
		if !d.Equal(from) {
			running = running.Add(byDay[d.Format(dayLayout)])
		}
		points = append(points, entity.BalancePoint{Day: d, Stock: running})
	}
	return points
}

// DailyDeltas agrupa movimientos por día (en loc) sumando su cantidad firmada.
// Entradas y salidas del mismo día se netean antes de reconstruir. Orden ascendente.
func DailyDeltas(movements []*entity.BatchMovement, loc *time.Location) []entity.DailyDelta {
	byDay := make(map[string]*entity.DailyDelta)
	for _, m := range movements {
		day := Day(m.MovementDate, loc)
		k := day.Format(dayLayout)
		dd, ok := byDay[k]
		if !ok {
			dd = &entity.DailyDelta{Day: day, Net: decimal.Zero}
			byDay[k] = dd
		}
		dd.Net = dd.Net.Add(m.Quantity)
	}
	out := make([]entity.DailyDelta, 0, len(byDay))
	for _, dd := range byDay {
		out = append(out, *dd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// AggregateByType agrupa por (día, tipo) con SUM(ABS(cantidad)). No depende del orden de entrada.
func AggregateByType(movements []*entity.BatchMovement, loc *time.Location) []entity.MovementAggregate {
	type key struct {
		day string
		typ entity.MovementType
	}
	acc := make(map[key]*entity.MovementAggregate)
	for _, m := range movements {
		day := Day(m.MovementDate, loc)
		k := key{day: day.Format(dayLayout), typ: m.MovementType}
		a, ok := acc[k]
		if !ok {
			a = &entity.MovementAggregate{Day: day, MovementType: m.MovementType, Quantity: decimal.Zero}
			acc[k] = a
		}
		a.Quantity = a.Quantity.Add(m.Quantity.Abs())
		a.Count++
	}
	out := make([]entity.MovementAggregate, 0, len(acc))
	for _, a := range acc {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].MovementType < out[j].MovementType
	})
	return out
}
