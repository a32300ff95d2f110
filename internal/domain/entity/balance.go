package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyDelta movimiento neto firmado de un material en un día.
type DailyDelta struct {
	Day time.Time // medianoche en la zona del ledger
	Net decimal.Decimal
}

// BalancePoint saldo de cierre de un material al final de un día.
type BalancePoint struct {
	Day   time.Time
	Stock decimal.Decimal
}

// MovementAggregate suma de |cantidad| por día y tipo de movimiento.
type MovementAggregate struct {
	Day          time.Time
	MovementType MovementType
	Quantity     decimal.Decimal
	Count        int
}
