package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// Scale decimales que conserva el libro (NUMERIC(18,6) en PostgreSQL).
const Scale int32 = 6

// CheckScale rechaza valores con más decimales de los que el libro persiste, para que
// memoria y PostgreSQL guarden exactamente la misma cantidad.
func CheckScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(Scale)) {
		return domain.NewValidationError(field, fmt.Sprintf("admite como máximo %d decimales", Scale))
	}
	return nil
}
