package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// BalanceUseCase proyecciones de solo lectura: stock actual, historia reconstruida,
// agregados por tipo y consultas del libro. Nunca modifica lotes ni movimientos.
type BalanceUseCase struct {
	tx  TxRunner
	loc *time.Location
	log *logger.Logger
	now Clock
}

// NewBalanceUseCase construye el caso de uso. loc define el corte de día de los movimientos.
func NewBalanceUseCase(tx TxRunner, loc *time.Location, log *logger.Logger) *BalanceUseCase {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BalanceUseCase{tx: tx, loc: loc, log: log.Component("balance"), now: time.Now}
}

// SetClock reemplaza la fuente de fecha.
func (uc *BalanceUseCase) SetClock(c Clock) {
	if c != nil {
		uc.now = c
	}
}

// Location zona usada para agrupar por día.
func (uc *BalanceUseCase) Location() *time.Location { return uc.loc }

// Today medianoche de hoy en la zona del ledger.
func (uc *BalanceUseCase) Today() time.Time { return domaininv.Day(uc.now(), uc.loc) }

// StockResult stock actual de un material.
type StockResult struct {
	MaterialID string
	domaininv.Valuation
	AsOf time.Time
}

// CurrentStock suma el restante de los lotes no agotados (camino rápido, sin recorrer el libro).
func (uc *BalanceUseCase) CurrentStock(ctx context.Context, companyID, materialID string) (*StockResult, error) {
	var res *StockResult
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, materialID); err != nil {
			return err
		}
		batches, err := r.Batches.ListAvailable(ctx, materialID)
		if err != nil {
			return err
		}
		res = &StockResult{MaterialID: materialID, Valuation: domaininv.Valuate(batches), AsOf: uc.now()}
		return nil
	})
	return res, err
}

// BalanceHistory serie de saldos de cierre diarios.
type BalanceHistory struct {
	MaterialID   string
	From         time.Time
	To           time.Time
	CurrentStock decimal.Decimal
	Points       []entity.BalancePoint
}

// ReconstructBalance deriva el saldo de cierre de cada día en [from, to] caminando hacia atrás
// desde el stock actual. Stock actual y deltas se leen en una misma foto. to se recorta a hoy;
// un material sin movimientos devuelve una serie en cero, no un error.
func (uc *BalanceUseCase) ReconstructBalance(ctx context.Context, companyID, materialID string, from, to time.Time) (*BalanceHistory, error) {
	today := uc.Today()
	from = domaininv.Day(from, uc.loc)
	to = domaininv.Day(to, uc.loc)
	if to.After(today) {
		to = today
	}
	if from.After(to) {
		return nil, domain.NewValidationError("from", "debe ser anterior o igual a to")
	}

	var current decimal.Decimal
	var deltas []entity.DailyDelta
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, materialID); err != nil {
			return err
		}
		batches, err := r.Batches.ListAvailable(ctx, materialID)
		if err != nil {
			return err
		}
		current = domaininv.Valuate(batches).OnHand
		deltas, err = r.Movements.DailyNetDeltas(ctx, materialID, from, uc.loc)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Movimientos con fecha futura ya están en el stock actual: la caminata parte del último día con delta.
	walkFrom := today
	for _, d := range deltas {
		if d.Day.After(walkFrom) {
			walkFrom = d.Day
		}
	}
	points := domaininv.ReconstructBalances(current, deltas, from, walkFrom)
	for len(points) > 0 && points[len(points)-1].Day.After(to) {
		points = points[:len(points)-1]
	}

	uc.log.Debug().
		Str("material_id", materialID).
		Str("from", from.Format("2006-01-02")).
		Str("to", to.Format("2006-01-02")).
		Int("days_with_movements", len(deltas)).
		Msg("historia de saldos reconstruida")
	return &BalanceHistory{MaterialID: materialID, From: from, To: to, CurrentStock: current, Points: points}, nil
}

// MovementSummary agregados (día, tipo) con SUM(ABS(quantity)) para días en [from, to].
func (uc *BalanceUseCase) MovementSummary(ctx context.Context, companyID, materialID string, from, to time.Time) ([]entity.MovementAggregate, error) {
	from = domaininv.Day(from, uc.loc)
	to = domaininv.Day(to, uc.loc)
	if from.After(to) {
		return nil, domain.NewValidationError("from", "debe ser anterior o igual a to")
	}
	var out []entity.MovementAggregate
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, materialID); err != nil {
			return err
		}
		var err error
		out, err = r.Movements.AggregateByType(ctx, materialID, from, to, uc.loc)
		return err
	})
	return out, err
}

// StockOverview stock y valorización de todos los materiales de la empresa.
func (uc *BalanceUseCase) StockOverview(ctx context.Context, companyID string) ([]repository.StockSummaryRow, error) {
	if strings.TrimSpace(companyID) == "" {
		return nil, domain.NewValidationError("company_id", "es requerido")
	}
	var out []repository.StockSummaryRow
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		var err error
		out, err = r.Batches.StockByCompany(ctx, companyID)
		return err
	})
	return out, err
}

// Batches lotes de costo del material; availableOnly devuelve solo los consumibles en orden FIFO.
func (uc *BalanceUseCase) Batches(ctx context.Context, companyID, materialID string, availableOnly bool, limit, offset int) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, materialID); err != nil {
			return err
		}
		var err error
		if availableOnly {
			out, err = r.Batches.ListAvailable(ctx, materialID)
			return err
		}
		out, err = r.Batches.ListByMaterial(ctx, materialID, limit, offset)
		return err
	})
	return out, err
}

// Movements página de la línea de tiempo del material.
func (uc *BalanceUseCase) Movements(ctx context.Context, companyID string, filter repository.MovementFilter, limit, offset int) ([]*entity.BatchMovement, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	var out []*entity.BatchMovement
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, filter.MaterialID); err != nil {
			return err
		}
		var err error
		out, err = r.Movements.ListByMaterial(ctx, filter, limit, offset)
		return err
	})
	return out, err
}

// StreamMovements recorre el libro del material dentro de una foto consistente llamando fn por fila.
// Si fn devuelve error el recorrido se corta y el error se propaga.
func (uc *BalanceUseCase) StreamMovements(ctx context.Context, companyID string, filter repository.MovementFilter, fn func(*entity.BatchMovement) error) error {
	if err := validateFilter(filter); err != nil {
		return err
	}
	return uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		if _, err := loadMaterial(ctx, r, companyID, filter.MaterialID); err != nil {
			return err
		}
		for m, err := range r.Movements.StreamByMaterial(ctx, filter) {
			if err != nil {
				return err
			}
			if err := fn(m); err != nil {
				return err
			}
		}
		return nil
	})
}

func validateFilter(f repository.MovementFilter) error {
	if strings.TrimSpace(f.MaterialID) == "" {
		return domain.NewValidationError("material_id", "es requerido")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return domain.NewValidationError("from", "debe ser anterior a to")
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return domain.NewValidationError("type", "desconocido: "+string(t))
		}
	}
	return nil
}
