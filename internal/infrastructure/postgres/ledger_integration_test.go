//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventory-ledger/pkg/config"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "no se pudo iniciar PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10}, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d.Add(12 * time.Hour)
}

func TestLedger_PostgresEscenarioEnero(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)

	now := day("2025-01-12")
	clock := func() time.Time { return now }
	ledger := appinv.NewLedgerUseCase(tx, lock.NewMemoryLocker(), nil, nil)
	ledger.SetClock(clock)
	balance := appinv.NewBalanceUseCase(tx, time.UTC, nil)
	balance.SetClock(clock)

	materialID := uuid.Must(uuid.NewV7()).String()
	require.NoError(t, tx.Run(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{
			ID: materialID, CompanyID: "c-1", Code: "ACE-01", Name: "Aceite", Unit: "l",
			CreatedAt: now, UpdatedAt: now,
		})
	}))

	for _, rc := range []struct{ qty, cost, date string }{{"100", "5", "2025-01-01"}, {"50", "6", "2025-01-05"}} {
		_, err := ledger.Receive(ctx, appinv.ReceiveInput{
			CompanyID: "c-1", MaterialID: materialID, Quantity: dec(rc.qty), UnitCost: dec(rc.cost), PurchaseDate: day(rc.date),
		})
		require.NoError(t, err)
	}

	res, err := ledger.Consume(ctx, appinv.ConsumeInput{
		CompanyID: "c-1", MaterialID: materialID, Quantity: dec("120"), MovementDate: day("2025-01-10"),
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "5.1667", res.WeightedCost.Round(4).String())

	stock, err := balance.CurrentStock(ctx, "c-1", materialID)
	require.NoError(t, err)
	assert.True(t, stock.OnHand.Equal(dec("30")))

	hist, err := balance.ReconstructBalance(ctx, "c-1", materialID, day("2024-12-31"), day("2025-01-12"))
	require.NoError(t, err)
	got := map[string]decimal.Decimal{}
	for _, p := range hist.Points {
		got[p.Day.Format(time.DateOnly)] = p.Stock
	}
	assert.True(t, got["2024-12-31"].IsZero())
	assert.True(t, got["2025-01-06"].Equal(dec("150")))
	assert.True(t, got["2025-01-12"].Equal(dec("30")))

	_, err = ledger.Consume(ctx, appinv.ConsumeInput{CompanyID: "c-1", MaterialID: materialID, Quantity: dec("31")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	report, err := balance.Reconcile(ctx, "c-1", materialID)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 4, report.Movements)

	summary, err := balance.MovementSummary(ctx, "c-1", materialID, day("2025-01-01"), day("2025-01-10"))
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, entity.MovementSale, summary[2].MovementType)
	assert.Equal(t, 2, summary[2].Count)
}

func TestLedger_PostgresLibroSoloInsercion(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)
	ledger := appinv.NewLedgerUseCase(tx, lock.NewMemoryLocker(), nil, nil)

	materialID := uuid.Must(uuid.NewV7()).String()
	now := time.Now()
	require.NoError(t, tx.Run(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{ID: materialID, CompanyID: "c-1", Code: "X", Name: "X", Unit: "und", CreatedAt: now, UpdatedAt: now})
	}))
	res, err := ledger.Receive(ctx, appinv.ReceiveInput{CompanyID: "c-1", MaterialID: materialID, Quantity: dec("3"), UnitCost: dec("1")})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE batch_movements SET quantity = 99 WHERE id = $1`, res.Batches[0].Movement.ID)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM batch_movements WHERE id = $1`, res.Batches[0].Movement.ID)
	assert.Error(t, err)

	// escribir dentro de una foto de solo lectura falla
	err = tx.ReadSnapshot(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{ID: uuid.NewString(), CompanyID: "c-1", Code: "Y", Name: "Y", Unit: "und", CreatedAt: now, UpdatedAt: now})
	})
	assert.Error(t, err)
}
