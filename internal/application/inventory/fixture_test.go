package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

const company = "c-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

// recorder implementación de Metrics para verificar los conteos.
type recorder struct {
	mu           sync.Mutex
	movements    map[entity.MovementType]int
	insufficient int
	fallbacks    int
	allocations  int
}

func (r *recorder) MovementRecorded(t entity.MovementType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.movements == nil {
		r.movements = make(map[entity.MovementType]int)
	}
	r.movements[t]++
}

func (r *recorder) InsufficientStock() { r.mu.Lock(); r.insufficient++; r.mu.Unlock() }
func (r *recorder) CompositeFallback() { r.mu.Lock(); r.fallbacks++; r.mu.Unlock() }
func (r *recorder) ObserveAllocation(time.Duration) {
	r.mu.Lock()
	r.allocations++
	r.mu.Unlock()
}

type fixture struct {
	store   *memory.Store
	ledger  *appinv.LedgerUseCase
	balance *appinv.BalanceUseCase
	metrics *recorder
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), metrics: &recorder{}, now: date("2025-01-12")}
	clock := func() time.Time { return f.now }
	f.ledger = appinv.NewLedgerUseCase(f.store, lock.NewMemoryLocker(), f.metrics, nil)
	f.ledger.SetClock(clock)
	f.balance = appinv.NewBalanceUseCase(f.store, time.UTC, nil)
	f.balance.SetClock(clock)
	return f
}

func (f *fixture) material(t *testing.T, id string, composite bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Run(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{
			ID: id, CompanyID: company, Code: "COD-" + id, Name: id, Unit: "kg",
			IsComposite: composite, CreatedAt: f.now, UpdatedAt: f.now,
		})
	}))
}

func (f *fixture) composition(t *testing.T, id, composite, component, typ, ratio string, active bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Run(ctx, func(r appinv.Repos) error {
		return r.Compositions.Create(ctx, &entity.MaterialComposition{
			ID: id, CompositeMaterialID: composite, ComponentMaterialID: component,
			ComponentType: typ, Ratio: dec(ratio), IsActive: active, CreatedAt: f.now,
		})
	}))
}

func (f *fixture) receive(t *testing.T, materialID, qty, cost, day string) *appinv.ReceiveResult {
	t.Helper()
	res, err := f.ledger.Receive(context.Background(), appinv.ReceiveInput{
		CompanyID: company, UserID: "u-1", MaterialID: materialID,
		Quantity: dec(qty), UnitCost: dec(cost), PurchaseDate: date(day),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) batches(t *testing.T, materialID string) []*entity.InventoryBatch {
	t.Helper()
	list, err := f.balance.Batches(context.Background(), company, materialID, false, 0, 0)
	require.NoError(t, err)
	return list
}

func (f *fixture) movements(t *testing.T, materialID string) []*entity.BatchMovement {
	t.Helper()
	list, err := f.balance.Movements(context.Background(), company, repository.MovementFilter{MaterialID: materialID, Ascending: true}, 0, 0)
	require.NoError(t, err)
	return list
}

var errInjected = errors.New("fallo inyectado")

// failingRunner envuelve el Store y hace fallar la n-ésima creación de lote dentro de Run.
type failingRunner struct {
	*memory.Store
	failOn int
}

func (fr *failingRunner) Run(ctx context.Context, fn func(r appinv.Repos) error) error {
	return fr.Store.Run(ctx, func(r appinv.Repos) error {
		r.Batches = &failingBatches{BatchRepository: r.Batches, failOn: fr.failOn}
		return fn(r)
	})
}

type failingBatches struct {
	repository.BatchRepository
	failOn int
	calls  int
}

func (b *failingBatches) Create(ctx context.Context, batch *entity.InventoryBatch) error {
	b.calls++
	if b.calls == b.failOn {
		return errInjected
	}
	return b.BatchRepository.Create(ctx, batch)
}
