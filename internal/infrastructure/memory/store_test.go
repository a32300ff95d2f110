package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Run(ctx, func(r appinv.Repos) error {
		require.NoError(t, r.Materials.Create(ctx, &entity.Material{ID: "m-1", CompanyID: "c-1", Code: "ACE", Name: "Aceite", Unit: "l"}))
		for i, id := range []string{"b2", "b1"} {
			b := &entity.InventoryBatch{
				ID: id, MaterialID: "m-1", BatchNumber: id,
				UnitCost:          decimal.NewFromInt(5),
				QuantityReceived:  decimal.NewFromInt(10),
				RemainingQuantity: decimal.NewFromInt(10),
				PurchaseDate:      t0.AddDate(0, 0, 1-i),
			}
			require.NoError(t, r.Batches.Create(ctx, b))
			require.NoError(t, r.Movements.Create(ctx, &entity.BatchMovement{
				ID: "mv-" + id, BatchID: id, MaterialID: "m-1",
				MovementType: entity.MovementReceipt, Quantity: decimal.NewFromInt(10),
				MovementDate: b.PurchaseDate,
			}))
		}
		return nil
	}))
}

func TestStore_RollbackDescartaCambios(t *testing.T) {
	s := memory.New()
	seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(r appinv.Repos) error {
		b, err := r.Batches.GetByIDForUpdate(ctx, "b1")
		require.NoError(t, err)
		b.RemainingQuantity = decimal.Zero
		b.IsDepleted = true
		require.NoError(t, r.Batches.UpdateRemaining(ctx, b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.ReadSnapshot(ctx, func(r appinv.Repos) error {
		b, err := r.Batches.GetByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "10", b.RemainingQuantity.String())
		assert.False(t, b.IsDepleted)
		return nil
	}))
}

func TestStore_SnapshotNoVeEscriturasPosteriores(t *testing.T) {
	s := memory.New()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.ReadSnapshot(ctx, func(r appinv.Repos) error {
		require.NoError(t, s.Run(ctx, func(w appinv.Repos) error {
			b, _ := w.Batches.GetByID(ctx, "b1")
			b.RemainingQuantity = decimal.NewFromInt(3)
			return w.Batches.UpdateRemaining(ctx, b)
		}))
		b, err := r.Batches.GetByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "10", b.RemainingQuantity.String(), "la foto es estable durante la lectura")
		return nil
	}))
}

func TestStore_SnapshotEsSoloLectura(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	err := s.ReadSnapshot(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{ID: "x"})
	})
	assert.ErrorIs(t, err, memory.ErrReadOnly)
}

func TestStore_ListAvailableEnOrdenFIFO(t *testing.T) {
	s := memory.New()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.ReadSnapshot(ctx, func(r appinv.Repos) error {
		list, err := r.Batches.ListAvailable(ctx, "m-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b1", list[0].ID, "b1 tiene la fecha de compra más antigua")
		assert.Equal(t, "b2", list[1].ID)
		return nil
	}))
}

func TestStore_MovimientosFiltradosYOrdenados(t *testing.T) {
	s := memory.New()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.ReadSnapshot(ctx, func(r appinv.Repos) error {
		desc, err := r.Movements.ListByMaterial(ctx, repository.MovementFilter{MaterialID: "m-1"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, desc, 2)
		assert.Equal(t, "mv-b2", desc[0].ID)

		to := t0.AddDate(0, 0, 1)
		var ids []string
		for m, err := range r.Movements.StreamByMaterial(ctx, repository.MovementFilter{MaterialID: "m-1", To: &to, Ascending: true}) {
			require.NoError(t, err)
			ids = append(ids, m.ID)
		}
		assert.Equal(t, []string{"mv-b1"}, ids, "To es exclusivo")
		return nil
	}))
}

func TestStore_CodigoDuplicadoPorEmpresa(t *testing.T) {
	s := memory.New()
	seed(t, s)
	ctx := context.Background()
	err := s.Run(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{ID: "m-2", CompanyID: "c-1", Code: "ACE"})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = s.Run(ctx, func(r appinv.Repos) error {
		return r.Materials.Create(ctx, &entity.Material{ID: "m-3", CompanyID: "c-2", Code: "ACE"})
	})
	assert.NoError(t, err, "el código es único por empresa")
}
