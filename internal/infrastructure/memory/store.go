package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// ErrReadOnly escritura dentro de ReadSnapshot.
var ErrReadOnly = errors.New("memory: escritura en transacción de solo lectura")

var _ appinv.TxRunner = (*Store)(nil)

// state foto completa del almacenamiento. Una vez confirmada no se modifica: cada tx de
// escritura trabaja sobre una copia y la publica al confirmar.
type state struct {
	materials    map[string]entity.Material
	batches      map[string]entity.InventoryBatch
	movements    []entity.BatchMovement // orden de inserción
	compositions map[string]entity.MaterialComposition
}

func newState() *state {
	return &state{
		materials:    make(map[string]entity.Material),
		batches:      make(map[string]entity.InventoryBatch),
		compositions: make(map[string]entity.MaterialComposition),
	}
}

func (s *state) clone() *state {
	return &state{
		materials:    maps.Clone(s.materials),
		batches:      maps.Clone(s.batches),
		movements:    slices.Clone(s.movements),
		compositions: maps.Clone(s.compositions),
	}
}

// Store implementación en memoria de los repositorios y del TxRunner del ledger.
// Las escrituras se serializan; las lecturas ven la última foto confirmada.
type Store struct {
	writeMu sync.Mutex   // una tx de escritura a la vez
	mu      sync.RWMutex // protege st
	st      *state
}

// New crea un Store vacío.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(r appinv.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	work := s.snapshot().clone()
	if err := fn(reposFor(work, true)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

// ReadSnapshot ejecuta fn sobre la última foto confirmada; las escrituras devuelven ErrReadOnly.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(r appinv.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(reposFor(s.snapshot(), false))
}

func reposFor(st *state, writable bool) appinv.Repos {
	return appinv.Repos{
		Materials:    &materialRepo{st: st, rw: writable},
		Batches:      &batchRepo{st: st, rw: writable},
		Movements:    &movementRepo{st: st, rw: writable},
		Compositions: &compositionRepo{st: st, rw: writable},
	}
}

// page aplica limit/offset; limit <= 0 devuelve todo desde offset.
func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
