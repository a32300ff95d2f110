package lock

import (
	"context"
	"sync"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

var _ appinv.MaterialLocker = (*MemoryLocker)(nil)

// MemoryLocker candado por material dentro del proceso. Cada clave vive mientras haya
// alguien esperando o reteniéndola.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker construye el candado en proceso.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: make(map[string]*keyLock)}
}

// Lock espera el candado de materialID o hasta que ctx termine.
func (l *MemoryLocker) Lock(ctx context.Context, materialID string) (func(), error) {
	l.mu.Lock()
	k, ok := l.keys[materialID]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.keys[materialID] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(materialID, k)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.ch
			l.release(materialID, k)
		})
	}, nil
}

func (l *MemoryLocker) release(materialID string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.keys, materialID)
	}
}

// Len claves activas (retenidas o con espera).
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
