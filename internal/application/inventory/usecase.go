package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// LedgerUseCase operaciones de escritura del libro de lotes: recepción (con descomposición de
// compuestos), consumo FIFO, descomposición de lotes existentes, devoluciones y ajustes.
// Cada operación es una sola transacción; las que descuentan stock toman además el candado
// del material.
type LedgerUseCase struct {
	tx      TxRunner
	locker  MaterialLocker
	metrics Metrics
	log     *logger.Logger
	now     Clock
}

// NewLedgerUseCase construye el caso de uso. metrics y log pueden ser nil.
func NewLedgerUseCase(tx TxRunner, locker MaterialLocker, metrics Metrics, log *logger.Logger) *LedgerUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		tx:      tx,
		locker:  locker,
		metrics: metrics,
		log:     log.Component("ledger"),
		now:     time.Now,
	}
}

// SetClock reemplaza la fuente de fecha (tests y herramientas de carga).
func (uc *LedgerUseCase) SetClock(c Clock) {
	if c != nil {
		uc.now = c
	}
}

// newID genera UUIDv7: el orden lexicográfico sigue el orden de creación.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// loadMaterial obtiene el material y verifica que pertenezca a la empresa (companyID vacío = sin verificación).
func loadMaterial(ctx context.Context, r Repos, companyID, materialID string) (*entity.Material, error) {
	material, err := r.Materials.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	if companyID != "" && material.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return material, nil
}

// materialOfBatch resuelve el material de un lote fuera de la tx de escritura, para tomar su candado.
func (uc *LedgerUseCase) materialOfBatch(ctx context.Context, batchID string) (string, error) {
	var materialID string
	err := uc.tx.ReadSnapshot(ctx, func(r Repos) error {
		b, err := r.Batches.GetByID(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		materialID = b.MaterialID
		return nil
	})
	return materialID, err
}

func (uc *LedgerUseCase) lockMaterial(ctx context.Context, materialID string) (func(), error) {
	unlock, err := uc.locker.Lock(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("lock material %s: %w", materialID, err)
	}
	return unlock, nil
}

// movementSpec datos comunes de un movimiento a registrar.
type movementSpec struct {
	movementType entity.MovementType
	quantity     decimal.Decimal
	reference    entity.Reference
	date         time.Time
	notes        string
	userID       string
}

// applyMovement aplica el delta sobre el lote, persiste el restante y agrega la fila al libro.
// Si algo falla la tx del caller revierte ambos.
func (uc *LedgerUseCase) applyMovement(ctx context.Context, r Repos, b *entity.InventoryBatch, spec movementSpec) (*entity.BatchMovement, error) {
	if err := spec.movementType.CheckQuantity(spec.quantity); err != nil {
		return nil, err
	}
	now := uc.now()
	if err := b.ApplyDelta(spec.quantity, spec.movementType, now); err != nil {
		return nil, err
	}
	if err := r.Batches.UpdateRemaining(ctx, b); err != nil {
		return nil, err
	}
	return uc.appendMovement(ctx, r, b, spec, now)
}

// openBatch crea un lote nuevo junto con su movimiento de entrada (receipt o transfer_in).
// El lote nace con remaining = received, por eso el movimiento no pasa por ApplyDelta.
func (uc *LedgerUseCase) openBatch(ctx context.Context, r Repos, b *entity.InventoryBatch, spec movementSpec) (*entity.BatchMovement, error) {
	spec.quantity = b.QuantityReceived
	if err := spec.movementType.CheckQuantity(spec.quantity); err != nil {
		return nil, err
	}
	if err := r.Batches.Create(ctx, b); err != nil {
		return nil, err
	}
	return uc.appendMovement(ctx, r, b, spec, b.CreatedAt)
}

func (uc *LedgerUseCase) appendMovement(ctx context.Context, r Repos, b *entity.InventoryBatch, spec movementSpec, now time.Time) (*entity.BatchMovement, error) {
	date := spec.date
	if date.IsZero() {
		date = now
	}
	mov := &entity.BatchMovement{
		ID:           newID(),
		BatchID:      b.ID,
		MaterialID:   b.MaterialID,
		MovementType: spec.movementType,
		Quantity:     spec.quantity,
		Reference:    spec.reference,
		MovementDate: date,
		Notes:        spec.notes,
		CreatedAt:    now,
		CreatedBy:    spec.userID,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func validateReference(ref entity.Reference) error {
	if !ref.Type.Valid() {
		return domain.NewValidationError("reference.type", fmt.Sprintf("desconocido: %q", string(ref.Type)))
	}
	if ref.Type == "" && ref.ID != "" {
		return domain.NewValidationError("reference.type", "es requerido cuando hay reference.id")
	}
	return nil
}

// recordMetrics se llama después del commit: un rollback no cuenta movimientos.
func (uc *LedgerUseCase) recordMetrics(movs ...*entity.BatchMovement) {
	for _, m := range movs {
		uc.metrics.MovementRecorded(m.MovementType)
	}
}
