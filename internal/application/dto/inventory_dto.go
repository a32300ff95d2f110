package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceDTO documento de negocio que causó el movimiento (no se valida su existencia).
type ReferenceDTO struct {
	Type string `json:"type,omitempty"` // sales_order, purchase_order, wastage_record, manual_adjustment, transfer, return_note
	ID   string `json:"id,omitempty"`
}

// ReceiveRequest body para POST /api/inventory/receipts.
type ReceiveRequest struct {
	MaterialID      string          `json:"material_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	PurchaseOrderID string          `json:"purchase_order_id,omitempty"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	PurchaseDate    *time.Time      `json:"purchase_date,omitempty"`
	Reference       ReferenceDTO    `json:"reference"`
	Notes           string          `json:"notes,omitempty"`
}

// ConsumeRequest body para POST /api/inventory/consumptions (FIFO).
type ConsumeRequest struct {
	MaterialID   string          `json:"material_id"`
	Quantity     decimal.Decimal `json:"quantity"`      // positiva; se registra negativa
	MovementType string          `json:"movement_type"` // sale (defecto), wastage, transfer_out, adjustment
	Reference    ReferenceDTO    `json:"reference"`
	MovementDate *time.Time      `json:"movement_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// BatchMovementRequest body para devoluciones y ajustes sobre un lote.
// En ajustes Quantity es firmada; en devoluciones debe ser positiva.
type BatchMovementRequest struct {
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    ReferenceDTO    `json:"reference"`
	MovementDate *time.Time      `json:"movement_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// DecomposeRequest body opcional para POST /api/inventory/batches/:id/decompose.
type DecomposeRequest struct {
	Reference    ReferenceDTO `json:"reference"`
	MovementDate *time.Time   `json:"movement_date,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// BatchResponse salida de un lote de costo.
type BatchResponse struct {
	ID                string          `json:"id"`
	MaterialID        string          `json:"material_id"`
	SupplierID        string          `json:"supplier_id,omitempty"`
	PurchaseOrderID   string          `json:"purchase_order_id,omitempty"`
	ParentBatchID     string          `json:"parent_batch_id,omitempty"`
	BatchNumber       string          `json:"batch_number"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	IsDepleted        bool            `json:"is_depleted"`
	PurchaseDate      time.Time       `json:"purchase_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MovementResponse salida de una fila del libro de movimientos.
type MovementResponse struct {
	ID            string          `json:"id"`
	BatchID       string          `json:"batch_id"`
	MaterialID    string          `json:"material_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	MovementDate  time.Time       `json:"movement_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// ReceivedBatchResponse lote creado por una recepción y su movimiento.
type ReceivedBatchResponse struct {
	Batch      BatchResponse `json:"batch"`
	MovementID string        `json:"movement_id"`
}

// ReceiveResponse resultado de una recepción (posiblemente descompuesta).
type ReceiveResponse struct {
	MaterialID string                  `json:"material_id"`
	Decomposed bool                    `json:"decomposed"`
	Warning    string                  `json:"warning,omitempty"`
	Batches    []ReceivedBatchResponse `json:"batches"`
}

// ConsumedLineResponse porción consumida de un lote.
type ConsumedLineResponse struct {
	BatchID        string          `json:"batch_id"`
	BatchNumber    string          `json:"batch_number"`
	MovementID     string          `json:"movement_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
	Depleted       bool            `json:"depleted"`
}

// ConsumeResponse resultado de un consumo FIFO.
type ConsumeResponse struct {
	MaterialID   string                 `json:"material_id"`
	MovementType string                 `json:"movement_type"`
	Quantity     decimal.Decimal        `json:"quantity"`
	TotalCost    decimal.Decimal        `json:"total_cost"`
	WeightedCost decimal.Decimal        `json:"weighted_cost"`
	Lines        []ConsumedLineResponse `json:"lines"`
}

// BatchMovementResponse resultado de una devolución o ajuste.
type BatchMovementResponse struct {
	Batch    BatchResponse    `json:"batch"`
	Movement MovementResponse `json:"movement"`
}

// DecomposeResponse resultado de descomponer un lote compuesto existente.
type DecomposeResponse struct {
	SourceBatch   BatchResponse           `json:"source_batch"`
	TransferOutID string                  `json:"transfer_out_id"`
	Components    []ReceivedBatchResponse `json:"components"`
}

// StockResponse stock actual de un material derivado de sus lotes.
type StockResponse struct {
	MaterialID  string          `json:"material_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Value       decimal.Decimal `json:"value"`
	AverageCost decimal.Decimal `json:"average_cost"`
	OpenBatches int             `json:"open_batches"`
	AsOf        time.Time       `json:"as_of"`
}

// BalancePointResponse saldo de cierre de un día.
type BalancePointResponse struct {
	Date  string          `json:"date"` // YYYY-MM-DD en la zona del ledger
	Stock decimal.Decimal `json:"stock"`
}

// BalanceHistoryResponse serie reconstruida para GET /materials/:id/balance-history.
type BalanceHistoryResponse struct {
	MaterialID   string                 `json:"material_id"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	CurrentStock decimal.Decimal        `json:"current_stock"`
	Points       []BalancePointResponse `json:"points"`
}

// MovementSummaryRow fila (fecha, tipo) con SUM(ABS(quantity)).
type MovementSummaryRow struct {
	Date         string          `json:"date"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Count        int             `json:"count"`
}

// StockOverviewRow stock y valorización por material.
type StockOverviewRow struct {
	MaterialID  string          `json:"material_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Value       decimal.Decimal `json:"value"`
	OpenBatches int             `json:"open_batches"`
}

// BatchMismatchResponse lote cuyo restante no coincide con la suma del libro.
type BatchMismatchResponse struct {
	BatchID   string          `json:"batch_id"`
	Remaining decimal.Decimal `json:"remaining"`
	LedgerSum decimal.Decimal `json:"ledger_sum"`
}

// ReconcileResponse resultado de GET /materials/:id/reconcile.
type ReconcileResponse struct {
	MaterialID string                  `json:"material_id"`
	Batches    int                     `json:"batches"`
	Movements  int                     `json:"movements"`
	Consistent bool                    `json:"consistent"`
	Mismatches []BatchMismatchResponse `json:"mismatches"`
}

// BatchListResponse lotes de costo de un material.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// MovementListResponse página de la línea de tiempo.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
