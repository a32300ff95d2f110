package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Adaptadores de request HTTP a las entradas de los casos de uso.

func toReference(in dto.ReferenceDTO) entity.Reference {
	return entity.Reference{Type: entity.ReferenceType(in.Type), ID: in.ID}
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ReceiveFromRequest adapta dto.ReceiveRequest a Receive.
func (uc *LedgerUseCase) ReceiveFromRequest(ctx context.Context, companyID, userID string, in dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	res, err := uc.Receive(ctx, ReceiveInput{
		CompanyID:       companyID,
		UserID:          userID,
		MaterialID:      in.MaterialID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		SupplierID:      in.SupplierID,
		PurchaseOrderID: in.PurchaseOrderID,
		BatchNumber:     in.BatchNumber,
		PurchaseDate:    timeOrZero(in.PurchaseDate),
		Reference:       toReference(in.Reference),
		Notes:           in.Notes,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ReceiveResponse{
		MaterialID: res.MaterialID,
		Decomposed: res.Decomposed,
		Warning:    res.Warning,
		Batches:    toReceivedBatches(res.Batches),
	}
	return out, nil
}

// ConsumeFromRequest adapta dto.ConsumeRequest a Consume. movement_type vacío = sale.
func (uc *LedgerUseCase) ConsumeFromRequest(ctx context.Context, companyID, userID string, in dto.ConsumeRequest) (*dto.ConsumeResponse, error) {
	mt := entity.MovementSale
	if in.MovementType != "" {
		parsed, err := entity.ParseMovementType(in.MovementType)
		if err != nil {
			return nil, err
		}
		mt = parsed
	}
	res, err := uc.Consume(ctx, ConsumeInput{
		CompanyID:    companyID,
		UserID:       userID,
		MaterialID:   in.MaterialID,
		Quantity:     in.Quantity,
		MovementType: mt,
		Reference:    toReference(in.Reference),
		MovementDate: timeOrZero(in.MovementDate),
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ConsumeResponse{
		MaterialID:   res.MaterialID,
		MovementType: string(res.MovementType),
		Quantity:     res.Quantity,
		TotalCost:    res.TotalCost,
		WeightedCost: res.WeightedCost,
		Lines:        make([]dto.ConsumedLineResponse, 0, len(res.Lines)),
	}
	for _, l := range res.Lines {
		out.Lines = append(out.Lines, dto.ConsumedLineResponse{
			BatchID:        l.BatchID,
			BatchNumber:    l.BatchNumber,
			MovementID:     l.MovementID,
			Quantity:       l.Quantity,
			UnitCost:       l.UnitCost,
			RemainingAfter: l.RemainingAfter,
			Depleted:       l.Depleted,
		})
	}
	return out, nil
}

func batchInput(companyID, userID, batchID string, in dto.BatchMovementRequest) BatchMovementInput {
	return BatchMovementInput{
		CompanyID:    companyID,
		UserID:       userID,
		BatchID:      batchID,
		Quantity:     in.Quantity,
		Reference:    toReference(in.Reference),
		MovementDate: timeOrZero(in.MovementDate),
		Notes:        in.Notes,
	}
}

// ReturnFromRequest adapta dto.BatchMovementRequest a ReturnToBatch.
func (uc *LedgerUseCase) ReturnFromRequest(ctx context.Context, companyID, userID, batchID string, in dto.BatchMovementRequest) (*dto.BatchMovementResponse, error) {
	res, err := uc.ReturnToBatch(ctx, batchInput(companyID, userID, batchID, in))
	if err != nil {
		return nil, err
	}
	return &dto.BatchMovementResponse{Batch: ToBatchResponse(res.Batch), Movement: ToMovementResponse(res.Movement)}, nil
}

// AdjustFromRequest adapta dto.BatchMovementRequest a AdjustBatch.
func (uc *LedgerUseCase) AdjustFromRequest(ctx context.Context, companyID, userID, batchID string, in dto.BatchMovementRequest) (*dto.BatchMovementResponse, error) {
	res, err := uc.AdjustBatch(ctx, batchInput(companyID, userID, batchID, in))
	if err != nil {
		return nil, err
	}
	return &dto.BatchMovementResponse{Batch: ToBatchResponse(res.Batch), Movement: ToMovementResponse(res.Movement)}, nil
}

// DecomposeFromRequest adapta dto.DecomposeRequest a DecomposeComposite.
func (uc *LedgerUseCase) DecomposeFromRequest(ctx context.Context, companyID, userID, batchID string, in dto.DecomposeRequest) (*dto.DecomposeResponse, error) {
	res, err := uc.DecomposeComposite(ctx, DecomposeInput{
		CompanyID:    companyID,
		UserID:       userID,
		BatchID:      batchID,
		Reference:    toReference(in.Reference),
		MovementDate: timeOrZero(in.MovementDate),
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &dto.DecomposeResponse{
		SourceBatch:   ToBatchResponse(res.SourceBatch),
		TransferOutID: res.TransferOut.ID,
		Components:    toReceivedBatches(res.Components),
	}, nil
}

func toReceivedBatches(list []ReceivedBatch) []dto.ReceivedBatchResponse {
	out := make([]dto.ReceivedBatchResponse, 0, len(list))
	for _, rb := range list {
		out = append(out, dto.ReceivedBatchResponse{Batch: ToBatchResponse(rb.Batch), MovementID: rb.Movement.ID})
	}
	return out
}

// ToBatchResponse mapea un lote a su DTO.
func ToBatchResponse(b *entity.InventoryBatch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                b.ID,
		MaterialID:        b.MaterialID,
		SupplierID:        b.SupplierID,
		PurchaseOrderID:   b.PurchaseOrderID,
		ParentBatchID:     b.ParentBatchID,
		BatchNumber:       b.BatchNumber,
		UnitCost:          b.UnitCost,
		QuantityReceived:  b.QuantityReceived,
		RemainingQuantity: b.RemainingQuantity,
		IsDepleted:        b.IsDepleted,
		PurchaseDate:      b.PurchaseDate,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// ToMovementResponse mapea una fila del libro a su DTO.
func ToMovementResponse(m *entity.BatchMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		BatchID:       m.BatchID,
		MaterialID:    m.MaterialID,
		MovementType:  string(m.MovementType),
		Quantity:      m.Quantity,
		ReferenceType: string(m.Reference.Type),
		ReferenceID:   m.Reference.ID,
		MovementDate:  m.MovementDate,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToBalanceHistoryResponse mapea la serie reconstruida con fechas YYYY-MM-DD.
func ToBalanceHistoryResponse(h *BalanceHistory) dto.BalanceHistoryResponse {
	out := dto.BalanceHistoryResponse{
		MaterialID:   h.MaterialID,
		From:         h.From.Format(time.DateOnly),
		To:           h.To.Format(time.DateOnly),
		CurrentStock: h.CurrentStock,
		Points:       make([]dto.BalancePointResponse, 0, len(h.Points)),
	}
	for _, p := range h.Points {
		out.Points = append(out.Points, dto.BalancePointResponse{Date: p.Day.Format(time.DateOnly), Stock: p.Stock})
	}
	return out
}

// ToMovementSummary mapea los agregados por (día, tipo).
func ToMovementSummary(aggs []entity.MovementAggregate) []dto.MovementSummaryRow {
	out := make([]dto.MovementSummaryRow, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, dto.MovementSummaryRow{
			Date:         a.Day.Format(time.DateOnly),
			MovementType: string(a.MovementType),
			Quantity:     a.Quantity,
			Count:        a.Count,
		})
	}
	return out
}

// ToStockOverview mapea las filas de stock por material.
func ToStockOverview(rows []repository.StockSummaryRow) []dto.StockOverviewRow {
	out := make([]dto.StockOverviewRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockOverviewRow{
			MaterialID:  r.MaterialID,
			Code:        r.Code,
			Name:        r.Name,
			Unit:        r.Unit,
			OnHand:      r.OnHand,
			Value:       r.Value,
			OpenBatches: r.OpenBatches,
		})
	}
	return out
}

// ToReconcileResponse mapea el reporte de conciliación.
func ToReconcileResponse(r *ReconcileReport) dto.ReconcileResponse {
	out := dto.ReconcileResponse{
		MaterialID: r.MaterialID,
		Batches:    r.Batches,
		Movements:  r.Movements,
		Consistent: r.Consistent(),
		Mismatches: make([]dto.BatchMismatchResponse, 0, len(r.Mismatches)),
	}
	for _, m := range r.Mismatches {
		out.Mismatches = append(out.Mismatches, dto.BatchMismatchResponse{BatchID: m.BatchID, Remaining: m.Remaining, LedgerSum: m.LedgerSum})
	}
	return out
}
