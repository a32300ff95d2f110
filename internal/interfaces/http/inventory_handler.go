package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// defaultHistoryDays ventana de balance-history cuando no se envía from.
const defaultHistoryDays = 30

// InventoryHandler maneja las peticiones HTTP del libro de lotes (protegido).
type InventoryHandler struct {
	ledger  *inventory.LedgerUseCase
	balance *inventory.BalanceUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, balance *inventory.BalanceUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, balance: balance}
}

// Receive godoc
// @Summary      Registrar recepción de material
// @Description  Crea un lote de costo y su movimiento receipt. Si el material es compuesto se reparte entre sus componentes activos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "material_id, quantity, unit_cost"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.ReceiveFromRequest(c.UserContext(), companyID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Consume godoc
// @Summary      Consumir stock en orden FIFO
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "material_id, quantity (positiva), movement_type"
// @Success      201   {object}  dto.ConsumeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.ConsumeFromRequest(c.UserContext(), companyID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Return godoc
// @Summary      Devolver cantidad a un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.BatchMovementRequest  true  "quantity positiva"
// @Success      201   {object}  dto.BatchMovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/returns [post]
func (h *InventoryHandler) Return(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.BatchMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.ReturnFromRequest(c.UserContext(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Adjust godoc
// @Summary      Ajustar el restante de un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.BatchMovementRequest  true  "quantity firmada"
// @Success      201   {object}  dto.BatchMovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.BatchMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.AdjustFromRequest(c.UserContext(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Decompose godoc
// @Summary      Descomponer un lote compuesto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote compuesto"
// @Success      201   {object}  dto.DecomposeResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/decompose [post]
func (h *InventoryHandler) Decompose(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DecomposeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.ledger.DecomposeFromRequest(c.UserContext(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Batches godoc
// @Summary      Lotes de costo de un material
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID del material"
// @Param        available  query  bool    false  "Solo lotes consumibles en orden FIFO"
// @Success      200  {object}  dto.BatchListResponse
// @Router       /api/inventory/materials/{id}/batches [get]
func (h *InventoryHandler) Batches(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page := pageParams(c)
	available := c.QueryBool("available", false)
	list, err := h.balance.Batches(c.UserContext(), companyID, c.Params("id"), available, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.BatchListResponse{Items: make([]dto.BatchResponse, 0, len(list)), Page: page.Response()}
	for _, b := range list {
		out.Items = append(out.Items, inventory.ToBatchResponse(b))
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Línea de tiempo de movimientos de un material
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del material"
// @Param        from    query  string  false  "YYYY-MM-DD inclusive"
// @Param        to      query  string  false  "YYYY-MM-DD inclusive"
// @Param        type    query  string  false  "Tipos separados por coma"
// @Param        order   query  string  false  "asc | desc (defecto)"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/materials/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	filter := repository.MovementFilter{MaterialID: c.Params("id"), Ascending: strings.EqualFold(c.Query("order"), "asc")}
	loc := h.balance.Location()
	if s := c.Query("from"); s != "" {
		from, err := parseDay(s, loc, "from")
		if err != nil {
			return writeError(c, err)
		}
		filter.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseDay(s, loc, "to")
		if err != nil {
			return writeError(c, err)
		}
		// to inclusivo en la API; el filtro es exclusivo
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	for _, s := range strings.Split(c.Query("type"), ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		t, err := entity.ParseMovementType(s)
		if err != nil {
			return writeError(c, err)
		}
		filter.Types = append(filter.Types, t)
	}

	page := pageParams(c)
	list, err := h.balance.Movements(c.UserContext(), companyID, filter, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{Items: make([]dto.MovementResponse, 0, len(list)), Page: page.Response()}
	for _, m := range list {
		out.Items = append(out.Items, inventory.ToMovementResponse(m))
	}
	return c.JSON(out)
}

// Stock godoc
// @Summary      Stock actual de un material
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del material"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/inventory/materials/{id}/stock [get]
func (h *InventoryHandler) Stock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	res, err := h.balance.CurrentStock(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockResponse{
		MaterialID:  res.MaterialID,
		OnHand:      res.OnHand,
		Value:       res.Value,
		AverageCost: res.AverageCost,
		OpenBatches: res.OpenBatches,
		AsOf:        res.AsOf,
	})
}

// BalanceHistory godoc
// @Summary      Saldos diarios reconstruidos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del material"
// @Param        from  query  string  false  "YYYY-MM-DD (defecto: hoy - 30 días)"
// @Param        to    query  string  false  "YYYY-MM-DD (defecto: hoy)"
// @Success      200  {object}  dto.BalanceHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/materials/{id}/balance-history [get]
func (h *InventoryHandler) BalanceHistory(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, to, err := h.dayRange(c)
	if err != nil {
		return writeError(c, err)
	}
	hist, err := h.balance.ReconstructBalance(c.UserContext(), companyID, c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBalanceHistoryResponse(hist))
}

// MovementSummary godoc
// @Summary      Cantidades por día y tipo de movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del material"
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}  dto.MovementSummaryRow
// @Router       /api/inventory/materials/{id}/movement-summary [get]
func (h *InventoryHandler) MovementSummary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, to, err := h.dayRange(c)
	if err != nil {
		return writeError(c, err)
	}
	aggs, err := h.balance.MovementSummary(c.UserContext(), companyID, c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToMovementSummary(aggs))
}

// StockOverview godoc
// @Summary      Stock y valorización de todos los materiales
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockOverviewRow
// @Router       /api/inventory/stock-overview [get]
func (h *InventoryHandler) StockOverview(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	rows, err := h.balance.StockOverview(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToStockOverview(rows))
}

// Reconcile godoc
// @Summary      Verificar lotes contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del material"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/inventory/materials/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	report, err := h.balance.Reconcile(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToReconcileResponse(report))
}

// dayRange lee from/to (YYYY-MM-DD) con valores por defecto [hoy-30, hoy].
func (h *InventoryHandler) dayRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	loc := h.balance.Location()
	to := h.balance.Today()
	if s := c.Query("to"); s != "" {
		d, err := parseDay(s, loc, "to")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d
	}
	from := to.AddDate(0, 0, -defaultHistoryDays)
	if s := c.Query("from"); s != "" {
		d, err := parseDay(s, loc, "from")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}
	return from, to, nil
}

func parseDay(s string, loc *time.Location, field string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "formato esperado YYYY-MM-DD")
	}
	return d, nil
}

func pageParams(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}.Normalize()
}
