package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger   *inventory.LedgerUseCase
	Balance  *inventory.BalanceUseCase
	Catalog  *usecase.MaterialUseCase
	Verifier *jwt.Verifier
}

// FiberConfig configuración del servidor. Immutable es obligatorio: los ids de c.Params
// terminan guardados en el almacenamiento y fasthttp reutiliza sus buffers entre peticiones.
func FiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:      appName,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	}
}

// Router registra las rutas de la API. Todo /api exige Bearer Token; la lectura queda
// abierta a cualquier rol y la escritura se restringe por rol.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.Verifier))

	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	consumers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)

	// Libro de lotes
	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.Ledger, deps.Balance)
	inv.Post("/receipts", writers, h.Receive)
	inv.Post("/consumptions", consumers, h.Consume)
	inv.Post("/batches/:id/returns", writers, h.Return)
	inv.Post("/batches/:id/adjustments", writers, h.Adjust)
	inv.Post("/batches/:id/decompose", writers, h.Decompose)
	inv.Get("/materials/:id/batches", h.Batches)
	inv.Get("/materials/:id/movements", h.Movements)
	inv.Get("/materials/:id/stock", h.Stock)
	inv.Get("/materials/:id/balance-history", h.BalanceHistory)
	inv.Get("/materials/:id/movement-summary", h.MovementSummary)
	inv.Get("/materials/:id/reconcile", h.Reconcile)
	inv.Get("/stock-overview", h.StockOverview)

	// Catálogo
	materials := protected.Group("/materials")
	mh := NewMaterialHandler(deps.Catalog)
	materials.Post("/", writers, mh.Create)
	materials.Get("/", mh.List)
	materials.Get("/:id", mh.Get)
	materials.Put("/:id", writers, mh.Update)
	materials.Post("/:id/compositions", writers, mh.CreateComposition)
	materials.Get("/:id/compositions", mh.ListCompositions)
	materials.Delete("/:id/compositions/:compositionId", writers, mh.DeactivateComposition)
}
