package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.LedgerUseCase
	Overview    *inventory.StockOverviewUseCase
	Access      *inventory.AccessChecker
	Idempotency ports.IdempotencyStore // nil = sin soporte de Idempotency-Key
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventory (protegido). Lecturas para cualquier usuario del salón; mutaciones solo roles de negocio.
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Overview, deps.Access)
	business := RequireRole(BusinessRoles...)
	idempotent := Idempotency(deps.Idempotency, deps.Log)

	invGroup.Post("/adjustments", business, idempotent, inventoryHandler.AdjustStock)
	invGroup.Post("/transfers", business, idempotent, inventoryHandler.TransferStock)
	invGroup.Post("/transfers/batch", business, idempotent, inventoryHandler.TransferStockBatch)
	invGroup.Get("/stock-levels/:productId/:locationId", inventoryHandler.GetStockLevel)
	invGroup.Get("/products/:productId/movements", inventoryHandler.ListProductMovements)
	invGroup.Get("/products/:productId/reconciliation", business, inventoryHandler.Reconcile)
	invGroup.Get("/locations/:locationId/movements", inventoryHandler.ListLocationMovements)
	invGroup.Get("/locations/:locationId/stock", inventoryHandler.StockByLocation)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)
}
