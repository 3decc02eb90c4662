package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC       *usecase.ProductUseCase
	LocationUC      *location.LocationUseCase
	Engine          *inventory.MovementEngine
	StockQuery      *inventory.StockQueryService
	SlipRenderer    inventory.TransferSlipRenderer
	JWTSecret       string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
//
// Permisos:
//   - admin: todo.
//   - bodeguero: recepciones, traslados y consumos; lectura de catálogo y ubicaciones.
//   - vendedor: consumos y consultas.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	staff := RequireRole(RoleAdmin, RoleBodeguero)
	adminOnly := RequireRole(RoleAdmin)
	limited := RateLimit(deps.RateLimitMax, deps.RateLimitWindow)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/sku/:sku", anyRole, productHandler.GetBySKU)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Post("/", adminOnly, productHandler.Create)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Deactivate)

	// Ubicaciones: bodegas → secciones → lotes
	locationHandler := NewLocationHandler(deps.LocationUC)
	warehouses := api.Group("/warehouses")
	warehouses.Get("/", anyRole, locationHandler.ListWarehouses)
	warehouses.Get("/:id", anyRole, locationHandler.GetWarehouse)
	warehouses.Get("/:id/sections", anyRole, locationHandler.ListSections)
	warehouses.Post("/", adminOnly, locationHandler.CreateWarehouse)
	warehouses.Put("/:id", adminOnly, locationHandler.UpdateWarehouse)
	warehouses.Delete("/:id", adminOnly, locationHandler.DeleteWarehouse)

	sections := api.Group("/sections")
	sections.Get("/:id", anyRole, locationHandler.GetSection)
	sections.Get("/:id/lots", anyRole, locationHandler.ListLots)
	sections.Post("/", adminOnly, locationHandler.CreateSection)
	sections.Put("/:id", adminOnly, locationHandler.UpdateSection)
	sections.Delete("/:id", adminOnly, locationHandler.DeleteSection)

	lots := api.Group("/lots")
	lots.Get("/:id", anyRole, locationHandler.GetLot)
	lots.Post("/", adminOnly, locationHandler.CreateLot)
	lots.Put("/:id", adminOnly, locationHandler.UpdateLot)
	lots.Post("/:id/activate", adminOnly, locationHandler.ActivateLot)
	lots.Post("/:id/deactivate", adminOnly, locationHandler.DeactivateLot)
	lots.Delete("/:id", adminOnly, locationHandler.DeleteLot)

	// Inventory: movimientos y consultas
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.StockQuery, deps.SlipRenderer)
	inv.Post("/receipts", staff, limited, inventoryHandler.Receive)
	inv.Post("/consumptions", anyRole, limited, inventoryHandler.Consume)
	inv.Post("/transfers", staff, limited, inventoryHandler.Transfer)
	inv.Post("/adjustments", adminOnly, limited, inventoryHandler.Adjust)

	inv.Get("/movements", staff, inventoryHandler.Movements)
	inv.Get("/transfers/:reference", staff, inventoryHandler.TransferLegs)
	inv.Get("/transfers/:reference/slip", staff, inventoryHandler.TransferSlip)

	inv.Get("/products/:id/stock", anyRole, inventoryHandler.StockOnHand)
	inv.Get("/products/:id/locations", anyRole, inventoryHandler.StockByLocation)
	inv.Get("/products/:id/reconcile", adminOnly, inventoryHandler.Reconcile)
	inv.Get("/warehouses/:id/products", anyRole, inventoryHandler.ProductsWithStock)
	inv.Get("/low-stock", anyRole, inventoryHandler.LowStock)
	inv.Get("/over-stock", anyRole, inventoryHandler.OverStock)
	inv.Get("/replenishment", staff, inventoryHandler.Replenishment)
}
