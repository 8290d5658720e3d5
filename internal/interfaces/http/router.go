package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName string
	Movements   MovementRecorder
	Queries     InventoryReader
	ProductUC   ProductService
	WarehouseUC WarehouseService
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	// Gatherer expone /metrics; nil = sin endpoint de métricas.
	Gatherer prometheus.Gatherer
}

var (
	writerRoles  = []string{entity.RoleAdmin, entity.RoleManager, entity.RoleClerk}
	catalogRoles = []string{entity.RoleAdmin, entity.RoleManager}
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.Auth))

	// Inventario: movimientos, saldos y kardex
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Movements, deps.Queries)
	invGroup.Post("/movements", RequireRole(writerRoles...), RateLimit(deps.RateLimit), inventoryHandler.RegisterMovement)
	invGroup.Get("/movements/:id", inventoryHandler.GetMovement)
	invGroup.Get("/balances", inventoryHandler.ListBalances)
	invGroup.Get("/kardex/:product_id", inventoryHandler.Kardex)
	invGroup.Get("/kardex/:product_id/pdf", inventoryHandler.KardexPDF)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(catalogRoles...), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(catalogRoles...), productHandler.Update)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", RequireRole(catalogRoles...), warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", RequireRole(catalogRoles...), warehouseHandler.Update)
}
