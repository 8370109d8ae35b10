package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/musicstore-pos/internal/application/analytics"
	"github.com/jhoicas/musicstore-pos/internal/application/auth"
	"github.com/jhoicas/musicstore-pos/internal/application/cashregister"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/sales"
	"github.com/jhoicas/musicstore-pos/internal/application/usecase"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	ProductUC      *usecase.ProductUseCase
	CategoryUC     *usecase.CategoryUseCase
	SupplierUC     *usecase.SupplierUseCase
	Ledger         *inventory.LedgerUseCase
	Replenishment  *inventory.ReplenishmentUseCase
	SaleUC         *sales.SaleUseCase
	ReceiptUC      *sales.ReceiptUseCase
	CashRegisterUC *cashregister.CashRegisterUseCase
	ReportUC       *analytics.ReportUseCase
	DashboardUC    *analytics.DashboardUseCase
	JWTSecret      string
	Log            zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	admin := RequireRole(entity.RoleAdmin)
	cashier := RequireRole(entity.RoleAdmin, entity.RoleCajero)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleAlmacen)

	// Auth: login público, alta de usuarios solo ADMIN.
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (Bearer Token + usuario activo)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireActiveUser(deps.UserUC))
	protected.Post("/auth/register", admin, authHandler.Register)

	// Users
	userHandler := NewUserHandler(deps.UserUC, deps.Log)
	protected.Get("/me", userHandler.Me)
	users := protected.Group("/users", admin)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)

	// Catálogo: lectura para todos los roles, escritura solo ADMIN.
	catalogHandler := NewCatalogHandler(deps.CategoryUC, deps.SupplierUC, deps.Log)
	categories := protected.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", admin, catalogHandler.CreateCategory)
	categories.Put("/:id", admin, catalogHandler.UpdateCategory)
	categories.Delete("/:id", admin, catalogHandler.DeleteCategory)

	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", catalogHandler.ListSuppliers)
	suppliers.Get("/:id", catalogHandler.GetSupplier)
	suppliers.Post("/", admin, catalogHandler.CreateSupplier)
	suppliers.Put("/:id", admin, catalogHandler.UpdateSupplier)
	suppliers.Delete("/:id", admin, catalogHandler.DeleteSupplier)

	// Products
	productHandler := NewProductHandler(deps.ProductUC, deps.Ledger, deps.Log)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", admin, productHandler.Create)
	products.Put("/:id", admin, productHandler.Update)
	products.Put("/:id/stock", admin, productHandler.CorrectStock)
	products.Delete("/:id", admin, productHandler.Delete)

	// Inventory
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Replenishment, deps.Log)
	inv := protected.Group("/inventory")
	inv.Post("/movements", warehouse, inventoryHandler.RegisterMovement)
	inv.Get("/movements", warehouse, inventoryHandler.ListMovements)
	inv.Get("/products/:id/movements", warehouse, inventoryHandler.ProductHistory)
	inv.Get("/products/:id/audit", admin, inventoryHandler.Audit)
	inv.Get("/low-stock", warehouse, inventoryHandler.LowStock)

	// Cash registers
	registerHandler := NewCashRegisterHandler(deps.CashRegisterUC, deps.Log)
	registers := protected.Group("/cash-registers")
	registers.Post("/open", cashier, registerHandler.Open)
	registers.Get("/active", cashier, registerHandler.Active)
	registers.Post("/:id/close", cashier, registerHandler.Close)
	registers.Get("/", admin, registerHandler.List)
	registers.Get("/:id", admin, registerHandler.GetByID)

	// Sales
	saleHandler := NewSaleHandler(deps.SaleUC, deps.ReceiptUC, deps.Log)
	salesGroup := protected.Group("/sales", cashier)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC, deps.DashboardUC, deps.Log)
	reports := protected.Group("/reports", admin)
	reports.Get("/dashboard", reportHandler.Dashboard)
	reports.Get("/sales", reportHandler.Sales)
	reports.Get("/top-products", reportHandler.TopProducts)
	reports.Get("/margins", reportHandler.Margins)
}
