package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/musicstore-pos/internal/application/analytics"
	"github.com/jhoicas/musicstore-pos/internal/application/auth"
	"github.com/jhoicas/musicstore-pos/internal/application/cashregister"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/sales"
	"github.com/jhoicas/musicstore-pos/internal/application/usecase"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/memory"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/musicstore-pos/internal/infrastructure/pdf"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/musicstore-pos/internal/interfaces/http"
	"github.com/jhoicas/musicstore-pos/pkg/config"
	"github.com/jhoicas/musicstore-pos/pkg/logger"
)

const version = "1.0.0"

// txRunner lo cumplen tanto postgres.TxRunner como memory.Store.
type txRunner interface {
	inventory.TxRunner
	sales.SalesTxRunner
}

// repositories agrupa los puertos de persistencia de la implementación elegida.
type repositories struct {
	tx         txRunner
	products   repository.ProductRepository
	movements  repository.InventoryMovementRepository
	sales      repository.SaleRepository
	registers  repository.CashRegisterRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	users      repository.UserRepository
	reports    repository.ReportRepository
	close      func()
}

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs --outputTypes json

// @title                       Music Store POS API
// @version                     1.0.0
// @description                 Inventario, caja y ventas de una tienda de instrumentos musicales.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
		Version: version,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar OpenTelemetry")
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer repos.close()

	var publisher inventory.StockAlertPublisher = messaging.NoopPublisher{Log: logger.Component(log, "messaging")}
	if cfg.RabbitMQ.Enabled() {
		rabbit, err := messaging.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger.Component(log, "messaging"))
		if err != nil {
			// Las alertas no son críticas: se sigue sin broker.
			log.Warn().Err(err).Msg("RabbitMQ no disponible, alertas de stock bajo solo en log")
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	ledger := inventory.NewLedgerUseCase(repos.tx, repos.products, repos.movements, repos.users, publisher, logger.Component(log, "ledger"))
	replenishment := inventory.NewReplenishmentUseCase(repos.products)
	saleUC := sales.NewSaleUseCase(repos.tx, ledger, repos.products, repos.sales, repos.registers, repos.users, logger.Component(log, "sales"))
	receiptUC := sales.NewReceiptUseCase(repos.sales, repos.registers, infrapdf.NewReceiptGenerator(cfg.App.Name))
	registerUC := cashregister.NewCashRegisterUseCase(repos.registers, repos.sales, logger.Component(log, "cashregister"))
	productUC := usecase.NewProductUseCase(repos.products, repos.categories, repos.suppliers, repos.tx, ledger)
	categoryUC := usecase.NewCategoryUseCase(repos.categories)
	supplierUC := usecase.NewSupplierUseCase(repos.suppliers)
	userUC := usecase.NewUserUseCase(repos.users)
	reportUC := analytics.NewReportUseCase(repos.reports)
	dashboardUC := analytics.NewDashboardUseCase(repos.reports)
	authUC := auth.NewAuthUseCase(repos.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.TracingMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Music Store POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "version": version})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		UserUC:         userUC,
		ProductUC:      productUC,
		CategoryUC:     categoryUC,
		SupplierUC:     supplierUC,
		Ledger:         ledger,
		Replenishment:  replenishment,
		SaleUC:         saleUC,
		ReceiptUC:      receiptUC,
		CashRegisterUC: registerUC,
		ReportUC:       reportUC,
		DashboardUC:    dashboardUC,
		JWTSecret:      cfg.JWT.Secret,
		Log:            logger.Component(log, "http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}

// openRepositories elige PostgreSQL (por defecto) o el almacén en memoria (APP_STORAGE=memory).
func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.App.UseMemoryStorage() {
		store := memory.NewStore()
		return &repositories{
			tx:         store,
			products:   store.Products(),
			movements:  store.Movements(),
			sales:      store.Sales(),
			registers:  store.CashRegisters(),
			categories: store.Categories(),
			suppliers:  store.Suppliers(),
			users:      store.Users(),
			reports:    store.Reports(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &repositories{
		tx:         postgres.NewTxRunner(pool),
		products:   postgres.NewProductRepository(pool),
		movements:  postgres.NewInventoryMovementRepository(pool),
		sales:      postgres.NewSaleRepository(pool),
		registers:  postgres.NewCashRegisterRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		suppliers:  postgres.NewSupplierRepository(pool),
		users:      postgres.NewUserRepository(pool),
		reports:    postgres.NewReportRepository(pool),
		close:      pool.Close,
	}, nil
}
