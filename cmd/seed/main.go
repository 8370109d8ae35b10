// seed carga un catálogo inicial (usuarios, categorías, proveedores y productos) en PostgreSQL
// pasando por los casos de uso, de modo que el stock inicial queda registrado como ENTRADA.
//
// Uso: go run ./cmd/seed [ruta/catalogo.json]
// Sin argumento usa el catálogo de ejemplo embebido. Es idempotente: lo que ya existe se omite.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/application/auth"
	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/usecase"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/messaging"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/musicstore-pos/pkg/config"
	"github.com/jhoicas/musicstore-pos/pkg/logger"
)

//go:embed catalog.json
var defaultCatalog []byte

type catalog struct {
	Users      []dto.CreateUserRequest `json:"users"`
	Categories []dto.CategoryRequest   `json:"categories"`
	Suppliers  []dto.SupplierRequest   `json:"suppliers"`
	Products   []seedProduct           `json:"products"`
}

type seedProduct struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Supplier      string          `json:"supplier"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
}

func main() {
	raw := defaultCatalog
	if len(os.Args) > 1 {
		b, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
			os.Exit(1)
		}
		raw = b
	}
	var cat catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar catálogo: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	ledger := inventory.NewLedgerUseCase(postgres.NewTxRunner(pool), productRepo,
		postgres.NewInventoryMovementRepository(pool), userRepo, messaging.NoopPublisher{Log: log}, log)

	s := &seeder{
		users:      userRepo,
		auth:       auth.NewAuthUseCase(userRepo, auth.JWTConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		categories: usecase.NewCategoryUseCase(categoryRepo),
		suppliers:  usecase.NewSupplierUseCase(supplierRepo),
		products:   usecase.NewProductUseCase(productRepo, categoryRepo, supplierRepo, postgres.NewTxRunner(pool), ledger),
	}
	stats, err := s.run(ctx, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	fmt.Printf("Seed completo: %d usuarios, %d categorías, %d proveedores, %d productos (%d omitidos)\n",
		stats.users, stats.categories, stats.suppliers, stats.products, stats.skipped)
}

type seedStats struct {
	users, categories, suppliers, products, skipped int
}

type seeder struct {
	users      repository.UserRepository
	auth       *auth.AuthUseCase
	categories *usecase.CategoryUseCase
	suppliers  *usecase.SupplierUseCase
	products   *usecase.ProductUseCase
}

// alreadyExists errores que indican que el registro ya fue cargado en una corrida previa.
func alreadyExists(err error) bool {
	return errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrEmailAlreadyExists)
}

func (s *seeder) run(ctx context.Context, cat catalog) (seedStats, error) {
	var st seedStats
	// adminID queda como autor de las ENTRADA de stock inicial.
	var adminID string
	for _, u := range cat.Users {
		out, err := s.auth.RegisterUser(ctx, u)
		switch {
		case alreadyExists(err):
			st.skipped++
			existing, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(u.Email)))
			if err != nil {
				return st, fmt.Errorf("usuario %s: %w", u.Email, err)
			}
			if adminID == "" && existing != nil && existing.Role == entity.RoleAdmin {
				adminID = existing.ID
			}
			continue
		case err != nil:
			return st, fmt.Errorf("usuario %s: %w", u.Email, err)
		}
		st.users++
		if adminID == "" && out.Role == entity.RoleAdmin {
			adminID = out.ID
		}
	}
	if adminID == "" {
		return st, errors.New("el catálogo debe incluir al menos un usuario ADMIN")
	}

	categoryIDs, err := s.categoryIndex(ctx)
	if err != nil {
		return st, err
	}
	for _, c := range cat.Categories {
		if _, ok := categoryIDs[normalizeKey(c.Name)]; ok {
			st.skipped++
			continue
		}
		out, err := s.categories.Create(ctx, c)
		if err != nil {
			return st, fmt.Errorf("categoría %s: %w", c.Name, err)
		}
		categoryIDs[normalizeKey(out.Name)] = out.ID
		st.categories++
	}

	supplierIDs, err := s.supplierIndex(ctx)
	if err != nil {
		return st, err
	}
	for _, sp := range cat.Suppliers {
		if _, ok := supplierIDs[normalizeKey(sp.Name)]; ok {
			st.skipped++
			continue
		}
		out, err := s.suppliers.Create(ctx, sp)
		if err != nil {
			return st, fmt.Errorf("proveedor %s: %w", sp.Name, err)
		}
		supplierIDs[normalizeKey(out.Name)] = out.ID
		st.suppliers++
	}

	for _, p := range cat.Products {
		categoryID, ok := categoryIDs[normalizeKey(p.Category)]
		if !ok {
			return st, fmt.Errorf("producto %s: categoría %q no existe", p.Code, p.Category)
		}
		var supplierID string
		if p.Supplier != "" {
			if supplierID, ok = supplierIDs[normalizeKey(p.Supplier)]; !ok {
				return st, fmt.Errorf("producto %s: proveedor %q no existe", p.Code, p.Supplier)
			}
		}
		_, err := s.products.Create(ctx, adminID, dto.CreateProductRequest{
			Code:          NormalizeCode(p.Code),
			Name:          p.Name,
			Description:   p.Description,
			CategoryID:    categoryID,
			SupplierID:    supplierID,
			PurchasePrice: p.PurchasePrice,
			SalePrice:     p.SalePrice,
			InitialStock:  p.Stock,
			MinStock:      p.MinStock,
		})
		switch {
		case alreadyExists(err):
			st.skipped++
		case err != nil:
			return st, fmt.Errorf("producto %s: %w", p.Code, err)
		default:
			st.products++
		}
	}
	return st, nil
}

func (s *seeder) categoryIndex(ctx context.Context) (map[string]string, error) {
	list, err := s.categories.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listar categorías: %w", err)
	}
	idx := make(map[string]string, len(list))
	for _, c := range list {
		idx[normalizeKey(c.Name)] = c.ID
	}
	return idx, nil
}

func (s *seeder) supplierIndex(ctx context.Context) (map[string]string, error) {
	list, err := s.suppliers.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listar proveedores: %w", err)
	}
	idx := make(map[string]string, len(list))
	for _, sp := range list {
		idx[normalizeKey(sp.Name)] = sp.ID
	}
	return idx, nil
}
