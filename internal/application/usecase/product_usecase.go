package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	stockrules "github.com/jhoicas/musicstore-pos/internal/domain/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

const initialStockReason = "Stock inicial"

// StockLedger registra movimientos dentro de una transacción ya abierta.
type StockLedger interface {
	ApplyInTx(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		product *entity.Product,
		kind string,
		quantity int,
		reason, userID, saleID string,
		now time.Time,
	) (*entity.InventoryMovement, error)
}

// ProductUseCase casos de uso CRUD para productos. Stock se maneja vía movimientos.
type ProductUseCase struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	txRunner     inventory.TxRunner
	ledger       StockLedger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	supplierRepo repository.SupplierRepository,
	txRunner inventory.TxRunner,
	ledger StockLedger,
) *ProductUseCase {
	return &ProductUseCase{
		repo:         repo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		txRunner:     txRunner,
		ledger:       ledger,
	}
}

func validatePrices(purchase, sale decimal.Decimal) error {
	if purchase.IsNegative() {
		return domain.NewValidationError("purchase_price", "no puede ser negativo")
	}
	if sale.IsNegative() {
		return domain.NewValidationError("sale_price", "no puede ser negativo")
	}
	return nil
}

func (uc *ProductUseCase) checkRefs(ctx context.Context, categoryID, supplierID string) error {
	category, err := uc.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil || !category.Active {
		return domain.NewValidationError("category_id", "la categoría no existe")
	}
	if supplierID == "" {
		return nil
	}
	supplier, err := uc.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if supplier == nil || !supplier.Active {
		return domain.NewValidationError("supplier_id", "el proveedor no existe")
	}
	return nil
}

// Create crea un producto con stock 0 y, si InitialStock > 0, registra la ENTRADA "Stock inicial"
// en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return nil, domain.NewValidationError("code", "es obligatorio")
	}
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "es obligatorio")
	}
	if in.InitialStock < 0 {
		return nil, domain.NewValidationError("initial_stock", "no puede ser negativo")
	}
	if in.InitialStock > stockrules.MaxQuantity {
		return nil, domain.NewValidationError("initial_stock", fmt.Sprintf("no puede superar %d", stockrules.MaxQuantity))
	}
	if in.MinStock < 0 || in.MinStock > stockrules.MaxQuantity {
		return nil, domain.NewValidationError("min_stock", fmt.Sprintf("debe estar entre 0 y %d", stockrules.MaxQuantity))
	}
	if err := validatePrices(in.PurchasePrice, in.SalePrice); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if err := uc.checkRefs(ctx, in.CategoryID, in.SupplierID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		Code:          in.Code,
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SupplierID:    in.SupplierID,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		Stock:         0,
		MinStock:      in.MinStock,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		_, err := uc.ledger.ApplyInTx(ctx, movRepo, productRepo, product,
			entity.MovementTypeEntrada, in.InitialStock, initialStockReason, userID, "", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar Stock (se maneja vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "es obligatorio")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	if in.SupplierID != nil {
		product.SupplierID = *in.SupplierID
	}
	if in.CategoryID != nil || in.SupplierID != nil {
		if err := uc.checkRefs(ctx, product.CategoryID, product.SupplierID); err != nil {
			return nil, err
		}
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SalePrice != nil {
		product.SalePrice = *in.SalePrice
	}
	if err := validatePrices(product.PurchasePrice, product.SalePrice); err != nil {
		return nil, err
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 || *in.MinStock > stockrules.MaxQuantity {
			return nil, domain.NewValidationError("min_stock", fmt.Sprintf("debe estar entre 0 y %d", stockrules.MaxQuantity))
		}
		product.MinStock = *in.MinStock
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// List lista productos con filtros y paginación.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.Normalize()
	list, err := uc.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  page.Response(len(items)),
	}, nil
}

// Delete desactiva un producto (baja lógica: su historial de movimientos y ventas se conserva).
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Deactivate(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SupplierID:    p.SupplierID,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		Stock:         p.Stock,
		MinStock:      p.MinStock,
		LowStock:      p.IsLowStock(),
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
