package inventory

import (
	"context"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición: productos activos en o bajo su stock mínimo.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productRepo repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productRepo: productRepo}
}

// LowStock devuelve los productos bajo mínimo con la cantidad sugerida de pedido,
// ordenados por menor stock primero (orden del repositorio).
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context) ([]dto.LowStockDTO, error) {
	products, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0, len(products))
	for _, p := range products {
		out = append(out, dto.LowStockDTO{
			ProductID:         p.ID,
			Code:              p.Code,
			Name:              p.Name,
			SupplierID:        p.SupplierID,
			Stock:             p.Stock,
			MinStock:          p.MinStock,
			SuggestedOrderQty: inventory.SuggestedReorder(p.Stock, p.MinStock),
		})
	}
	return out, nil
}
