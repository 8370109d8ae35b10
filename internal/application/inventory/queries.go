package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// ListByProduct historial de movimientos de un producto, más recientes primero.
func (uc *LedgerUseCase) ListByProduct(ctx context.Context, productID string, from, to *time.Time, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.Normalize()
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.movRepo.ListByProduct(ctx, productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementList(list, page), nil
}

// List movimientos por filtros (producto, tipo, rango de fechas).
func (uc *LedgerUseCase) List(ctx context.Context, filter repository.MovementFilter, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.Normalize()
	if filter.Type != "" {
		if err := validateKindFilter(filter.Type); err != nil {
			return nil, err
		}
	}
	list, err := uc.movRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementList(list, page), nil
}

// Audit compara el stock guardado del producto con la suma de sus movimientos.
// Ambos se leen en la misma tx con la fila bloqueada, así un movimiento concurrente no
// aparece como discrepancia.
func (uc *LedgerUseCase) Audit(ctx context.Context, productID string) (*dto.LedgerAuditDTO, error) {
	var (
		stock int
		sum   int
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error {
		product, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		stock = product.Stock
		sum, err = movRepo.SumByProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.LedgerAuditDTO{
		ProductID:    productID,
		Stock:        stock,
		MovementsSum: sum,
		Consistent:   stock == sum,
		Discrepancy:  stock - sum,
	}, nil
}

// validateKindFilter acepta también VENTA, que no se registra a mano pero sí se consulta.
func validateKindFilter(kind string) error {
	switch kind {
	case entity.MovementTypeEntrada, entity.MovementTypeSalida, entity.MovementTypeAjuste, entity.MovementTypeVenta:
		return nil
	}
	return domain.NewValidationError("type", "tipo de movimiento no reconocido: "+kind)
}

func toMovementList(list []*entity.InventoryMovement, page dto.PageRequest) *dto.MovementListResponse {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  page.Response(len(items)),
	}
}
