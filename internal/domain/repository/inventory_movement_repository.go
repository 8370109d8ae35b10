package repository

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// MovementFilter filtros para el listado de movimientos.
type MovementFilter struct {
	ProductID string
	Type      string
	From      *time.Time
	To        *time.Time
}

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
// Los movimientos son de solo inserción: no hay Update ni Delete.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error)
	// SumByProduct devuelve la suma con signo de todos los movimientos del producto.
	SumByProduct(ctx context.Context, productID string) (int, error)
}
