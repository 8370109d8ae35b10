package repository

import (
	"context"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// ProductFilter filtros para el listado de productos.
type ProductFilter struct {
	CategoryID string
	Search     string // coincide con nombre, código o descripción (sin distinguir mayúsculas)
	Active     *bool
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update modifica los datos del catálogo. Nunca toca stock.
	Update(ctx context.Context, product *entity.Product) error
	// ApplyStockDelta suma delta al stock solo si el resultado no queda negativo y devuelve el nuevo stock.
	// Si la condición no se cumple devuelve domain.ErrConflict.
	ApplyStockDelta(ctx context.Context, id string, delta int) (int, error)
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, error)
	// ListLowStock devuelve los productos activos con stock <= stock mínimo, menor stock primero.
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	Deactivate(ctx context.Context, id string) error
}
