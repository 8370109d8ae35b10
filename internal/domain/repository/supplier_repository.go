package repository

import (
	"context"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier (DIP).
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	List(ctx context.Context, onlyActive bool) ([]*entity.Supplier, error)
	Deactivate(ctx context.Context, id string) error
}
