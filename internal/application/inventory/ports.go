package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el libro de inventario: el stock y el movimiento se confirman juntos o no se confirma nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// LowStockEvent se emite cuando un movimiento confirmado deja un producto en o bajo su mínimo.
type LowStockEvent struct {
	ProductID  string    `json:"product_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	MinStock   int       `json:"min_stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StockAlertPublisher publica alertas de stock bajo fuera de la transacción.
// Un fallo al publicar nunca revierte el movimiento ya confirmado.
type StockAlertPublisher interface {
	PublishLowStock(ctx context.Context, ev LowStockEvent) error
}
