package sales

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// SalesTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario, ventas y cajas.
type SalesTxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
		registerRepo repository.CashRegisterRepository,
	) error) error
}

// StockLedger interfaz para integrar ventas con el libro de inventario.
// ApplyInTx consume stock usando los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
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
	// AfterCommit se llama una vez confirmada la venta (métricas, log, alertas de stock bajo).
	AfterCommit(ctx context.Context, movements []*entity.InventoryMovement, products map[string]*entity.Product)
}

// ReceiptGenerator genera el ticket (PDF) de una venta.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, sale *entity.Sale, register *entity.CashRegister) ([]byte, error)
}
