package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo del catálogo de la tienda.
// Stock solo cambia a través del libro de inventario (movimientos); nunca por edición directa.
type Product struct {
	ID            string
	Code          string // código único (SKU interno)
	Name          string
	Description   string
	CategoryID    string
	SupplierID    string // vacío si no tiene proveedor
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Stock         int
	MinStock      int // punto de reorden
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLowStock indica si el stock está en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
