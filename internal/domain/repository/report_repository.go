package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesTotals resultado crudo del reporte de ventas por período.
type SalesTotals struct {
	Count           int
	Total           decimal.Decimal
	ByPaymentMethod map[string]decimal.Decimal
}

// TopProductResult un producto del ranking de más vendidos.
type TopProductResult struct {
	ProductID   string
	ProductCode string
	ProductName string
	UnitsSold   int
	Revenue     decimal.Decimal
}

// ProductMarginResult ventas y costo de un producto en el período. El costo se estima con el
// precio de compra vigente del producto: las líneas de venta no guardan el costo.
type ProductMarginResult struct {
	ProductID   string
	ProductCode string
	ProductName string
	UnitsSold   int
	Revenue     decimal.Decimal
	Cost        decimal.Decimal
}

// GrossProfit ingreso menos costo.
func (r ProductMarginResult) GrossProfit() decimal.Decimal {
	return r.Revenue.Sub(r.Cost)
}

// InventorySnapshot métricas agregadas del inventario activo.
type InventorySnapshot struct {
	ActiveProducts int
	LowStockCount  int
	InventoryValue decimal.Decimal // Σ stock * precio de compra
}

// ReportRepository define las consultas de lectura para reportes.
// Las implementaciones son read-only (no modifican datos).
type ReportRepository interface {
	// GetSalesTotals suma las ventas con fecha en [from, to]. Sin ventas devuelve ceros.
	GetSalesTotals(ctx context.Context, from, to time.Time) (*SalesTotals, error)
	// GetTopProducts devuelve los productos con más unidades vendidas en el período.
	GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductResult, error)
	// GetProductMargins devuelve los productos vendidos en el período ordenados por utilidad bruta descendente.
	GetProductMargins(ctx context.Context, from, to time.Time) ([]ProductMarginResult, error)
	GetInventorySnapshot(ctx context.Context) (*InventorySnapshot, error)
}
