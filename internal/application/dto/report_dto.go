package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesReportDTO reporte de ventas de un período.
type SalesReportDTO struct {
	From            time.Time                  `json:"from"`
	To              time.Time                  `json:"to"`
	SalesCount      int                        `json:"sales_count"`
	SalesTotal      decimal.Decimal            `json:"sales_total"`
	ByPaymentMethod map[string]decimal.Decimal `json:"by_payment_method"`
}

// TopProductDTO un producto del ranking de más vendidos.
type TopProductDTO struct {
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DashboardDTO resumen general para el panel del POS.
type DashboardDTO struct {
	SalesToday     decimal.Decimal `json:"sales_today"`
	SalesMonth     decimal.Decimal `json:"sales_month"`
	LowStockCount  int             `json:"low_stock_count"`
	ActiveProducts int             `json:"active_products"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

// ProductMarginDTO un producto del ranking de rentabilidad.
type ProductMarginDTO struct {
	Rank            int             `json:"rank"`
	ProductID       string          `json:"product_id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	UnitsSold       int             `json:"units_sold"`
	Revenue         decimal.Decimal `json:"revenue"`
	Cost            decimal.Decimal `json:"cost"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	MarginPct       decimal.Decimal `json:"margin_pct"`
	ProfitSharePct  decimal.Decimal `json:"profit_share_pct"`
	CumulativeShare decimal.Decimal `json:"cumulative_share_pct"`
	IsTopPareto     bool            `json:"is_top_pareto"`
}

// MarginsReportDTO rentabilidad del período con análisis Pareto (productos que suman ~80% de la utilidad).
type MarginsReportDTO struct {
	From             time.Time          `json:"from"`
	To               time.Time          `json:"to"`
	TotalRevenue     decimal.Decimal    `json:"total_revenue"`
	TotalCost        decimal.Decimal    `json:"total_cost"`
	TotalProfit      decimal.Decimal    `json:"total_profit"`
	OverallMarginPct decimal.Decimal    `json:"overall_margin_pct"`
	Ranking          []ProductMarginDTO `json:"ranking"`
	ParetoProducts   []ProductMarginDTO `json:"pareto_products"`
}
