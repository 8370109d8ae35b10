package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de solo lectura para reportes y el panel.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// GetSalesTotals agrupa las ventas del período por método de pago.
func (r *ReportRepo) GetSalesTotals(ctx context.Context, from, to time.Time) (*repository.SalesTotals, error) {
	const query = `
	SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
	FROM sales
	WHERE created_at BETWEEN $1 AND $2
	GROUP BY payment_method`

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("report.GetSalesTotals: %w", err)
	}
	defer rows.Close()

	out := &repository.SalesTotals{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for rows.Next() {
		var method string
		var count int
		var total decimal.Decimal
		if err := rows.Scan(&method, &count, &total); err != nil {
			return nil, fmt.Errorf("report.GetSalesTotals scan: %w", err)
		}
		out.Count += count
		out.Total = out.Total.Add(total)
		out.ByPaymentMethod[method] = total
	}
	return out, rows.Err()
}

// GetTopProducts ranking por unidades vendidas; desempata por nombre.
func (r *ReportRepo) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	const query = `
	SELECT
	    p.id,
	    p.code,
	    p.name,
	    SUM(l.quantity)  AS units_sold,
	    SUM(l.subtotal)  AS revenue
	FROM sale_lines l
	JOIN sales    s ON s.id = l.sale_id
	JOIN products p ON p.id = l.product_id
	WHERE s.created_at BETWEEN $1 AND $2
	GROUP BY p.id, p.code, p.name
	ORDER BY units_sold DESC, p.name
	LIMIT $3`

	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("report.GetTopProducts: %w", err)
	}
	defer rows.Close()

	var out []repository.TopProductResult
	for rows.Next() {
		var row repository.TopProductResult
		if err := rows.Scan(&row.ProductID, &row.ProductCode, &row.ProductName, &row.UnitsSold, &row.Revenue); err != nil {
			return nil, fmt.Errorf("report.GetTopProducts scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetProductMargins utilidad bruta por producto; el costo usa el precio de compra vigente.
func (r *ReportRepo) GetProductMargins(ctx context.Context, from, to time.Time) ([]repository.ProductMarginResult, error) {
	const query = `
	SELECT
	    p.id,
	    p.code,
	    p.name,
	    SUM(l.quantity)                    AS units_sold,
	    SUM(l.subtotal)                    AS revenue,
	    SUM(l.quantity * p.purchase_price) AS cost
	FROM sale_lines l
	JOIN sales    s ON s.id = l.sale_id
	JOIN products p ON p.id = l.product_id
	WHERE s.created_at BETWEEN $1 AND $2
	GROUP BY p.id, p.code, p.name
	ORDER BY SUM(l.subtotal) - SUM(l.quantity * p.purchase_price) DESC, p.name`

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("report.GetProductMargins: %w", err)
	}
	defer rows.Close()

	var out []repository.ProductMarginResult
	for rows.Next() {
		var row repository.ProductMarginResult
		if err := rows.Scan(&row.ProductID, &row.ProductCode, &row.ProductName, &row.UnitsSold, &row.Revenue, &row.Cost); err != nil {
			return nil, fmt.Errorf("report.GetProductMargins scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetInventorySnapshot métricas del inventario activo valorizado a precio de compra.
func (r *ReportRepo) GetInventorySnapshot(ctx context.Context) (*repository.InventorySnapshot, error) {
	const query = `
	SELECT
	    COUNT(*),
	    COUNT(*) FILTER (WHERE stock <= min_stock),
	    COALESCE(SUM(stock * purchase_price), 0)
	FROM products
	WHERE active`

	out := &repository.InventorySnapshot{}
	if err := r.q.QueryRow(ctx, query).Scan(&out.ActiveProducts, &out.LowStockCount, &out.InventoryValue); err != nil {
		return nil, fmt.Errorf("report.GetInventorySnapshot: %w", err)
	}
	return out, nil
}
