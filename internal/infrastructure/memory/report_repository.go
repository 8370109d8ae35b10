package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de reportes sobre el almacén en memoria (solo lectura).
type ReportRepo struct {
	s *Store
}

func (r *ReportRepo) GetSalesTotals(_ context.Context, from, to time.Time) (*repository.SalesTotals, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := &repository.SalesTotals{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for _, sale := range r.s.st.sales {
		if !inRange(sale.CreatedAt, &from, &to) {
			continue
		}
		out.Count++
		out.Total = out.Total.Add(sale.Total)
		out.ByPaymentMethod[sale.PaymentMethod] = out.ByPaymentMethod[sale.PaymentMethod].Add(sale.Total)
	}
	return out, nil
}

func (r *ReportRepo) GetTopProducts(_ context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agg := make(map[string]*repository.TopProductResult)
	for _, l := range r.s.st.saleLines {
		sale, ok := r.s.st.sales[l.SaleID]
		if !ok || !inRange(sale.CreatedAt, &from, &to) {
			continue
		}
		row, ok := agg[l.ProductID]
		if !ok {
			p := r.s.st.products[l.ProductID]
			row = &repository.TopProductResult{ProductID: l.ProductID, ProductCode: p.Code, ProductName: p.Name, Revenue: decimal.Zero}
			agg[l.ProductID] = row
		}
		row.UnitsSold += l.Quantity
		row.Revenue = row.Revenue.Add(l.Subtotal)
	}
	out := make([]repository.TopProductResult, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ProductName < out[j].ProductName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReportRepo) GetProductMargins(_ context.Context, from, to time.Time) ([]repository.ProductMarginResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	agg := make(map[string]*repository.ProductMarginResult)
	for _, l := range r.s.st.saleLines {
		sale, ok := r.s.st.sales[l.SaleID]
		if !ok || !inRange(sale.CreatedAt, &from, &to) {
			continue
		}
		p := r.s.st.products[l.ProductID]
		row, ok := agg[l.ProductID]
		if !ok {
			row = &repository.ProductMarginResult{ProductID: l.ProductID, ProductCode: p.Code, ProductName: p.Name, Revenue: decimal.Zero, Cost: decimal.Zero}
			agg[l.ProductID] = row
		}
		row.UnitsSold += l.Quantity
		row.Revenue = row.Revenue.Add(l.Subtotal)
		row.Cost = row.Cost.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	out := make([]repository.ProductMarginResult, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := out[i].GrossProfit(), out[j].GrossProfit()
		if !gi.Equal(gj) {
			return gi.GreaterThan(gj)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}

func (r *ReportRepo) GetInventorySnapshot(_ context.Context) (*repository.InventorySnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := &repository.InventorySnapshot{InventoryValue: decimal.Zero}
	for _, p := range r.s.st.products {
		if !p.Active {
			continue
		}
		out.ActiveProducts++
		if p.IsLowStock() {
			out.LowStockCount++
		}
		out.InventoryValue = out.InventoryValue.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return out, nil
}
