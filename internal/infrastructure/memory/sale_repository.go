package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación en memoria de ventas y líneas.
type SaleRepo struct {
	s  *Store
	tx bool
}

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if err := r.s.checkFault(OpSaleCreate); err != nil {
		return err
	}
	if _, ok := r.s.st.registers[sale.CashRegisterID]; !ok {
		return domain.ErrNotFound
	}
	cp := *sale
	cp.Lines = nil
	r.s.st.sales[sale.ID] = cp
	return nil
}

func (r *SaleRepo) CreateLine(_ context.Context, line *entity.SaleLine) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if err := r.s.checkFault(OpSaleLineCreate); err != nil {
		return err
	}
	if _, ok := r.s.st.sales[line.SaleID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.saleLines = append(r.s.st.saleLines, *line)
	return nil
}

// load arma la venta con usuario y líneas. Se llama con el lock tomado.
func (r *SaleRepo) load(sale entity.Sale) *entity.Sale {
	if u, ok := r.s.st.users[sale.UserID]; ok {
		sale.UserName = u.Name
	}
	sale.Lines = nil
	for _, l := range r.s.st.saleLines {
		if l.SaleID != sale.ID {
			continue
		}
		if p, ok := r.s.st.products[l.ProductID]; ok {
			l.ProductCode, l.ProductName = p.Code, p.Name
		}
		cp := l
		sale.Lines = append(sale.Lines, &cp)
	}
	return &sale
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	sale, ok := r.s.st.sales[id]
	if !ok {
		return nil, nil
	}
	return r.load(sale), nil
}

func (r *SaleRepo) List(_ context.Context, f repository.SaleFilter, limit, offset int) ([]*entity.Sale, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var matched []entity.Sale
	for _, sale := range r.s.st.sales {
		if f.CashRegisterID != "" && sale.CashRegisterID != f.CashRegisterID {
			continue
		}
		if f.UserID != "" && sale.UserID != f.UserID {
			continue
		}
		if !inRange(sale.CreatedAt, f.From, f.To) {
			continue
		}
		matched = append(matched, sale)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	start, end := paginate(len(matched), limit, offset)
	out := make([]*entity.Sale, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.load(matched[i]))
	}
	return out, nil
}

func (r *SaleRepo) SummaryByRegister(_ context.Context, cashRegisterID string) (*repository.RegisterSalesSummary, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	sum := &repository.RegisterSalesSummary{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for _, sale := range r.s.st.sales {
		if sale.CashRegisterID != cashRegisterID {
			continue
		}
		sum.Count++
		sum.Total = sum.Total.Add(sale.Total)
		sum.ByPaymentMethod[sale.PaymentMethod] = sum.ByPaymentMethod[sale.PaymentMethod].Add(sale.Total)
	}
	return sum, nil
}
