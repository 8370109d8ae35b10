package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria del puerto ProductRepository.
type ProductRepo struct {
	s  *Store
	tx bool
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	for _, other := range r.s.st.products {
		if strings.EqualFold(other.Code, p.Code) {
			return domain.ErrDuplicate
		}
	}
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	for _, p := range r.s.st.products {
		if strings.EqualFold(p.Code, code) {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

// GetForUpdate dentro de una tx equivale a GetByID: la tx ya tiene el lock exclusivo del almacén.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	cur, ok := r.s.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stock := cur.Stock
	cur = *p
	cur.Stock = stock
	r.s.st.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) ApplyStockDelta(_ context.Context, id string, delta int) (int, error) {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if err := r.s.checkFault(OpStockDelta); err != nil {
		return 0, err
	}
	p, ok := r.s.st.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return 0, domain.ErrConflict
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	r.s.st.products[id] = p
	return p.Stock, nil
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var list []entity.Product
	for _, p := range r.s.st.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Code), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		list = append(list, p)
	}
	sortByName(list, func(p entity.Product) string { return p.Name }, func(p entity.Product) string { return p.ID })
	start, end := paginate(len(list), limit, offset)
	out := make([]*entity.Product, 0, end-start)
	for i := start; i < end; i++ {
		p := list[i]
		out = append(out, &p)
	}
	return out, nil
}

func (r *ProductRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var out []*entity.Product
	for _, p := range r.s.st.products {
		if p.Active && p.IsLowStock() {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *ProductRepo) Deactivate(_ context.Context, id string) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	p, ok := r.s.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = time.Now()
	r.s.st.products[id] = p
	return nil
}
