package memory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
)

// CategoryRepo implementación en memoria de categorías.
type CategoryRepo struct {
	s  *Store
	tx bool
}

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	for _, other := range r.s.st.categories {
		if strings.EqualFold(other.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	c, ok := r.s.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) Update(_ context.Context, c *entity.Category) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if _, ok := r.s.st.categories[c.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.categories {
		if id != c.ID && strings.EqualFold(other.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) List(_ context.Context, onlyActive bool) ([]*entity.Category, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var list []entity.Category
	for _, c := range r.s.st.categories {
		if onlyActive && !c.Active {
			continue
		}
		list = append(list, c)
	}
	sortByName(list, func(c entity.Category) string { return c.Name }, func(c entity.Category) string { return c.ID })
	out := make([]*entity.Category, 0, len(list))
	for i := range list {
		out = append(out, &list[i])
	}
	return out, nil
}

func (r *CategoryRepo) Deactivate(_ context.Context, id string) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	c, ok := r.s.st.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Active = false
	c.UpdatedAt = time.Now()
	r.s.st.categories[id] = c
	return nil
}

// SupplierRepo implementación en memoria de proveedores.
type SupplierRepo struct {
	s  *Store
	tx bool
}

func (r *SupplierRepo) Create(_ context.Context, sp *entity.Supplier) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	r.s.st.suppliers[sp.ID] = *sp
	return nil
}

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	sp, ok := r.s.st.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (r *SupplierRepo) Update(_ context.Context, sp *entity.Supplier) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if _, ok := r.s.st.suppliers[sp.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.suppliers[sp.ID] = *sp
	return nil
}

func (r *SupplierRepo) List(_ context.Context, onlyActive bool) ([]*entity.Supplier, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var list []entity.Supplier
	for _, sp := range r.s.st.suppliers {
		if onlyActive && !sp.Active {
			continue
		}
		list = append(list, sp)
	}
	sortByName(list, func(sp entity.Supplier) string { return sp.Name }, func(sp entity.Supplier) string { return sp.ID })
	out := make([]*entity.Supplier, 0, len(list))
	for i := range list {
		out = append(out, &list[i])
	}
	return out, nil
}

func (r *SupplierRepo) Deactivate(_ context.Context, id string) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	sp, ok := r.s.st.suppliers[id]
	if !ok {
		return domain.ErrNotFound
	}
	sp.Active = false
	sp.UpdatedAt = time.Now()
	r.s.st.suppliers[id] = sp
	return nil
}
