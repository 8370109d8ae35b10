package memory

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación en memoria, de solo inserción.
type MovementRepo struct {
	s  *Store
	tx bool
}

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if err := r.s.checkFault(OpMovementCreate); err != nil {
		return err
	}
	r.s.st.movements = append(r.s.st.movements, *m)
	return nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// enrich se llama con el lock tomado.
func (r *MovementRepo) enrich(m entity.InventoryMovement) *entity.InventoryMovement {
	if p, ok := r.s.st.products[m.ProductID]; ok {
		m.ProductCode, m.ProductName = p.Code, p.Name
	}
	if u, ok := r.s.st.users[m.UserID]; ok {
		m.UserName = u.Name
	}
	return &m
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return r.List(ctx, repository.MovementFilter{ProductID: productID, From: from, To: to}, limit, offset)
}

// List devuelve los movimientos más recientes primero (orden inverso de inserción).
func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var matched []entity.InventoryMovement
	for i := len(r.s.st.movements) - 1; i >= 0; i-- {
		m := r.s.st.movements[i]
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if !inRange(m.CreatedAt, f.From, f.To) {
			continue
		}
		matched = append(matched, m)
	}
	start, end := paginate(len(matched), limit, offset)
	out := make([]*entity.InventoryMovement, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.enrich(matched[i]))
	}
	return out, nil
}

func (r *MovementRepo) SumByProduct(_ context.Context, productID string) (int, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	sum := 0
	for _, m := range r.s.st.movements {
		if m.ProductID == productID {
			sum += m.Quantity
		}
	}
	return sum, nil
}
