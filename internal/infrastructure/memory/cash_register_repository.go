package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.CashRegisterRepository = (*CashRegisterRepo)(nil)

// CashRegisterRepo implementación en memoria de las sesiones de caja.
type CashRegisterRepo struct {
	s  *Store
	tx bool
}

func (r *CashRegisterRepo) Create(_ context.Context, reg *entity.CashRegister) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	for _, other := range r.s.st.registers {
		if other.UserID == reg.UserID && other.IsOpen() {
			return domain.ErrRegisterAlreadyOpen
		}
	}
	r.s.st.registers[reg.ID] = *reg
	return nil
}

func (r *CashRegisterRepo) withUser(reg entity.CashRegister) *entity.CashRegister {
	if u, ok := r.s.st.users[reg.UserID]; ok {
		reg.UserName = u.Name
	}
	return &reg
}

func (r *CashRegisterRepo) GetByID(_ context.Context, id string) (*entity.CashRegister, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	reg, ok := r.s.st.registers[id]
	if !ok {
		return nil, nil
	}
	return r.withUser(reg), nil
}

// GetForShare dentro de una tx equivale a GetByID.
func (r *CashRegisterRepo) GetForShare(ctx context.Context, id string) (*entity.CashRegister, error) {
	return r.GetByID(ctx, id)
}

func (r *CashRegisterRepo) GetOpenByUser(_ context.Context, userID string) (*entity.CashRegister, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	for _, reg := range r.s.st.registers {
		if reg.UserID == userID && reg.IsOpen() {
			return r.withUser(reg), nil
		}
	}
	return nil, nil
}

func (r *CashRegisterRepo) Close(_ context.Context, reg *entity.CashRegister) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	cur, ok := r.s.st.registers[reg.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if !cur.IsOpen() {
		return domain.ErrInvalidSessionState
	}
	cur.Status = entity.RegisterStatusClosed
	cur.ClosingAmount = reg.ClosingAmount
	cur.ClosedAt = reg.ClosedAt
	cur.Notes = reg.Notes
	r.s.st.registers[reg.ID] = cur
	return nil
}

func (r *CashRegisterRepo) List(_ context.Context, f repository.CashRegisterFilter, limit, offset int) ([]*entity.CashRegister, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	var matched []entity.CashRegister
	for _, reg := range r.s.st.registers {
		if f.Status != "" && reg.Status != f.Status {
			continue
		}
		if f.UserID != "" && reg.UserID != f.UserID {
			continue
		}
		if !inRange(reg.OpenedAt, f.From, f.To) {
			continue
		}
		matched = append(matched, reg)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].OpenedAt.Equal(matched[j].OpenedAt) {
			return matched[i].OpenedAt.After(matched[j].OpenedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	start, end := paginate(len(matched), limit, offset)
	out := make([]*entity.CashRegister, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.withUser(matched[i]))
	}
	return out, nil
}
