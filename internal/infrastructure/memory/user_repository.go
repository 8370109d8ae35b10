package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de usuarios.
type UserRepo struct {
	s  *Store
	tx bool
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	for _, other := range r.s.st.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.wlock(r.tx)
	defer r.s.wunlock(r.tx)
	if _, ok := r.s.st.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.rlock(r.tx)
	defer r.s.runlock(r.tx)
	list := make([]entity.User, 0, len(r.s.st.users))
	for _, u := range r.s.st.users {
		list = append(list, u)
	}
	sortByName(list, func(u entity.User) string { return u.Name }, func(u entity.User) string { return u.ID })
	start, end := paginate(len(list), limit, offset)
	out := make([]*entity.User, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &list[i])
	}
	return out, nil
}
