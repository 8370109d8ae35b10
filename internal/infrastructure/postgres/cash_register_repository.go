package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.CashRegisterRepository = (*CashRegisterRepo)(nil)

// CashRegisterRepo sesiones de caja sobre PostgreSQL (usable con pool o tx).
type CashRegisterRepo struct {
	q Querier
}

// NewCashRegisterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashRegisterRepository(q Querier) *CashRegisterRepo {
	return &CashRegisterRepo{q: q}
}

const registerSelect = `
	SELECT c.id, c.user_id, c.opening_amount, c.opened_at, c.status, c.closing_amount, c.closed_at, c.notes, COALESCE(u.name, '')
	FROM cash_registers c
	LEFT JOIN users u ON u.id = c.user_id`

func scanRegister(row pgx.Row) (*entity.CashRegister, error) {
	var c entity.CashRegister
	if err := row.Scan(&c.ID, &c.UserID, &c.OpeningAmount, &c.OpenedAt, &c.Status,
		&c.ClosingAmount, &c.ClosedAt, &c.Notes, &c.UserName); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create abre una caja. El índice único parcial sobre (user_id) WHERE status = 'ABIERTA'
// impide dos cajas abiertas del mismo usuario aun con aperturas concurrentes.
func (r *CashRegisterRepo) Create(ctx context.Context, reg *entity.CashRegister) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO cash_registers (id, user_id, opening_amount, opened_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.UserID, reg.OpeningAmount, reg.OpenedAt, reg.Status, reg.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRegisterAlreadyOpen
		}
		return classify(fmt.Errorf("insert cash register: %w", err))
	}
	return nil
}

func (r *CashRegisterRepo) getOne(ctx context.Context, query string, args ...any) (*entity.CashRegister, error) {
	c, err := scanRegister(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get cash register: %w", err))
	}
	return c, nil
}

func (r *CashRegisterRepo) GetByID(ctx context.Context, id string) (*entity.CashRegister, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, registerSelect+` WHERE c.id = $1`, id)
}

// GetForShare bloquea la caja en modo compartido: varias ventas concurrentes pueden leerla,
// pero el cierre (UPDATE) espera a que terminen.
func (r *CashRegisterRepo) GetForShare(ctx context.Context, id string) (*entity.CashRegister, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, registerSelect+` WHERE c.id = $1 FOR SHARE OF c`, id)
}

func (r *CashRegisterRepo) GetOpenByUser(ctx context.Context, userID string) (*entity.CashRegister, error) {
	if !validID(userID) {
		return nil, nil
	}
	return r.getOne(ctx, registerSelect+` WHERE c.user_id = $1 AND c.status = 'ABIERTA'`, userID)
}

// Close cierra la caja solo si sigue abierta.
func (r *CashRegisterRepo) Close(ctx context.Context, reg *entity.CashRegister) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE cash_registers SET status = $2, closing_amount = $3, closed_at = $4, notes = $5
		WHERE id = $1 AND status = 'ABIERTA'`,
		reg.ID, entity.RegisterStatusClosed, reg.ClosingAmount, reg.ClosedAt, reg.Notes,
	)
	if err != nil {
		return classify(fmt.Errorf("close cash register: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, reg.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidSessionState
	}
	return nil
}

// List cajas con filtros, más recientes primero.
func (r *CashRegisterRepo) List(ctx context.Context, f repository.CashRegisterFilter, limit, offset int) ([]*entity.CashRegister, error) {
	if !validOptionalIDs(f.UserID) {
		return nil, nil
	}
	query := registerSelect + ` WHERE 1 = 1`
	args := []any{}
	pos := 1
	if f.Status != "" {
		query += fmt.Sprintf(" AND c.status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.UserID != "" {
		query += fmt.Sprintf(" AND c.user_id = $%d", pos)
		args = append(args, f.UserID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND c.opened_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND c.opened_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY c.opened_at DESC, c.id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cash registers: %w", err)
	}
	defer rows.Close()
	var list []*entity.CashRegister
	for rows.Next() {
		c, err := scanRegister(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cash register: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
