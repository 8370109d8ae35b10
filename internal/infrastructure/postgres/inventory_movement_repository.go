package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx). Solo inserción.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (id, product_id, user_id, type, quantity, reason, sale_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ProductID, movement.UserID, movement.Type,
		movement.Quantity, movement.Reason, nullIfEmpty(movement.SaleID), movement.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("create inventory movement: %w", err))
	}
	return nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	if !validID(productID) {
		return nil, nil
	}
	return r.List(ctx, repository.MovementFilter{ProductID: productID, From: from, To: to}, limit, offset)
}

// List lista movimientos (más recientes primero) con nombre de producto y usuario.
func (r *InventoryMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error) {
	if !validOptionalIDs(f.ProductID) {
		return nil, nil
	}
	query := `
		SELECT m.id, m.product_id, m.user_id, m.type, m.quantity, m.reason, m.sale_id::TEXT, m.created_at,
		       p.code, p.name, COALESCE(u.name, '')
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		LEFT JOIN users u ON u.id = m.user_id
		WHERE 1 = 1`
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND m.product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND m.type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND m.created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND m.created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY m.seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var saleID *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.UserID, &m.Type, &m.Quantity, &m.Reason, &saleID,
			&m.CreatedAt, &m.ProductCode, &m.ProductName, &m.UserName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.SaleID = fromNull(saleID)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumByProduct suma con signo de todos los movimientos del producto (0 si no tiene).
func (r *InventoryMovementRepo) SumByProduct(ctx context.Context, productID string) (int, error) {
	if !validID(productID) {
		return 0, nil
	}
	var sum int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements WHERE product_id = $1`,
		productID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}
