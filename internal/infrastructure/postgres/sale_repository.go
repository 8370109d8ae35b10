package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación sobre PostgreSQL de ventas y sus líneas (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera de la venta (las líneas van con CreateLine).
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, cash_register_id, user_id, total, payment_method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sale.ID, sale.CashRegisterID, sale.UserID, sale.Total, sale.PaymentMethod, sale.Notes, sale.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert sale: %w", err))
	}
	return nil
}

// CreateLine inserta una línea de detalle.
func (r *SaleRepo) CreateLine(ctx context.Context, line *entity.SaleLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		line.ID, line.SaleID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal,
	)
	if err != nil {
		return classify(fmt.Errorf("insert sale line: %w", err))
	}
	return nil
}

const saleSelect = `
	SELECT s.id, s.cash_register_id, s.user_id, s.total, s.payment_method, s.notes, s.created_at, COALESCE(u.name, '')
	FROM sales s
	LEFT JOIN users u ON u.id = s.user_id`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.CashRegisterID, &s.UserID, &s.Total, &s.PaymentMethod, &s.Notes, &s.CreatedAt, &s.UserName)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID devuelve la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	if !validID(id) {
		return nil, nil
	}
	sale, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("get sale: %w", err))
	}
	if err := r.attachLines(ctx, []*entity.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

// List historial de ventas, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter, limit, offset int) ([]*entity.Sale, error) {
	if !validOptionalIDs(f.CashRegisterID, f.UserID) {
		return nil, nil
	}
	query := saleSelect + ` WHERE 1 = 1`
	args := []any{}
	pos := 1
	if f.CashRegisterID != "" {
		query += fmt.Sprintf(" AND s.cash_register_id = $%d", pos)
		args = append(args, f.CashRegisterID)
		pos++
	}
	if f.UserID != "" {
		query += fmt.Sprintf(" AND s.user_id = $%d", pos)
		args = append(args, f.UserID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND s.created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND s.created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY s.created_at DESC, s.id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// attachLines carga en una sola consulta las líneas de todas las ventas dadas.
func (r *SaleRepo) attachLines(ctx context.Context, sales []*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, 0, len(sales))
	byID := make(map[string]*entity.Sale, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}
	rows, err := r.q.Query(ctx, `
		SELECT l.id, l.sale_id, l.product_id, l.quantity, l.unit_price, l.subtotal, p.code, p.name
		FROM sale_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.sale_id = ANY($1::uuid[])
		ORDER BY l.sale_id, p.name`, ids)
	if err != nil {
		return fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal,
			&l.ProductCode, &l.ProductName); err != nil {
			return fmt.Errorf("scan sale line: %w", err)
		}
		if s, ok := byID[l.SaleID]; ok {
			s.Lines = append(s.Lines, &l)
		}
	}
	return rows.Err()
}

// SummaryByRegister cuenta y suma las ventas de una caja, total y por método de pago.
func (r *SaleRepo) SummaryByRegister(ctx context.Context, cashRegisterID string) (*repository.RegisterSalesSummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
		FROM sales WHERE cash_register_id = $1
		GROUP BY payment_method`, cashRegisterID)
	if err != nil {
		return nil, fmt.Errorf("summary by register: %w", err)
	}
	defer rows.Close()
	sum := &repository.RegisterSalesSummary{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for rows.Next() {
		var method string
		var count int
		var total decimal.Decimal
		if err := rows.Scan(&method, &count, &total); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Count += count
		sum.Total = sum.Total.Add(total)
		sum.ByPaymentMethod[method] = total
	}
	return sum, rows.Err()
}
