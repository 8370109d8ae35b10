package repository

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleFilter filtros para el historial de ventas.
type SaleFilter struct {
	CashRegisterID string
	UserID         string
	From           *time.Time
	To             *time.Time
}

// RegisterSalesSummary totales de ventas de una caja.
type RegisterSalesSummary struct {
	Count           int
	Total           decimal.Decimal
	ByPaymentMethod map[string]decimal.Decimal
}

// SaleRepository define el puerto de persistencia para Sale y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateLine(ctx context.Context, line *entity.SaleLine) error
	// GetByID devuelve la venta con sus líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, filter SaleFilter, limit, offset int) ([]*entity.Sale, error)
	SummaryByRegister(ctx context.Context, cashRegisterID string) (*RegisterSalesSummary, error)
}
