package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest una línea del body de venta. El precio no se acepta del cliente.
type SaleLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CashRegisterID string            `json:"cash_register_id"`
	Items          []SaleLineRequest `json:"items"`
	PaymentMethod  string            `json:"payment_method"` // EFECTIVO, TARJETA, TRANSFERENCIA
	Notes          string            `json:"notes"`
}

// SaleLineResponse línea de venta en la salida.
type SaleLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductCode string          `json:"product_code,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse salida de una venta con sus líneas.
type SaleResponse struct {
	ID             string             `json:"id"`
	CashRegisterID string             `json:"cash_register_id"`
	UserID         string             `json:"user_id"`
	UserName       string             `json:"user_name,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Lines          []SaleLineResponse `json:"lines"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
