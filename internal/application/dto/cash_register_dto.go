package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenRegisterRequest body para POST /api/cash-registers/open.
type OpenRegisterRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

// CloseRegisterRequest body para POST /api/cash-registers/:id/close.
type CloseRegisterRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount"`
	Notes         string          `json:"notes"`
}

// CashRegisterResponse salida de una caja.
type CashRegisterResponse struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	UserName      string           `json:"user_name,omitempty"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	OpenedAt      time.Time        `json:"opened_at"`
	Status        string           `json:"status"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// RegisterSummaryDTO arqueo de una caja.
type RegisterSummaryDTO struct {
	SalesCount      int                        `json:"sales_count"`
	SalesTotal      decimal.Decimal            `json:"sales_total"`
	ByPaymentMethod map[string]decimal.Decimal `json:"by_payment_method"`
	ExpectedCash    decimal.Decimal            `json:"expected_cash"` // apertura + ventas en EFECTIVO
	Difference      *decimal.Decimal           `json:"difference,omitempty"`
}

// CloseRegisterResponse salida del cierre: caja + arqueo.
type CloseRegisterResponse struct {
	Register CashRegisterResponse `json:"register"`
	Summary  RegisterSummaryDTO   `json:"summary"`
}
