package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados en caja.
const (
	PaymentMethodEfectivo      = "EFECTIVO"
	PaymentMethodTarjeta       = "TARJETA"
	PaymentMethodTransferencia = "TRANSFERENCIA"
)

// ValidPaymentMethod indica si m es un método de pago reconocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodEfectivo, PaymentMethodTarjeta, PaymentMethodTransferencia:
		return true
	}
	return false
}

// Sale es la cabecera de una venta registrada en una caja.
type Sale struct {
	ID             string
	CashRegisterID string
	UserID         string
	Total          decimal.Decimal
	PaymentMethod  string
	Notes          string
	CreatedAt      time.Time

	UserName string
	Lines    []*SaleLine
}

// SaleLine es una línea de detalle; UnitPrice se captura del producto al momento de la venta.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal

	ProductCode string
	ProductName string
}
