package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una caja.
const (
	RegisterStatusOpen   = "ABIERTA"
	RegisterStatusClosed = "CERRADA"
)

// CashRegister representa una sesión de caja de un usuario.
// Un usuario tiene como máximo una caja ABIERTA.
type CashRegister struct {
	ID            string
	UserID        string
	OpeningAmount decimal.Decimal
	OpenedAt      time.Time
	Status        string
	ClosingAmount *decimal.Decimal
	ClosedAt      *time.Time
	Notes         string

	UserName string
}

// IsOpen indica si la caja acepta ventas.
func (r *CashRegister) IsOpen() bool {
	return r.Status == RegisterStatusOpen
}
