package repository

import (
	"context"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// CashRegisterFilter filtros para el listado de cajas.
type CashRegisterFilter struct {
	Status string
	UserID string
	From   *time.Time
	To     *time.Time
}

// CashRegisterRepository define el puerto de persistencia para las sesiones de caja.
type CashRegisterRepository interface {
	// Create falla con domain.ErrRegisterAlreadyOpen si el usuario ya tiene una caja abierta.
	Create(ctx context.Context, register *entity.CashRegister) error
	GetByID(ctx context.Context, id string) (*entity.CashRegister, error)
	// GetForShare lee la caja con bloqueo compartido (SELECT FOR SHARE): impide cerrarla mientras dura la tx.
	GetForShare(ctx context.Context, id string) (*entity.CashRegister, error)
	GetOpenByUser(ctx context.Context, userID string) (*entity.CashRegister, error)
	// Close pasa la caja a CERRADA solo si sigue ABIERTA; si no, devuelve domain.ErrInvalidSessionState.
	Close(ctx context.Context, register *entity.CashRegister) error
	List(ctx context.Context, filter CashRegisterFilter, limit, offset int) ([]*entity.CashRegister, error)
}
