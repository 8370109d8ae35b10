package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "ADMIN"
	RoleCajero  = "CAJERO"
	RoleAlmacen = "ALMACEN"
)

// ValidRole indica si r es un rol reconocido.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleCajero, RoleAlmacen:
		return true
	}
	return false
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // ADMIN, CAJERO, ALMACEN
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
