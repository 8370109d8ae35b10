package entity

import "time"

// Category agrupa productos (Guitarras, Bajos, Accesorios...).
type Category struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
