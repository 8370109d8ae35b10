package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeEntrada = "ENTRADA" // entrada de mercancía
	MovementTypeSalida  = "SALIDA"  // salida manual
	MovementTypeAjuste  = "AJUSTE"  // ajuste administrativo
	MovementTypeVenta   = "VENTA"   // consumo por venta
)

// InventoryMovement es el registro inmutable de un cambio de stock.
// Quantity lleva signo: positivo para ENTRADA/AJUSTE, negativo para SALIDA/VENTA.
type InventoryMovement struct {
	ID        string
	ProductID string
	UserID    string
	Type      string
	Quantity  int
	Reason    string
	SaleID    string // vacío salvo en movimientos VENTA
	CreatedAt time.Time

	// Campos desnormalizados para mostrar (se llenan en lecturas con JOIN).
	ProductCode string
	ProductName string
	UserName    string
}
