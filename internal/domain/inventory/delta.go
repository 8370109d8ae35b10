package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// ManualKinds son los tipos que se pueden registrar a mano (VENTA solo lo genera una venta).
var ManualKinds = []string{entity.MovementTypeEntrada, entity.MovementTypeSalida, entity.MovementTypeAjuste}

// MaxQuantity es el tope de cantidades y de stock: la columna stock es INTEGER.
const MaxQuantity = math.MaxInt32

// CheckQuantity valida que q sea un entero positivo dentro de MaxQuantity.
func CheckQuantity(field string, q int) error {
	if q <= 0 {
		return domain.NewValidationError(field, "debe ser un entero positivo")
	}
	if q > MaxQuantity {
		return domain.NewValidationError(field, fmt.Sprintf("no puede superar %d", MaxQuantity))
	}
	return nil
}

// SignedDelta devuelve el efecto con signo de un movimiento sobre el stock.
// ENTRADA/AJUSTE suman, SALIDA/VENTA restan. quantity debe ser positiva.
func SignedDelta(kind string, quantity int) (int, error) {
	if err := CheckQuantity("quantity", quantity); err != nil {
		return 0, err
	}
	switch kind {
	case entity.MovementTypeEntrada, entity.MovementTypeAjuste:
		return quantity, nil
	case entity.MovementTypeSalida, entity.MovementTypeVenta:
		return -quantity, nil
	}
	return 0, domain.NewValidationError("type", "tipo de movimiento no reconocido: "+kind)
}

// IsManualKind indica si kind puede registrarse con RecordMovement.
func IsManualKind(kind string) bool {
	for _, k := range ManualKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CheckAvailable verifica que aplicar delta no deje el stock en negativo ni por encima de MaxQuantity.
// delta debe estar acotado por MaxQuantity en valor absoluto.
func CheckAvailable(p *entity.Product, delta int) error {
	if delta > MaxQuantity || delta < -MaxQuantity {
		return domain.NewValidationError("quantity", fmt.Sprintf("no puede superar %d", MaxQuantity))
	}
	if int64(p.Stock)+int64(delta) > MaxQuantity {
		return domain.NewValidationError("quantity", fmt.Sprintf("el stock resultante superaría %d", MaxQuantity))
	}
	if p.Stock+delta < 0 {
		return &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   -delta,
		}
	}
	return nil
}

// SuggestedReorder calcula la cantidad sugerida para reponer un producto bajo mínimo:
// llevarlo al doble del mínimo, y como piso al mínimo mismo.
func SuggestedReorder(stock, minStock int) int {
	if stock > minStock {
		return 0
	}
	qty := 2*minStock - stock
	if floor := minStock - stock; qty < floor {
		qty = floor
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}
