package dto

import "time"

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"` // ENTRADA, SALIDA, AJUSTE
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// CorrectStockRequest body para PUT /api/products/:id/stock (corrección administrativa).
type CorrectStockRequest struct {
	Stock  int    `json:"stock"`
	Reason string `json:"reason"`
}

// MovementResponse salida de un movimiento con producto y usuario desnormalizados.
type MovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductCode string    `json:"product_code,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"` // con signo
	Reason      string    `json:"reason"`
	SaleID      string    `json:"sale_id,omitempty"`
	StockAfter  *int      `json:"stock_after,omitempty"` // solo en la respuesta del registro
	CreatedAt   time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockDTO producto en o bajo su stock mínimo, con cantidad sugerida de pedido.
type LowStockDTO struct {
	ProductID         string `json:"product_id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	SupplierID        string `json:"supplier_id,omitempty"`
	Stock             int    `json:"stock"`
	MinStock          int    `json:"min_stock"`
	SuggestedOrderQty int    `json:"suggested_order_qty"`
}

// LedgerAuditDTO compara el stock del producto con la suma de sus movimientos.
type LedgerAuditDTO struct {
	ProductID    string `json:"product_id"`
	Stock        int    `json:"stock"`
	MovementsSum int    `json:"movements_sum"`
	Consistent   bool   `json:"consistent"`
	Discrepancy  int    `json:"discrepancy"` // stock - movements_sum
}
