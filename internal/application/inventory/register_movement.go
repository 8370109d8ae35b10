package inventory

import (
	"context"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement(ctx, MovementInputDTO).
func (uc *LedgerUseCase) RecordMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	res, err := uc.RecordMovement(ctx, MovementInputDTO{
		UserID:    userID,
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	})
	if err != nil {
		return nil, err
	}
	out := ToMovementResponse(res.Movement)
	out.StockAfter = &res.StockAfter
	return &out, nil
}

// ToMovementResponse mapea entidad a DTO.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		ProductCode: m.ProductCode,
		ProductName: m.ProductName,
		UserID:      m.UserID,
		UserName:    m.UserName,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		SaleID:      m.SaleID,
		CreatedAt:   m.CreatedAt,
	}
}
