package cashregister

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// CashRegisterUseCase apertura, cierre (con arqueo) y consulta de sesiones de caja.
type CashRegisterUseCase struct {
	registerRepo repository.CashRegisterRepository
	saleRepo     repository.SaleRepository
	log          zerolog.Logger
	now          func() time.Time
}

// NewCashRegisterUseCase construye el caso de uso.
func NewCashRegisterUseCase(registerRepo repository.CashRegisterRepository, saleRepo repository.SaleRepository, log zerolog.Logger) *CashRegisterUseCase {
	return &CashRegisterUseCase{registerRepo: registerRepo, saleRepo: saleRepo, log: log, now: time.Now}
}

// Open abre una caja para el usuario. Falla con domain.ErrRegisterAlreadyOpen si ya tiene una abierta.
func (uc *CashRegisterUseCase) Open(ctx context.Context, userID string, in dto.OpenRegisterRequest) (*dto.CashRegisterResponse, error) {
	if in.OpeningAmount.IsNegative() {
		return nil, domain.NewValidationError("opening_amount", "no puede ser negativo")
	}
	existing, err := uc.registerRepo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrRegisterAlreadyOpen
	}
	reg := &entity.CashRegister{
		ID:            uuid.New().String(),
		UserID:        userID,
		OpeningAmount: in.OpeningAmount,
		OpenedAt:      uc.now(),
		Status:        entity.RegisterStatusOpen,
	}
	// El índice único parcial resuelve la carrera entre dos aperturas simultáneas.
	if err := uc.registerRepo.Create(ctx, reg); err != nil {
		return nil, err
	}
	uc.log.Info().Str("cash_register_id", reg.ID).Str("user_id", userID).Msg("caja abierta")
	out := ToCashRegisterResponse(reg)
	return &out, nil
}

// Close cierra la caja y devuelve el arqueo: efectivo esperado = apertura + ventas en EFECTIVO.
func (uc *CashRegisterUseCase) Close(ctx context.Context, id string, in dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error) {
	if in.ClosingAmount.IsNegative() {
		return nil, domain.NewValidationError("closing_amount", "no puede ser negativo")
	}
	reg, err := uc.registerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, domain.ErrNotFound
	}
	if !reg.IsOpen() {
		return nil, domain.ErrInvalidSessionState
	}

	closedAt := uc.now()
	closing := in.ClosingAmount
	reg.ClosingAmount = &closing
	reg.ClosedAt = &closedAt
	reg.Notes = in.Notes
	if err := uc.registerRepo.Close(ctx, reg); err != nil {
		return nil, err
	}
	reg.Status = entity.RegisterStatusClosed

	summary, err := uc.summary(ctx, reg)
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("cash_register_id", reg.ID).
		Str("expected_cash", summary.ExpectedCash.StringFixed(2)).
		Str("closing_amount", closing.StringFixed(2)).
		Msg("caja cerrada")
	return &dto.CloseRegisterResponse{Register: ToCashRegisterResponse(reg), Summary: *summary}, nil
}

func (uc *CashRegisterUseCase) summary(ctx context.Context, reg *entity.CashRegister) (*dto.RegisterSummaryDTO, error) {
	totals, err := uc.saleRepo.SummaryByRegister(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	byMethod := totals.ByPaymentMethod
	if byMethod == nil {
		byMethod = map[string]decimal.Decimal{}
	}
	expected := reg.OpeningAmount.Add(byMethod[entity.PaymentMethodEfectivo])
	out := &dto.RegisterSummaryDTO{
		SalesCount:      totals.Count,
		SalesTotal:      totals.Total,
		ByPaymentMethod: byMethod,
		ExpectedCash:    expected,
	}
	if reg.ClosingAmount != nil {
		diff := reg.ClosingAmount.Sub(expected)
		out.Difference = &diff
	}
	return out, nil
}

// GetActive devuelve la caja abierta del usuario o domain.ErrNotFound.
func (uc *CashRegisterUseCase) GetActive(ctx context.Context, userID string) (*dto.CashRegisterResponse, error) {
	reg, err := uc.registerRepo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, domain.ErrNotFound
	}
	out := ToCashRegisterResponse(reg)
	return &out, nil
}

// GetByID devuelve una caja con su arqueo parcial (o final si está cerrada).
func (uc *CashRegisterUseCase) GetByID(ctx context.Context, id string) (*dto.CloseRegisterResponse, error) {
	reg, err := uc.registerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, domain.ErrNotFound
	}
	summary, err := uc.summary(ctx, reg)
	if err != nil {
		return nil, err
	}
	return &dto.CloseRegisterResponse{Register: ToCashRegisterResponse(reg), Summary: *summary}, nil
}

// List cajas por estado, usuario y rango de fechas de apertura.
func (uc *CashRegisterUseCase) List(ctx context.Context, filter repository.CashRegisterFilter, page dto.PageRequest) ([]dto.CashRegisterResponse, error) {
	page.Normalize()
	if filter.Status != "" && filter.Status != entity.RegisterStatusOpen && filter.Status != entity.RegisterStatusClosed {
		return nil, domain.NewValidationError("status", "debe ser ABIERTA o CERRADA")
	}
	list, err := uc.registerRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CashRegisterResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToCashRegisterResponse(r))
	}
	return out, nil
}

// ToCashRegisterResponse mapea entidad a DTO.
func ToCashRegisterResponse(r *entity.CashRegister) dto.CashRegisterResponse {
	return dto.CashRegisterResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		UserName:      r.UserName,
		OpeningAmount: r.OpeningAmount,
		OpenedAt:      r.OpenedAt,
		Status:        r.Status,
		ClosingAmount: r.ClosingAmount,
		ClosedAt:      r.ClosedAt,
		Notes:         r.Notes,
	}
}
