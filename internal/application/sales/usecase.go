package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

const instrumentationName = "github.com/jhoicas/musicstore-pos/internal/application/sales"

// SaleUseCase registra ventas y descuenta el inventario en una sola transacción.
type SaleUseCase struct {
	txRunner     SalesTxRunner
	ledger       StockLedger
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	registerRepo repository.CashRegisterRepository
	userRepo     repository.UserRepository
	log          zerolog.Logger

	tracer      trace.Tracer
	saleCounter metric.Int64Counter
	failCounter metric.Int64Counter
	now         func() time.Time
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner SalesTxRunner,
	ledger StockLedger,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	registerRepo repository.CashRegisterRepository,
	userRepo repository.UserRepository,
	log zerolog.Logger,
) *SaleUseCase {
	meter := otel.Meter(instrumentationName)
	saleCounter, _ := meter.Int64Counter("sales.recorded",
		metric.WithDescription("Ventas confirmadas"))
	failCounter, _ := meter.Int64Counter("sales.failed",
		metric.WithDescription("Ventas rechazadas"))

	return &SaleUseCase{
		txRunner:     txRunner,
		ledger:       ledger,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		registerRepo: registerRepo,
		userRepo:     userRepo,
		log:          log,
		tracer:       otel.Tracer(instrumentationName),
		saleCounter:  saleCounter,
		failCounter:  failCounter,
		now:          time.Now,
	}
}

func validateSale(in dto.CreateSaleRequest) error {
	if strings.TrimSpace(in.CashRegisterID) == "" {
		return domain.NewValidationError("cash_register_id", "es obligatorio")
	}
	if len(in.Items) == 0 {
		return domain.NewValidationError("items", "la venta debe tener al menos un producto")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "es obligatorio")
		}
		if err := inventory.CheckQuantity(fmt.Sprintf("items[%d].quantity", i), item.Quantity); err != nil {
			return err
		}
	}
	if !entity.ValidPaymentMethod(in.PaymentMethod) {
		return domain.NewValidationError("payment_method", "debe ser EFECTIVO, TARJETA o TRANSFERENCIA")
	}
	return nil
}

// RecordSale valida la venta, y en una transacción: re-verifica la caja (FOR SHARE), bloquea los productos
// en orden de id, consume el stock de cada línea (movimiento VENTA) y guarda cabecera y líneas.
// Las líneas repetidas de un mismo producto no se fusionan: cada una se verifica contra el stock corriente.
func (uc *SaleUseCase) RecordSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "sales.RecordSale", trace.WithAttributes(
		attribute.String("cash_register.id", in.CashRegisterID),
		attribute.Int("sale.lines", len(in.Items)),
	))
	defer span.End()

	sale, err := uc.recordSale(ctx, userID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.failCounter.Add(ctx, 1)
		uc.log.Warn().Err(err).Str("cash_register_id", in.CashRegisterID).Str("user_id", userID).Msg("venta rechazada")
		return nil, err
	}
	uc.saleCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", sale.PaymentMethod)))
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("cash_register_id", sale.CashRegisterID).
		Str("total", sale.Total.StringFixed(2)).
		Int("lines", len(sale.Lines)).
		Msg("venta registrada")
	out := ToSaleResponse(sale)
	return &out, nil
}

func (uc *SaleUseCase) recordSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*entity.Sale, error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("leer usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	// Validaciones previas fuera de la tx (solo lectura). Dentro de la tx se repiten con bloqueo.
	register, err := uc.registerRepo.GetByID(ctx, in.CashRegisterID)
	if err != nil {
		return nil, fmt.Errorf("leer caja: %w", err)
	}
	if register == nil {
		return nil, domain.ErrNotFound
	}
	if !register.IsOpen() {
		return nil, domain.ErrInvalidSessionState
	}
	productIDs := make([]string, 0, len(in.Items))
	seen := make(map[string]bool, len(in.Items))
	for _, item := range in.Items {
		product, err := uc.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("leer producto: %w", err)
		}
		if product == nil || !product.Active {
			return nil, domain.ErrNotFound
		}
		if err := inventory.CheckAvailable(product, -item.Quantity); err != nil {
			return nil, err
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}
	// Orden fijo de bloqueo para que dos ventas concurrentes no se bloqueen mutuamente.
	sort.Strings(productIDs)

	now := uc.now()
	saleID := uuid.New().String()
	var (
		sale      *entity.Sale
		movements []*entity.InventoryMovement
		locked    map[string]*entity.Product
	)
	err = uc.txRunner.RunSale(ctx, func(
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
		registerRepo repository.CashRegisterRepository,
	) error {
		reg, err := registerRepo.GetForShare(ctx, in.CashRegisterID)
		if err != nil {
			return err
		}
		if reg == nil {
			return domain.ErrNotFound
		}
		if !reg.IsOpen() {
			return domain.ErrInvalidSessionState
		}

		locked = make(map[string]*entity.Product, len(productIDs))
		for _, id := range productIDs {
			p, err := productRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p == nil || !p.Active {
				return domain.ErrNotFound
			}
			locked[id] = p
		}

		// Precios capturados bajo bloqueo; la cabecera va primero porque los movimientos la referencian.
		sale = &entity.Sale{
			ID:             saleID,
			CashRegisterID: reg.ID,
			UserID:         userID,
			PaymentMethod:  in.PaymentMethod,
			Notes:          strings.TrimSpace(in.Notes),
			CreatedAt:      now,
			UserName:       user.Name,
		}
		lines := make([]*entity.SaleLine, 0, len(in.Items))
		total := decimal.Zero
		for _, item := range in.Items {
			p := locked[item.ProductID]
			subtotal := p.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(subtotal)
			lines = append(lines, &entity.SaleLine{
				ID:          uuid.New().String(),
				SaleID:      saleID,
				ProductID:   p.ID,
				Quantity:    item.Quantity,
				UnitPrice:   p.SalePrice,
				Subtotal:    subtotal,
				ProductCode: p.Code,
				ProductName: p.Name,
			})
		}
		sale.Total = total
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		reason := "Venta #" + saleID
		movements = make([]*entity.InventoryMovement, 0, len(lines))
		for _, line := range lines {
			mov, err := uc.ledger.ApplyInTx(ctx, movRepo, productRepo, locked[line.ProductID],
				entity.MovementTypeVenta, line.Quantity, reason, userID, saleID, now)
			if err != nil {
				return err
			}
			movements = append(movements, mov)
			if err := saleRepo.CreateLine(ctx, line); err != nil {
				return err
			}
		}
		sale.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.ledger.AfterCommit(ctx, movements, locked)
	return sale, nil
}

// GetSale devuelve una venta con sus líneas.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	out := ToSaleResponse(sale)
	return &out, nil
}

// ListSales historial de ventas por caja, usuario y rango de fechas.
func (uc *SaleUseCase) ListSales(ctx context.Context, filter repository.SaleFilter, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.Normalize()
	list, err := uc.saleRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, ToSaleResponse(s))
	}
	return &dto.SaleListResponse{
		Items: items,
		Page:  page.Response(len(items)),
	}, nil
}

// ToSaleResponse mapea entidad a DTO.
func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, dto.SaleLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return dto.SaleResponse{
		ID:             s.ID,
		CashRegisterID: s.CashRegisterID,
		UserID:         s.UserID,
		UserName:       s.UserName,
		Total:          s.Total,
		PaymentMethod:  s.PaymentMethod,
		Notes:          s.Notes,
		CreatedAt:      s.CreatedAt,
		Lines:          lines,
	}
}
