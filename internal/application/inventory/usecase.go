package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

const instrumentationName = "github.com/jhoicas/musicstore-pos/internal/application/inventory"

// LedgerUseCase registra movimientos de inventario de forma transaccional
// (ENTRADA, SALIDA, AJUSTE) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
// También expone ApplyInTx para que las ventas consuman stock dentro de su propia transacción.
type LedgerUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
	userRepo    repository.UserRepository
	publisher   StockAlertPublisher
	log         zerolog.Logger

	tracer           trace.Tracer
	movementCounter  metric.Int64Counter
	rejectionCounter metric.Int64Counter
	now              func() time.Time
}

// NewLedgerUseCase construye el caso de uso. publisher puede ser nil (sin alertas).
func NewLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	userRepo repository.UserRepository,
	publisher StockAlertPublisher,
	log zerolog.Logger,
) *LedgerUseCase {
	meter := otel.Meter(instrumentationName)
	movementCounter, _ := meter.Int64Counter("inventory.movements",
		metric.WithDescription("Movimientos de inventario confirmados"))
	rejectionCounter, _ := meter.Int64Counter("inventory.rejections",
		metric.WithDescription("Movimientos rechazados por stock insuficiente o conflicto"))

	return &LedgerUseCase{
		txRunner:         txRunner,
		productRepo:      productRepo,
		movRepo:          movRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		log:              log,
		tracer:           otel.Tracer(instrumentationName),
		movementCounter:  movementCounter,
		rejectionCounter: rejectionCounter,
		now:              time.Now,
	}
}

// MovementInputDTO entrada para registrar un movimiento manual de inventario.
type MovementInputDTO struct {
	UserID    string
	ProductID string
	Type      string // ENTRADA, SALIDA, AJUSTE
	Quantity  int
	Reason    string
}

// MovementResult movimiento confirmado más el stock resultante del producto.
type MovementResult struct {
	Movement   *entity.InventoryMovement
	StockAfter int
}

func (in MovementInputDTO) validate() error {
	if strings.TrimSpace(in.ProductID) == "" {
		return domain.NewValidationError("product_id", "es obligatorio")
	}
	if !inventory.IsManualKind(in.Type) {
		return domain.NewValidationError("type", "debe ser ENTRADA, SALIDA o AJUSTE")
	}
	return inventory.CheckQuantity("quantity", in.Quantity)
}

// RecordMovement valida la entrada, inicia una transacción, bloquea la fila del producto (SELECT FOR UPDATE),
// aplica el delta con signo y guarda el movimiento. Commit si todo ok; Rollback si algo falla.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input MovementInputDTO) (*MovementResult, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.RecordMovement", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("movement.type", input.Type),
		attribute.Int("movement.quantity", input.Quantity),
	))
	defer span.End()

	if err := input.validate(); err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("leer producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	user, err := uc.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("leer usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	// Chequeo temprano sin bloqueo; la verificación que cuenta se repite dentro de la tx.
	if input.Type == entity.MovementTypeSalida {
		if err := inventory.CheckAvailable(product, -input.Quantity); err != nil {
			uc.reject(ctx, span, input.ProductID, input.Type, err)
			return nil, err
		}
	}

	var (
		mov   *entity.InventoryMovement
		after *entity.Product
	)
	err = uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error {
		locked, err := productRepo.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		mov, err = uc.ApplyInTx(ctx, movRepo, productRepo, locked, input.Type, input.Quantity, input.Reason, input.UserID, "", uc.now())
		if err != nil {
			return err
		}
		after = locked
		return nil
	})
	if err != nil {
		uc.reject(ctx, span, input.ProductID, input.Type, err)
		return nil, err
	}

	mov.UserName = user.Name
	uc.committed(ctx, mov, after)
	return &MovementResult{Movement: mov, StockAfter: after.Stock}, nil
}

// ApplyInTx aplica un movimiento usando los repositorios proporcionados (misma transacción del caller).
// product debe venir bloqueado (GetForUpdate) y se actualiza en memoria con el stock resultante.
// saleID solo se informa para movimientos VENTA.
func (uc *LedgerUseCase) ApplyInTx(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	kind string,
	quantity int,
	reason, userID, saleID string,
	now time.Time,
) (*entity.InventoryMovement, error) {
	delta, err := inventory.SignedDelta(kind, quantity)
	if err != nil {
		return nil, err
	}
	return uc.applyDelta(ctx, movRepo, productRepo, product, kind, delta, reason, userID, saleID, now)
}

// applyDelta verifica StockActual + delta >= 0, actualiza el stock con la condición en el UPDATE
// y guarda el movimiento con la cantidad con signo.
func (uc *LedgerUseCase) applyDelta(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	kind string,
	delta int,
	reason, userID, saleID string,
	now time.Time,
) (*entity.InventoryMovement, error) {
	if err := inventory.CheckAvailable(product, delta); err != nil {
		return nil, err
	}
	newStock, err := productRepo.ApplyStockDelta(ctx, product.ID, delta)
	if err != nil {
		return nil, err
	}
	product.Stock = newStock

	mov := &entity.InventoryMovement{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		UserID:      userID,
		Type:        kind,
		Quantity:    delta,
		Reason:      reason,
		SaleID:      saleID,
		CreatedAt:   now,
		ProductCode: product.Code,
		ProductName: product.Name,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// CorrectStock lleva el stock de un producto a target registrando un AJUSTE con delta target - actual.
// Devuelve (nil, nil) si el stock ya es target.
func (uc *LedgerUseCase) CorrectStock(ctx context.Context, userID, productID string, target int, reason string) (*MovementResult, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.CorrectStock", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("stock.target", target),
	))
	defer span.End()

	if target < 0 {
		return nil, domain.NewValidationError("stock", "no puede ser negativo")
	}
	if target > inventory.MaxQuantity {
		return nil, domain.NewValidationError("stock", fmt.Sprintf("no puede superar %d", inventory.MaxQuantity))
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Corrección de stock"
	}

	var (
		mov   *entity.InventoryMovement
		after *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error {
		locked, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		after = locked
		delta := target - locked.Stock
		if delta == 0 {
			return nil
		}
		mov, err = uc.applyDelta(ctx, movRepo, productRepo, locked, entity.MovementTypeAjuste, delta, reason, userID, "", uc.now())
		return err
	})
	if err != nil {
		uc.reject(ctx, span, productID, entity.MovementTypeAjuste, err)
		return nil, err
	}
	if mov == nil {
		return nil, nil
	}
	uc.committed(ctx, mov, after)
	return &MovementResult{Movement: mov, StockAfter: after.Stock}, nil
}

// AfterCommit registra métricas, log y alerta de stock bajo de movimientos confirmados por otro caso de uso (ventas).
func (uc *LedgerUseCase) AfterCommit(ctx context.Context, movements []*entity.InventoryMovement, products map[string]*entity.Product) {
	for _, mov := range movements {
		uc.committed(ctx, mov, products[mov.ProductID])
	}
}

func (uc *LedgerUseCase) committed(ctx context.Context, mov *entity.InventoryMovement, product *entity.Product) {
	uc.movementCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", mov.Type)))
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("type", mov.Type).
		Int("quantity", mov.Quantity).
		Str("user_id", mov.UserID).
		Msg("movimiento de inventario registrado")

	if product == nil || mov.Quantity >= 0 || !product.IsLowStock() || uc.publisher == nil {
		return
	}
	ev := LowStockEvent{
		ProductID:  product.ID,
		Code:       product.Code,
		Name:       product.Name,
		Stock:      product.Stock,
		MinStock:   product.MinStock,
		OccurredAt: mov.CreatedAt,
	}
	if err := uc.publisher.PublishLowStock(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("product_id", product.ID).Msg("no se pudo publicar alerta de stock bajo")
	}
}

func (uc *LedgerUseCase) reject(ctx context.Context, span trace.Span, productID, kind string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConflict) {
		uc.rejectionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", kind)))
		uc.log.Warn().Err(err).Str("product_id", productID).Str("type", kind).Msg("movimiento rechazado")
	}
}
