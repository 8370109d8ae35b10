package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishLowStock(ctx context.Context, ev inventory.LowStockEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type fixture struct {
	store  *memory.Store
	ledger *inventory.LedgerUseCase
	user   *entity.User
}

func newFixture(t *testing.T, publisher inventory.StockAlertPublisher) *fixture {
	t.Helper()
	store := memory.NewStore()
	user := &entity.User{ID: "u-almacen", Name: "Ana Almacén", Email: "ana@tienda.test", Role: entity.RoleAlmacen, Active: true}
	require.NoError(t, store.Users().Create(context.Background(), user))

	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), store.Users(), publisher, zerolog.Nop())
	return &fixture{store: store, ledger: ledger, user: user}
}

// seedProduct crea el producto con stock 0 y registra el stock inicial como ENTRADA.
func (f *fixture) seedProduct(t *testing.T, id string, stock, minStock int) *entity.Product {
	t.Helper()
	now := time.Now()
	p := &entity.Product{
		ID: id, Code: "COD-" + id, Name: "Producto " + id, CategoryID: "cat-1",
		PurchasePrice: decimal.NewFromInt(60), SalePrice: decimal.NewFromInt(100),
		MinStock: minStock, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	if stock > 0 {
		_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
			UserID: f.user.ID, ProductID: id, Type: entity.MovementTypeEntrada, Quantity: stock, Reason: "Stock inicial",
		})
		require.NoError(t, err)
	}
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) assertLedgerConsistent(t *testing.T, id string) {
	t.Helper()
	audit, err := f.ledger.Audit(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, audit.Consistent, "stock %d != suma de movimientos %d", audit.Stock, audit.MovementsSum)
}

func TestRecordMovement_Entrada(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 5, 2)

	res, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: 10, Reason: "Compra proveedor",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, res.StockAfter)
	assert.Equal(t, 10, res.Movement.Quantity)
	assert.Equal(t, entity.MovementTypeEntrada, res.Movement.Type)
	assert.Equal(t, "Ana Almacén", res.Movement.UserName)
	assert.Equal(t, "COD-p1", res.Movement.ProductCode)
	assert.Equal(t, 15, f.stock(t, "p1"))
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_SalidaStoresNegativeQuantity(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 5, 0)

	res, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: 5, Reason: "Devolución a proveedor",
	})
	require.NoError(t, err)
	assert.Equal(t, -5, res.Movement.Quantity)
	assert.Equal(t, 0, res.StockAfter)
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_AjusteAddsStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 1, 0)

	res, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeAjuste, Quantity: 2, Reason: "Conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.StockAfter)
	assert.Equal(t, 2, res.Movement.Quantity)
}

func TestRecordMovement_InsufficientStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 2, 0)

	_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, "p1", insufficient.ProductID)

	assert.Equal(t, 2, f.stock(t, "p1"))
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_Validation(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 1, 0)

	cases := []struct {
		name  string
		input inventory.MovementInputDTO
		want  error
	}{
		{"cantidad cero", inventory.MovementInputDTO{UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: 0}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.MovementInputDTO{UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: -1}, domain.ErrInvalidInput},
		{"tipo VENTA manual", inventory.MovementInputDTO{UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeVenta, Quantity: 1}, domain.ErrInvalidInput},
		{"tipo desconocido", inventory.MovementInputDTO{UserID: f.user.ID, ProductID: "p1", Type: "REGALO", Quantity: 1}, domain.ErrInvalidInput},
		{"sin producto", inventory.MovementInputDTO{UserID: f.user.ID, Type: entity.MovementTypeEntrada, Quantity: 1}, domain.ErrInvalidInput},
		{"producto inexistente", inventory.MovementInputDTO{UserID: f.user.ID, ProductID: "nope", Type: entity.MovementTypeEntrada, Quantity: 1}, domain.ErrNotFound},
		{"usuario inexistente", inventory.MovementInputDTO{UserID: "ghost", ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: 1}, domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.RecordMovement(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 1, f.stock(t, "p1"))
}

func TestRecordMovement_RollbackWhenMovementInsertFails(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 5, 0)

	boom := errors.New("disco lleno")
	f.store.FailAfter(memory.OpMovementCreate, 0, boom)
	_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: 3,
	})
	require.ErrorIs(t, err, boom)
	f.store.ClearFaults()

	assert.Equal(t, 5, f.stock(t, "p1"))
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_ConcurrentSalidas(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 5, 0)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
				UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: 3,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.stock(t, "p1"))
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_ManyConcurrentMovementsKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 10, 0)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := entity.MovementTypeSalida
			if i%3 == 0 {
				kind = entity.MovementTypeEntrada
			}
			_, _ = f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
				UserID: f.user.ID, ProductID: "p1", Type: kind, Quantity: 2,
			})
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, f.stock(t, "p1"), 0)
	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_PublishesLowStockAlert(t *testing.T) {
	pub := new(mockPublisher)
	f := newFixture(t, pub)
	f.seedProduct(t, "p1", 5, 3)

	pub.On("PublishLowStock", mock.Anything, mock.MatchedBy(func(ev inventory.LowStockEvent) bool {
		return ev.ProductID == "p1" && ev.Stock == 2 && ev.MinStock == 3
	})).Return(errors.New("broker caído")).Once()

	res, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: 3,
	})
	require.NoError(t, err, "un fallo al publicar no revierte el movimiento")
	assert.Equal(t, 2, res.StockAfter)
	pub.AssertExpectations(t)

	// Las entradas nunca disparan alerta.
	_, err = f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	require.NoError(t, err)
	pub.AssertNumberOfCalls(t, "PublishLowStock", 1)
}

func TestCorrectStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 7, 0)

	res, err := f.ledger.CorrectStock(context.Background(), f.user.ID, "p1", 4, "")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, entity.MovementTypeAjuste, res.Movement.Type)
	assert.Equal(t, -3, res.Movement.Quantity)
	assert.Equal(t, "Corrección de stock", res.Movement.Reason)
	assert.Equal(t, 4, f.stock(t, "p1"))

	res, err = f.ledger.CorrectStock(context.Background(), f.user.ID, "p1", 4, "sin cambio")
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = f.ledger.CorrectStock(context.Background(), f.user.ID, "p1", -1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.CorrectStock(context.Background(), f.user.ID, "nope", 1, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.assertLedgerConsistent(t, "p1")
}

func TestRecordMovement_QuantityAboveColumnLimit(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 10, 0)
	ctx := context.Background()

	_, err := f.ledger.RecordMovement(ctx, inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: math.MaxInt,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)

	// La cantidad cabe, pero el stock resultante no.
	_, err = f.ledger.RecordMovement(ctx, inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeEntrada, Quantity: math.MaxInt32,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.CorrectStock(ctx, f.user.ID, "p1", math.MaxInt32+1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := f.ledger.CorrectStock(ctx, f.user.ID, "p1", math.MaxInt32, "inventario físico")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, res.StockAfter)

	assert.Equal(t, math.MaxInt32, f.stock(t, "p1"))
	f.assertLedgerConsistent(t, "p1")
}

// countingRunner cuenta las transacciones abiertas sobre el store.
type countingRunner struct {
	*memory.Store
	runs int
}

func (c *countingRunner) Run(ctx context.Context, fn func(repository.InventoryMovementRepository, repository.ProductRepository) error) error {
	c.runs++
	return c.Store.Run(ctx, fn)
}

func TestAudit_ReadsStockAndLedgerInOneTransaction(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 6, 0)
	runner := &countingRunner{Store: f.store}
	ledger := inventory.NewLedgerUseCase(runner, f.store.Products(), f.store.Movements(), f.store.Users(), nil, zerolog.Nop())

	audit, err := ledger.Audit(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.runs)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 6, audit.Stock)
	assert.Equal(t, 6, audit.MovementsSum)

	_, err = ledger.Audit(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByProductAndFilters(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 5, 0)
	f.seedProduct(t, "p2", 3, 0)
	_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInputDTO{
		UserID: f.user.ID, ProductID: "p1", Type: entity.MovementTypeSalida, Quantity: 1,
	})
	require.NoError(t, err)

	list, err := f.ledger.ListByProduct(context.Background(), "p1", nil, nil, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, entity.MovementTypeSalida, list.Items[0].Type, "más reciente primero")
	assert.Equal(t, 20, list.Page.Limit)

	_, err = f.ledger.ListByProduct(context.Background(), "nope", nil, nil, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entradas, err := f.ledger.List(context.Background(), repository.MovementFilter{Type: entity.MovementTypeEntrada}, dto.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entradas.Items, 2)

	_, err = f.ledger.List(context.Background(), repository.MovementFilter{Type: "OTRO"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLowStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seedProduct(t, "p1", 1, 3)
	f.seedProduct(t, "p2", 10, 3)
	f.seedProduct(t, "p3", 0, 2)

	uc := inventory.NewReplenishmentUseCase(f.store.Products())
	list, err := uc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p3", list[0].ProductID)
	assert.Equal(t, 4, list[0].SuggestedOrderQty)
	assert.Equal(t, "p1", list[1].ProductID)
	assert.Equal(t, 5, list[1].SuggestedOrderQty)
}
