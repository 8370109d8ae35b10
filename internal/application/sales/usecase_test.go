package sales_test

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
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/sales"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	ledger   *inventory.LedgerUseCase
	sales    *sales.SaleUseCase
	cashier  *entity.User
	register *entity.CashRegister
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	cashier := &entity.User{ID: "u-cajero", Name: "Carlos Caja", Email: "carlos@tienda.test", Role: entity.RoleCajero, Active: true}
	require.NoError(t, store.Users().Create(ctx, cashier))

	register := &entity.CashRegister{
		ID: "caja-1", UserID: cashier.ID, OpeningAmount: decimal.NewFromInt(50),
		OpenedAt: time.Now(), Status: entity.RegisterStatusOpen,
	}
	require.NoError(t, store.CashRegisters().Create(ctx, register))

	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), store.Users(), nil, zerolog.Nop())
	uc := sales.NewSaleUseCase(store, ledger, store.Products(), store.Sales(), store.CashRegisters(), store.Users(), zerolog.Nop())
	return &fixture{store: store, ledger: ledger, sales: uc, cashier: cashier, register: register}
}

func (f *fixture) seedProduct(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{
		ID: id, Code: "COD-" + id, Name: "Producto " + id, CategoryID: "cat-1",
		PurchasePrice: decimal.NewFromInt(price / 2), SalePrice: decimal.NewFromInt(price),
		Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, f.store.Products().Create(ctx, p))
	if stock > 0 {
		_, err := f.ledger.RecordMovement(ctx, inventory.MovementInputDTO{
			UserID: f.cashier.ID, ProductID: id, Type: entity.MovementTypeEntrada, Quantity: stock, Reason: "Stock inicial",
		})
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) movementCount(t *testing.T, id string) int {
	t.Helper()
	list, err := f.store.Movements().ListByProduct(context.Background(), id, nil, nil, 0, 0)
	require.NoError(t, err)
	return len(list)
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	list, err := f.store.Sales().List(context.Background(), repository.SaleFilter{}, 0, 0)
	require.NoError(t, err)
	return len(list)
}

func (f *fixture) assertConsistent(t *testing.T, id string) {
	t.Helper()
	audit, err := f.ledger.Audit(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
}

func saleRequest(register string, method string, items ...dto.SaleLineRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{CashRegisterID: register, Items: items, PaymentMethod: method}
}

func line(productID string, qty int) dto.SaleLineRequest {
	return dto.SaleLineRequest{ProductID: productID, Quantity: qty}
}

func TestRecordSale_Simple(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)

	sale, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 2)))
	require.NoError(t, err)

	assert.Equal(t, "200.00", sale.Total.StringFixed(2))
	assert.Equal(t, "Carlos Caja", sale.UserName)
	require.Len(t, sale.Lines, 1)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, sale.Lines[0].Subtotal.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Producto p1", sale.Lines[0].ProductName)
	assert.Equal(t, 8, f.stock(t, "p1"))

	movs, err := f.store.Movements().List(context.Background(), repository.MovementFilter{Type: entity.MovementTypeVenta}, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, -2, movs[0].Quantity)
	assert.Equal(t, sale.ID, movs[0].SaleID)
	assert.Equal(t, "Venta #"+sale.ID, movs[0].Reason)
	f.assertConsistent(t, "p1")

	stored, err := f.sales.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(sale.Total))
	assert.Len(t, stored.Lines, 1)
}

func TestRecordSale_MultipleLinesOneMovementEach(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)
	f.seedProduct(t, "p2", 35, 4)

	sale, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodTarjeta, line("p2", 4), line("p1", 1)))
	require.NoError(t, err)

	assert.Equal(t, "240.00", sale.Total.StringFixed(2))
	assert.Equal(t, 9, f.stock(t, "p1"))
	assert.Equal(t, 0, f.stock(t, "p2"))
	assert.Equal(t, 2, f.movementCount(t, "p1"))
	assert.Equal(t, 2, f.movementCount(t, "p2"))
	f.assertConsistent(t, "p1")
	f.assertConsistent(t, "p2")
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p2", 100, 1)

	_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p2", 2)))
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1, insufficient.Available)
	assert.Equal(t, "Producto p2", insufficient.ProductName)

	assert.Equal(t, 1, f.stock(t, "p2"))
	assert.Equal(t, 0, f.saleCount(t))
	assert.Equal(t, 1, f.movementCount(t, "p2"))
}

func TestRecordSale_ClosedRegister(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)
	closedAt := time.Now()
	amount := decimal.NewFromInt(50)
	require.NoError(t, f.store.CashRegisters().Close(context.Background(), &entity.CashRegister{
		ID: f.register.ID, ClosingAmount: &amount, ClosedAt: &closedAt,
	}))

	_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidSessionState)
	assert.Equal(t, 10, f.stock(t, "p1"))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestRecordSale_DuplicateLinesCheckedAgainstRunningStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p3", 80, 5)

	// Cada línea por separado cabe en el stock, juntas no.
	_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p3", 3), line("p3", 3)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, "p3"))
	assert.Equal(t, 0, f.saleCount(t))
	assert.Equal(t, 1, f.movementCount(t, "p3"))
	f.assertConsistent(t, "p3")

	sale, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p3", 2), line("p3", 3)))
	require.NoError(t, err)
	assert.Len(t, sale.Lines, 2)
	assert.Equal(t, 0, f.stock(t, "p3"))
	assert.Equal(t, 3, f.movementCount(t, "p3"))
}

func TestRecordSale_RollbackOnPersistenceFailure(t *testing.T) {
	cases := []struct {
		name string
		op   string
		n    int
	}{
		{"segundo movimiento", memory.OpMovementCreate, 1},
		{"segunda línea", memory.OpSaleLineCreate, 1},
		{"cabecera", memory.OpSaleCreate, 0},
		{"actualización de stock", memory.OpStockDelta, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedProduct(t, "p1", 100, 10)
			f.seedProduct(t, "p2", 50, 10)

			boom := errors.New("fallo de escritura")
			f.store.FailAfter(tc.op, tc.n, boom)
			_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
				saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 2), line("p2", 3)))
			require.ErrorIs(t, err, boom)
			f.store.ClearFaults()

			assert.Equal(t, 10, f.stock(t, "p1"))
			assert.Equal(t, 10, f.stock(t, "p2"))
			assert.Equal(t, 1, f.movementCount(t, "p1"))
			assert.Equal(t, 1, f.movementCount(t, "p2"))
			assert.Equal(t, 0, f.saleCount(t))
		})
	}
}

func TestRecordSale_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)
	inactive := &entity.Product{ID: "old", Code: "OLD", Name: "Descontinuado", SalePrice: decimal.NewFromInt(10), Active: false}
	require.NoError(t, f.store.Products().Create(context.Background(), inactive))

	cases := []struct {
		name string
		req  dto.CreateSaleRequest
		want error
	}{
		{"sin líneas", saleRequest(f.register.ID, entity.PaymentMethodEfectivo), domain.ErrInvalidInput},
		{"cantidad cero", saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 0)), domain.ErrInvalidInput},
		{"cantidad fuera de rango", saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", math.MaxInt)), domain.ErrInvalidInput},
		{"método de pago", saleRequest(f.register.ID, "CHEQUE", line("p1", 1)), domain.ErrInvalidInput},
		{"sin caja", saleRequest("", entity.PaymentMethodEfectivo, line("p1", 1)), domain.ErrInvalidInput},
		{"caja inexistente", saleRequest("nope", entity.PaymentMethodEfectivo, line("p1", 1)), domain.ErrNotFound},
		{"producto inexistente", saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("nope", 1)), domain.ErrNotFound},
		{"producto inactivo", saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("old", 1)), domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sales.RecordSale(context.Background(), f.cashier.ID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, f.stock(t, "p1"))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestRecordSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 5)
	f.seedProduct(t, "p2", 100, 5)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Orden de líneas invertido en la mitad de las ventas.
			items := []dto.SaleLineRequest{line("p1", 1), line("p2", 1)}
			if i%2 == 0 {
				items = []dto.SaleLineRequest{line("p2", 1), line("p1", 1)}
			}
			_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
				saleRequest(f.register.ID, entity.PaymentMethodEfectivo, items...))
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 0, f.stock(t, "p1"))
	assert.Equal(t, 0, f.stock(t, "p2"))
	f.assertConsistent(t, "p1")
	f.assertConsistent(t, "p2")
}

func TestListSales(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)
	for i := 0; i < 3; i++ {
		_, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
			saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 1)))
		require.NoError(t, err)
	}

	list, err := f.sales.ListSales(context.Background(), repository.SaleFilter{CashRegisterID: f.register.ID}, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = f.sales.GetSale(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type fakeReceipt struct{ called bool }

func (g *fakeReceipt) GenerateReceipt(_ context.Context, sale *entity.Sale, register *entity.CashRegister) ([]byte, error) {
	g.called = sale != nil && register != nil
	return []byte("%PDF-1.4"), nil
}

func TestDownloadReceipt(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 100, 10)
	sale, err := f.sales.RecordSale(context.Background(), f.cashier.ID,
		saleRequest(f.register.ID, entity.PaymentMethodEfectivo, line("p1", 1)))
	require.NoError(t, err)

	gen := &fakeReceipt{}
	uc := sales.NewReceiptUseCase(f.store.Sales(), f.store.CashRegisters(), gen)
	pdf, name, err := uc.DownloadReceipt(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.True(t, gen.called)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "ticket_"+sale.ID[:8]+".pdf", name)

	_, _, err = uc.DownloadReceipt(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
