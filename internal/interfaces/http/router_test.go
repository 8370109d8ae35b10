package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/internal/application/analytics"
	"github.com/jhoicas/musicstore-pos/internal/application/auth"
	"github.com/jhoicas/musicstore-pos/internal/application/cashregister"
	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/sales"
	"github.com/jhoicas/musicstore-pos/internal/application/usecase"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/memory"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/musicstore-pos/internal/interfaces/http"
)

type apiFixture struct {
	app    *fiber.App
	authUC *auth.AuthUseCase
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()

	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), store.Users(), nil, log)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         authUC,
		UserUC:         usecase.NewUserUseCase(store.Users()),
		ProductUC:      usecase.NewProductUseCase(store.Products(), store.Categories(), store.Suppliers(), store, ledger),
		CategoryUC:     usecase.NewCategoryUseCase(store.Categories()),
		SupplierUC:     usecase.NewSupplierUseCase(store.Suppliers()),
		Ledger:         ledger,
		Replenishment:  inventory.NewReplenishmentUseCase(store.Products()),
		SaleUC:         sales.NewSaleUseCase(store, ledger, store.Products(), store.Sales(), store.CashRegisters(), store.Users(), log),
		ReceiptUC:      sales.NewReceiptUseCase(store.Sales(), store.CashRegisters(), pdf.NewReceiptGenerator("Tienda de Prueba")),
		CashRegisterUC: cashregister.NewCashRegisterUseCase(store.CashRegisters(), store.Sales(), log),
		ReportUC:       analytics.NewReportUseCase(store.Reports()),
		DashboardUC:    analytics.NewDashboardUseCase(store.Reports()),
		JWTSecret:      testJWTSecret,
		Log:            log,
	})
	return &apiFixture{app: app, authUC: authUC}
}

// login crea el usuario con el rol dado y devuelve "Bearer <token>".
func (f *apiFixture) login(t *testing.T, email, role string) string {
	t.Helper()
	_, err := f.authUC.RegisterUser(context.Background(), dto.CreateUserRequest{
		Email: email, Password: "clave-segura-123", Name: role, Role: role,
	})
	require.NoError(t, err)
	var out dto.LoginResponse
	resp := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "clave-segura-123"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return "Bearer " + out.Token
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body, out interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		defer resp.Body.Close()
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// seedProduct crea categoría y producto con stock inicial usando un token ADMIN.
func (f *apiFixture) seedProduct(t *testing.T, admin string, stock int) dto.ProductResponse {
	t.Helper()
	var cat dto.CategoryResponse
	resp := f.call(t, http.MethodPost, "/api/categories", admin, dto.CategoryRequest{Name: "Guitarras"}, &cat)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product dto.ProductResponse
	resp = f.call(t, http.MethodPost, "/api/products", admin, map[string]interface{}{
		"code":           "GTR-001",
		"name":           "Guitarra acústica",
		"category_id":    cat.ID,
		"purchase_price": 300000,
		"sale_price":     450000,
		"initial_stock":  stock,
		"min_stock":      2,
	}, &product)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return product
}

func TestRouter_LoginPublicoYRutasProtegidas(t *testing.T) {
	f := newAPI(t)

	resp := f.call(t, http.MethodGet, "/api/products", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@tienda.com", Password: "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cajero := f.login(t, "cajero@tienda.com", "CAJERO")
	var me dto.UserResponse
	resp = f.call(t, http.MethodGet, "/api/me", cajero, nil, &me)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cajero@tienda.com", me.Email)

	// Alta de usuarios y catálogo solo ADMIN.
	resp = f.call(t, http.MethodPost, "/api/auth/register", cajero, dto.CreateUserRequest{
		Email: "otro@tienda.com", Password: "clave-segura-123", Name: "Otro", Role: "CAJERO",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = f.call(t, http.MethodPost, "/api/categories", cajero, dto.CategoryRequest{Name: "Pianos"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_IdsMalFormadosYCantidadesFueraDeRango(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@tienda.com", "ADMIN")
	product := f.seedProduct(t, admin, 10)

	resp := f.call(t, http.MethodGet, "/api/sales/abc", admin, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/inventory/movements", admin, dto.RegisterMovementRequest{
		ProductID: "x", Type: "ENTRADA", Quantity: 1, Reason: "compra",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/inventory/movements", admin, dto.RegisterMovementRequest{
		ProductID: product.ID, Type: "ENTRADA", Quantity: math.MaxInt32, Reason: "compra",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got dto.ProductResponse
	resp = f.call(t, http.MethodGet, "/api/products/"+product.ID, admin, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, got.Stock)
}

func TestRouter_MovimientosYStockInsuficiente(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@tienda.com", "ADMIN")
	almacen := f.login(t, "almacen@tienda.com", "ALMACEN")
	cajero := f.login(t, "cajero@tienda.com", "CAJERO")
	product := f.seedProduct(t, admin, 5)
	assert.Equal(t, 5, product.Stock)

	var mov dto.MovementResponse
	resp := f.call(t, http.MethodPost, "/api/inventory/movements", almacen, dto.RegisterMovementRequest{
		ProductID: product.ID, Type: "SALIDA", Quantity: 2, Reason: "exhibición",
	}, &mov)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, -2, mov.Quantity)
	require.NotNil(t, mov.StockAfter)
	assert.Equal(t, 3, *mov.StockAfter)

	var conflict map[string]interface{}
	resp = f.call(t, http.MethodPost, "/api/inventory/movements", almacen, dto.RegisterMovementRequest{
		ProductID: product.ID, Type: "SALIDA", Quantity: 10, Reason: "error",
	}, &conflict)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", conflict["code"])
	assert.EqualValues(t, 3, conflict["available"])
	assert.EqualValues(t, 10, conflict["requested"])

	// El cajero no registra movimientos manuales.
	resp = f.call(t, http.MethodPost, "/api/inventory/movements", cajero, dto.RegisterMovementRequest{
		ProductID: product.ID, Type: "ENTRADA", Quantity: 1, Reason: "x",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var history dto.MovementListResponse
	resp = f.call(t, http.MethodGet, "/api/inventory/products/"+product.ID+"/movements", almacen, nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "SALIDA", history.Items[0].Type)
	assert.Equal(t, "ENTRADA", history.Items[1].Type)

	var audit dto.LedgerAuditDTO
	resp = f.call(t, http.MethodGet, "/api/inventory/products/"+product.ID+"/audit", admin, nil, &audit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 3, audit.MovementsSum)
}

func TestRouter_VentaCompletaConCierreDeCaja(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@tienda.com", "ADMIN")
	cajero := f.login(t, "cajero@tienda.com", "CAJERO")
	product := f.seedProduct(t, admin, 3)

	// Sin caja abierta la venta falla.
	resp := f.call(t, http.MethodPost, "/api/sales", cajero, dto.CreateSaleRequest{
		CashRegisterID: "no-existe",
		Items:          []dto.SaleLineRequest{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:  "EFECTIVO",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var reg dto.CashRegisterResponse
	resp = f.call(t, http.MethodPost, "/api/cash-registers/open", cajero, map[string]interface{}{"opening_amount": 50000}, &reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ABIERTA", reg.Status)

	resp = f.call(t, http.MethodPost, "/api/cash-registers/open", cajero, map[string]interface{}{"opening_amount": 0}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var sale dto.SaleResponse
	resp = f.call(t, http.MethodPost, "/api/sales", cajero, dto.CreateSaleRequest{
		CashRegisterID: reg.ID,
		Items:          []dto.SaleLineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:  "EFECTIVO",
	}, &sale)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "900000", sale.Total.String())
	require.Len(t, sale.Lines, 1)

	// La segunda venta excede el stock y no deja rastro.
	resp = f.call(t, http.MethodPost, "/api/sales", cajero, dto.CreateSaleRequest{
		CashRegisterID: reg.ID,
		Items:          []dto.SaleLineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:  "TARJETA",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var got dto.ProductResponse
	f.call(t, http.MethodGet, "/api/products/"+product.ID, cajero, nil, &got)
	assert.Equal(t, 1, got.Stock)
	assert.True(t, got.LowStock)

	resp = f.call(t, http.MethodGet, "/api/sales/"+sale.ID+"/receipt", cajero, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	pdfBytes, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))

	var closed dto.CloseRegisterResponse
	resp = f.call(t, http.MethodPost, "/api/cash-registers/"+reg.ID+"/close", cajero, map[string]interface{}{"closing_amount": 950000}, &closed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CERRADA", closed.Register.Status)
	assert.Equal(t, 1, closed.Summary.SalesCount)
	assert.Equal(t, "950000", closed.Summary.ExpectedCash.String())

	var margins dto.MarginsReportDTO
	resp = f.call(t, http.MethodGet, "/api/reports/margins", admin, nil, &margins)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "900000", margins.TotalRevenue.String())
	assert.Equal(t, "300000", margins.TotalProfit.String())
	require.Len(t, margins.ParetoProducts, 1)

	resp = f.call(t, http.MethodGet, "/api/reports/margins", cajero, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Caja cerrada: no admite ventas.
	resp = f.call(t, http.MethodPost, "/api/sales", cajero, dto.CreateSaleRequest{
		CashRegisterID: reg.ID,
		Items:          []dto.SaleLineRequest{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:  "EFECTIVO",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_CierreDeCajaAjenaProhibido(t *testing.T) {
	f := newAPI(t)
	owner := f.login(t, "cajero1@tienda.com", "CAJERO")
	otro := f.login(t, "cajero2@tienda.com", "CAJERO")

	var reg dto.CashRegisterResponse
	resp := f.call(t, http.MethodPost, "/api/cash-registers/open", owner, map[string]interface{}{"opening_amount": 1000}, &reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/cash-registers/"+reg.ID+"/close", otro, map[string]interface{}{"closing_amount": 1000}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_CorreccionDeStockYBajoStock(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@tienda.com", "ADMIN")
	almacen := f.login(t, "almacen@tienda.com", "ALMACEN")
	product := f.seedProduct(t, admin, 10)

	var corrected dto.ProductResponse
	resp := f.call(t, http.MethodPut, "/api/products/"+product.ID+"/stock", admin, dto.CorrectStockRequest{Stock: 1, Reason: "inventario físico"}, &corrected)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, corrected.Stock)

	resp = f.call(t, http.MethodPut, "/api/products/"+product.ID+"/stock", almacen, dto.CorrectStockRequest{Stock: 5, Reason: "x"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var low struct {
		Total    int               `json:"total"`
		Products []dto.LowStockDTO `json:"products"`
	}
	resp = f.call(t, http.MethodGet, "/api/inventory/low-stock", almacen, nil, &low)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, low.Total)
	assert.Equal(t, product.ID, low.Products[0].ProductID)
}
