// Package memory implementa los repositorios sobre un almacén en memoria con transacciones.
// Una transacción toma el lock de escritura durante toda su duración y, si falla, restaura
// la foto del estado tomada al inicio. Sirve para APP_STORAGE=memory y como doble de pruebas.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/sales"
	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

var (
	_ inventory.TxRunner  = (*Store)(nil)
	_ sales.SalesTxRunner = (*Store)(nil)
)

// Operaciones en las que se puede inyectar un fallo con FailAfter.
const (
	OpMovementCreate = "movement.create"
	OpSaleCreate     = "sale.create"
	OpSaleLineCreate = "sale_line.create"
	OpStockDelta     = "product.stock_delta"
)

type state struct {
	products   map[string]entity.Product
	movements  []entity.InventoryMovement
	sales      map[string]entity.Sale
	saleLines  []entity.SaleLine
	registers  map[string]entity.CashRegister
	categories map[string]entity.Category
	suppliers  map[string]entity.Supplier
	users      map[string]entity.User
}

func newState() *state {
	return &state{
		products:   make(map[string]entity.Product),
		sales:      make(map[string]entity.Sale),
		registers:  make(map[string]entity.CashRegister),
		categories: make(map[string]entity.Category),
		suppliers:  make(map[string]entity.Supplier),
		users:      make(map[string]entity.User),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	c.movements = append([]entity.InventoryMovement(nil), s.movements...)
	for k, v := range s.sales {
		c.sales[k] = v
	}
	c.saleLines = append([]entity.SaleLine(nil), s.saleLines...)
	for k, v := range s.registers {
		c.registers[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type fault struct {
	remaining int
	err       error
}

// Store almacén en memoria. El valor cero no es usable: construir con NewStore.
type Store struct {
	mu     sync.RWMutex
	st     *state
	faults map[string]*fault
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]*fault)}
}

// FailAfter hace que la operación op falle con err después de n llamadas exitosas.
// Pensado para pruebas de atomicidad.
func (s *Store) FailAfter(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{remaining: n, err: err}
}

// ClearFaults elimina los fallos inyectados.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*fault)
}

// checkFault se llama con el lock tomado.
func (s *Store) checkFault(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		return nil
	}
	return f.err
}

func (s *Store) rlock(tx bool) {
	if !tx {
		s.mu.RLock()
	}
}

func (s *Store) runlock(tx bool) {
	if !tx {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(tx bool) {
	if !tx {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(tx bool) {
	if !tx {
		s.mu.Unlock()
	}
}

// withTx ejecuta fn con el lock de escritura tomado; si fn falla se restaura el estado previo.
func (s *Store) withTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.withTx(ctx, func() error {
		return fn(&MovementRepo{s: s, tx: true}, &ProductRepo{s: s, tx: true})
	})
}

// RunSale implementa sales.SalesTxRunner.
func (s *Store) RunSale(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	registerRepo repository.CashRegisterRepository,
) error) error {
	return s.withTx(ctx, func() error {
		return fn(&MovementRepo{s: s, tx: true}, &ProductRepo{s: s, tx: true},
			&SaleRepo{s: s, tx: true}, &CashRegisterRepo{s: s, tx: true})
	})
}

// Repositorios fuera de transacción.

func (s *Store) Products() *ProductRepo           { return &ProductRepo{s: s} }
func (s *Store) Movements() *MovementRepo         { return &MovementRepo{s: s} }
func (s *Store) Sales() *SaleRepo                 { return &SaleRepo{s: s} }
func (s *Store) CashRegisters() *CashRegisterRepo { return &CashRegisterRepo{s: s} }
func (s *Store) Categories() *CategoryRepo        { return &CategoryRepo{s: s} }
func (s *Store) Suppliers() *SupplierRepo         { return &SupplierRepo{s: s} }
func (s *Store) Users() *UserRepo                 { return &UserRepo{s: s} }
func (s *Store) Reports() *ReportRepo             { return &ReportRepo{s: s} }

func paginate(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		return n, n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func sortByName[T any](list []T, name func(T) string, id func(T) string) {
	sort.SliceStable(list, func(i, j int) bool {
		if name(list[i]) != name(list[j]) {
			return name(list[i]) < name(list[j])
		}
		return id(list[i]) < id(list[j])
	})
}
