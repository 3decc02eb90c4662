package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

// Ensure Store implements repository.TxRunner.
var _ repository.TxRunner = (*Store)(nil)

// ErrInjectedFault es el error que devuelven las escrituras cuando el hook Fault lo solicita.
var ErrInjectedFault = errors.New("memory: falla inyectada")

type stockKey struct {
	lotID     string
	productID string
}

// state es una instantánea completa del ledger. Cada transacción trabaja sobre una copia.
type state struct {
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	sections   map[string]entity.Section
	lots       map[string]entity.Lot
	stock      map[stockKey]entity.LotStock
	movements  []entity.InventoryMovement
}

func newState() *state {
	return &state{
		products:   map[string]entity.Product{},
		warehouses: map[string]entity.Warehouse{},
		sections:   map[string]entity.Section{},
		lots:       map[string]entity.Lot{},
		stock:      map[stockKey]entity.LotStock{},
	}
}

func (s *state) clone() *state {
	return &state{
		products:   maps.Clone(s.products),
		warehouses: maps.Clone(s.warehouses),
		sections:   maps.Clone(s.sections),
		lots:       maps.Clone(s.lots),
		stock:      maps.Clone(s.stock),
		movements:  append([]entity.InventoryMovement(nil), s.movements...),
	}
}

// Store es un backend transaccional en memoria para desarrollo y pruebas.
// Los escritores se serializan con wmu y trabajan sobre una copia que se publica al confirmar;
// los lectores solo ven instantáneas confirmadas.
type Store struct {
	wmu     sync.Mutex
	mu      sync.RWMutex
	current *state

	// Fault, si no es nil, se invoca antes de cada escritura con el nombre de la operación
	// (p. ej. "movements.create"). Un error aborta la transacción en curso.
	Fault func(op string) error
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{current: newState()}
}

// Run ejecuta fn sobre una copia del estado y la publica si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	work := s.current.clone()
	s.mu.RUnlock()

	if err := fn(s.bind(work)); err != nil {
		return err
	}
	if err := s.fault("commit"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.mu.Lock()
	s.current = work
	s.mu.Unlock()
	return nil
}

// Repositories devuelve repositorios fuera de transacción: leen la última instantánea
// confirmada y cada escritura se confirma de forma individual.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(nil)
}

// StockQuery devuelve el repositorio de consultas agregadas.
func (s *Store) StockQuery() repository.StockQueryRepository {
	return &stockQueryRepo{tx: txView{store: s}}
}

func (s *Store) bind(work *state) repository.Repositories {
	v := txView{store: s, work: work}
	return repository.Repositories{
		Products:   &productRepo{tx: v},
		Warehouses: &warehouseRepo{tx: v},
		Sections:   &sectionRepo{tx: v},
		Lots:       &lotRepo{tx: v},
		Stock:      &stockRepo{tx: v},
		Movements:  &movementRepo{tx: v},
	}
}

func (s *Store) fault(op string) error {
	if s.Fault == nil {
		return nil
	}
	if err := s.Fault(op); err != nil {
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInjectedFault, err))
	}
	return nil
}

// txView resuelve el estado sobre el que opera un repositorio: la copia de la transacción
// en curso o, si work es nil, la instantánea confirmada.
type txView struct {
	store *Store
	work  *state
}

func (v txView) read(fn func(st *state) error) error {
	if v.work != nil {
		return fn(v.work)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.current)
}

func (v txView) write(ctx context.Context, op string, fn func(st *state) error) error {
	if v.work != nil {
		if err := v.store.fault(op); err != nil {
			return err
		}
		return fn(v.work)
	}
	return v.store.Run(ctx, func(repos repository.Repositories) error {
		inner := repos.Products.(*productRepo).tx
		if err := v.store.fault(op); err != nil {
			return err
		}
		return fn(inner.work)
	})
}

func sumStock(st *state, keep func(k stockKey, ls entity.LotStock) bool) decimal.Decimal {
	total := decimal.Zero
	for k, ls := range st.stock {
		if keep(k, ls) {
			total = total.Add(ls.Quantity)
		}
	}
	return total
}
