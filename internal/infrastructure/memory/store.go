// Package memory implementa los repositorios y el TxRunner sobre estructuras en memoria.
// Cada transacción trabaja sobre una copia del estado y solo la publica si fn termina sin error,
// de modo que un fallo deja todo como estaba. Las transacciones se serializan entre sí.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ transfer.TxRunner  = (*Store)(nil)
)

type locKey struct {
	productID  string
	locationID string
}

type state struct {
	products  map[string]entity.Product
	locations map[string]entity.Location
	ledgers   map[string]entity.StockLedger
	movements []entity.StockMovement
	locStock  map[locKey]entity.LocationStock
	transfers map[string]entity.StockTransfer
}

func newState() *state {
	return &state{
		products:  map[string]entity.Product{},
		locations: map[string]entity.Location{},
		ledgers:   map[string]entity.StockLedger{},
		locStock:  map[locKey]entity.LocationStock{},
		transfers: map[string]entity.StockTransfer{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.ledgers {
		c.ledgers[k] = v
	}
	c.movements = append(make([]entity.StockMovement, 0, len(s.movements)), s.movements...)
	for k, v := range s.locStock {
		c.locStock[k] = v
	}
	for k, v := range s.transfers {
		v.Items = append([]entity.StockTransferItem(nil), v.Items...)
		c.transfers[k] = v
	}
	return c
}

// FaultFunc permite simular fallos de almacenamiento en tests: recibe el nombre de la operación
// (p. ej. "movements.create_many") y devuelve el error a inyectar o nil.
type FaultFunc func(op string) error

// Store almacenamiento en memoria con semántica transaccional todo-o-nada.
type Store struct {
	txMu   sync.Mutex   // serializa transacciones (equivale al bloqueo de filas)
	dataMu sync.RWMutex // protege data
	data   *state
	fault  FaultFunc
	log    *logger.Logger
}

// NewStore crea un store vacío.
func NewStore(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{data: newState(), log: log.Component("memory")}
}

// SetFault instala (o quita con nil) la inyección de fallos.
func (s *Store) SetFault(f FaultFunc) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.fault = f
}

func (s *Store) check(op string) error {
	s.dataMu.RLock()
	f := s.fault
	s.dataMu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op)
}

func (s *Store) snapshot() *state {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data
}

// atomic ejecuta fn sobre una copia del estado y la confirma solo si no hubo error.
func (s *Store) atomic(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx *state) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := s.snapshot().clone()
	if err := fn(ctx, tx); err != nil {
		return s.classify(err)
	}
	if err := ctx.Err(); err != nil {
		return s.classify(err)
	}

	s.dataMu.Lock()
	s.data = tx
	s.dataMu.Unlock()
	return nil
}

func (s *Store) classify(err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	s.log.Error().Err(err).Msg("transacción abortada")
	return errors.Join(domain.ErrStorage, err)
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, timeout time.Duration, fn func(
	ctx context.Context,
	ledgerRepo repository.LedgerRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.atomic(ctx, timeout, func(ctx context.Context, tx *state) error {
		return fn(ctx, &LedgerRepo{repoBase{store: s, tx: tx}}, &MovementRepo{repoBase{store: s, tx: tx}})
	})
}

// RunTransfer implementa transfer.TxRunner.
func (s *Store) RunTransfer(ctx context.Context, timeout time.Duration, fn func(
	ctx context.Context,
	transferRepo repository.TransferRepository,
	locStockRepo repository.LocationStockRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.atomic(ctx, timeout, func(ctx context.Context, tx *state) error {
		return fn(ctx, &TransferRepo{repoBase{store: s, tx: tx}}, &LocationStockRepo{repoBase{store: s, tx: tx}}, &MovementRepo{repoBase{store: s, tx: tx}})
	})
}

// Repos fuera de transacción (lecturas de los casos de uso).
func (s *Store) Ledgers() *LedgerRepo              { return &LedgerRepo{repoBase{store: s}} }
func (s *Store) Movements() *MovementRepo          { return &MovementRepo{repoBase{store: s}} }
func (s *Store) Products() *ProductRepo            { return &ProductRepo{repoBase{store: s}} }
func (s *Store) Locations() *LocationRepo          { return &LocationRepo{repoBase{store: s}} }
func (s *Store) LocationStock() *LocationStockRepo { return &LocationStockRepo{repoBase{store: s}} }
func (s *Store) Transfers() *TransferRepo          { return &TransferRepo{repoBase{store: s}} }

// AddProduct registra un producto del catálogo (seed y tests).
func (s *Store) AddProduct(p entity.Product) {
	_ = s.atomic(context.Background(), 0, func(_ context.Context, tx *state) error {
		tx.products[p.ID] = p
		return nil
	})
}

// AddLocation registra una ubicación (seed y tests).
func (s *Store) AddLocation(l entity.Location) {
	_ = s.atomic(context.Background(), 0, func(_ context.Context, tx *state) error {
		tx.locations[l.ID] = l
		return nil
	})
}

// repoBase resuelve el estado sobre el que trabaja un repo: el de la tx o el confirmado.
type repoBase struct {
	store *Store
	tx    *state
}

func (r repoBase) view() *state {
	if r.tx != nil {
		return r.tx
	}
	return r.store.snapshot()
}

// write aplica fn en la tx actual o, fuera de tx, como una transacción propia.
func (r repoBase) write(ctx context.Context, op string, fn func(st *state) error) error {
	if err := r.store.check(op); err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.atomic(ctx, 0, func(_ context.Context, tx *state) error { return fn(tx) })
}
