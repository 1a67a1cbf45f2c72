package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/application/ports"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"github.com/shopspring/decimal"
)

const initialBalanceReason = "saldo inicial"

// LedgerUseCase motor de ajustes sobre el StockLedger: get-or-create, ajuste individual con
// bloqueo de fila (SELECT FOR UPDATE), lote de movimientos y consulta del historial.
type LedgerUseCase struct {
	txRunner          TxRunner
	ledgerRepo        repository.LedgerRepository
	movRepo           repository.MovementRepository
	productRepo       repository.ProductRepository
	publisher         ports.EventPublisher
	log               *logger.Logger
	expiryWarningDays int
}

// NewLedgerUseCase construye el caso de uso. ledgerRepo y movRepo son los repos fuera de
// transacción (lecturas); las escrituras usan los repos que entrega txRunner.
func NewLedgerUseCase(
	txRunner TxRunner,
	ledgerRepo repository.LedgerRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	publisher ports.EventPublisher,
	log *logger.Logger,
	expiryWarningDays int,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	return &LedgerUseCase{
		txRunner:          txRunner,
		ledgerRepo:        ledgerRepo,
		movRepo:           movRepo,
		productRepo:       productRepo,
		publisher:         publisher,
		log:               log.Component("ledger"),
		expiryWarningDays: expiryWarningDays,
	}
}

// AdjustInput entrada de un ajuste individual. Delta lleva signo.
// AllowNegative es la política de stock negativo leída por el llamador desde configuración.
type AdjustInput struct {
	ProductID     string
	Delta         decimal.Decimal
	Type          string
	Reason        string
	ActorID       string
	ReferenceID   *string
	ExpiryDate    *time.Time
	AllowNegative bool
}

// AdjustResult ledger actualizado y el movimiento escrito en la misma transacción.
type AdjustResult struct {
	Ledger   dto.LedgerResponse
	Movement dto.MovementResponse
}

// EnsureLedger get-or-create del ledger de un producto. Nunca sobrescribe una fila existente.
// Si se crea con cantidad inicial distinta de cero se registra el movimiento de saldo inicial,
// así la cantidad sigue siendo la suma de sus movimientos.
func (uc *LedgerUseCase) EnsureLedger(ctx context.Context, productID, actorID string, in dto.EnsureLedgerRequest) (*dto.LedgerResponse, error) {
	if productID == "" || in.ReorderLevel.IsNegative() || in.InitialQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	now := time.Now()
	var ledger *entity.StockLedger
	var created bool
	err := uc.txRunner.Run(ctx, inventory.AdjustTimeout, func(
		ctx context.Context,
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
	) error {
		var err error
		ledger, created, err = ledgerRepo.Ensure(ctx, &entity.StockLedger{
			ProductID:    productID,
			Quantity:     in.InitialQuantity,
			ReorderLevel: in.ReorderLevel,
			LastUpdated:  now,
		})
		if err != nil {
			return err
		}
		if !created || in.InitialQuantity.IsZero() {
			return nil
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:        uuid.New().String(),
			ProductID: productID,
			Type:      entity.MovementTypeAdjustment,
			Quantity:  in.InitialQuantity,
			Reason:    initialBalanceReason,
			ActorID:   optional(actorID),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	if created {
		uc.log.Info().Str("product_id", productID).Str("quantity", ledger.Quantity.String()).Msg("ledger creado")
	}
	return toLedgerResponse(ledger), nil
}

// GetLedger devuelve el ledger de un producto (ErrNotFound si aún no existe).
func (uc *LedgerUseCase) GetLedger(ctx context.Context, productID string) (*dto.LedgerResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	ledger, err := uc.ledgerRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toLedgerResponse(ledger), nil
}

// UpdateReorderLevel cambia el punto de reorden (crea el ledger si no existía).
func (uc *LedgerUseCase) UpdateReorderLevel(ctx context.Context, productID, actorID string, level decimal.Decimal) (*dto.LedgerResponse, error) {
	if productID == "" || level.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	now := time.Now()
	var ledger *entity.StockLedger
	err := uc.txRunner.Run(ctx, inventory.AdjustTimeout, func(
		ctx context.Context,
		ledgerRepo repository.LedgerRepository,
		_ repository.MovementRepository,
	) error {
		current, created, err := ledgerRepo.Ensure(ctx, &entity.StockLedger{
			ProductID:    productID,
			ReorderLevel: level,
			LastUpdated:  now,
		})
		if err != nil {
			return err
		}
		if !created {
			if err := ledgerRepo.UpdateReorderLevel(ctx, productID, level); err != nil {
				return err
			}
			current.ReorderLevel = level
		}
		ledger = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Las reglas de alerta dependen del punto de reorden: se reevalúan.
	var events ports.Events
	if err := events.Add(entity.EventInventoryChanged, productID, actorID, ledgerPayload(ledger, ledger.Quantity, decimal.Zero, nil), now); err != nil {
		uc.log.Error().Err(err).Str("product_id", productID).Msg("no se pudo construir el evento")
	}
	ports.Emit(ctx, uc.publisher, uc.log, events)
	return toLedgerResponse(ledger), nil
}

// Adjust aplica un delta con signo dentro de una transacción acotada (≈10s): bloquea la fila,
// calcula la nueva cantidad, aplica la política de stock negativo, conserva el vencimiento más
// temprano cuando entra stock y escribe exactamente un movimiento. Ante rechazo no queda ningún
// cambio ni movimiento.
func (uc *LedgerUseCase) Adjust(ctx context.Context, in AdjustInput) (*AdjustResult, error) {
	if in.ProductID == "" || in.Delta.IsZero() || !entity.ValidMovementType(in.Type) {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.productRepo.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := time.Now()
	mov := &entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   in.ProductID,
		Type:        in.Type,
		Quantity:    in.Delta,
		Reason:      in.Reason,
		ActorID:     optional(in.ActorID),
		ReferenceID: in.ReferenceID,
		ExpiryDate:  in.ExpiryDate,
		CreatedAt:   now,
	}

	var ledger *entity.StockLedger
	var previous decimal.Decimal
	err := uc.txRunner.Run(ctx, inventory.AdjustTimeout, func(
		ctx context.Context,
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
	) error {
		if _, _, err := ledgerRepo.Ensure(ctx, &entity.StockLedger{ProductID: in.ProductID, LastUpdated: now}); err != nil {
			return err
		}
		current, err := ledgerRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		next, err := inventory.ApplyDelta(current.Quantity, in.Delta, in.AllowNegative)
		if err != nil {
			return err
		}
		previous = current.Quantity
		current.Quantity = next
		if in.Delta.IsPositive() {
			current.ExpiryDate = inventory.EarlierExpiry(current.ExpiryDate, in.ExpiryDate)
		}
		current.LastUpdated = now
		if err := ledgerRepo.Update(ctx, current); err != nil {
			return err
		}
		ledger = current
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			uc.log.Info().Str("product_id", in.ProductID).Str("delta", in.Delta.String()).Msg("ajuste rechazado por stock insuficiente")
		}
		return nil, err
	}

	ports.Emit(ctx, uc.publisher, uc.log, uc.adjustEvents(ledger, previous, mov, now))
	return &AdjustResult{
		Ledger:   *toLedgerResponse(ledger),
		Movement: *toMovementResponse(mov),
	}, nil
}

// adjustEvents eventos de un ajuste confirmado: inventory.changed siempre; stock.low si cruzó
// el punto de reorden hacia abajo; stock.adjusted para mermas y ajustes; stock.expiry_warning
// si el stock entrante vence dentro de la ventana de aviso.
func (uc *LedgerUseCase) adjustEvents(ledger *entity.StockLedger, previous decimal.Decimal, mov *entity.StockMovement, now time.Time) ports.Events {
	actorID := deref(mov.ActorID)
	payload := ledgerPayload(ledger, previous, mov.Quantity, mov)

	var events ports.Events
	add := func(eventType string) {
		if err := events.Add(eventType, ledger.ProductID, actorID, payload, now); err != nil {
			uc.log.Error().Err(err).Str("event", eventType).Msg("no se pudo construir el evento")
		}
	}
	add(entity.EventInventoryChanged)
	if inventory.CrossedReorder(previous, ledger.Quantity, ledger.ReorderLevel) {
		add(entity.EventLowStock)
	}
	switch mov.Type {
	case entity.MovementTypeAdjustment, entity.MovementTypeDamage, entity.MovementTypeExpiry:
		add(entity.EventStockAdjusted)
	}
	if mov.Quantity.IsPositive() && inventory.ExpiresWithin(mov.ExpiryDate, now, uc.expiryWarningDays) {
		add(entity.EventExpiryWarning)
	}
	return events
}

func ledgerPayload(ledger *entity.StockLedger, previous, delta decimal.Decimal, mov *entity.StockMovement) entity.LedgerEventPayload {
	p := entity.LedgerEventPayload{
		ProductID:    ledger.ProductID,
		Quantity:     ledger.Quantity.String(),
		Previous:     previous.String(),
		Delta:        delta.String(),
		ReorderLevel: ledger.ReorderLevel.String(),
		ExpiryDate:   ledger.ExpiryDate,
	}
	if mov != nil {
		p.MovementType = mov.Type
		p.Reason = mov.Reason
		if mov.ExpiryDate != nil {
			p.ExpiryDate = mov.ExpiryDate
		}
	}
	return p
}
