package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

// maxNumberAttempts reintentos ante colisión del número de traslado (UNIQUE transfer_number).
const maxNumberAttempts = 5

// DefaultPrefix prefijo de numeración si la configuración no define otro.
const DefaultPrefix = "TRF"

// UseCase orquesta la máquina de estados de traslados entre ubicaciones:
// pending -> in_transit -> completed | cancelled.
type UseCase struct {
	txRunner     TxRunner
	transferRepo repository.TransferRepository
	locationRepo repository.LocationRepository
	locStockRepo repository.LocationStockRepository
	productRepo  repository.ProductRepository
	publisher    ports.EventPublisher
	log          *logger.Logger
	prefix       string
}

// NewUseCase construye el orquestador de traslados.
func NewUseCase(
	txRunner TxRunner,
	transferRepo repository.TransferRepository,
	locationRepo repository.LocationRepository,
	locStockRepo repository.LocationStockRepository,
	productRepo repository.ProductRepository,
	publisher ports.EventPublisher,
	log *logger.Logger,
	prefix string,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &UseCase{
		txRunner:     txRunner,
		transferRepo: transferRepo,
		locationRepo: locationRepo,
		locStockRepo: locStockRepo,
		productRepo:  productRepo,
		publisher:    publisher,
		log:          log.Component("transfer"),
		prefix:       prefix,
	}
}

// ReceivedItem cantidad realmente recibida de una línea al completar.
type ReceivedItem struct {
	ItemID           string
	ReceivedQuantity decimal.Decimal
}

// Create valida y registra un traslado en pending. La verificación de stock en origen es
// informativa: se vuelve a aplicar el stock real al completar.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if in.FromLocationID == "" || in.ToLocationID == "" || in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrValidation
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrValidation
	}
	productIDs := make([]string, 0, len(in.Items))
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.IsPositive() || seen[it.ProductID] {
			return nil, domain.ErrValidation
		}
		seen[it.ProductID] = true
		productIDs = append(productIDs, it.ProductID)
	}

	for _, id := range []string{in.FromLocationID, in.ToLocationID} {
		loc, err := uc.locationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !loc.Active {
			return nil, fmt.Errorf("%w: ubicación %s inactiva", domain.ErrValidation, loc.Code)
		}
	}

	existing, err := uc.productRepo.ExistingIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range productIDs {
		if !existing[id] {
			return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
		}
	}

	for _, it := range in.Items {
		src, err := uc.locStockRepo.Get(ctx, it.ProductID, in.FromLocationID)
		if err != nil {
			return nil, err
		}
		if it.Quantity.GreaterThan(src.Quantity) {
			return nil, fmt.Errorf("%w: stock en origen insuficiente para %s (%s < %s)",
				domain.ErrValidation, it.ProductID, src.Quantity, it.Quantity)
		}
	}

	now := time.Now()
	t := &entity.StockTransfer{
		ID:             uuid.New().String(),
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Status:         entity.TransferStatusPending,
		Notes:          in.Notes,
		RequestedByID:  actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, it := range in.Items {
		t.Items = append(t.Items, entity.StockTransferItem{
			ID:               uuid.New().String(),
			TransferID:       t.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			ReceivedQuantity: decimal.Zero,
			Notes:            it.Notes,
		})
	}

	if err := uc.insertWithNumber(ctx, t, now); err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", t.ID).Str("transfer_number", t.TransferNumber).Int("items", len(t.Items)).Msg("traslado creado")
	uc.emit(ctx, entity.EventTransferCreated, t, actorID, now)
	return toTransferResponse(t), nil
}

// insertWithNumber asigna PREFIX-YYYYMMDD-NNNNN (mayor del día + 1) e inserta. Si otro traslado
// tomó el mismo número entre la lectura y el insert, la restricción UNIQUE lo rechaza y se reintenta.
func (uc *UseCase) insertWithNumber(ctx context.Context, t *entity.StockTransfer, now time.Time) error {
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = uc.txRunner.RunTransfer(ctx, inventory.TransferTimeout, func(
			ctx context.Context,
			transferRepo repository.TransferRepository,
			_ repository.LocationStockRepository,
			_ repository.MovementRepository,
		) error {
			last, err := transferRepo.LastNumberWithPrefix(ctx, inventory.TransferNumberPrefix(uc.prefix, now))
			if err != nil {
				return err
			}
			number, err := inventory.NextTransferNumber(uc.prefix, now, last)
			if err != nil {
				return err
			}
			t.TransferNumber = number
			return transferRepo.Create(ctx, t)
		})
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		uc.log.Warn().Str("transfer_number", t.TransferNumber).Int("attempt", attempt).Msg("número de traslado en uso, reintentando")
	}
	return err
}

// Dispatch pending -> in_transit. Es solo una etiqueta: no mueve inventario.
func (uc *UseCase) Dispatch(ctx context.Context, id, actorID string) (*dto.TransferResponse, error) {
	if id == "" {
		return nil, domain.ErrValidation
	}
	now := time.Now()
	var out *entity.StockTransfer
	err := uc.txRunner.RunTransfer(ctx, inventory.TransferTimeout, func(
		ctx context.Context,
		transferRepo repository.TransferRepository,
		_ repository.LocationStockRepository,
		_ repository.MovementRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.CanDispatch() {
			return domain.ErrInvalidState
		}
		t.Status = entity.TransferStatusInTransit
		t.DispatchedAt = &now
		t.UpdatedAt = now
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", id).Str("actor_id", actorID).Msg("traslado despachado")
	return toTransferResponse(out), nil
}

// Complete aplica las cantidades recibidas en una sola transacción (≈15s): por cada línea con
// recibido > 0 descuenta el origen (con piso en cero), suma al destino y escribe dos movimientos
// que referencian el traslado. Las líneas no informadas se reciben en cero. Cualquier error
// revierte todo y el traslado queda como estaba.
func (uc *UseCase) Complete(ctx context.Context, id, actorID string, received []ReceivedItem) (*dto.TransferResponse, error) {
	if id == "" {
		return nil, domain.ErrValidation
	}
	byItem := make(map[string]decimal.Decimal, len(received))
	for _, r := range received {
		if r.ItemID == "" || r.ReceivedQuantity.IsNegative() {
			return nil, domain.ErrValidation
		}
		if _, dup := byItem[r.ItemID]; dup {
			return nil, domain.ErrValidation
		}
		byItem[r.ItemID] = r.ReceivedQuantity
	}

	now := time.Now()
	var out *entity.StockTransfer
	err := uc.txRunner.RunTransfer(ctx, inventory.TransferTimeout, func(
		ctx context.Context,
		transferRepo repository.TransferRepository,
		locStockRepo repository.LocationStockRepository,
		movRepo repository.MovementRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.CanComplete() {
			return domain.ErrInvalidState
		}

		// Validación completa antes de cualquier escritura.
		for itemID, qty := range byItem {
			item, ok := t.Item(itemID)
			if !ok {
				return fmt.Errorf("%w: la línea %s no pertenece al traslado", domain.ErrValidation, itemID)
			}
			if qty.GreaterThan(item.Quantity) {
				return fmt.Errorf("%w: recibido %s supera lo solicitado %s", domain.ErrValidation, qty, item.Quantity)
			}
		}

		// Orden fijo de bloqueo (producto, ubicación) para no cruzarse con otros traslados.
		items := make([]*entity.StockTransferItem, 0, len(t.Items))
		for i := range t.Items {
			items = append(items, &t.Items[i])
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		reference := t.ID
		var movements []*entity.StockMovement
		for _, item := range items {
			qty := byItem[item.ID]
			if qty.IsPositive() {
				if err := uc.moveStock(ctx, locStockRepo, t, item.ProductID, qty, now); err != nil {
					return err
				}
				from, to := t.FromLocationID, t.ToLocationID
				reason := "traslado " + t.TransferNumber
				movements = append(movements,
					&entity.StockMovement{
						ID: uuid.New().String(), ProductID: item.ProductID, LocationID: &from,
						Type: entity.MovementTypeTransfer, Quantity: qty.Neg(), Reason: reason,
						ActorID: optional(actorID), ReferenceID: &reference, CreatedAt: now,
					},
					&entity.StockMovement{
						ID: uuid.New().String(), ProductID: item.ProductID, LocationID: &to,
						Type: entity.MovementTypeTransfer, Quantity: qty, Reason: reason,
						ActorID: optional(actorID), ReferenceID: &reference, CreatedAt: now,
					},
				)
			}
			if err := transferRepo.UpdateItemReceived(ctx, item.ID, qty); err != nil {
				return err
			}
			item.ReceivedQuantity = qty
		}
		if len(movements) > 0 {
			if err := movRepo.CreateMany(ctx, movements); err != nil {
				return err
			}
		}

		t.Status = entity.TransferStatusCompleted
		t.CompletedByID = optional(actorID)
		t.CompletedAt = &now
		t.UpdatedAt = now
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("transfer_id", id).Str("transfer_number", out.TransferNumber).Msg("traslado completado")
	uc.emit(ctx, entity.EventTransferCompleted, out, actorID, now)
	return toTransferResponse(out), nil
}

// moveStock descuenta en origen (piso en cero) y suma en destino, bloqueando las dos filas
// en orden de location_id.
func (uc *UseCase) moveStock(ctx context.Context, locStockRepo repository.LocationStockRepository, t *entity.StockTransfer, productID string, qty decimal.Decimal, now time.Time) error {
	locs := []string{t.FromLocationID, t.ToLocationID}
	sort.Strings(locs)
	rows := make(map[string]*entity.LocationStock, 2)
	for _, loc := range locs {
		row, err := locStockRepo.GetForUpdate(ctx, productID, loc)
		if err != nil {
			return err
		}
		rows[loc] = row
	}

	src := rows[t.FromLocationID]
	next, clamped := inventory.ClampLocation(src.Quantity, qty.Neg())
	if clamped {
		uc.log.Warn().
			Str("transfer_id", t.ID).
			Str("product_id", productID).
			Str("location_id", t.FromLocationID).
			Str("available", src.Quantity.String()).
			Str("requested", qty.String()).
			Msg("stock de origen insuficiente al completar, se deja en cero")
	}
	src.Quantity = next
	src.UpdatedAt = now
	if err := locStockRepo.Upsert(ctx, src); err != nil {
		return err
	}

	dst := rows[t.ToLocationID]
	dst.Quantity = dst.Quantity.Add(qty)
	dst.UpdatedAt = now
	return locStockRepo.Upsert(ctx, dst)
}

// Cancel pending|in_transit -> cancelled. No hay efecto en inventario porque nada se movió.
func (uc *UseCase) Cancel(ctx context.Context, id, actorID string) (*dto.TransferResponse, error) {
	if id == "" {
		return nil, domain.ErrValidation
	}
	now := time.Now()
	var out *entity.StockTransfer
	err := uc.txRunner.RunTransfer(ctx, inventory.TransferTimeout, func(
		ctx context.Context,
		transferRepo repository.TransferRepository,
		_ repository.LocationStockRepository,
		_ repository.MovementRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.CanCancel() {
			return domain.ErrInvalidState
		}
		t.Status = entity.TransferStatusCancelled
		t.CancelledByID = optional(actorID)
		t.CancelledAt = &now
		t.UpdatedAt = now
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", id).Str("actor_id", actorID).Msg("traslado cancelado")
	uc.emit(ctx, entity.EventTransferCancelled, out, actorID, now)
	return toTransferResponse(out), nil
}

// Get devuelve el traslado con sus líneas.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.TransferResponse, error) {
	if id == "" {
		return nil, domain.ErrValidation
	}
	t, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTransferResponse(t), nil
}

// List lista traslados por estado y/o ubicación (origen o destino), más recientes primero.
func (uc *UseCase) List(ctx context.Context, filter repository.TransferFilter, page dto.PageRequest) (*dto.TransferListResponse, error) {
	switch filter.Status {
	case "", entity.TransferStatusPending, entity.TransferStatusInTransit, entity.TransferStatusCompleted, entity.TransferStatusCancelled:
	default:
		return nil, domain.ErrValidation
	}
	page.DefaultPage()
	list, total, err := uc.transferRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func (uc *UseCase) emit(ctx context.Context, eventType string, t *entity.StockTransfer, actorID string, now time.Time) {
	payload := entity.TransferEventPayload{
		TransferID:     t.ID,
		TransferNumber: t.TransferNumber,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Status:         t.Status,
	}
	for _, it := range t.Items {
		payload.ProductIDs = append(payload.ProductIDs, it.ProductID)
	}
	var events ports.Events
	if err := events.Add(eventType, t.ID, actorID, payload, now); err != nil {
		uc.log.Error().Err(err).Str("event", eventType).Msg("no se pudo construir el evento")
		return
	}
	ports.Emit(ctx, uc.publisher, uc.log, events)
}
