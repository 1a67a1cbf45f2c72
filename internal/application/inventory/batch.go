package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-stock-engine/internal/application/ports"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// BatchLine una línea del lote. Type vacío se registra como venta.
type BatchLine struct {
	ProductID string
	Quantity  decimal.Decimal
	Type      string
	Reason    string
}

// BatchAdjustInput lote de deltas que llegan juntos (p. ej. una venta con varios ítems).
type BatchAdjustInput struct {
	Lines         []BatchLine
	ReferenceID   *string
	ActorID       string
	AllowNegative bool
}

type batchChange struct {
	ledger   *entity.StockLedger
	previous decimal.Decimal
	clamped  bool
}

// BatchAdjust procesa el lote en una sola transacción: agrupa por producto, bloquea todos los
// ledgers en una lectura, recorta a cero en vez de rechazar, persiste las cantidades netas y
// escribe un movimiento por línea original. No devuelve error: un fallo de almacenamiento aborta
// el lote completo, se registra y se publica stock.batch_failed para el flujo llamador.
func (uc *LedgerUseCase) BatchAdjust(ctx context.Context, in BatchAdjustInput) {
	lines := uc.validBatchLines(ctx, in)
	if len(lines) == 0 {
		return
	}

	deltas := make([]inventory.Delta, 0, len(lines))
	for _, l := range lines {
		deltas = append(deltas, inventory.Delta{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	net, order := inventory.NetDeltas(deltas)

	now := time.Now()
	movements := make([]*entity.StockMovement, 0, len(lines))
	for _, l := range lines {
		movements = append(movements, &entity.StockMovement{
			ID:          uuid.New().String(),
			ProductID:   l.ProductID,
			Type:        l.Type,
			Quantity:    l.Quantity,
			Reason:      l.Reason,
			ActorID:     optional(in.ActorID),
			ReferenceID: in.ReferenceID,
			CreatedAt:   now,
		})
	}

	var changes []batchChange
	err := uc.txRunner.Run(ctx, inventory.BatchTimeout(len(lines)), func(
		ctx context.Context,
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
	) error {
		changes = changes[:0]
		for _, productID := range order {
			if _, _, err := ledgerRepo.Ensure(ctx, &entity.StockLedger{ProductID: productID, LastUpdated: now}); err != nil {
				return err
			}
		}
		current, err := ledgerRepo.GetManyForUpdate(ctx, order)
		if err != nil {
			return err
		}
		updated := make([]*entity.StockLedger, 0, len(order))
		for _, productID := range order {
			ledger, ok := current[productID]
			if !ok {
				return fmt.Errorf("ledger %s: %w", productID, domain.ErrNotFound)
			}
			previous := ledger.Quantity
			next, clamped := inventory.ApplyBatchDelta(previous, net[productID], in.AllowNegative)
			ledger.Quantity = next
			ledger.LastUpdated = now
			updated = append(updated, ledger)
			changes = append(changes, batchChange{ledger: ledger, previous: previous, clamped: clamped})
		}
		if err := ledgerRepo.UpdateMany(ctx, updated); err != nil {
			return err
		}
		return movRepo.CreateMany(ctx, movements)
	})
	if err != nil {
		uc.batchFailed(ctx, in, order, len(lines), err, now)
		return
	}

	var events ports.Events
	for _, c := range changes {
		if c.clamped {
			uc.log.Warn().
				Str("product_id", c.ledger.ProductID).
				Str("previous", c.previous.String()).
				Str("net_delta", net[c.ledger.ProductID].String()).
				Str("reference_id", deref(in.ReferenceID)).
				Msg("stock.batch_clamped")
		}
		payload := ledgerPayload(c.ledger, c.previous, net[c.ledger.ProductID], nil)
		if err := events.Add(entity.EventInventoryChanged, c.ledger.ProductID, in.ActorID, payload, now); err != nil {
			uc.log.Error().Err(err).Msg("no se pudo construir el evento")
			continue
		}
		if inventory.CrossedReorder(c.previous, c.ledger.Quantity, c.ledger.ReorderLevel) {
			_ = events.Add(entity.EventLowStock, c.ledger.ProductID, in.ActorID, payload, now)
		}
	}
	uc.log.Debug().Int("lines", len(lines)).Int("products", len(order)).Str("reference_id", deref(in.ReferenceID)).Msg("lote aplicado")
	ports.Emit(ctx, uc.publisher, uc.log, events)
}

// validBatchLines descarta (con log) líneas vacías, tipos desconocidos y productos inexistentes.
func (uc *LedgerUseCase) validBatchLines(ctx context.Context, in BatchAdjustInput) []BatchLine {
	lines := make([]BatchLine, 0, len(in.Lines))
	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Type == "" {
			l.Type = entity.MovementTypeSale
		}
		if l.ProductID == "" || l.Quantity.IsZero() || !entity.ValidMovementType(l.Type) {
			uc.log.Warn().Str("product_id", l.ProductID).Str("type", l.Type).Msg("línea de lote inválida descartada")
			continue
		}
		lines = append(lines, l)
		ids = append(ids, l.ProductID)
	}
	if len(lines) == 0 {
		return nil
	}

	existing, err := uc.productRepo.ExistingIDs(ctx, ids)
	if err != nil {
		uc.batchFailed(ctx, in, ids, len(lines), err, time.Now())
		return nil
	}
	kept := lines[:0]
	for _, l := range lines {
		if !existing[l.ProductID] {
			uc.log.Warn().Str("product_id", l.ProductID).Msg("producto inexistente en lote, línea descartada")
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func (uc *LedgerUseCase) batchFailed(ctx context.Context, in BatchAdjustInput, productIDs []string, lines int, cause error, now time.Time) {
	uc.log.Error().Err(cause).
		Str("reference_id", deref(in.ReferenceID)).
		Strs("product_ids", productIDs).
		Int("lines", lines).
		Msg("lote de movimientos abortado")

	var events ports.Events
	payload := entity.BatchFailedPayload{
		ReferenceID: deref(in.ReferenceID),
		ProductIDs:  productIDs,
		Lines:       lines,
		Error:       cause.Error(),
	}
	aggregate := deref(in.ReferenceID)
	if aggregate == "" && len(productIDs) > 0 {
		aggregate = productIDs[0]
	}
	if err := events.Add(entity.EventBatchFailed, aggregate, in.ActorID, payload, now); err != nil {
		uc.log.Error().Err(err).Msg("no se pudo construir el evento")
		return
	}
	ports.Emit(ctx, uc.publisher, uc.log, events)
}
