package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

// GetLocationStock stock de todos los productos de una ubicación.
func (uc *UseCase) GetLocationStock(ctx context.Context, locationID string) (*dto.LocationStockListResponse, error) {
	if locationID == "" {
		return nil, domain.ErrValidation
	}
	if _, err := uc.locationRepo.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	list, err := uc.locStockRepo.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationStockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toLocationStockResponse(s, false))
	}
	return &dto.LocationStockListResponse{LocationID: locationID, Items: items}, nil
}

// AdjustLocationStock aplica un delta al stock de una ubicación (recepciones, conteos).
// El resultado nunca baja de cero, con independencia de la política de stock negativo del ledger;
// el movimiento registra el delta solicitado y el recorte queda en el log.
func (uc *UseCase) AdjustLocationStock(ctx context.Context, locationID, actorID string, in dto.AdjustLocationStockRequest) (*dto.LocationStockResponse, error) {
	if locationID == "" || in.ProductID == "" || in.Quantity.IsZero() {
		return nil, domain.ErrValidation
	}
	loc, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !loc.Active {
		return nil, domain.ErrValidation
	}
	if _, err := uc.productRepo.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := time.Now()
	var out *entity.LocationStock
	var clamped bool
	err = uc.txRunner.RunTransfer(ctx, inventory.AdjustTimeout, func(
		ctx context.Context,
		_ repository.TransferRepository,
		locStockRepo repository.LocationStockRepository,
		movRepo repository.MovementRepository,
	) error {
		row, err := locStockRepo.GetForUpdate(ctx, in.ProductID, locationID)
		if err != nil {
			return err
		}
		row.Quantity, clamped = inventory.ClampLocation(row.Quantity, in.Quantity)
		row.UpdatedAt = now
		if err := locStockRepo.Upsert(ctx, row); err != nil {
			return err
		}
		out = row
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:         uuid.New().String(),
			ProductID:  in.ProductID,
			LocationID: &locationID,
			Type:       entity.MovementTypeAdjustment,
			Quantity:   in.Quantity,
			Reason:     in.Reason,
			ActorID:    optional(actorID),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	if clamped {
		uc.log.Warn().Str("product_id", in.ProductID).Str("location_id", locationID).Str("delta", in.Quantity.String()).
			Msg("stock de ubicación recortado a cero")
	}
	resp := toLocationStockResponse(out, clamped)
	return &resp, nil
}
