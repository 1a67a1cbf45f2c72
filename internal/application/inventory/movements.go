package inventory

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

// ListMovements consulta paginada del historial con totales de entradas y salidas calculados al
// momento (no se mantienen de forma incremental). Por defecto solo incluye movimientos del
// ledger, así los totales de un producto cuadran con su cantidad.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter, page dto.PageRequest) (*dto.MovementListResponse, error) {
	if !repository.ValidMovementScope(filter.Scope) {
		return nil, domain.ErrInvalidInput
	}
	if filter.Type != "" && !entity.ValidMovementType(filter.Type) {
		return nil, domain.ErrInvalidInput
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()

	list, err := uc.movRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	totals, err := uc.movRepo.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items:    items,
		TotalIn:  totals.TotalIn,
		TotalOut: totals.TotalOut,
		Page:     dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: totals.Count},
	}, nil
}
