package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

// AdjustFromRequest adapta el request HTTP al caso de uso Adjust(ctx, AdjustInput).
// allowNegative lo lee el llamador de la configuración en cada request.
func (uc *LedgerUseCase) AdjustFromRequest(ctx context.Context, actorID string, allowNegative bool, in dto.AdjustRequest) (*AdjustResult, error) {
	return uc.Adjust(ctx, AdjustInput{
		ProductID:     in.ProductID,
		Delta:         in.Quantity,
		Type:          in.Type,
		Reason:        in.Reason,
		ActorID:       actorID,
		ReferenceID:   in.ReferenceID,
		ExpiryDate:    in.ExpiryDate,
		AllowNegative: allowNegative,
	})
}

// BatchAdjustFromRequest adapta el request HTTP al procesador por lotes.
func (uc *LedgerUseCase) BatchAdjustFromRequest(ctx context.Context, actorID string, allowNegative bool, in dto.BatchAdjustRequest) {
	lines := make([]BatchLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, BatchLine{ProductID: l.ProductID, Quantity: l.Quantity, Type: l.Type, Reason: l.Reason})
	}
	uc.BatchAdjust(ctx, BatchAdjustInput{
		Lines:         lines,
		ReferenceID:   in.ReferenceID,
		ActorID:       actorID,
		AllowNegative: allowNegative,
	})
}

// MovementFilterFromRequest convierte los query params en filtro de repositorio.
// Las fechas aceptan RFC3339 o YYYY-MM-DD; "to" en formato fecha incluye el día completo.
func MovementFilterFromRequest(in dto.MovementFilterRequest) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		Scope:       in.Scope,
		ProductID:   in.ProductID,
		Type:        in.Type,
		ActorID:     in.ActorID,
		LocationID:  in.LocationID,
		ReferenceID: in.ReferenceID,
	}
	if in.From != "" {
		t, _, err := parseDate(in.From)
		if err != nil {
			return f, domain.ErrInvalidInput
		}
		f.From = &t
	}
	if in.To != "" {
		t, dateOnly, err := parseDate(in.To)
		if err != nil {
			return f, domain.ErrInvalidInput
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}
