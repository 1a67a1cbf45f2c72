package repository

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

// LocationRepository lectura de ubicaciones (el alta/baja la gestiona otro módulo).
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}

// LocationStockRepository stock por producto y ubicación, usado por los traslados.
type LocationStockRepository interface {
	// Get y GetForUpdate devuelven cantidad cero si no hay fila. GetForUpdate la crea antes de
	// bloquearla, así dos transacciones sobre un par nuevo no se pisan.
	Get(ctx context.Context, productID, locationID string) (*entity.LocationStock, error)
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.LocationStock, error)
	Upsert(ctx context.Context, stock *entity.LocationStock) error
	ListByLocation(ctx context.Context, locationID string) ([]*entity.LocationStock, error)
}
