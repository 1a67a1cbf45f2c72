package repository

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransferFilter filtros para listar traslados.
type TransferFilter struct {
	Status     string
	LocationID string // origen o destino
}

// TransferRepository puerto de persistencia de traslados y sus líneas.
type TransferRepository interface {
	// Create inserta cabecera y líneas. Devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	// UpdateStatus persiste estado, responsables y marcas de tiempo.
	UpdateStatus(ctx context.Context, transfer *entity.StockTransfer) error
	UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error
	// LastNumberWithPrefix devuelve el mayor transfer_number que empieza por prefix, o "".
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, filter TransferFilter, limit, offset int) ([]*entity.StockTransfer, int, error)
}
