package repository

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

// ProductRepository consulta del catálogo para validar existencia de productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// ExistingIDs devuelve el subconjunto de ids que existen.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}
