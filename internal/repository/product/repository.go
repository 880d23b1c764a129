package product

import (
	"context"

	"glowloops/internal/domain"
)

// Repository reads and writes catalog products.
type Repository interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
