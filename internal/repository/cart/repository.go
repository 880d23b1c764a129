package cart

import (
	"context"

	"glowloops/internal/domain"
)

// Repository stores one cart document per shopper.
type Repository interface {
	GetByShopper(ctx context.Context, shopperID string) (*domain.CartSnapshot, error)
	// PutIfNewer stores doc unless the stored document is newer. It returns
	// the document that is stored afterwards and whether doc was written.
	PutIfNewer(ctx context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, bool, error)
	Delete(ctx context.Context, shopperID string) error
}
