package seed

import (
	"context"
	"fmt"

	"glowloops/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductWriter is the slice of the product repository seeding needs.
type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

var careAddOns = []domain.AddOn{
	{ID: "care-1y", Name: "1 year jewelry care plan", Price: decimal.RequireFromString("4.99")},
	{ID: "care-2y", Name: "2 year jewelry care plan", Price: decimal.RequireFromString("7.99")},
}

// Catalog is the demo jewelry catalog.
var Catalog = []domain.Product{
	{
		Key:         "halo-hoops",
		SKU:         "GL-EAR-HALO",
		Name:        "Halo Hoops",
		Description: "Lightweight hoops with a brushed finish",
		PriceCents:  2450,
		Currency:    "USD",
		Images:      []string{"glowloops/earrings/halo-hoops"},
		Colors:      []string{"gold", "silver", "rose"},
		AddOns:      careAddOns,
	},
	{
		Key:         "loop-bracelet",
		SKU:         "GL-BRC-LOOP",
		Name:        "Loop Bracelet",
		Description: "Interlocking loops on an adjustable chain",
		PriceCents:  3490,
		Currency:    "USD",
		Images:      []string{"glowloops/bracelets/loop"},
		Colors:      []string{"gold", "silver"},
		AddOns:      careAddOns,
	},
	{
		Key:         "orbit-pendant",
		SKU:         "GL-NCK-ORBIT",
		Name:        "Orbit Pendant",
		Description: "A single orbit charm on a fine cable chain",
		PriceCents:  4200,
		Currency:    "USD",
		Images:      []string{"glowloops/necklaces/orbit", "glowloops/necklaces/orbit-detail"},
		AddOns:      careAddOns[:1],
	},
	{
		Key:         "gift-box",
		SKU:         "GL-GIFT-BOX",
		Name:        "Gift Box",
		Description: "Recycled card box with ribbon",
		PriceCents:  500,
		Currency:    "USD",
		Images:      []string{"glowloops/extras/gift-box"},
	},
}

// Apply upserts the demo catalog. It is idempotent because products are keyed.
func Apply(ctx context.Context, repo ProductWriter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range Catalog {
		saved, err := repo.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
		logger.Info("seeded product", zap.String("key", saved.Key), zap.String("id", saved.ID))
	}
	return nil
}
