// Package cart serves the per-shopper remote cart document.
package cart

import (
	"context"
	"fmt"

	"glowloops/internal/domain"
	"glowloops/internal/events"
	cartrepo "glowloops/internal/repository/cart"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	repo      cartrepo.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

func New(repo cartrepo.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// SavedEvent is the payload of events.CartSaved.
type SavedEvent struct {
	ShopperID      string          `json:"shopperId"`
	Lines          int             `json:"lines"`
	TotalItemCount int             `json:"totalItemCount"`
	Total          decimal.Decimal `json:"total"`
}

// GetCart returns domain.ErrNotFound when the shopper has no stored cart.
func (s *Service) GetCart(ctx context.Context, shopperID string) (*domain.CartSnapshot, error) {
	return s.repo.GetByShopper(ctx, shopperID)
}

// PutCart stores doc unless a newer document is already stored, and returns
// whichever document the shopper has afterwards.
func (s *Service) PutCart(ctx context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	stored, written, err := s.repo.PutIfNewer(ctx, shopperID, doc)
	if err != nil {
		return nil, err
	}
	if !written {
		s.logger.Info("kept newer stored cart", zap.String("shopper_id", shopperID),
			zap.Time("stored_at", stored.UpdatedAt), zap.Time("submitted_at", doc.UpdatedAt))
		return stored, nil
	}

	totals := stored.Totals()
	ev := SavedEvent{
		ShopperID:      shopperID,
		Lines:          len(stored.Items),
		TotalItemCount: totals.ItemCount,
		Total:          totals.Total,
	}
	if err := s.publisher.Publish(ctx, events.CartSaved, shopperID, ev); err != nil {
		s.logger.Warn("cart saved but event not published", zap.String("shopper_id", shopperID), zap.Error(err))
	}
	return stored, nil
}

// validateDocument applies the store's line invariants to a submitted cart.
func validateDocument(doc domain.CartSnapshot) error {
	seen := make(map[domain.MergeKey]struct{}, len(doc.Items))
	ids := make(map[string]struct{}, len(doc.Items))
	for i, it := range doc.Items {
		if it.ID == "" {
			return &domain.InvalidLineItemError{Field: fmt.Sprintf("items[%d].id", i), Reason: "is required"}
		}
		if _, dup := ids[it.ID]; dup {
			return &domain.InvalidLineItemError{Field: fmt.Sprintf("items[%d].id", i), Reason: "is duplicated"}
		}
		ids[it.ID] = struct{}{}

		in := domain.LineItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageRef:  it.ImageRef,
			Color:     it.Color,
			AddOn:     it.AddOn,
		}
		if err := in.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.Key()]; dup {
			return &domain.InvalidLineItemError{
				Field:  fmt.Sprintf("items[%d]", i),
				Reason: "duplicates another line with the same product, color and add-on",
			}
		}
		seen[it.Key()] = struct{}{}
	}
	if doc.Shipping != nil && doc.Shipping.Price.IsNegative() {
		return &domain.InvalidLineItemError{Field: "shipping.price", Reason: "must not be negative"}
	}
	if d := doc.Discount; d != nil {
		if d.Type != domain.DiscountPercentage && d.Type != domain.DiscountFixed {
			return &domain.InvalidLineItemError{Field: "discount.type", Reason: "must be percentage or fixed"}
		}
		if d.Amount.IsNegative() {
			return &domain.InvalidLineItemError{Field: "discount.amount", Reason: "must not be negative"}
		}
		if d.Type == domain.DiscountPercentage && d.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return &domain.InvalidLineItemError{Field: "discount.amount", Reason: "percentage must not exceed 100"}
		}
	}
	return nil
}
