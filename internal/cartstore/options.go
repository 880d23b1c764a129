package cartstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowloops/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StorageKey is the local storage record the cart lives under.
const StorageKey = "glowloops-cart-storage"

// Remote is the per-shopper cart document service. PutCart may return a
// different cart than the one submitted when the service reconciles.
type Remote interface {
	GetCart(ctx context.Context, shopperID string) (*domain.CartSnapshot, error)
	PutCart(ctx context.Context, shopperID string, cart domain.CartSnapshot) (*domain.CartSnapshot, error)
}

// ShopperSource reports the authenticated shopper, if any.
type ShopperSource interface {
	CurrentShopperID() (string, bool)
}

// LoadPolicy decides how a remote cart is applied by LoadFromRemote.
type LoadPolicy int

const (
	// ReplaceOnLoad overwrites local state with the remote cart.
	ReplaceOnLoad LoadPolicy = iota
	// MergeOnLoad unions lines by merge key; the newer snapshot wins per key.
	MergeOnLoad
)

func (p LoadPolicy) String() string {
	if p == MergeOnLoad {
		return "merge"
	}
	return "replace"
}

// ParseLoadPolicy accepts "replace" (or empty) and "merge".
func ParseLoadPolicy(s string) (LoadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return ReplaceOnLoad, nil
	case "merge":
		return MergeOnLoad, nil
	default:
		return ReplaceOnLoad, fmt.Errorf("unknown load policy %q", s)
	}
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRemote(remote Remote) Option {
	return func(s *Store) { s.remote = remote }
}

func WithShopper(src ShopperSource) Option {
	return func(s *Store) { s.shopper = src }
}

// WithMaxLineQuantity caps the quantity of any single line. Zero disables the cap.
func WithMaxLineQuantity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxQty = n
		}
	}
}

func WithLoadPolicy(p LoadPolicy) Option {
	return func(s *Store) { s.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func defaultID() string {
	return uuid.NewString()
}
