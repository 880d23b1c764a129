// Package cartstore holds one shopper's cart: line items, shipping and
// discount selections, with totals derived on every read.
//
// Every mutation is written through to local storage. When a shopper is
// signed in the cart can be pushed to and pulled from the remote cart
// document service.
package cartstore

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"glowloops/internal/domain"
	"glowloops/internal/localstore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is safe for concurrent use. Mutations are serialised; remote I/O in
// SyncWithRemote and LoadFromRemote runs without holding the lock.
type Store struct {
	mu      sync.Mutex
	storage localstore.Storage
	remote  Remote
	shopper ShopperSource
	logger  *zap.Logger
	maxQty  int
	policy  LoadPolicy
	now     func() time.Time
	newID   func() string

	items     []domain.LineItem
	shipping  *domain.Shipping
	discount  *domain.Discount
	updatedAt time.Time
	// revision increments on every local change; sync uses it to detect
	// mutations that happened while a remote call was in flight.
	revision uint64
}

// Open restores the cart from storage. A missing or unreadable record yields
// an empty cart.
func Open(storage localstore.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.storage == nil {
		return
	}
	raw, err := s.storage.Read(StorageKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotExist) {
			s.logger.Warn("read persisted cart", zap.Error(err))
		}
		return
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt cart record", zap.Error(err))
		return
	}
	s.items = snap.Items
	s.shipping = snap.Shipping
	s.discount = snap.Discount
	s.updatedAt = snap.UpdatedAt
}

// AddItem merges in into the line with the same product, color and add-on,
// or appends a new line. It returns the resulting line.
func (s *Store) AddItem(in domain.LineItemInput) (domain.LineItem, error) {
	if err := in.Validate(); err != nil {
		return domain.LineItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := in.Key()
	for i := range s.items {
		if s.items[i].Key() != key {
			continue
		}
		existing := s.items[i].Quantity
		if in.Quantity > math.MaxInt-existing {
			return domain.LineItem{}, &domain.InvalidLineItemError{Field: "quantity", Reason: "is too large"}
		}
		qty := existing + in.Quantity
		if err := s.checkQuantity(qty); err != nil {
			return domain.LineItem{}, err
		}
		s.items[i].Quantity = qty
		s.touchLocked()
		return s.items[i].Clone(), nil
	}

	if err := s.checkQuantity(in.Quantity); err != nil {
		return domain.LineItem{}, err
	}
	line := domain.LineItem{
		ID:        s.newID(),
		ProductID: in.ProductID,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		ImageRef:  in.ImageRef,
		Quantity:  in.Quantity,
		Color:     in.Color,
	}
	if in.AddOn != nil {
		addOn := *in.AddOn
		line.AddOn = &addOn
	}
	s.items = append(s.items, line)
	s.touchLocked()
	return line.Clone(), nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or less
// removes it. Unknown ids are ignored.
func (s *Store) UpdateItemQuantity(lineID string, quantity int) error {
	if quantity <= 0 {
		s.RemoveItem(lineID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == lineID {
			if err := s.checkQuantity(quantity); err != nil {
				return err
			}
			s.items[i].Quantity = quantity
			s.touchLocked()
			return nil
		}
	}
	return nil
}

func (s *Store) RemoveItem(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == lineID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.touchLocked()
			return
		}
	}
}

// Clear empties the cart. The persisted record is rewritten, not deleted.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.shipping = nil
	s.discount = nil
	s.touchLocked()
}

// SetShipping replaces the shipping selection; nil clears it.
func (s *Store) SetShipping(sel *domain.Shipping) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shipping = nil
	if sel != nil {
		cp := *sel
		s.shipping = &cp
	}
	s.touchLocked()
}

// SetDiscount replaces the discount selection; nil clears it.
func (s *Store) SetDiscount(sel *domain.Discount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discount = nil
	if sel != nil {
		cp := *sel
		s.discount = &cp
	}
	s.touchLocked()
}

func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneItems(s.items)
}

func (s *Store) Shipping() *domain.Shipping {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shipping == nil {
		return nil
	}
	cp := *s.shipping
	return &cp
}

func (s *Store) Discount() *domain.Discount {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discount == nil {
		return nil
	}
	cp := *s.discount
	return &cp
}

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ComputeTotals(s.items, s.shipping, s.discount)
}

func (s *Store) TotalItemCount() int {
	return s.Totals().ItemCount
}

func (s *Store) Subtotal() decimal.Decimal {
	return s.Totals().Subtotal
}

func (s *Store) Total() decimal.Decimal {
	return s.Totals().Total
}

func (s *Store) checkQuantity(qty int) error {
	if s.maxQty > 0 && qty > s.maxQty {
		return &domain.InvalidLineItemError{
			Field:  "quantity",
			Reason: fmt.Sprintf("must not exceed %d", s.maxQty),
		}
	}
	return nil
}

func (s *Store) snapshotLocked() domain.CartSnapshot {
	return domain.CartSnapshot{
		Items:     s.items,
		Shipping:  s.shipping,
		Discount:  s.discount,
		UpdatedAt: s.updatedAt,
	}.Clone()
}

// touchLocked records a local mutation and writes the cart through.
func (s *Store) touchLocked() {
	s.revision++
	s.updatedAt = s.now().UTC()
	s.persistLocked()
}

// replaceLocked installs snap as the whole cart state.
func (s *Store) replaceLocked(snap domain.CartSnapshot) {
	snap = snap.Clone()
	s.items = snap.Items
	s.shipping = snap.Shipping
	s.discount = snap.Discount
	s.updatedAt = snap.UpdatedAt
	if s.updatedAt.IsZero() {
		s.updatedAt = s.now().UTC()
	}
	s.revision++
	s.persistLocked()
}

// persistLocked failures are logged only; the in-memory cart stays authoritative.
func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	raw, err := encodeSnapshot(s.snapshotLocked())
	if err != nil {
		s.logger.Warn("encode cart", zap.Error(err))
		return
	}
	if err := s.storage.Write(StorageKey, raw); err != nil {
		s.logger.Warn("persist cart", zap.Error(err))
	}
}
