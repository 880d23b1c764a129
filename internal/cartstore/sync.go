package cartstore

import (
	"context"
	"errors"
	"fmt"

	"glowloops/internal/domain"

	"go.uber.org/zap"
)

// ErrNoRemote is returned by sync operations on a store built without WithRemote.
var ErrNoRemote = errors.New("cart store has no remote configured")

// SyncError wraps a failed remote call. Local state is unchanged when it is returned.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("cart %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

type SyncOutcome int

const (
	// OutcomeUnchanged: the remote agreed with local state.
	OutcomeUnchanged SyncOutcome = iota
	// OutcomeReplaced: local state was overwritten by the remote cart.
	OutcomeReplaced
	// OutcomeMerged: local and remote lines were combined.
	OutcomeMerged
	// OutcomeAbsent: no remote cart exists for the shopper.
	OutcomeAbsent
	// OutcomeStale: the remote answered, but local state changed while the
	// call was in flight, so the answer was dropped.
	OutcomeStale
)

func (o SyncOutcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeReplaced:
		return "replaced"
	case OutcomeMerged:
		return "merged"
	case OutcomeAbsent:
		return "absent"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// SyncResult reports what a sync did and the local cart afterwards.
type SyncResult struct {
	Outcome SyncOutcome
	Cart    domain.CartSnapshot
}

// SyncWithRemote pushes the cart to the shopper's remote document. If the
// remote returns a different cart it replaces local state, unless local state
// changed after the push started.
func (s *Store) SyncWithRemote(ctx context.Context) (SyncResult, error) {
	shopperID, err := s.requireSession()
	if err != nil {
		return SyncResult{}, err
	}

	s.mu.Lock()
	sent := s.snapshotLocked()
	rev := s.revision
	s.mu.Unlock()

	got, err := s.remote.PutCart(ctx, shopperID, sent)
	if err != nil {
		s.logger.Warn("cart sync failed", zap.String("shopper_id", shopperID), zap.Error(err))
		return SyncResult{}, &SyncError{Op: "sync", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if got == nil || got.SameContents(sent) {
		return SyncResult{Outcome: OutcomeUnchanged, Cart: s.snapshotLocked()}, nil
	}
	if s.revision != rev {
		s.logger.Info("dropping remote cart, local cart changed during sync",
			zap.String("shopper_id", shopperID))
		return SyncResult{Outcome: OutcomeStale, Cart: s.snapshotLocked()}, nil
	}
	s.replaceLocked(*got)
	s.logger.Info("local cart replaced by remote", zap.String("shopper_id", shopperID),
		zap.Int("lines", len(s.items)))
	return SyncResult{Outcome: OutcomeReplaced, Cart: s.snapshotLocked()}, nil
}

// LoadFromRemote pulls the shopper's remote cart. Under ReplaceOnLoad a
// present remote cart overwrites local state wholesale; an absent one leaves
// local state alone.
func (s *Store) LoadFromRemote(ctx context.Context) (SyncResult, error) {
	shopperID, err := s.requireSession()
	if err != nil {
		return SyncResult{}, err
	}

	got, err := s.remote.GetCart(ctx, shopperID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && got == nil) {
		return SyncResult{Outcome: OutcomeAbsent, Cart: s.Snapshot()}, nil
	}
	if err != nil {
		s.logger.Warn("cart load failed", zap.String("shopper_id", shopperID), zap.Error(err))
		return SyncResult{}, &SyncError{Op: "load", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == MergeOnLoad {
		s.replaceLocked(MergeSnapshots(s.snapshotLocked(), *got))
		return SyncResult{Outcome: OutcomeMerged, Cart: s.snapshotLocked()}, nil
	}
	s.replaceLocked(*got)
	return SyncResult{Outcome: OutcomeReplaced, Cart: s.snapshotLocked()}, nil
}

func (s *Store) requireSession() (string, error) {
	if s.remote == nil {
		return "", ErrNoRemote
	}
	if s.shopper == nil {
		return "", domain.ErrUnauthenticated
	}
	id, ok := s.shopper.CurrentShopperID()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return id, nil
}

// MergeSnapshots unions the lines of a and b by merge key. For a key present
// in both, the line from the snapshot with the later UpdatedAt wins. Shipping
// and discount come from the newer snapshot, falling back to the older one
// when unset. Ties go to b.
func MergeSnapshots(a, b domain.CartSnapshot) domain.CartSnapshot {
	newer, older := b, a
	if a.UpdatedAt.After(b.UpdatedAt) {
		newer, older = a, b
	}

	out := newer.Clone()
	seen := make(map[domain.MergeKey]struct{}, len(out.Items))
	for _, it := range out.Items {
		seen[it.Key()] = struct{}{}
	}
	for _, it := range older.Items {
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		out.Items = append(out.Items, it.Clone())
		seen[it.Key()] = struct{}{}
	}
	if out.Shipping == nil && older.Shipping != nil {
		sh := *older.Shipping
		out.Shipping = &sh
	}
	if out.Discount == nil && older.Discount != nil {
		d := *older.Discount
		out.Discount = &d
	}
	return out
}
