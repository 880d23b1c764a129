package cartstore

import (
	"context"

	"glowloops/internal/session"

	"go.uber.org/zap"
)

// SessionListener pulls the remote cart once for every sign-in transition.
// Sign-outs are ignored; the guest cart stays as last persisted.
type SessionListener struct {
	store  *Store
	ctx    context.Context
	onLoad func(session.Event, SyncResult, error)
	sub    *session.Subscription
}

// WatchSession subscribes store to provider. onLoad, when non-nil, receives
// the outcome of each load. Call Close to unsubscribe.
func WatchSession(ctx context.Context, provider *session.Provider, store *Store, onLoad func(session.Event, SyncResult, error)) *SessionListener {
	l := &SessionListener{store: store, ctx: ctx, onLoad: onLoad}
	l.sub = provider.Subscribe(l.handle)
	return l
}

func (l *SessionListener) handle(ev session.Event) {
	if ev.Kind != session.SignedIn {
		return
	}
	res, err := l.store.LoadFromRemote(l.ctx)
	if err != nil {
		l.store.logger.Warn("load cart after sign-in", zap.String("shopper_id", ev.ShopperID), zap.Error(err))
	} else {
		l.store.logger.Info("cart loaded after sign-in", zap.String("shopper_id", ev.ShopperID),
			zap.Stringer("outcome", res.Outcome))
	}
	if l.onLoad != nil {
		l.onLoad(ev, res, err)
	}
}

func (l *SessionListener) Close() {
	l.sub.Unsubscribe()
}
