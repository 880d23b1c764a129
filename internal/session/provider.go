// Package session tracks which shopper is signed in and notifies subscribers
// when that changes.
package session

import "sync"

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event describes one authentication transition. ShopperID is empty for SignedOut.
type Event struct {
	Kind      EventKind
	ShopperID string
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Provider holds the current shopper. Events are only emitted on real
// transitions; signing in twice as the same shopper emits once.
type Provider struct {
	mu        sync.Mutex
	shopperID string
	subs      []subscriber
	nextID    uint64
}

func NewProvider() *Provider {
	return &Provider{}
}

// Restore sets the current shopper without emitting an event. It is used at
// startup when a previous session is read back from storage.
func (p *Provider) Restore(shopperID string) {
	p.mu.Lock()
	p.shopperID = shopperID
	p.mu.Unlock()
}

// CurrentShopperID returns the signed-in shopper, if any.
func (p *Provider) CurrentShopperID() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shopperID, p.shopperID != ""
}

// SignIn records shopperID as current. Switching directly to another shopper
// counts as a new sign-in.
func (p *Provider) SignIn(shopperID string) {
	if shopperID == "" {
		return
	}
	p.mu.Lock()
	if p.shopperID == shopperID {
		p.mu.Unlock()
		return
	}
	p.shopperID = shopperID
	subs := p.snapshotLocked()
	p.mu.Unlock()

	notify(subs, Event{Kind: SignedIn, ShopperID: shopperID})
}

func (p *Provider) SignOut() {
	p.mu.Lock()
	if p.shopperID == "" {
		p.mu.Unlock()
		return
	}
	p.shopperID = ""
	subs := p.snapshotLocked()
	p.mu.Unlock()

	notify(subs, Event{Kind: SignedOut})
}

// Subscribe registers fn for future transitions. Callbacks run synchronously
// on the goroutine that caused the transition, in subscription order.
func (p *Provider) Subscribe(fn func(Event)) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.subs = append(p.subs, subscriber{id: p.nextID, fn: fn})
	return &Subscription{provider: p, id: p.nextID}
}

func (p *Provider) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

func (p *Provider) snapshotLocked() []subscriber {
	return append([]subscriber(nil), p.subs...)
}

func notify(subs []subscriber, ev Event) {
	for _, s := range subs {
		s.fn(ev)
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	provider *Provider
	id       uint64
	once     sync.Once
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.provider.unsubscribe(s.id)
	})
}
