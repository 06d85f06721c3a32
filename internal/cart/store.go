package cart

import (
	"context"
	"sync"
	"time"
)

// Store keeps one Cart per browser session, keyed by the opaque session
// token from the cart cookie. Carts live in memory only; an idle session
// is evicted after the TTL and a server restart loses all carts. That is
// an intentional scope limit, not a defect.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	cart    *Cart
	touched time.Time
}

// NewStore creates a session cart store. Sessions idle longer than ttl are
// dropped by the janitor.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]*sessionEntry),
	}
}

// Do runs fn against the cart for the given session token, creating the
// cart on first touch. Mutations happen under the store lock, so rapid
// repeated requests for one session are applied last-write-wins in arrival
// order.
func (s *Store) Do(token string, fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		e = &sessionEntry{cart: &Cart{}}
		s.entries[token] = e
	}
	e.touched = time.Now()
	fn(e.cart)
}

// Snapshot returns a copy of the session's items plus the derived totals.
// A session with no cart yet yields an empty snapshot without creating one.
func (s *Store) Snapshot(token string) (items []Item, total float64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, 0, 0
	}
	e.touched = time.Now()
	return e.cart.Items(), e.cart.Total(), e.cart.Count()
}

// Len returns the number of live sessions. Used by tests and logging.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Janitor evicts idle sessions every interval until ctx is cancelled.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle(time.Now())
		}
	}
}

func (s *Store) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, e := range s.entries {
		if now.Sub(e.touched) > s.ttl {
			delete(s.entries, token)
		}
	}
}
