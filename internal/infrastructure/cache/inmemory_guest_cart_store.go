package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
)

// InMemoryGuestCartStore provides an in-memory cart.GuestCartStore for
// testing and single-instance development. Entries expire lazily on read.
type InMemoryGuestCartStore struct {
	mu      sync.RWMutex
	carts   map[string]inMemoryGuestCart
	ttl     time.Duration
	nowFunc func() time.Time
}

type inMemoryGuestCart struct {
	lines     []cart.CartLine
	expiresAt time.Time
}

// NewInMemoryGuestCartStore creates a new in-memory guest cart store
func NewInMemoryGuestCartStore(ttl time.Duration) *InMemoryGuestCartStore {
	return &InMemoryGuestCartStore{
		carts:   make(map[string]inMemoryGuestCart),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Get returns the lines of a guest cart; absent or expired carts are empty
func (s *InMemoryGuestCartStore) Get(_ context.Context, sessionID string) ([]cart.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return []cart.CartLine{}, nil
	}
	if s.nowFunc().After(entry.expiresAt) {
		delete(s.carts, sessionID)
		return []cart.CartLine{}, nil
	}

	lines := make([]cart.CartLine, len(entry.lines))
	copy(lines, entry.lines)
	return lines, nil
}

// Replace overwrites the full line set of a guest cart
func (s *InMemoryGuestCartStore) Replace(_ context.Context, sessionID string, lines []cart.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]cart.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		delete(s.carts, sessionID)
		return nil
	}

	s.carts[sessionID] = inMemoryGuestCart{
		lines:     kept,
		expiresAt: s.nowFunc().Add(s.ttl),
	}
	return nil
}

// Clear deletes a guest cart
func (s *InMemoryGuestCartStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

var _ cart.GuestCartStore = (*InMemoryGuestCartStore)(nil)
