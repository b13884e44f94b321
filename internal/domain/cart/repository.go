package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository defines persistence operations for user-owned carts.
// Multi-line mutations are atomic: a failed write leaves the stored cart
// exactly as it was.
type CartRepository interface {
	// FindByUser returns the user's cart, or shared.ErrNotFound if the
	// user has never carted anything.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// Save creates or updates the cart header and its full line set in
	// one transaction.
	Save(ctx context.Context, c *Cart) error
	// ReplaceLines atomically replaces the full line set of the user's
	// cart, creating the cart if it does not exist yet.
	ReplaceLines(ctx context.Context, userID uuid.UUID, lines []CartLine) error
	// Clear removes all lines from the user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// GuestCartStore holds ephemeral carts for anonymous sessions. Entries
// expire with the session; losing one is equivalent to the shopper
// clearing browser storage.
type GuestCartStore interface {
	// Get returns the session's lines. A session with no cart yields an
	// empty slice, not an error.
	Get(ctx context.Context, sessionID string) ([]CartLine, error)
	// Replace atomically replaces the session's full line set.
	Replace(ctx context.Context, sessionID string, lines []CartLine) error
	// Clear removes the session's cart.
	Clear(ctx context.Context, sessionID string) error
}
