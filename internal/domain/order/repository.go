package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository defines persistence operations for orders. Orders are
// append-only: there is deliberately no update or delete operation.
type OrderRepository interface {
	// Create persists the order header and all of its items in one
	// transaction; either everything is written or nothing is.
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByPaymentSession(ctx context.Context, sessionID string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
}
