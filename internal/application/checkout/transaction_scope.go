package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
)

// TransactionScope runs order recording atomically: the order write and
// the stock decrements commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an
	// error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories taking
// part in order recording, all bound to the same transaction.
type TransactionalRepositories interface {
	// Orders returns the order repository scoped to the current transaction
	Orders() order.OrderRepository
	// DecrementStock conditionally subtracts stock for a product. It fails
	// with INSUFFICIENT_STOCK when fewer than quantity units remain, which
	// rolls back the whole order.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}
