package persistence

import (
	"context"

	appcheckout "github.com/storefront/backend/internal/application/checkout"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements checkout.TransactionScope using GORM
// transactions, so the order write and its stock decrements commit or roll
// back as one unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcheckout.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Orders returns the order repository scoped to the current transaction
func (r *gormTransactionalRepositories) Orders() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// DecrementStock conditionally subtracts stock within the transaction
func (r *gormTransactionalRepositories) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	return DecrementStock(r.tx.WithContext(ctx), productID, quantity)
}

var _ appcheckout.TransactionScope = (*GormTransactionScope)(nil)
var _ appcheckout.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
