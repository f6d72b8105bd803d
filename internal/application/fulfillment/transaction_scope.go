package fulfillment

import (
	"context"

	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories touched
// by a fulfillment transition. Everything executed within one scope commits
// or rolls back as a unit; the bill transition in particular relies on this
// to guarantee that a shortfall on any item undoes every counter movement
// and allocation row already applied.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the fulfillment repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Orders returns the order repository scoped to the current transaction
	Orders() fulfillment.OrderRepository
	// Stock returns the stock batch repository scoped to the current transaction
	Stock() inventory.StockRepository
}

// NoOpTransactionScope runs the function without a real transaction. Used in
// tests, where the fake repositories have no transactional behavior anyway.
type NoOpTransactionScope struct {
	orderRepo fulfillment.OrderRepository
	stockRepo inventory.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(orderRepo fulfillment.OrderRepository, stockRepo inventory.StockRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo: orderRepo,
		stockRepo: stockRepo,
	}
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() fulfillment.OrderRepository {
	return s.orderRepo
}

// Stock returns the stock batch repository
func (s *NoOpTransactionScope) Stock() inventory.StockRepository {
	return s.stockRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
