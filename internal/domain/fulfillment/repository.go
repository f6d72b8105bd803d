package fulfillment

import (
	"context"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID, with items and allocations loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForTenant finds an order by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindByRef finds an order by its reference for a tenant
	FindByRef(ctx context.Context, tenantID uuid.UUID, orderRef string) (*Order, error)

	// FindAllForTenant finds orders for a tenant with filtering.
	// Supported filter keys: shop_id, category_id, status, placed_by,
	// parent_order_id.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindChildren finds the split orders created from a parent order
	FindChildren(ctx context.Context, tenantID, parentOrderID uuid.UUID) ([]Order, error)

	// Save creates or updates an order together with its items and allocations
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// CountForTenant counts orders for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
