package inventory

import (
	"context"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductAvailability is the per-product roll-up of available boxes across
// active batches
type ProductAvailability struct {
	ProductID      uuid.UUID `json:"product_id"`
	BoxesAvailable int       `json:"boxes_available"`
}

// StockRepository defines the interface for stock batch persistence
type StockRepository interface {
	// FindByID finds a batch by ID regardless of its active flag
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)

	// FindByIDForTenant finds a batch by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockBatch, error)

	// FindByIDForTenantForUpdate is FindByIDForTenant with a row-level lock,
	// for counter movements on batches shared between billed orders
	FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*StockBatch, error)

	// FindCandidates returns the active batches with available boxes for a
	// (tenant, product) pair in FIFO order (created_at asc, sequence asc)
	FindCandidates(ctx context.Context, tenantID, productID uuid.UUID) ([]StockBatch, error)

	// FindCandidatesForUpdate is FindCandidates with row-level locks. Locks
	// are acquired in FIFO order so concurrent billers of the same product
	// queue up instead of deadlocking.
	FindCandidatesForUpdate(ctx context.Context, tenantID, productID uuid.UUID) ([]StockBatch, error)

	// FindAllForTenant lists batches for a tenant with filtering.
	// Supported filter keys: product_id, is_active.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockBatch, error)

	// AvailabilityByCategory sums available boxes per product across active
	// batches whose product belongs to the given category
	AvailabilityByCategory(ctx context.Context, tenantID, categoryID uuid.UUID) ([]ProductAvailability, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *StockBatch) error

	// SaveAll persists a set of batches within the current transaction
	SaveAll(ctx context.Context, batches []*StockBatch) error

	// Delete removes a batch. Callers must check the in-use guard first.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForTenant counts batches for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
