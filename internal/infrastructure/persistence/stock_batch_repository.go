package persistence

import (
	"context"
	"errors"

	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder is the allocation order for candidate batches. Sequence breaks
// ties between batches created in the same instant.
const fifoOrder = "created_at ASC, sequence ASC"

// GormStockRepository implements StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByID finds a stock batch by its ID regardless of its active flag
func (r *GormStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDForTenant finds a stock batch by ID within a tenant
func (r *GormStockRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDForTenantForUpdate is FindByIDForTenant with a row-level lock.
// Dispatch and deliver move counters on batches that other billed orders
// hold allocations against, so the read must serialize with them.
func (r *GormStockRepository) FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindCandidates returns the active batches with available boxes for a
// (tenant, product) pair in FIFO order
func (r *GormStockRepository) FindCandidates(ctx context.Context, tenantID, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND is_active = TRUE AND boxes_available > 0", tenantID, productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindCandidatesForUpdate is FindCandidates with row-level locks. Rows are
// locked in FIFO order so concurrent billers of the same product serialize
// on the oldest batch instead of deadlocking.
func (r *GormStockRepository) FindCandidatesForUpdate(ctx context.Context, tenantID, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND product_id = ? AND is_active = TRUE AND boxes_available > 0", tenantID, productID).
		Order(fifoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAllForTenant finds all stock batches for a tenant with filtering
func (r *GormStockRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockBatch{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// AvailabilityByCategory sums available boxes per product across active
// batches whose product belongs to the given category
func (r *GormStockRepository) AvailabilityByCategory(ctx context.Context, tenantID, categoryID uuid.UUID) ([]inventory.ProductAvailability, error) {
	var rows []inventory.ProductAvailability
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockBatch{}).
		Select("stock_batches.product_id AS product_id, SUM(stock_batches.boxes_available) AS boxes_available").
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("stock_batches.tenant_id = ?", tenantID).
		Where("stock_batches.is_active = TRUE AND stock_batches.boxes_available > 0").
		Where("products.category_id = ? AND products.is_active = TRUE", categoryID).
		Group("stock_batches.product_id").
		Order("stock_batches.product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save creates or updates a stock batch
func (r *GormStockRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	if err := r.db.WithContext(ctx).Save(batch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveAll persists a set of batches within the current transaction
func (r *GormStockRepository) SaveAll(ctx context.Context, batches []*inventory.StockBatch) error {
	for _, batch := range batches {
		if err := r.Save(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a stock batch. Callers must check the in-use guard first.
func (r *GormStockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.StockBatch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts stock batches for a tenant with optional filters
func (r *GormStockRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&inventory.StockBatch{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, StockBatchSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}
	return query
}

// Ensure GormStockRepository implements StockRepository
var _ inventory.StockRepository = (*GormStockRepository)(nil)
