package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AvailabilityCache caches the per-category availability roll-up. Lookups
// that miss or fail fall through to the database; entries expire on their own
// so writers only invalidate on batch mutations as a freshness optimization.
type AvailabilityCache interface {
	Get(ctx context.Context, tenantID, categoryID uuid.UUID) ([]inventory.ProductAvailability, bool)
	Set(ctx context.Context, tenantID, categoryID uuid.UUID, products []inventory.ProductAvailability, ttl time.Duration)
	Invalidate(ctx context.Context, tenantID uuid.UUID)
}

// defaultAvailabilityTTL bounds staleness of cached availability roll-ups.
const defaultAvailabilityTTL = 30 * time.Second

// StockService manages the lifecycle of stock batches outside of order
// transitions. Counter movements belong to the fulfillment service; this one
// only registers, lists, deactivates and deletes batches.
type StockService struct {
	stockRepo      inventory.StockRepository
	productRepo    catalog.ProductRepository
	cache          AvailabilityCache
	cacheTTL       time.Duration
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService. The cache may be nil, in which
// case every availability query hits the database.
func NewStockService(stockRepo inventory.StockRepository, productRepo catalog.ProductRepository, cache AvailabilityCache) *StockService {
	return &StockService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		cache:       cache,
		cacheTTL:    defaultAvailabilityTTL,
	}
}

// SetAvailabilityTTL overrides the cache TTL for availability roll-ups
func (s *StockService) SetAvailabilityTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *StockService) publishEvents(ctx context.Context, batch *inventory.StockBatch) {
	if s.eventPublisher == nil || batch == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, batch.GetDomainEvents()...)
	batch.ClearDomainEvents()
}

func (s *StockService) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, tenantID)
	}
}

// Add registers an inbound batch with the full lot available
func (s *StockService) Add(ctx context.Context, tenantID uuid.UUID, addedBy *uuid.UUID, req AddStockRequest) (*StockResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Product %s is inactive", product.SKU))
	}

	batch, err := inventory.NewStockBatch(tenantID, req.ProductID, addedBy, req.BatchRef, req.BoxesTotal)
	if err != nil {
		return nil, err
	}
	if err := s.stockRepo.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, batch)
	s.invalidate(ctx, tenantID)

	response := ToStockResponse(batch)
	return &response, nil
}

// Get retrieves a batch by ID
func (s *StockService) Get(ctx context.Context, tenantID, stockID uuid.UUID) (*StockResponse, error) {
	batch, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, stockID)
	if err != nil {
		return nil, err
	}
	response := ToStockResponse(batch)
	return &response, nil
}

// List retrieves batches with filtering and pagination
func (s *StockService) List(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) ([]StockResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	batches, err := s.stockRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.stockRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]StockResponse, len(batches))
	for i := range batches {
		responses[i] = ToStockResponse(&batches[i])
	}
	return responses, total, nil
}

// Availability returns the per-product available box counts for a category,
// served from cache when a fresh entry exists
func (s *StockService) Availability(ctx context.Context, tenantID, categoryID uuid.UUID) (*AvailabilityResponse, error) {
	if s.cache != nil {
		if products, ok := s.cache.Get(ctx, tenantID, categoryID); ok {
			return &AvailabilityResponse{CategoryID: categoryID, Products: products}, nil
		}
	}

	products, err := s.stockRepo.AvailabilityByCategory(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, tenantID, categoryID, products, s.cacheTTL)
	}
	return &AvailabilityResponse{CategoryID: categoryID, Products: products}, nil
}

// Deactivate removes a batch from allocation candidate pools without touching
// its counters
func (s *StockService) Deactivate(ctx context.Context, tenantID, stockID uuid.UUID) (*StockResponse, error) {
	batch, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, stockID)
	if err != nil {
		return nil, err
	}
	batch.Deactivate()
	if err := s.stockRepo.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, batch)
	s.invalidate(ctx, tenantID)

	response := ToStockResponse(batch)
	return &response, nil
}

// Activate returns a batch to allocation candidate pools
func (s *StockService) Activate(ctx context.Context, tenantID, stockID uuid.UUID) (*StockResponse, error) {
	batch, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, stockID)
	if err != nil {
		return nil, err
	}
	batch.Activate()
	if err := s.stockRepo.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenantID)

	response := ToStockResponse(batch)
	return &response, nil
}

// Delete removes a batch outright. Batches with reserved or dispatched boxes
// are still bound to in-flight orders and are refused.
func (s *StockService) Delete(ctx context.Context, tenantID, stockID uuid.UUID) error {
	batch, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, stockID)
	if err != nil {
		return err
	}
	if batch.InUse() {
		return shared.ErrStockInUse
	}
	if err := s.stockRepo.Delete(ctx, batch.ID); err != nil {
		return err
	}

	s.invalidate(ctx, tenantID)
	return nil
}
