package inventory

import (
	"time"

	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// ==================== Requests ====================

// AddStockRequest represents a request to register an inbound batch
type AddStockRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	BatchRef   string    `json:"batch_ref" binding:"omitempty,max=50"`
	BoxesTotal int       `json:"boxes_total" binding:"required,gt=0"`
}

// StockListFilter represents filter options for the batch list
type StockListFilter struct {
	ProductID *uuid.UUID `form:"product_id"`
	IsActive  *bool      `form:"is_active"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size" binding:"omitempty,max=100"`
}

// ==================== Responses ====================

// StockResponse represents a stock batch with its counters
type StockResponse struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	AddedBy         *uuid.UUID `json:"added_by,omitempty"`
	BatchRef        string     `json:"batch_ref"`
	BoxesTotal      int        `json:"boxes_total"`
	BoxesAvailable  int        `json:"boxes_available"`
	BoxesReserved   int        `json:"boxes_reserved"`
	BoxesDispatched int        `json:"boxes_dispatched"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AvailabilityResponse is the per-product availability roll-up for a category
type AvailabilityResponse struct {
	CategoryID uuid.UUID                       `json:"category_id"`
	Products   []inventory.ProductAvailability `json:"products"`
}

// ToStockResponse maps a domain batch to its response representation
func ToStockResponse(batch *inventory.StockBatch) StockResponse {
	return StockResponse{
		ID:              batch.ID,
		TenantID:        batch.TenantID,
		ProductID:       batch.ProductID,
		AddedBy:         batch.AddedBy,
		BatchRef:        batch.BatchRef,
		BoxesTotal:      batch.BoxesTotal,
		BoxesAvailable:  batch.BoxesAvailable,
		BoxesReserved:   batch.BoxesReserved,
		BoxesDispatched: batch.BoxesDispatched,
		IsActive:        batch.IsActive,
		CreatedAt:       batch.CreatedAt,
		UpdatedAt:       batch.UpdatedAt,
	}
}
