package inventory

import (
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeStockBatch = "StockBatch"

// Event type constants
const (
	EventTypeStockAdded       = "StockAdded"
	EventTypeStockDeactivated = "StockDeactivated"
)

// StockAddedEvent is raised when a new batch enters the warehouse
type StockAddedEvent struct {
	shared.BaseDomainEvent
	StockID    uuid.UUID `json:"stock_id"`
	ProductID  uuid.UUID `json:"product_id"`
	BatchRef   string    `json:"batch_ref"`
	BoxesTotal int       `json:"boxes_total"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(batch *StockBatch) *StockAddedEvent {
	return &StockAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdded, AggregateTypeStockBatch, batch.ID, batch.TenantID),
		StockID:         batch.ID,
		ProductID:       batch.ProductID,
		BatchRef:        batch.BatchRef,
		BoxesTotal:      batch.BoxesTotal,
	}
}

// StockDeactivatedEvent is raised when a batch leaves the candidate pool
type StockDeactivatedEvent struct {
	shared.BaseDomainEvent
	StockID   uuid.UUID `json:"stock_id"`
	ProductID uuid.UUID `json:"product_id"`
	BatchRef  string    `json:"batch_ref"`
}

// NewStockDeactivatedEvent creates a new StockDeactivatedEvent
func NewStockDeactivatedEvent(batch *StockBatch) *StockDeactivatedEvent {
	return &StockDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeactivated, AggregateTypeStockBatch, batch.ID, batch.TenantID),
		StockID:         batch.ID,
		ProductID:       batch.ProductID,
		BatchRef:        batch.BatchRef,
	}
}
