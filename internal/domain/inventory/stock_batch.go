package inventory

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockBatch represents one inbound lot of inventory for a (tenant, product)
// pair. The counters track where every box of the lot currently sits:
// available boxes are on the shelf and free to allocate, reserved boxes are
// committed to a billed order but still in the warehouse, and dispatched
// boxes are on a truck. The delivered portion is removed from BoxesTotal
// itself, so at all times available + reserved + dispatched <= total.
type StockBatch struct {
	shared.TenantAggregateRoot
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	AddedBy         *uuid.UUID `gorm:"type:uuid"`
	BatchRef        string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_tenant_batch_ref,priority:2"`
	BoxesTotal      int        `gorm:"not null"`
	BoxesAvailable  int        `gorm:"not null;default:0"`
	BoxesReserved   int        `gorm:"not null;default:0"`
	BoxesDispatched int        `gorm:"not null;default:0"`
	IsActive        bool       `gorm:"not null;default:true"`
	// Sequence is assigned monotonically by storage and breaks FIFO ties
	// between batches sharing a creation timestamp.
	Sequence int64 `gorm:"autoIncrement"`
}

// TableName returns the table name for GORM
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch creates a batch with the full lot available
func NewStockBatch(tenantID, productID uuid.UUID, addedBy *uuid.UUID, batchRef string, boxesTotal int) (*StockBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if boxesTotal <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Total boxes must be positive")
	}
	if batchRef == "" {
		batchRef = NewBatchRef()
	}

	batch := &StockBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		AddedBy:             addedBy,
		BatchRef:            batchRef,
		BoxesTotal:          boxesTotal,
		BoxesAvailable:      boxesTotal,
		IsActive:            true,
	}
	if addedBy != nil {
		batch.SetCreatedBy(*addedBy)
	}

	batch.AddDomainEvent(NewStockAddedEvent(batch))

	return batch, nil
}

// CheckInvariant verifies the counter conservation rule
func (b *StockBatch) CheckInvariant() error {
	if b.BoxesAvailable < 0 || b.BoxesReserved < 0 || b.BoxesDispatched < 0 || b.BoxesTotal < 0 {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Batch %s has a negative counter", b.BatchRef))
	}
	if b.BoxesAvailable+b.BoxesReserved+b.BoxesDispatched > b.BoxesTotal {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Batch %s counters exceed total", b.BatchRef))
	}
	return nil
}

// Reserve moves boxes from available to reserved at bill time
func (b *StockBatch) Reserve(boxes int) error {
	if boxes <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserved boxes must be positive")
	}
	if boxes > b.BoxesAvailable {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Batch %s has %d boxes available, %d requested", b.BatchRef, b.BoxesAvailable, boxes))
	}
	b.BoxesAvailable -= boxes
	b.BoxesReserved += boxes
	b.Touch()
	return nil
}

// Dispatch moves boxes from reserved to dispatched when the order leaves the
// warehouse
func (b *StockBatch) Dispatch(boxes int) error {
	if boxes <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Dispatched boxes must be positive")
	}
	if boxes > b.BoxesReserved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Batch %s has only %d boxes reserved", b.BatchRef, b.BoxesReserved))
	}
	b.BoxesReserved -= boxes
	b.BoxesDispatched += boxes
	b.Touch()
	return nil
}

// Deliver confirms receipt. This is the only operation that removes
// inventory from the system: the dispatched boxes leave BoxesTotal for good.
func (b *StockBatch) Deliver(boxes int) error {
	if boxes <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Delivered boxes must be positive")
	}
	if boxes > b.BoxesDispatched {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Batch %s has only %d boxes dispatched", b.BatchRef, b.BoxesDispatched))
	}
	b.BoxesDispatched -= boxes
	b.BoxesTotal -= boxes
	b.Touch()
	return nil
}

// InUse reports whether any boxes are committed to in-flight orders. A batch
// in use must not be deleted.
func (b *StockBatch) InUse() bool {
	return b.BoxesReserved > 0 || b.BoxesDispatched > 0
}

// CanAllocate reports whether the batch belongs in an allocation candidate
// pool
func (b *StockBatch) CanAllocate() bool {
	return b.IsActive && b.BoxesAvailable > 0
}

// Deactivate removes the batch from allocation candidate pools. Historical
// counters are retained.
func (b *StockBatch) Deactivate() {
	if !b.IsActive {
		return
	}
	b.IsActive = false
	b.Touch()
	b.AddDomainEvent(NewStockDeactivatedEvent(b))
}

// Activate returns the batch to allocation candidate pools
func (b *StockBatch) Activate() {
	if b.IsActive {
		return
	}
	b.IsActive = true
	b.Touch()
}

const batchRefPrefix = "BAT-"

// NewBatchRef generates a batch reference of the form BAT-XXXXXXXX
func NewBatchRef() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return batchRefPrefix + strings.ToUpper(hex.EncodeToString(buf))
}
