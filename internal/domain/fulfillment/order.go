package fulfillment

import (
	"fmt"
	"time"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle status of a fulfillment order
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "PLACED"
	OrderStatusSubmitted  OrderStatus = "SUBMITTED"
	OrderStatusForwarded  OrderStatus = "FORWARDED"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusHold       OrderStatus = "HOLD"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusEstimated  OrderStatus = "ESTIMATED"
	OrderStatusBilled     OrderStatus = "BILLED"
	OrderStatusCounting   OrderStatus = "COUNTING"
	OrderStatusPacking    OrderStatus = "PACKING"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusSubmitted, OrderStatusForwarded,
		OrderStatusApproved, OrderStatusHold, OrderStatusCancelled,
		OrderStatusEstimated, OrderStatusBilled, OrderStatusCounting,
		OrderStatusPacking, OrderStatusDispatched, OrderStatusDelivered:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Cancel is reachable from FORWARDED and HOLD only; every other transition
// has exactly one source status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPlaced:
		return target == OrderStatusSubmitted
	case OrderStatusSubmitted:
		return target == OrderStatusForwarded
	case OrderStatusForwarded:
		return target == OrderStatusApproved || target == OrderStatusHold || target == OrderStatusCancelled
	case OrderStatusHold:
		return target == OrderStatusCancelled
	case OrderStatusApproved:
		return target == OrderStatusEstimated
	case OrderStatusEstimated:
		return target == OrderStatusBilled
	case OrderStatusBilled:
		return target == OrderStatusCounting
	case OrderStatusCounting:
		return target == OrderStatusPacking
	case OrderStatusPacking:
		return target == OrderStatusDispatched
	case OrderStatusDispatched:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// OrderItemAllocation records that boxes of a specific stock batch were
// committed to a specific order item. Rows are created at bill time and are
// immutable afterwards; dispatch and deliver read them to know exactly which
// batch counters to move.
type OrderItemAllocation struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StockID        uuid.UUID `gorm:"type:uuid;not null;index"`
	BoxesAllocated int       `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName returns the table name for GORM
func (OrderItemAllocation) TableName() string {
	return "order_item_allocations"
}

// NewOrderItemAllocation creates an allocation row
func NewOrderItemAllocation(orderItemID, stockID uuid.UUID, boxes int) (*OrderItemAllocation, error) {
	if boxes <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Allocated boxes must be positive")
	}
	return &OrderItemAllocation{
		ID:             uuid.New(),
		OrderItemID:    orderItemID,
		StockID:        stockID,
		BoxesAllocated: boxes,
		CreatedAt:      time.Now(),
	}, nil
}

// OrderItem represents a product line within an order.
// BoxesRequested is immutable after creation; the fulfilled/pending split is
// decided once, at the estimate transition.
type OrderItem struct {
	ID             uuid.UUID             `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	BoxesRequested int                   `gorm:"not null"`
	BoxesFulfilled int                   `gorm:"not null;default:0"`
	BoxesPending   int                   `gorm:"not null;default:0"`
	Allocations    []OrderItemAllocation `gorm:"foreignKey:OrderItemID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order item in its pre-estimate state
func NewOrderItem(orderID, productID uuid.UUID, boxesRequested int) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if boxesRequested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested boxes must be positive")
	}

	now := time.Now()
	return &OrderItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		ProductID:      productID,
		BoxesRequested: boxesRequested,
		Allocations:    make([]OrderItemAllocation, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AllocatedBoxes sums the boxes committed to this item across its allocations
func (i *OrderItem) AllocatedBoxes() int {
	total := 0
	for _, a := range i.Allocations {
		total += a.BoxesAllocated
	}
	return total
}

func (i *OrderItem) applyEstimate(fulfilled int) error {
	if fulfilled < 0 || fulfilled > i.BoxesRequested {
		return shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Fulfilled boxes must be between 0 and %d", i.BoxesRequested))
	}
	i.BoxesFulfilled = fulfilled
	i.BoxesPending = i.BoxesRequested - fulfilled
	i.UpdatedAt = time.Now()
	return nil
}

// Order represents one customer purchase request moving through the
// fulfillment pipeline. All items of an order share the order's category.
type Order struct {
	shared.TenantAggregateRoot
	OrderRef      string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_order_tenant_ref,priority:2"`
	ShopID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	CategoryID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	PlacedBy      *uuid.UUID  `gorm:"type:uuid"`
	ParentOrderID *uuid.UUID  `gorm:"type:uuid;index"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;index"`
	Notes         string      `gorm:"type:text"`
	Items         []OrderItem `gorm:"foreignKey:OrderID"`
	SubmittedAt   *time.Time
	ForwardedAt   *time.Time
	ApprovedAt    *time.Time
	EstimatedAt   *time.Time
	BilledAt      *time.Time
	DispatchedAt  *time.Time
	DeliveredAt   *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderLine is the order-create input for one product
type OrderLine struct {
	ProductID      uuid.UUID
	BoxesRequested int
}

// NewOrder creates a new order in PLACED status with one item per line
func NewOrder(tenantID, shopID, categoryID uuid.UUID, placedBy *uuid.UUID, orderRef, notes string, lines []OrderLine) (*Order, error) {
	if orderRef == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_REF", "Order reference cannot be empty")
	}
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderRef:            orderRef,
		ShopID:              shopID,
		CategoryID:          categoryID,
		PlacedBy:            placedBy,
		Status:              OrderStatusPlaced,
		Notes:               notes,
		Items:               make([]OrderItem, 0, len(lines)),
	}
	if placedBy != nil {
		order.SetCreatedBy(*placedBy)
	}

	for _, line := range lines {
		item, err := NewOrderItem(order.ID, line.ProductID, line.BoxesRequested)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
	}

	order.AddDomainEvent(NewOrderPlacedEvent(order))

	return order, nil
}

// ProductIDs returns the distinct product IDs referenced by the order's items
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Allocations returns every allocation row across the order's items
func (o *Order) Allocations() []OrderItemAllocation {
	var all []OrderItemAllocation
	for _, item := range o.Items {
		all = append(all, item.Allocations...)
	}
	return all
}

// HasRemainder reports whether any item carries pending boxes after estimate
func (o *Order) HasRemainder() bool {
	for _, item := range o.Items {
		if item.BoxesPending > 0 {
			return true
		}
	}
	return false
}

func (o *Order) guard(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	return nil
}

func (o *Order) setNotes(notes string) {
	if notes != "" {
		o.Notes = notes
	}
}

// Submit transitions the order from PLACED to SUBMITTED
func (o *Order) Submit(notes string) error {
	if err := o.guard(OrderStatusSubmitted); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusSubmitted
	o.SubmittedAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now
	return nil
}

// Forward transitions the order from SUBMITTED to FORWARDED
func (o *Order) Forward(notes string) error {
	if err := o.guard(OrderStatusForwarded); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusForwarded
	o.ForwardedAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now
	return nil
}

// Approve transitions the order from FORWARDED to APPROVED
func (o *Order) Approve(notes string) error {
	if err := o.guard(OrderStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusApproved
	o.ApprovedAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now
	return nil
}

// Hold parks a FORWARDED order; from HOLD the only way out is cancel
func (o *Order) Hold(notes string) error {
	if err := o.guard(OrderStatusHold); err != nil {
		return err
	}
	o.Status = OrderStatusHold
	o.setNotes(notes)
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel terminates the order; allowed from FORWARDED or HOLD
func (o *Order) Cancel(notes string) error {
	if err := o.guard(OrderStatusCancelled); err != nil {
		return err
	}
	o.Status = OrderStatusCancelled
	o.setNotes(notes)
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderCancelledEvent(o))

	return nil
}

// ApplyEstimate records the fulfilled/pending decision for every item and
// transitions the order from APPROVED to ESTIMATED. The decisions map is
// keyed by item ID and must cover every item of the order.
func (o *Order) ApplyEstimate(decisions map[uuid.UUID]int, notes string) error {
	if err := o.guard(OrderStatusEstimated); err != nil {
		return err
	}
	for idx := range o.Items {
		fulfilled, ok := decisions[o.Items[idx].ID]
		if !ok {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Missing estimate decision for item %s", o.Items[idx].ID))
		}
		if err := o.Items[idx].applyEstimate(fulfilled); err != nil {
			return err
		}
	}

	now := time.Now()
	o.Status = OrderStatusEstimated
	o.EstimatedAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderEstimatedEvent(o))

	return nil
}

// SplitRemainder builds the child order carrying the pending remainders of an
// estimated order. The child is born ESTIMATED with its items marked fully
// fulfillable; it re-enters the pipeline at bill once stock arrives. Returns
// nil when no item has pending boxes.
func (o *Order) SplitRemainder(childRef string) (*Order, error) {
	if o.Status != OrderStatusEstimated {
		return nil, shared.NewDomainError("INVALID_STATE", "Only an estimated order can be split")
	}
	if !o.HasRemainder() {
		return nil, nil
	}
	if childRef == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_REF", "Child order reference cannot be empty")
	}

	now := time.Now()
	child := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(o.TenantID),
		OrderRef:            childRef,
		ShopID:              o.ShopID,
		CategoryID:          o.CategoryID,
		PlacedBy:            o.PlacedBy,
		ParentOrderID:       &o.ID,
		Status:              OrderStatusEstimated,
		Notes:               fmt.Sprintf("Child order of %s", o.OrderRef),
		Items:               make([]OrderItem, 0),
		EstimatedAt:         &now,
	}
	if o.PlacedBy != nil {
		child.SetCreatedBy(*o.PlacedBy)
	}

	for _, item := range o.Items {
		if item.BoxesPending == 0 {
			continue
		}
		childItem, err := NewOrderItem(child.ID, item.ProductID, item.BoxesPending)
		if err != nil {
			return nil, err
		}
		// The child carries the remainder as fulfillable: it is expected to
		// bill once restocked.
		childItem.BoxesFulfilled = childItem.BoxesRequested
		childItem.BoxesPending = 0
		child.Items = append(child.Items, *childItem)
	}

	child.AddDomainEvent(NewOrderSplitEvent(o, child))

	return child, nil
}

// AllocateItem appends an allocation row to the given item. Allocations are
// only recorded while the bill transition is in progress, i.e. on an
// ESTIMATED order.
func (o *Order) AllocateItem(itemID, stockID uuid.UUID, boxes int) error {
	if o.Status != OrderStatusEstimated {
		return shared.NewDomainError("INVALID_STATE", "Allocations can only be recorded during billing")
	}
	for idx := range o.Items {
		if o.Items[idx].ID != itemID {
			continue
		}
		alloc, err := NewOrderItemAllocation(itemID, stockID, boxes)
		if err != nil {
			return err
		}
		o.Items[idx].Allocations = append(o.Items[idx].Allocations, *alloc)
		o.Items[idx].UpdatedAt = time.Now()
		return nil
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// MarkBilled transitions the order from ESTIMATED to BILLED. Every item with
// a positive fulfilled count must by then carry allocations covering exactly
// that count.
func (o *Order) MarkBilled(notes string) error {
	if err := o.guard(OrderStatusBilled); err != nil {
		return err
	}
	for _, item := range o.Items {
		if item.AllocatedBoxes() != item.BoxesFulfilled {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Item %s allocations do not cover fulfilled quantity", item.ID))
		}
	}

	now := time.Now()
	o.Status = OrderStatusBilled
	o.BilledAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderBilledEvent(o))

	return nil
}

// MarkCounting transitions the order from BILLED to COUNTING
func (o *Order) MarkCounting(notes string) error {
	if err := o.guard(OrderStatusCounting); err != nil {
		return err
	}
	o.Status = OrderStatusCounting
	o.setNotes(notes)
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPacking transitions the order from COUNTING to PACKING
func (o *Order) MarkPacking(notes string) error {
	if err := o.guard(OrderStatusPacking); err != nil {
		return err
	}
	o.Status = OrderStatusPacking
	o.setNotes(notes)
	o.UpdatedAt = time.Now()
	return nil
}

// MarkDispatched transitions the order from PACKING to DISPATCHED. Batch
// counter movement is orchestrated by the application service.
func (o *Order) MarkDispatched(notes string) error {
	if err := o.guard(OrderStatusDispatched); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusDispatched
	o.DispatchedAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderDispatchedEvent(o))

	return nil
}

// MarkDelivered transitions the order from DISPATCHED to DELIVERED
func (o *Order) MarkDelivered(notes string) error {
	if err := o.guard(OrderStatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.setNotes(notes)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderDeliveredEvent(o))

	return nil
}
