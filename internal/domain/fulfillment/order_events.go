package fulfillment

import (
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced     = "OrderPlaced"
	EventTypeOrderEstimated  = "OrderEstimated"
	EventTypeOrderSplit      = "OrderSplit"
	EventTypeOrderBilled     = "OrderBilled"
	EventTypeOrderDispatched = "OrderDispatched"
	EventTypeOrderDelivered  = "OrderDelivered"
	EventTypeOrderCancelled  = "OrderCancelled"
)

// OrderItemInfo carries item quantities for event payloads
type OrderItemInfo struct {
	ItemID         uuid.UUID `json:"item_id"`
	ProductID      uuid.UUID `json:"product_id"`
	BoxesRequested int       `json:"boxes_requested"`
	BoxesFulfilled int       `json:"boxes_fulfilled"`
	BoxesPending   int       `json:"boxes_pending"`
}

func itemInfos(order *Order) []OrderItemInfo {
	infos := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		infos[i] = OrderItemInfo{
			ItemID:         item.ID,
			ProductID:      item.ProductID,
			BoxesRequested: item.BoxesRequested,
			BoxesFulfilled: item.BoxesFulfilled,
			BoxesPending:   item.BoxesPending,
		}
	}
	return infos
}

// OrderPlacedEvent is raised when a new order is created
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID       `json:"order_id"`
	OrderRef string          `json:"order_ref"`
	ShopID   uuid.UUID       `json:"shop_id"`
	Items    []OrderItemInfo `json:"items"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		ShopID:          order.ShopID,
		Items:           itemInfos(order),
	}
}

// OrderEstimatedEvent is raised when the fulfilled/pending split is decided
type OrderEstimatedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderRef     string          `json:"order_ref"`
	Items        []OrderItemInfo `json:"items"`
	HasRemainder bool            `json:"has_remainder"`
}

// NewOrderEstimatedEvent creates a new OrderEstimatedEvent
func NewOrderEstimatedEvent(order *Order) *OrderEstimatedEvent {
	return &OrderEstimatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderEstimated, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		Items:           itemInfos(order),
		HasRemainder:    order.HasRemainder(),
	}
}

// OrderSplitEvent is raised when a child order is carved out of a parent's
// pending remainders
type OrderSplitEvent struct {
	shared.BaseDomainEvent
	ParentOrderID  uuid.UUID       `json:"parent_order_id"`
	ParentOrderRef string          `json:"parent_order_ref"`
	ChildOrderID   uuid.UUID       `json:"child_order_id"`
	ChildOrderRef  string          `json:"child_order_ref"`
	ChildItems     []OrderItemInfo `json:"child_items"`
}

// NewOrderSplitEvent creates a new OrderSplitEvent
func NewOrderSplitEvent(parent, child *Order) *OrderSplitEvent {
	return &OrderSplitEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSplit, AggregateTypeOrder, parent.ID, parent.TenantID),
		ParentOrderID:   parent.ID,
		ParentOrderRef:  parent.OrderRef,
		ChildOrderID:    child.ID,
		ChildOrderRef:   child.OrderRef,
		ChildItems:      itemInfos(child),
	}
}

// AllocationInfo carries allocation rows for event payloads
type AllocationInfo struct {
	OrderItemID    uuid.UUID `json:"order_item_id"`
	StockID        uuid.UUID `json:"stock_id"`
	BoxesAllocated int       `json:"boxes_allocated"`
}

// OrderBilledEvent is raised when stock has been reserved for an order
type OrderBilledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID        `json:"order_id"`
	OrderRef    string           `json:"order_ref"`
	Allocations []AllocationInfo `json:"allocations"`
}

// NewOrderBilledEvent creates a new OrderBilledEvent
func NewOrderBilledEvent(order *Order) *OrderBilledEvent {
	allocs := make([]AllocationInfo, 0)
	for _, a := range order.Allocations() {
		allocs = append(allocs, AllocationInfo{
			OrderItemID:    a.OrderItemID,
			StockID:        a.StockID,
			BoxesAllocated: a.BoxesAllocated,
		})
	}
	return &OrderBilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderBilled, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		Allocations:     allocs,
	}
}

// OrderDispatchedEvent is raised when reserved boxes leave the warehouse
type OrderDispatchedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID `json:"order_id"`
	OrderRef string    `json:"order_ref"`
}

// NewOrderDispatchedEvent creates a new OrderDispatchedEvent
func NewOrderDispatchedEvent(order *Order) *OrderDispatchedEvent {
	return &OrderDispatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDispatched, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
	}
}

// OrderDeliveredEvent is raised when dispatched boxes are confirmed received
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID       `json:"order_id"`
	OrderRef string          `json:"order_ref"`
	Items    []OrderItemInfo `json:"items"`
}

// NewOrderDeliveredEvent creates a new OrderDeliveredEvent
func NewOrderDeliveredEvent(order *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		Items:           itemInfos(order),
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID `json:"order_id"`
	OrderRef string    `json:"order_ref"`
	Notes    string    `json:"notes,omitempty"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		Notes:           order.Notes,
	}
}
