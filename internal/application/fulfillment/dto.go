package fulfillment

import (
	"time"

	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
)

// ==================== Requests ====================

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	ShopID     uuid.UUID              `json:"shop_id" binding:"required"`
	CategoryID uuid.UUID              `json:"category_id" binding:"required"`
	Items      []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes      string                 `json:"notes" binding:"omitempty,max=500"`
}

// CreateOrderItemInput represents one product line in the create request
type CreateOrderItemInput struct {
	ProductID      uuid.UUID `json:"product_id" binding:"required"`
	BoxesRequested int       `json:"boxes_requested" binding:"required,gt=0"`
}

// TransitionRequest carries the optional notes accepted by every transition
type TransitionRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	ShopID        *uuid.UUID `form:"shop_id"`
	CategoryID    *uuid.UUID `form:"category_id"`
	Status        *string    `form:"status"`
	PlacedBy      *uuid.UUID `form:"placed_by"`
	ParentOrderID *uuid.UUID `form:"parent_order_id"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size" binding:"omitempty,max=100"`
}

// ==================== Responses ====================

// AllocationResponse represents one batch draw recorded at bill time
type AllocationResponse struct {
	ID             uuid.UUID `json:"id"`
	StockID        uuid.UUID `json:"stock_id"`
	BoxesAllocated int       `json:"boxes_allocated"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderItemResponse represents one order item
type OrderItemResponse struct {
	ID             uuid.UUID            `json:"id"`
	ProductID      uuid.UUID            `json:"product_id"`
	BoxesRequested int                  `json:"boxes_requested"`
	BoxesFulfilled int                  `json:"boxes_fulfilled"`
	BoxesPending   int                  `json:"boxes_pending"`
	Allocations    []AllocationResponse `json:"allocations"`
}

// OrderResponse represents a full order with items and allocations
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderRef      string              `json:"order_ref"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	ShopID        uuid.UUID           `json:"shop_id"`
	CategoryID    uuid.UUID           `json:"category_id"`
	PlacedBy      *uuid.UUID          `json:"placed_by,omitempty"`
	ParentOrderID *uuid.UUID          `json:"parent_order_id,omitempty"`
	Status        string              `json:"status"`
	Notes         string              `json:"notes,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	SubmittedAt   *time.Time          `json:"submitted_at,omitempty"`
	ForwardedAt   *time.Time          `json:"forwarded_at,omitempty"`
	ApprovedAt    *time.Time          `json:"approved_at,omitempty"`
	EstimatedAt   *time.Time          `json:"estimated_at,omitempty"`
	BilledAt      *time.Time          `json:"billed_at,omitempty"`
	DispatchedAt  *time.Time          `json:"dispatched_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// EstimateResponse pairs the estimated parent with its split child, when the
// estimate produced one
type EstimateResponse struct {
	Order      OrderResponse  `json:"order"`
	ChildOrder *OrderResponse `json:"child_order"`
}

// ToOrderResponse maps a domain order to its response representation
func ToOrderResponse(order *fulfillment.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		allocs := make([]AllocationResponse, len(item.Allocations))
		for j, a := range item.Allocations {
			allocs[j] = AllocationResponse{
				ID:             a.ID,
				StockID:        a.StockID,
				BoxesAllocated: a.BoxesAllocated,
				CreatedAt:      a.CreatedAt,
			}
		}
		items[i] = OrderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			BoxesRequested: item.BoxesRequested,
			BoxesFulfilled: item.BoxesFulfilled,
			BoxesPending:   item.BoxesPending,
			Allocations:    allocs,
		}
	}

	return OrderResponse{
		ID:            order.ID,
		OrderRef:      order.OrderRef,
		TenantID:      order.TenantID,
		ShopID:        order.ShopID,
		CategoryID:    order.CategoryID,
		PlacedBy:      order.PlacedBy,
		ParentOrderID: order.ParentOrderID,
		Status:        order.Status.String(),
		Notes:         order.Notes,
		Items:         items,
		SubmittedAt:   order.SubmittedAt,
		ForwardedAt:   order.ForwardedAt,
		ApprovedAt:    order.ApprovedAt,
		EstimatedAt:   order.EstimatedAt,
		BilledAt:      order.BilledAt,
		DispatchedAt:  order.DispatchedAt,
		DeliveredAt:   order.DeliveredAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
