package handler

import (
	appfulfillment "github.com/boxflow/backend/internal/application/fulfillment"
	"github.com/boxflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order fulfillment API endpoints
type OrderHandler struct {
	BaseHandler
	service *appfulfillment.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *appfulfillment.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers order routes on the given group
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.GET("/ref/:ref", h.GetByRef)
		orders.GET("/:id/children", h.Children)

		orders.POST("/:id/submit", h.Submit)
		orders.POST("/:id/forward", h.Forward)
		orders.POST("/:id/approve", h.Approve)
		orders.POST("/:id/hold", h.Hold)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/estimate", h.Estimate)
		orders.POST("/:id/bill", h.Bill)
		orders.POST("/:id/counting", h.MarkCounting)
		orders.POST("/:id/packing", h.MarkPacking)
		orders.POST("/:id/dispatch", h.Dispatch)
		orders.POST("/:id/deliver", h.Deliver)
	}
}

// Create godoc
// @ID           createOrder
// @Summary      Place a new order
// @Description  Places an order for a shop with one line per product
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body appfulfillment.CreateOrderRequest true "Order to place"
// @Success      201 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req appfulfillment.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), tenantID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByRef godoc
// @ID           getOrderByRef
// @Summary      Get an order by its reference
// @Tags         orders
// @Produce      json
// @Param        ref path string true "Order reference"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /orders/ref/{ref} [get]
func (h *OrderHandler) GetByRef(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resp, err := h.service.GetByRef(c.Request.Context(), tenantID, c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  Lists orders with optional shop, category, status and placer filters
// @Tags         orders
// @Produce      json
// @Param        shop_id query string false "Filter by shop"
// @Param        category_id query string false "Filter by category"
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]appfulfillment.OrderResponse]
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter appfulfillment.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	orders, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, dto.Meta{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}

// Children godoc
// @ID           listOrderChildren
// @Summary      List child orders split from an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Parent order ID"
// @Success      200 {object} APIResponse[[]appfulfillment.OrderResponse]
// @Router       /orders/{id}/children [get]
func (h *OrderHandler) Children(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	children, err := h.service.Children(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, children)
}

// transition runs one lifecycle transition that takes optional notes
func (h *OrderHandler) transition(c *gin.Context,
	apply func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appfulfillment.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	resp, err := apply(c, tenantID, orderID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Submit godoc
// @ID           submitOrder
// @Summary      Submit a placed order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Submit(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Forward godoc
// @ID           forwardOrder
// @Summary      Forward a submitted order for review
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/forward [post]
func (h *OrderHandler) Forward(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Forward(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Approve godoc
// @ID           approveOrder
// @Summary      Approve a forwarded order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Approve(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Hold godoc
// @ID           holdOrder
// @Summary      Put a forwarded order on hold
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/hold [post]
func (h *OrderHandler) Hold(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Hold(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel a forwarded or held order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Cancel(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Estimate godoc
// @ID           estimateOrder
// @Summary      Estimate an approved order against available stock
// @Description  Caps each line at current availability and splits the
// @Description  unfulfillable remainder into a child order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.EstimateResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/estimate [post]
func (h *OrderHandler) Estimate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appfulfillment.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	resp, err := h.service.Estimate(c.Request.Context(), tenantID, orderID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Bill godoc
// @ID           billOrder
// @Summary      Bill an estimated order
// @Description  Reserves boxes from stock batches in arrival order. The
// @Description  whole reservation succeeds or the order is left untouched.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/bill [post]
func (h *OrderHandler) Bill(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Bill(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// MarkCounting godoc
// @ID           markOrderCounting
// @Summary      Move a billed order into counting
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/counting [post]
func (h *OrderHandler) MarkCounting(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.MarkCounting(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// MarkPacking godoc
// @ID           markOrderPacking
// @Summary      Move a counting order into packing
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/packing [post]
func (h *OrderHandler) MarkPacking(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.MarkPacking(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Dispatch godoc
// @ID           dispatchOrder
// @Summary      Dispatch a packed order
// @Description  Moves reserved boxes to dispatched on every allocated batch
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/dispatch [post]
func (h *OrderHandler) Dispatch(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Dispatch(ctx.Request.Context(), tenantID, orderID, notes)
	})
}

// Deliver godoc
// @ID           deliverOrder
// @Summary      Mark a dispatched order as delivered
// @Description  Retires dispatched boxes from their batches
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appfulfillment.TransitionRequest false "Optional notes"
// @Success      200 {object} APIResponse[appfulfillment.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, tenantID, orderID uuid.UUID, notes string) (*appfulfillment.OrderResponse, error) {
		return h.service.Deliver(ctx.Request.Context(), tenantID, orderID, notes)
	})
}
