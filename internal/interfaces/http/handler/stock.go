package handler

import (
	appinventory "github.com/boxflow/backend/internal/application/inventory"
	"github.com/boxflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StockHandler handles stock batch API endpoints
type StockHandler struct {
	BaseHandler
	service *appinventory.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *appinventory.StockService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes registers stock routes on the given group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stocks")
	{
		stock.POST("", h.Add)
		stock.GET("", h.List)
		stock.GET("/availability/:categoryId", h.Availability)
		stock.GET("/:id", h.Get)
		stock.POST("/:id/activate", h.Activate)
		stock.POST("/:id/deactivate", h.Deactivate)
		stock.DELETE("/:id", h.Delete)
	}
}

// Add godoc
// @ID           addStock
// @Summary      Register an inbound stock batch
// @Description  Adds a batch of boxes for a product. The batch reference is
// @Description  generated when omitted.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appinventory.AddStockRequest true "Batch to register"
// @Success      201 {object} APIResponse[appinventory.StockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /stocks [post]
func (h *StockHandler) Add(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req appinventory.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Add(c.Request.Context(), tenantID, getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @ID           getStock
// @Summary      Get a stock batch by ID
// @Tags         stock
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} APIResponse[appinventory.StockResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /stocks/{id} [get]
func (h *StockHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	stockID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid stock batch ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, stockID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listStock
// @Summary      List stock batches
// @Tags         stock
// @Produce      json
// @Param        product_id query string false "Filter by product"
// @Param        is_active query bool false "Filter by active flag"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]appinventory.StockResponse]
// @Router       /stocks [get]
func (h *StockHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter appinventory.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	batches, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, batches, dto.Meta{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}

// Availability godoc
// @ID           getStockAvailability
// @Summary      Get per-product availability for a category
// @Description  Sums available boxes across active batches of every active
// @Description  product in the category
// @Tags         stock
// @Produce      json
// @Param        categoryId path string true "Category ID"
// @Success      200 {object} APIResponse[appinventory.AvailabilityResponse]
// @Router       /stocks/availability/{categoryId} [get]
func (h *StockHandler) Availability(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	categoryID, err := parseUUIDParam(c, "categoryId")
	if err != nil {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	resp, err := h.service.Availability(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Activate godoc
// @ID           activateStock
// @Summary      Reactivate a stock batch
// @Tags         stock
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} APIResponse[appinventory.StockResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /stocks/{id}/activate [post]
func (h *StockHandler) Activate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	stockID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid stock batch ID")
		return
	}

	resp, err := h.service.Activate(c.Request.Context(), tenantID, stockID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deactivate godoc
// @ID           deactivateStock
// @Summary      Exclude a stock batch from allocation
// @Tags         stock
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} APIResponse[appinventory.StockResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /stocks/{id}/deactivate [post]
func (h *StockHandler) Deactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	stockID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid stock batch ID")
		return
	}

	resp, err := h.service.Deactivate(c.Request.Context(), tenantID, stockID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteStock
// @Summary      Delete a stock batch
// @Description  Only batches with no reserved or dispatched boxes can be
// @Description  deleted
// @Tags         stock
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /stocks/{id} [delete]
func (h *StockHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	stockID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid stock batch ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, stockID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
