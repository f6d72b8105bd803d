package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appfulfillment "github.com/boxflow/backend/internal/application/fulfillment"
	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/boxflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderHandlerFixture struct {
	orders   *MockOrderRepository
	stock    *MockStockRepository
	products *MockProductRepository
	router   *gin.Engine
	tenantID uuid.UUID
}

func newOrderFixture(t *testing.T) *orderHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &orderHandlerFixture{
		orders:   new(MockOrderRepository),
		stock:    new(MockStockRepository),
		products: new(MockProductRepository),
		tenantID: uuid.New(),
	}

	svc := appfulfillment.NewOrderService(f.orders, f.products,
		&fakeTxScope{orders: f.orders, stock: f.stock})
	h := NewOrderHandler(svc)

	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *orderHandlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", f.tenantID.String())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *orderHandlerFixture) newProduct(t *testing.T, categoryID uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(f.tenantID, categoryID, "SKU-1", "Apples 5kg")
	require.NoError(t, err)
	return product
}

func (f *orderHandlerFixture) newOrder(t *testing.T, productID uuid.UUID, boxes int) *fulfillment.Order {
	t.Helper()
	order, err := fulfillment.NewOrder(f.tenantID, uuid.New(), uuid.New(), nil,
		fulfillment.NewOrderRef(), "", []fulfillment.OrderLine{
			{ProductID: productID, BoxesRequested: boxes},
		})
	require.NoError(t, err)
	return order
}

func TestOrderHandler_Create(t *testing.T) {
	f := newOrderFixture(t)
	categoryID := uuid.New()
	product := f.newProduct(t, categoryID)

	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{product.ID}).
		Return([]catalog.Product{*product}, nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*fulfillment.Order")).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"shop_id":     uuid.New().String(),
		"category_id": categoryID.String(),
		"items": []gin.H{
			{"product_id": product.ID.String(), "boxes_requested": 5},
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PLACED", data["status"])
	f.orders.AssertExpectations(t)
}

func TestOrderHandler_Create_ValidationFailure(t *testing.T) {
	f := newOrderFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"shop_id": uuid.New().String(),
		// category_id and items missing
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
}

func TestOrderHandler_Create_InvalidProducts(t *testing.T) {
	f := newOrderFixture(t)
	productID := uuid.New()

	// Catalog has no matching product
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{productID}).
		Return([]catalog.Product{}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"shop_id":     uuid.New().String(),
		"category_id": uuid.New().String(),
		"items": []gin.H{
			{"product_id": productID.String(), "boxes_requested": 2},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INVALID_PRODUCTS")
}

func TestOrderHandler_Get(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3)

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)

	w := f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), order.OrderRef)
}

func TestOrderHandler_Get_NotFound(t *testing.T) {
	f := newOrderFixture(t)
	orderID := uuid.New()

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, orderID).
		Return(nil, shared.ErrNotFound)

	w := f.do(t, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestOrderHandler_Get_InvalidID(t *testing.T) {
	f := newOrderFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_List(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3)

	f.orders.On("FindAllForTenant", mock.Anything, f.tenantID, mock.Anything).
		Return([]fulfillment.Order{*order}, nil)
	f.orders.On("CountForTenant", mock.Anything, f.tenantID, mock.Anything).
		Return(int64(1), nil)

	w := f.do(t, http.MethodGet, "/api/v1/orders?status=PLACED&page=1&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestOrderHandler_List_UnknownStatus(t *testing.T) {
	f := newOrderFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/orders?status=SHRUNK", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Submit(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3)

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/submit",
		gin.H{"notes": "rush"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SUBMITTED")
}

func TestOrderHandler_Approve_InvalidState(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3) // still PLACED

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)

	w := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/approve", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
}

func TestOrderHandler_Cancel_FromHold(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3)
	require.NoError(t, order.Submit(""))
	require.NoError(t, order.Forward(""))
	require.NoError(t, order.Hold(""))

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CANCELLED")
}

func TestOrderHandler_SaveConflict(t *testing.T) {
	f := newOrderFixture(t)
	order := f.newOrder(t, uuid.New(), 3)

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(shared.ErrConcurrencyConflict)

	w := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/submit", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_CONCURRENCY_CONFLICT")
}

func TestOrderHandler_Children(t *testing.T) {
	f := newOrderFixture(t)
	parent := f.newOrder(t, uuid.New(), 3)
	child := f.newOrder(t, uuid.New(), 1)
	child.ParentOrderID = &parent.ID

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, parent.ID).Return(parent, nil)
	f.orders.On("FindChildren", mock.Anything, f.tenantID, parent.ID).
		Return([]fulfillment.Order{*child}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/orders/"+parent.ID.String()+"/children", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), child.OrderRef)
}
