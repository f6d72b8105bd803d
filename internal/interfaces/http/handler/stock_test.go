package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appinventory "github.com/boxflow/backend/internal/application/inventory"
	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/boxflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stockHandlerFixture struct {
	stock    *MockStockRepository
	products *MockProductRepository
	router   *gin.Engine
	tenantID uuid.UUID
}

func newStockFixture(t *testing.T) *stockHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &stockHandlerFixture{
		stock:    new(MockStockRepository),
		products: new(MockProductRepository),
		tenantID: uuid.New(),
	}

	svc := appinventory.NewStockService(f.stock, f.products, noopCache{})
	h := NewStockHandler(svc)

	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *stockHandlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
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

func (f *stockHandlerFixture) newBatch(t *testing.T, productID uuid.UUID, boxes int) *inventory.StockBatch {
	t.Helper()
	batch, err := inventory.NewStockBatch(f.tenantID, productID, nil, "", boxes)
	require.NoError(t, err)
	return batch
}

func TestStockHandler_Add(t *testing.T) {
	f := newStockFixture(t)
	product, err := catalog.NewProduct(f.tenantID, uuid.New(), "SKU-7", "Pears 5kg")
	require.NoError(t, err)

	f.products.On("FindByIDForTenant", mock.Anything, f.tenantID, product.ID).Return(product, nil)
	f.stock.On("Save", mock.Anything, mock.AnythingOfType("*inventory.StockBatch")).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/stocks", gin.H{
		"product_id":  product.ID.String(),
		"boxes_total": 40,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(40), data["boxes_total"])
	assert.Equal(t, float64(40), data["boxes_available"])
	assert.NotEmpty(t, data["batch_ref"])
}

func TestStockHandler_Add_UnknownProduct(t *testing.T) {
	f := newStockFixture(t)
	productID := uuid.New()

	f.products.On("FindByIDForTenant", mock.Anything, f.tenantID, productID).
		Return(nil, shared.ErrNotFound)

	w := f.do(t, http.MethodPost, "/api/v1/stocks", gin.H{
		"product_id":  productID.String(),
		"boxes_total": 10,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStockHandler_Add_NonPositiveBoxes(t *testing.T) {
	f := newStockFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/stocks", gin.H{
		"product_id":  uuid.New().String(),
		"boxes_total": 0,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
}

func TestStockHandler_Get(t *testing.T) {
	f := newStockFixture(t)
	batch := f.newBatch(t, uuid.New(), 12)

	f.stock.On("FindByIDForTenant", mock.Anything, f.tenantID, batch.ID).Return(batch, nil)

	w := f.do(t, http.MethodGet, "/api/v1/stocks/"+batch.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), batch.BatchRef)
}

func TestStockHandler_List(t *testing.T) {
	f := newStockFixture(t)
	batch := f.newBatch(t, uuid.New(), 12)

	f.stock.On("FindAllForTenant", mock.Anything, f.tenantID, mock.Anything).
		Return([]inventory.StockBatch{*batch}, nil)
	f.stock.On("CountForTenant", mock.Anything, f.tenantID, mock.Anything).
		Return(int64(1), nil)

	w := f.do(t, http.MethodGet, "/api/v1/stocks?is_active=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestStockHandler_Availability(t *testing.T) {
	f := newStockFixture(t)
	categoryID := uuid.New()
	productID := uuid.New()

	f.stock.On("AvailabilityByCategory", mock.Anything, f.tenantID, categoryID).
		Return([]inventory.ProductAvailability{
			{ProductID: productID, BoxesAvailable: 17},
		}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/stocks/availability/"+categoryID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), productID.String())
	assert.Contains(t, w.Body.String(), "17")
}

func TestStockHandler_Deactivate(t *testing.T) {
	f := newStockFixture(t)
	batch := f.newBatch(t, uuid.New(), 12)

	f.stock.On("FindByIDForTenant", mock.Anything, f.tenantID, batch.ID).Return(batch, nil)
	f.stock.On("Save", mock.Anything, batch).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/stocks/"+batch.ID.String()+"/deactivate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, batch.IsActive)
}

func TestStockHandler_Delete(t *testing.T) {
	f := newStockFixture(t)
	batch := f.newBatch(t, uuid.New(), 12)

	f.stock.On("FindByIDForTenant", mock.Anything, f.tenantID, batch.ID).Return(batch, nil)
	f.stock.On("Delete", mock.Anything, batch.ID).Return(nil)

	w := f.do(t, http.MethodDelete, "/api/v1/stocks/"+batch.ID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStockHandler_Delete_InUse(t *testing.T) {
	f := newStockFixture(t)
	batch := f.newBatch(t, uuid.New(), 12)
	require.NoError(t, batch.Reserve(5))

	f.stock.On("FindByIDForTenant", mock.Anything, f.tenantID, batch.ID).Return(batch, nil)

	w := f.do(t, http.MethodDelete, "/api/v1/stocks/"+batch.ID.String(), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_STOCK_IN_USE")
	f.stock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
