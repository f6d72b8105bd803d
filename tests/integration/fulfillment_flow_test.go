package integration

import (
	"context"
	"sync"
	"testing"

	appcatalog "github.com/boxflow/backend/internal/application/catalog"
	appfulfillment "github.com/boxflow/backend/internal/application/fulfillment"
	appinventory "github.com/boxflow/backend/internal/application/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/boxflow/backend/internal/infrastructure/cache"
	"github.com/boxflow/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FulfillmentSetup wires the application services over a real database
type FulfillmentSetup struct {
	DB *TestDB

	OrderService   *appfulfillment.OrderService
	StockService   *appinventory.StockService
	ProductService *appcatalog.ProductService

	TenantID   uuid.UUID
	ShopID     uuid.UUID
	CategoryID uuid.UUID
}

// NewFulfillmentSetup creates the full service stack against a fresh database
func NewFulfillmentSetup(t *testing.T) *FulfillmentSetup {
	t.Helper()

	testDB := NewTestDB(t)

	orderRepo := persistence.NewGormOrderRepository(testDB.DB)
	stockRepo := persistence.NewGormStockRepository(testDB.DB)
	productRepo := persistence.NewGormProductRepository(testDB.DB)
	txScope := persistence.NewGormTransactionScope(testDB.DB)

	return &FulfillmentSetup{
		DB:             testDB,
		OrderService:   appfulfillment.NewOrderService(orderRepo, productRepo, txScope),
		StockService:   appinventory.NewStockService(stockRepo, productRepo, cache.NewInMemoryAvailabilityCache()),
		ProductService: appcatalog.NewProductService(productRepo),
		TenantID:       uuid.New(),
		ShopID:         uuid.New(),
		CategoryID:     uuid.New(),
	}
}

// CreateProduct registers a product in the setup's category
func (s *FulfillmentSetup) CreateProduct(t *testing.T, sku string) uuid.UUID {
	t.Helper()

	product, err := s.ProductService.Create(context.Background(), s.TenantID, appcatalog.CreateProductRequest{
		SKU:        sku,
		Name:       "Product " + sku,
		CategoryID: s.CategoryID,
	})
	require.NoError(t, err)
	return product.ID
}

// AddStock registers an inbound batch for a product
func (s *FulfillmentSetup) AddStock(t *testing.T, productID uuid.UUID, boxes int) uuid.UUID {
	t.Helper()

	batch, err := s.StockService.Add(context.Background(), s.TenantID, nil, appinventory.AddStockRequest{
		ProductID:  productID,
		BoxesTotal: boxes,
	})
	require.NoError(t, err)
	return batch.ID
}

// PlaceOrder creates an order for a single product
func (s *FulfillmentSetup) PlaceOrder(t *testing.T, productID uuid.UUID, boxes int) uuid.UUID {
	t.Helper()

	order, err := s.OrderService.Create(context.Background(), s.TenantID, nil, appfulfillment.CreateOrderRequest{
		ShopID:     s.ShopID,
		CategoryID: s.CategoryID,
		Items: []appfulfillment.CreateOrderItemInput{
			{ProductID: productID, BoxesRequested: boxes},
		},
	})
	require.NoError(t, err)
	return order.ID
}

// AdvanceToApproved walks an order through submit, forward and approve
func (s *FulfillmentSetup) AdvanceToApproved(t *testing.T, orderID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := s.OrderService.Submit(ctx, s.TenantID, orderID, "")
	require.NoError(t, err)
	_, err = s.OrderService.Forward(ctx, s.TenantID, orderID, "")
	require.NoError(t, err)
	_, err = s.OrderService.Approve(ctx, s.TenantID, orderID, "")
	require.NoError(t, err)
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code)
}

func TestFulfillmentFlow_FullDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "APL-5KG")
	batchID := setup.AddStock(t, productID, 100)

	orderID := setup.PlaceOrder(t, productID, 40)
	setup.AdvanceToApproved(t, orderID)

	// Estimate: full availability, so no child order
	estimate, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, "ESTIMATED", estimate.Order.Status)
	assert.Nil(t, estimate.ChildOrder)
	require.Len(t, estimate.Order.Items, 1)
	assert.Equal(t, 40, estimate.Order.Items[0].BoxesFulfilled)
	assert.Equal(t, 0, estimate.Order.Items[0].BoxesPending)

	// Bill: boxes move from available to reserved and an allocation row
	// records the draw
	billed, err := setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, "BILLED", billed.Status)
	require.Len(t, billed.Items[0].Allocations, 1)
	assert.Equal(t, batchID, billed.Items[0].Allocations[0].StockID)
	assert.Equal(t, 40, billed.Items[0].Allocations[0].BoxesAllocated)

	batch, err := setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 100, batch.BoxesTotal)
	assert.Equal(t, 60, batch.BoxesAvailable)
	assert.Equal(t, 40, batch.BoxesReserved)

	_, err = setup.OrderService.MarkCounting(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.MarkPacking(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)

	// Dispatch: reserved becomes dispatched
	dispatched, err := setup.OrderService.Dispatch(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, "DISPATCHED", dispatched.Status)

	batch, err = setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.BoxesReserved)
	assert.Equal(t, 40, batch.BoxesDispatched)

	// Deliver: dispatched boxes leave the total for good
	delivered, err := setup.OrderService.Deliver(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	batch, err = setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 60, batch.BoxesTotal)
	assert.Equal(t, 60, batch.BoxesAvailable)
	assert.Equal(t, 0, batch.BoxesReserved)
	assert.Equal(t, 0, batch.BoxesDispatched)
}

func TestFulfillmentFlow_ConcurrentDispatchSharedBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "PEA-2KG")
	batchID := setup.AddStock(t, productID, 20)

	// FIFO billing leaves both orders holding allocations on the same batch
	orderIDs := []uuid.UUID{
		setup.PlaceOrder(t, productID, 12),
		setup.PlaceOrder(t, productID, 8),
	}
	for _, orderID := range orderIDs {
		setup.AdvanceToApproved(t, orderID)
		_, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
		require.NoError(t, err)
		_, err = setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
		require.NoError(t, err)
		_, err = setup.OrderService.MarkCounting(ctx, setup.TenantID, orderID, "")
		require.NoError(t, err)
		_, err = setup.OrderService.MarkPacking(ctx, setup.TenantID, orderID, "")
		require.NoError(t, err)
	}

	batch, err := setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	require.Equal(t, 20, batch.BoxesReserved)

	// Dispatch both orders at once: the row lock serializes the counter
	// movements so neither overwrites the other's write
	errs := make(chan error, len(orderIDs))
	var wg sync.WaitGroup
	for _, orderID := range orderIDs {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, dispatchErr := setup.OrderService.Dispatch(ctx, setup.TenantID, id, "")
			errs <- dispatchErr
		}(orderID)
	}
	wg.Wait()
	close(errs)
	for dispatchErr := range errs {
		require.NoError(t, dispatchErr)
	}

	batch, err = setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.BoxesReserved)
	assert.Equal(t, 20, batch.BoxesDispatched)
	assert.Equal(t, 0, batch.BoxesAvailable)
	assert.Equal(t, 20, batch.BoxesTotal)

	// Both deliveries then find their boxes where dispatch left them
	for _, orderID := range orderIDs {
		_, err = setup.OrderService.Deliver(ctx, setup.TenantID, orderID, "")
		require.NoError(t, err)
	}

	batch, err = setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.BoxesTotal)
	assert.Equal(t, 0, batch.BoxesDispatched)
}

func TestFulfillmentFlow_SplitOnEstimate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "PER-3KG")
	setup.AddStock(t, productID, 30)

	orderID := setup.PlaceOrder(t, productID, 50)
	setup.AdvanceToApproved(t, orderID)

	// Only 30 of 50 boxes are available, so the estimate carves the
	// remainder into a child order
	estimate, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, 30, estimate.Order.Items[0].BoxesFulfilled)
	assert.Equal(t, 20, estimate.Order.Items[0].BoxesPending)

	require.NotNil(t, estimate.ChildOrder)
	child := estimate.ChildOrder
	assert.Equal(t, "ESTIMATED", child.Status)
	require.NotNil(t, child.ParentOrderID)
	assert.Equal(t, orderID, *child.ParentOrderID)
	require.Len(t, child.Items, 1)
	assert.Equal(t, 20, child.Items[0].BoxesRequested)
	assert.NotEqual(t, estimate.Order.OrderRef, child.OrderRef)

	// The child shows up in the parent's children listing
	children, err := setup.OrderService.Children(ctx, setup.TenantID, orderID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	// Billing the parent reserves only the fulfilled share
	billed, err := setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, "BILLED", billed.Status)

	availability, err := setup.StockService.Availability(ctx, setup.TenantID, setup.CategoryID)
	require.NoError(t, err)
	assert.Empty(t, availability.Products, "all boxes should be reserved")
}

func TestFulfillmentFlow_BillDrainsBatchesFIFO(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "ORG-1KG")
	firstBatch := setup.AddStock(t, productID, 25)
	secondBatch := setup.AddStock(t, productID, 25)

	orderID := setup.PlaceOrder(t, productID, 30)
	setup.AdvanceToApproved(t, orderID)

	_, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)

	billed, err := setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)

	// The oldest batch is drained before the newer one is touched
	allocs := billed.Items[0].Allocations
	require.Len(t, allocs, 2)
	assert.Equal(t, firstBatch, allocs[0].StockID)
	assert.Equal(t, 25, allocs[0].BoxesAllocated)
	assert.Equal(t, secondBatch, allocs[1].StockID)
	assert.Equal(t, 5, allocs[1].BoxesAllocated)

	first, err := setup.StockService.Get(ctx, setup.TenantID, firstBatch)
	require.NoError(t, err)
	assert.Equal(t, 0, first.BoxesAvailable)
	assert.Equal(t, 25, first.BoxesReserved)

	second, err := setup.StockService.Get(ctx, setup.TenantID, secondBatch)
	require.NoError(t, err)
	assert.Equal(t, 20, second.BoxesAvailable)
	assert.Equal(t, 5, second.BoxesReserved)
}

func TestFulfillmentFlow_BillInsufficientStockRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "LMN-2KG")
	batchID := setup.AddStock(t, productID, 50)

	orderID := setup.PlaceOrder(t, productID, 40)
	setup.AdvanceToApproved(t, orderID)

	_, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)

	// Another order drains the stock between estimate and bill
	rivalID := setup.PlaceOrder(t, productID, 30)
	setup.AdvanceToApproved(t, rivalID)
	_, err = setup.OrderService.Estimate(ctx, setup.TenantID, rivalID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.Bill(ctx, setup.TenantID, rivalID, "")
	require.NoError(t, err)

	_, err = setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
	requireDomainCode(t, err, "INSUFFICIENT_STOCK")

	// The failed bill left order and counters untouched
	order, err := setup.OrderService.GetByID(ctx, setup.TenantID, orderID)
	require.NoError(t, err)
	assert.Equal(t, "ESTIMATED", order.Status)
	assert.Empty(t, order.Items[0].Allocations)

	batch, err := setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 20, batch.BoxesAvailable)
	assert.Equal(t, 30, batch.BoxesReserved)
}

func TestFulfillmentFlow_CancelPaths(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "GRP-4KG")
	setup.AddStock(t, productID, 10)

	// Cancel from FORWARDED
	forwardedID := setup.PlaceOrder(t, productID, 5)
	_, err := setup.OrderService.Submit(ctx, setup.TenantID, forwardedID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.Forward(ctx, setup.TenantID, forwardedID, "")
	require.NoError(t, err)

	cancelled, err := setup.OrderService.Cancel(ctx, setup.TenantID, forwardedID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// Cancel from HOLD, the only way out of HOLD
	heldID := setup.PlaceOrder(t, productID, 5)
	_, err = setup.OrderService.Submit(ctx, setup.TenantID, heldID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.Forward(ctx, setup.TenantID, heldID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.Hold(ctx, setup.TenantID, heldID, "")
	require.NoError(t, err)

	_, err = setup.OrderService.Approve(ctx, setup.TenantID, heldID, "")
	requireDomainCode(t, err, "INVALID_STATE")

	cancelled, err = setup.OrderService.Cancel(ctx, setup.TenantID, heldID, "")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// An approved order can no longer be cancelled
	approvedID := setup.PlaceOrder(t, productID, 5)
	setup.AdvanceToApproved(t, approvedID)
	_, err = setup.OrderService.Cancel(ctx, setup.TenantID, approvedID, "")
	requireDomainCode(t, err, "INVALID_STATE")
}

func TestFulfillmentFlow_TenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "MNG-6KG")
	setup.AddStock(t, productID, 10)
	orderID := setup.PlaceOrder(t, productID, 5)

	otherTenant := uuid.New()

	_, err := setup.OrderService.GetByID(ctx, otherTenant, orderID)
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = setup.OrderService.Submit(ctx, otherTenant, orderID, "")
	requireDomainCode(t, err, "NOT_FOUND")

	orders, total, err := setup.OrderService.List(ctx, otherTenant, appfulfillment.OrderListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestFulfillmentFlow_DuplicateSKURejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	setup.CreateProduct(t, "DUP-1KG")

	_, err := setup.ProductService.Create(ctx, setup.TenantID, appcatalog.CreateProductRequest{
		SKU:        "dup-1kg",
		Name:       "Duplicate",
		CategoryID: setup.CategoryID,
	})
	requireDomainCode(t, err, "ALREADY_EXISTS")

	// The same SKU under a different tenant is fine
	otherTenant := uuid.New()
	product, err := setup.ProductService.Create(ctx, otherTenant, appcatalog.CreateProductRequest{
		SKU:        "DUP-1KG",
		Name:       "Duplicate",
		CategoryID: setup.CategoryID,
	})
	require.NoError(t, err)
	assert.Equal(t, "DUP-1KG", product.SKU)
}

func TestFulfillmentFlow_StockDeleteGuard(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "DEL-9KG")
	batchID := setup.AddStock(t, productID, 20)

	orderID := setup.PlaceOrder(t, productID, 10)
	setup.AdvanceToApproved(t, orderID)
	_, err := setup.OrderService.Estimate(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)
	_, err = setup.OrderService.Bill(ctx, setup.TenantID, orderID, "")
	require.NoError(t, err)

	// A batch with reserved boxes cannot be deleted
	err = setup.StockService.Delete(ctx, setup.TenantID, batchID)
	requireDomainCode(t, err, "STOCK_IN_USE")

	batch, err := setup.StockService.Get(ctx, setup.TenantID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 10, batch.BoxesReserved)
}

func TestFulfillmentFlow_OrderRefUniquePerTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewFulfillmentSetup(t)
	ctx := context.Background()

	productID := setup.CreateProduct(t, "REF-7KG")
	setup.AddStock(t, productID, 100)

	// References across a burst of orders stay unique
	refs := make(map[string]bool)
	for i := 0; i < 10; i++ {
		order, err := setup.OrderService.Create(ctx, setup.TenantID, nil, appfulfillment.CreateOrderRequest{
			ShopID:     setup.ShopID,
			CategoryID: setup.CategoryID,
			Items: []appfulfillment.CreateOrderItemInput{
				{ProductID: productID, BoxesRequested: 1},
			},
		})
		require.NoError(t, err)
		require.False(t, refs[order.OrderRef], "duplicate order ref %s", order.OrderRef)
		refs[order.OrderRef] = true

		found, err := setup.OrderService.GetByRef(ctx, setup.TenantID, order.OrderRef)
		require.NoError(t, err)
		assert.Equal(t, order.ID, found.ID)
	}
}
