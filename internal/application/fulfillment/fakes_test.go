package fulfillment

import (
	"context"
	"sort"
	"sync"

	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. They implement the same
// ordering and error contracts as the GORM implementations so the scenario
// tests exercise real multi-step flows instead of scripted expectations.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*fulfillment.Order
	refs   map[string]uuid.UUID
	// saveErr, when set, is returned once by the next Save call
	saveErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*fulfillment.Order),
		refs:   make(map[string]uuid.UUID),
	}
}

func (r *fakeOrderRepo) clone(o *fulfillment.Order) *fulfillment.Order {
	cp := *o
	cp.Items = make([]fulfillment.OrderItem, len(o.Items))
	for i, item := range o.Items {
		cp.Items[i] = item
		cp.Items[i].Allocations = append([]fulfillment.OrderItemAllocation(nil), item.Allocations...)
	}
	return &cp
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.clone(order), nil
}

func (r *fakeOrderRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return r.clone(order), nil
}

func (r *fakeOrderRepo) FindByRef(_ context.Context, tenantID uuid.UUID, ref string) (*fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.refs[ref]
	if !ok {
		return nil, shared.ErrNotFound
	}
	order := r.orders[id]
	if order.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return r.clone(order), nil
}

func (r *fakeOrderRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []fulfillment.Order
	for _, order := range r.orders {
		if order.TenantID != tenantID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && order.Status.String() != status {
			continue
		}
		if shopID, ok := filter.Filters["shop_id"]; ok && order.ShopID != shopID {
			continue
		}
		if parentID, ok := filter.Filters["parent_order_id"]; ok {
			if order.ParentOrderID == nil || *order.ParentOrderID != parentID {
				continue
			}
		}
		result = append(result, *r.clone(order))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeOrderRepo) FindChildren(_ context.Context, tenantID, parentID uuid.UUID) ([]fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []fulfillment.Order
	for _, order := range r.orders {
		if order.TenantID == tenantID && order.ParentOrderID != nil && *order.ParentOrderID == parentID {
			result = append(result, *r.clone(order))
		}
	}
	return result, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *fulfillment.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		err := r.saveErr
		r.saveErr = nil
		return err
	}
	if existing, ok := r.refs[order.OrderRef]; ok && existing != order.ID {
		return shared.ErrAlreadyExists
	}
	r.refs[order.OrderRef] = order.ID
	r.orders[order.ID] = r.clone(order)
	return nil
}

func (r *fakeOrderRepo) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	order.IncrementVersion()
	return r.Save(ctx, order)
}

func (r *fakeOrderRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	orders, err := r.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(orders)), nil
}

var _ fulfillment.OrderRepository = (*fakeOrderRepo)(nil)

type fakeStockRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.StockBatch
	nextSeq int64
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{batches: make(map[uuid.UUID]*inventory.StockBatch)}
}

func (r *fakeStockRepo) add(batch *inventory.StockBatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	batch.Sequence = r.nextSeq
	cp := *batch
	r.batches[batch.ID] = &cp
}

func (r *fakeStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *batch
	return &cp, nil
}

func (r *fakeStockRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *batch
	return &cp, nil
}

func (r *fakeStockRepo) FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockBatch, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakeStockRepo) FindCandidates(_ context.Context, tenantID, productID uuid.UUID) ([]inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []inventory.StockBatch
	for _, batch := range r.batches {
		if batch.TenantID == tenantID && batch.ProductID == productID && batch.CanAllocate() {
			result = append(result, *batch)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Sequence < result[j].Sequence
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeStockRepo) FindCandidatesForUpdate(ctx context.Context, tenantID, productID uuid.UUID) ([]inventory.StockBatch, error) {
	return r.FindCandidates(ctx, tenantID, productID)
}

func (r *fakeStockRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []inventory.StockBatch
	for _, batch := range r.batches {
		if batch.TenantID != tenantID {
			continue
		}
		if productID, ok := filter.Filters["product_id"]; ok && batch.ProductID != productID {
			continue
		}
		result = append(result, *batch)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

func (r *fakeStockRepo) AvailabilityByCategory(context.Context, uuid.UUID, uuid.UUID) ([]inventory.ProductAvailability, error) {
	return nil, nil
}

func (r *fakeStockRepo) Save(_ context.Context, batch *inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if batch.Sequence == 0 {
		r.nextSeq++
		batch.Sequence = r.nextSeq
	}
	cp := *batch
	r.batches[batch.ID] = &cp
	return nil
}

func (r *fakeStockRepo) SaveAll(ctx context.Context, batches []*inventory.StockBatch) error {
	for _, batch := range batches {
		if err := r.Save(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeStockRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.batches, id)
	return nil
}

func (r *fakeStockRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	batches, err := r.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(batches)), nil
}

var _ inventory.StockRepository = (*fakeStockRepo)(nil)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepo) add(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []catalog.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.TenantID == tenantID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []catalog.Product
	for _, p := range r.products {
		if p.TenantID == tenantID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	products, err := r.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(products)), nil
}

var _ catalog.ProductRepository = (*fakeProductRepo)(nil)
