package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BillMetrics receives instrumentation from the bill transaction. Outcomes
// that never produce a domain event, like a rejected bill, are reported here.
type BillMetrics interface {
	RecordInsufficientStock(ctx context.Context, tenantID string)
	RecordBillDuration(ctx context.Context, tenantID string, d time.Duration)
}

// OrderService drives orders through the fulfillment pipeline. Simple
// transitions load, guard and save; estimate and bill additionally consult
// the stock ledger, and dispatch/deliver replay the recorded allocations
// against batch counters. Every transition that touches more than the order
// row runs inside a TransactionScope.
type OrderService struct {
	orderRepo      fulfillment.OrderRepository
	productRepo    catalog.ProductRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	billMetrics    BillMetrics
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo fulfillment.OrderRepository, productRepo catalog.ProductRepository, txScope TransactionScope) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		txScope:     txScope,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBillMetrics sets the optional bill instrumentation sink
func (s *OrderService) SetBillMetrics(metrics BillMetrics) {
	s.billMetrics = metrics
}

func (s *OrderService) publishEvents(ctx context.Context, orders ...*fulfillment.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, order := range orders {
		if order == nil {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, order.GetDomainEvents()...)
		order.ClearDomainEvents()
	}
}

// Create validates the product lines against the catalog and persists a new
// order in PLACED status
func (s *OrderService) Create(ctx context.Context, tenantID uuid.UUID, placedBy *uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	lines := make([]fulfillment.OrderLine, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for i, item := range req.Items {
		lines[i] = fulfillment.OrderLine{
			ProductID:      item.ProductID,
			BoxesRequested: item.BoxesRequested,
		}
		productIDs = append(productIDs, item.ProductID)
	}

	if err := s.checkProducts(ctx, tenantID, req.CategoryID, productIDs); err != nil {
		return nil, err
	}

	order, err := fulfillment.NewOrder(tenantID, req.ShopID, req.CategoryID, placedBy, fulfillment.NewOrderRef(), req.Notes, lines)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		// A ref collision surfaces as a unique violation. One retry with a
		// fresh ref; a second failure is reported as such.
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		order.OrderRef = fulfillment.NewOrderRef()
		if err := s.orderRepo.Save(ctx, order); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return nil, shared.ErrDuplicateReference
			}
			return nil, err
		}
	}

	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// checkProducts verifies every referenced product exists, is active, and
// belongs to the declared tenant and category
func (s *OrderService) checkProducts(ctx context.Context, tenantID, categoryID uuid.UUID, productIDs []uuid.UUID) error {
	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var invalid []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		product, ok := byID[id]
		if !ok || !product.BelongsTo(tenantID, categoryID) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return shared.NewDomainError("INVALID_PRODUCTS",
			fmt.Sprintf("Products not in declared category for this tenant: %v", invalid))
	}
	return nil
}

// GetByID retrieves an order with items and allocations
func (s *OrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByRef retrieves an order by its reference
func (s *OrderService) GetByRef(ctx context.Context, tenantID uuid.UUID, orderRef string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByRef(ctx, tenantID, orderRef)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.ShopID != nil {
		domainFilter.Filters["shop_id"] = *filter.ShopID
	}
	if filter.CategoryID != nil {
		domainFilter.Filters["category_id"] = *filter.CategoryID
	}
	if filter.Status != nil {
		status := fulfillment.OrderStatus(*filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", *filter.Status))
		}
		domainFilter.Filters["status"] = status.String()
	}
	if filter.PlacedBy != nil {
		domainFilter.Filters["placed_by"] = *filter.PlacedBy
	}
	if filter.ParentOrderID != nil {
		domainFilter.Filters["parent_order_id"] = *filter.ParentOrderID
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, total, nil
}

// Children retrieves the split orders carved out of a parent order
func (s *OrderService) Children(ctx context.Context, tenantID, orderID uuid.UUID) ([]OrderResponse, error) {
	if _, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	children, err := s.orderRepo.FindChildren(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	responses := make([]OrderResponse, len(children))
	for i := range children {
		responses[i] = ToOrderResponse(&children[i])
	}
	return responses, nil
}

// simpleTransition loads the order, applies a guarded status change and
// saves it with a version check
func (s *OrderService) simpleTransition(ctx context.Context, tenantID, orderID uuid.UUID, apply func(*fulfillment.Order) error) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := apply(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// Submit moves a PLACED order to SUBMITTED
func (s *OrderService) Submit(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.Submit(notes) })
}

// Forward moves a SUBMITTED order to FORWARDED
func (s *OrderService) Forward(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.Forward(notes) })
}

// Approve moves a FORWARDED order to APPROVED
func (s *OrderService) Approve(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.Approve(notes) })
}

// Hold parks a FORWARDED order
func (s *OrderService) Hold(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.Hold(notes) })
}

// Cancel terminates a FORWARDED or HOLD order
func (s *OrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.Cancel(notes) })
}

// MarkCounting moves a BILLED order to COUNTING
func (s *OrderService) MarkCounting(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.MarkCounting(notes) })
}

// MarkPacking moves a COUNTING order to PACKING
func (s *OrderService) MarkPacking(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	return s.simpleTransition(ctx, tenantID, orderID, func(o *fulfillment.Order) error { return o.MarkPacking(notes) })
}

// Estimate snapshots availability per item, records the fulfilled/pending
// split, and carves out a child order for any remainder. The snapshot
// reserves nothing: commitment happens at bill, and the window in between is
// an accepted race.
func (s *OrderService) Estimate(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*EstimateResponse, error) {
	var parent, child *fulfillment.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		decisions := make(map[uuid.UUID]int, len(order.Items))
		for _, item := range order.Items {
			candidates, err := repos.Stock().FindCandidates(ctx, tenantID, item.ProductID)
			if err != nil {
				return err
			}
			available := inventory.TotalAvailable(candidates)
			if available > item.BoxesRequested {
				available = item.BoxesRequested
			}
			decisions[item.ID] = available
		}

		if err := order.ApplyEstimate(decisions, notes); err != nil {
			return err
		}

		split, err := order.SplitRemainder(fulfillment.NewOrderRef())
		if err != nil {
			return err
		}

		if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if split != nil {
			if err := repos.Orders().Save(ctx, split); err != nil {
				return err
			}
		}

		parent, child = order, split
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, parent, child)

	response := &EstimateResponse{Order: ToOrderResponse(parent)}
	if child != nil {
		childResponse := ToOrderResponse(child)
		response.ChildOrder = &childResponse
	}
	return response, nil
}

// Bill is the commit point: it re-queries the candidate batches under row
// locks, walks them FIFO, moves available boxes to reserved, and records one
// allocation row per batch drawn from. A shortfall on any item fails the
// whole transition and rolls back every movement already applied.
func (s *OrderService) Bill(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	var billed *fulfillment.Order

	start := time.Now()
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(fulfillment.OrderStatusBilled) {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot bill order in %s status", order.Status))
		}

		for idx := range order.Items {
			item := &order.Items[idx]
			if item.BoxesFulfilled == 0 {
				continue
			}

			// Locks are taken in FIFO order, so concurrent billers of the
			// same product serialize on the oldest batch.
			candidates, err := repos.Stock().FindCandidatesForUpdate(ctx, tenantID, item.ProductID)
			if err != nil {
				return err
			}

			plan, err := inventory.PlanFIFO(item.BoxesFulfilled, candidates)
			if err != nil {
				return err
			}
			if !plan.FullyFulfilled {
				if s.billMetrics != nil {
					s.billMetrics.RecordInsufficientStock(ctx, tenantID.String())
				}
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Insufficient stock for product %s: short %d boxes", item.ProductID, plan.Shortfall))
			}

			byID := make(map[uuid.UUID]*inventory.StockBatch, len(candidates))
			for i := range candidates {
				byID[candidates[i].ID] = &candidates[i]
			}

			mutated := make([]*inventory.StockBatch, 0, len(plan.Allocations))
			for _, alloc := range plan.Allocations {
				batch := byID[alloc.StockID]
				if err := batch.Reserve(alloc.Boxes); err != nil {
					return err
				}
				if err := order.AllocateItem(item.ID, alloc.StockID, alloc.Boxes); err != nil {
					return err
				}
				mutated = append(mutated, batch)
			}
			// Persist before the next item so repeated products see the
			// drawn-down counters.
			if err := repos.Stock().SaveAll(ctx, mutated); err != nil {
				return err
			}
		}

		if err := order.MarkBilled(notes); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
			return err
		}

		billed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.billMetrics != nil {
		s.billMetrics.RecordBillDuration(ctx, tenantID.String(), time.Since(start))
	}

	s.publishEvents(ctx, billed)

	response := ToOrderResponse(billed)
	return &response, nil
}

// applyAllocations locks every batch referenced by the order's allocations,
// applies the per-allocation movement, and saves the batches. FIFO billing
// routinely leaves two orders holding allocations against the same batch, so
// the counters must only move under a row lock. Batches are locked in ID
// order so concurrent dispatchers of overlapping batch sets queue up instead
// of deadlocking.
func applyAllocations(ctx context.Context, repos TransactionalRepositories, order *fulfillment.Order, move func(*inventory.StockBatch, int) error) error {
	ids := make([]uuid.UUID, 0, len(order.Allocations()))
	seen := make(map[uuid.UUID]bool)
	for _, alloc := range order.Allocations() {
		if !seen[alloc.StockID] {
			seen[alloc.StockID] = true
			ids = append(ids, alloc.StockID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	batches := make(map[uuid.UUID]*inventory.StockBatch, len(ids))
	for _, id := range ids {
		// Loaded by primary key: allocations remain binding even if the
		// batch was deactivated after billing.
		batch, err := repos.Stock().FindByIDForTenantForUpdate(ctx, order.TenantID, id)
		if err != nil {
			return err
		}
		batches[id] = batch
	}

	for _, alloc := range order.Allocations() {
		if err := move(batches[alloc.StockID], alloc.BoxesAllocated); err != nil {
			return err
		}
	}

	all := make([]*inventory.StockBatch, 0, len(batches))
	for _, batch := range batches {
		all = append(all, batch)
	}
	return repos.Stock().SaveAll(ctx, all)
}

// Dispatch moves every allocated box from reserved to dispatched and marks
// the order DISPATCHED
func (s *OrderService) Dispatch(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	var dispatched *fulfillment.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.MarkDispatched(notes); err != nil {
			return err
		}
		if err := applyAllocations(ctx, repos, order, (*inventory.StockBatch).Dispatch); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		dispatched = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, dispatched)

	response := ToOrderResponse(dispatched)
	return &response, nil
}

// Deliver confirms receipt: dispatched boxes leave each batch's total for
// good, and the order reaches its terminal DELIVERED status
func (s *OrderService) Deliver(ctx context.Context, tenantID, orderID uuid.UUID, notes string) (*OrderResponse, error) {
	var delivered *fulfillment.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.MarkDelivered(notes); err != nil {
			return err
		}
		if err := applyAllocations(ctx, repos, order, (*inventory.StockBatch).Deliver); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		delivered = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, delivered)

	response := ToOrderResponse(delivered)
	return &response, nil
}
