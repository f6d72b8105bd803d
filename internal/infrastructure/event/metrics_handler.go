package event

import (
	"context"

	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/boxflow/backend/internal/infrastructure/telemetry"
)

// MetricsHandler translates fulfillment domain events into telemetry counter
// updates. It runs on the in-memory bus so services stay free of metrics
// concerns.
type MetricsHandler struct {
	metrics *telemetry.FulfillmentMetrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *telemetry.FulfillmentMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handle records the metric matching the event type
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.metrics == nil {
		return nil
	}
	tenant := event.TenantID().String()

	switch e := event.(type) {
	case *fulfillment.OrderPlacedEvent:
		h.metrics.RecordOrderPlaced(ctx, tenant)
	case *fulfillment.OrderEstimatedEvent:
		h.metrics.RecordTransition(ctx, tenant, "estimated")
	case *fulfillment.OrderSplitEvent:
		h.metrics.RecordSplit(ctx, tenant)
	case *fulfillment.OrderBilledEvent:
		h.metrics.RecordTransition(ctx, tenant, "billed")
		var boxes int64
		for _, a := range e.Allocations {
			boxes += int64(a.BoxesAllocated)
		}
		h.metrics.RecordBoxesAllocated(ctx, tenant, boxes)
	case *fulfillment.OrderDispatchedEvent:
		h.metrics.RecordTransition(ctx, tenant, "dispatched")
	case *fulfillment.OrderDeliveredEvent:
		h.metrics.RecordTransition(ctx, tenant, "delivered")
		var boxes int64
		for _, item := range e.Items {
			boxes += int64(item.BoxesFulfilled)
		}
		h.metrics.RecordBoxesDelivered(ctx, tenant, boxes)
	case *fulfillment.OrderCancelledEvent:
		h.metrics.RecordTransition(ctx, tenant, "cancelled")
	}
	return nil
}

// EventTypes limits the subscription to fulfillment order events
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		fulfillment.EventTypeOrderPlaced,
		fulfillment.EventTypeOrderEstimated,
		fulfillment.EventTypeOrderSplit,
		fulfillment.EventTypeOrderBilled,
		fulfillment.EventTypeOrderDispatched,
		fulfillment.EventTypeOrderDelivered,
		fulfillment.EventTypeOrderCancelled,
	}
}
