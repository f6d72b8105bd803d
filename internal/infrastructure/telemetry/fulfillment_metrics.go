package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FulfillmentMetrics tracks order pipeline activity and stock health.
type FulfillmentMetrics struct {
	ordersPlaced       *Counter
	orderTransitions   *Counter
	ordersSplit        *Counter
	boxesAllocated     *Counter
	boxesDelivered     *Counter
	insufficientStock  *Counter
	billDuration       *Histogram
	stockBoxesOnHand   *Gauge
	stockBoxesReserved *Gauge

	logger   *zap.Logger
	provider StockMetricsProvider
}

// StockMetricsProvider supplies stock counter roll-ups for periodic gauge
// collection. The interface keeps the telemetry layer off the inventory
// domain.
type StockMetricsProvider interface {
	// GetActiveTenants returns the tenants with active stock batches
	GetActiveTenants(ctx context.Context) ([]string, error)
	// GetStockTotals returns (available, reserved) box totals for a tenant
	GetStockTotals(ctx context.Context, tenantID string) (int64, int64, error)
}

// FulfillmentMetricsConfig holds configuration for fulfillment metrics.
type FulfillmentMetricsConfig struct {
	// CollectionInterval is how often stock gauges are collected (default: 5m)
	CollectionInterval time.Duration
	// Provider supplies stock data; nil disables gauge collection
	Provider StockMetricsProvider
}

// NewFulfillmentMetrics creates the fulfillment metric instruments.
func NewFulfillmentMetrics(mp *MeterProvider, cfg FulfillmentMetricsConfig, logger *zap.Logger) (*FulfillmentMetrics, error) {
	meter := mp.Meter("boxflow.fulfillment")

	fm := &FulfillmentMetrics{
		logger:   logger,
		provider: cfg.Provider,
	}

	var err error
	fm.ordersPlaced, err = NewCounter(meter,
		"boxflow_orders_placed_total",
		"Total orders placed", "{order}")
	if err != nil {
		return nil, err
	}
	fm.orderTransitions, err = NewCounter(meter,
		"boxflow_order_transitions_total",
		"Total order status transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	fm.ordersSplit, err = NewCounter(meter,
		"boxflow_orders_split_total",
		"Total child orders carved out at estimate", "{order}")
	if err != nil {
		return nil, err
	}
	fm.boxesAllocated, err = NewCounter(meter,
		"boxflow_boxes_allocated_total",
		"Total boxes reserved at bill time", "{box}")
	if err != nil {
		return nil, err
	}
	fm.boxesDelivered, err = NewCounter(meter,
		"boxflow_boxes_delivered_total",
		"Total boxes confirmed delivered", "{box}")
	if err != nil {
		return nil, err
	}
	fm.insufficientStock, err = NewCounter(meter,
		"boxflow_bill_insufficient_stock_total",
		"Bill attempts rejected for insufficient stock", "{attempt}")
	if err != nil {
		return nil, err
	}
	fm.billDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "boxflow_bill_duration_seconds",
		Description: "Duration of the bill transaction",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	fm.stockBoxesOnHand, err = NewGauge(meter,
		"boxflow_stock_boxes_available",
		"Available boxes across active batches", "{box}")
	if err != nil {
		return nil, err
	}
	fm.stockBoxesReserved, err = NewGauge(meter,
		"boxflow_stock_boxes_reserved",
		"Reserved boxes across active batches", "{box}")
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordOrderPlaced records a new order for a tenant.
func (fm *FulfillmentMetrics) RecordOrderPlaced(ctx context.Context, tenantID string) {
	fm.ordersPlaced.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordTransition records a status transition.
func (fm *FulfillmentMetrics) RecordTransition(ctx context.Context, tenantID, transition string) {
	fm.orderTransitions.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrTransition.String(transition),
	)
}

// RecordSplit records a child order created at estimate.
func (fm *FulfillmentMetrics) RecordSplit(ctx context.Context, tenantID string) {
	fm.ordersSplit.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordBoxesAllocated records boxes reserved at bill time.
func (fm *FulfillmentMetrics) RecordBoxesAllocated(ctx context.Context, tenantID string, boxes int64) {
	fm.boxesAllocated.Add(ctx, boxes, AttrTenantID.String(tenantID))
}

// RecordBoxesDelivered records boxes confirmed delivered.
func (fm *FulfillmentMetrics) RecordBoxesDelivered(ctx context.Context, tenantID string, boxes int64) {
	fm.boxesDelivered.Add(ctx, boxes, AttrTenantID.String(tenantID))
}

// RecordInsufficientStock records a bill rejected for lack of stock.
func (fm *FulfillmentMetrics) RecordInsufficientStock(ctx context.Context, tenantID string) {
	fm.insufficientStock.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordBillDuration records the duration of a bill transaction.
func (fm *FulfillmentMetrics) RecordBillDuration(ctx context.Context, tenantID string, d time.Duration) {
	fm.billDuration.RecordDuration(ctx, d, AttrTenantID.String(tenantID))
}

// StartPeriodicCollection collects stock gauges until the context is
// cancelled or the stop channel closes.
func (fm *FulfillmentMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fm.collectStockGauges(ctx)

	for {
		select {
		case <-ticker.C:
			fm.collectStockGauges(ctx)
		case <-stop:
			fm.logger.Info("Stopping periodic fulfillment metrics collection")
			return
		case <-ctx.Done():
			fm.logger.Info("Context cancelled, stopping periodic fulfillment metrics collection")
			return
		}
	}
}

func (fm *FulfillmentMetrics) collectStockGauges(ctx context.Context) {
	if fm.provider == nil {
		return
	}

	tenants, err := fm.provider.GetActiveTenants(ctx)
	if err != nil {
		fm.logger.Warn("Failed to list tenants for stock metrics", zap.Error(err))
		return
	}

	for _, tenantID := range tenants {
		available, reserved, err := fm.provider.GetStockTotals(ctx, tenantID)
		if err != nil {
			fm.logger.Warn("Failed to collect stock totals",
				zap.String("tenant_id", tenantID),
				zap.Error(err))
			continue
		}
		fm.stockBoxesOnHand.Record(ctx, available, AttrTenantID.String(tenantID))
		fm.stockBoxesReserved.Record(ctx, reserved, AttrTenantID.String(tenantID))
	}
}

// String implements fmt.Stringer for debug logging.
func (fm *FulfillmentMetrics) String() string {
	return fmt.Sprintf("FulfillmentMetrics{provider: %v}", fm.provider != nil)
}
