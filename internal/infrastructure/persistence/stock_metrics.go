package persistence

import (
	"context"

	"github.com/boxflow/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormStockMetricsProvider supplies stock roll-ups for telemetry gauges.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetActiveTenants returns the IDs of tenants holding active stock batches
func (p *GormStockMetricsProvider) GetActiveTenants(ctx context.Context) ([]string, error) {
	var tenants []string
	if err := p.db.WithContext(ctx).
		Model(&inventory.StockBatch{}).
		Where("is_active = TRUE").
		Distinct("tenant_id").
		Pluck("tenant_id", &tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetStockTotals returns the available and reserved box totals across a
// tenant's active batches
func (p *GormStockMetricsProvider) GetStockTotals(ctx context.Context, tenantID string) (int64, int64, error) {
	var totals struct {
		Available int64
		Reserved  int64
	}
	if err := p.db.WithContext(ctx).
		Model(&inventory.StockBatch{}).
		Select("COALESCE(SUM(boxes_available), 0) AS available, COALESCE(SUM(boxes_reserved), 0) AS reserved").
		Where("tenant_id = ? AND is_active = TRUE", tenantID).
		Scan(&totals).Error; err != nil {
		return 0, 0, err
	}
	return totals.Available, totals.Reserved, nil
}
