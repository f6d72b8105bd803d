package catalog

import (
	"strings"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Product is the catalog entry orders and stock batches reference. The order
// pipeline only needs identity, category membership and the active flag;
// pricing and richer merchandising live outside this service.
type Product struct {
	shared.TenantAggregateRoot
	SKU        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name       string    `gorm:"type:varchar(200);not null"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	IsActive   bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(tenantID, categoryID uuid.UUID, sku, name string) (*Product, error) {
	sku = strings.TrimSpace(strings.ToUpper(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		CategoryID:          categoryID,
		IsActive:            true,
	}, nil
}

// BelongsTo reports whether the product is usable for orders of the given
// tenant and category
func (p *Product) BelongsTo(tenantID, categoryID uuid.UUID) bool {
	return p.IsActive && p.TenantID == tenantID && p.CategoryID == categoryID
}

// Deactivate removes the product from ordering without deleting history
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
}
