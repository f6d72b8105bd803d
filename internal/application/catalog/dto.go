package catalog

import (
	"time"

	"github.com/boxflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// CreateProductRequest represents a request to register a product
type CreateProductRequest struct {
	SKU        string    `json:"sku" binding:"required,max=50"`
	Name       string    `json:"name" binding:"required,max=200"`
	CategoryID uuid.UUID `json:"category_id" binding:"required"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	CategoryID *uuid.UUID `form:"category_id"`
	IsActive   *bool      `form:"is_active"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size" binding:"omitempty,max=100"`
}

// ProductResponse represents a product
type ProductResponse struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	CategoryID uuid.UUID `json:"category_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToProductResponse maps a domain product to its response representation
func ToProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:         product.ID,
		TenantID:   product.TenantID,
		SKU:        product.SKU,
		Name:       product.Name,
		CategoryID: product.CategoryID,
		IsActive:   product.IsActive,
		CreatedAt:  product.CreatedAt,
		UpdatedAt:  product.UpdatedAt,
	}
}
