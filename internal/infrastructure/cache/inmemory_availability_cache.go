package cache

import (
	"context"
	"sync"
	"time"

	appinventory "github.com/boxflow/backend/internal/application/inventory"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// InMemoryAvailabilityCache is a process-local availability cache for
// single-instance deployments and tests
type InMemoryAvailabilityCache struct {
	mu      sync.RWMutex
	entries map[availabilityKey]availabilityEntry
}

type availabilityKey struct {
	tenantID   uuid.UUID
	categoryID uuid.UUID
}

type availabilityEntry struct {
	products  []inventory.ProductAvailability
	expiresAt time.Time
}

// NewInMemoryAvailabilityCache creates a new in-memory availability cache
func NewInMemoryAvailabilityCache() *InMemoryAvailabilityCache {
	return &InMemoryAvailabilityCache{
		entries: make(map[availabilityKey]availabilityEntry),
	}
}

// Get returns the cached availability for a (tenant, category) pair
func (c *InMemoryAvailabilityCache) Get(_ context.Context, tenantID, categoryID uuid.UUID) ([]inventory.ProductAvailability, bool) {
	c.mu.RLock()
	entry, ok := c.entries[availabilityKey{tenantID, categoryID}]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.products, true
}

// Set stores the availability for a (tenant, category) pair with a TTL
func (c *InMemoryAvailabilityCache) Set(_ context.Context, tenantID, categoryID uuid.UUID, products []inventory.ProductAvailability, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[availabilityKey{tenantID, categoryID}] = availabilityEntry{
		products:  products,
		expiresAt: time.Now().Add(ttl),
	}
}

// Invalidate drops every cached category roll-up for a tenant
func (c *InMemoryAvailabilityCache) Invalidate(_ context.Context, tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.tenantID == tenantID {
			delete(c.entries, key)
		}
	}
}

var _ appinventory.AvailabilityCache = (*InMemoryAvailabilityCache)(nil)
