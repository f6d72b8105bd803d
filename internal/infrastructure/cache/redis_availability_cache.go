package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appinventory "github.com/boxflow/backend/internal/application/inventory"
	"github.com/boxflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisAvailabilityCache caches per-category availability roll-ups in Redis.
// Entries are short-lived; a miss or a Redis error falls through to the
// database, so the cache never affects correctness.
type RedisAvailabilityCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisAvailabilityCache creates a cache with its own Redis client
func NewRedisAvailabilityCache(cfg RedisConfig, logger *zap.Logger) (*RedisAvailabilityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAvailabilityCacheWithClient(client, "", logger), nil
}

// NewRedisAvailabilityCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisAvailabilityCacheWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisAvailabilityCache {
	if keyPrefix == "" {
		keyPrefix = "stock:availability:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisAvailabilityCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (c *RedisAvailabilityCache) key(tenantID, categoryID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", c.keyPrefix, tenantID, categoryID)
}

// Get returns the cached availability for a (tenant, category) pair
func (c *RedisAvailabilityCache) Get(ctx context.Context, tenantID, categoryID uuid.UUID) ([]inventory.ProductAvailability, bool) {
	payload, err := c.client.Get(ctx, c.key(tenantID, categoryID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var products []inventory.ProductAvailability
	if err := json.Unmarshal(payload, &products); err != nil {
		c.logger.Warn("availability cache entry corrupted", zap.Error(err))
		return nil, false
	}
	return products, true
}

// Set stores the availability for a (tenant, category) pair with a TTL
func (c *RedisAvailabilityCache) Set(ctx context.Context, tenantID, categoryID uuid.UUID, products []inventory.ProductAvailability, ttl time.Duration) {
	payload, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("availability cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(tenantID, categoryID), payload, ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached category roll-up for a tenant
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	pattern := fmt.Sprintf("%s%s:*", c.keyPrefix, tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("availability cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisAvailabilityCache) Close() error {
	return c.client.Close()
}

var _ appinventory.AvailabilityCache = (*RedisAvailabilityCache)(nil)
