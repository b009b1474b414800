package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/tenant"
	"github.com/suteetoe/metacore/prometheus"
)

// Default expiration applied when a caller does not specify TTLs.
const (
	DefaultAbsoluteTTL = 180 * time.Minute
	DefaultSlidingTTL  = 30 * time.Minute
)

// TenantCache wraps a Store and namespaces every key by the tenant
// resolved in the request context, or by the global partition in
// system-admin mode. Two tenants can never produce the same effective
// key for the same input key.
type TenantCache struct {
	store           Store
	defaultAbsolute time.Duration
	defaultSliding  time.Duration
}

// NewTenantCache creates a tenant-scoped cache over the given store.
// Non-positive TTL arguments fall back to the package defaults.
func NewTenantCache(store Store, absoluteTTL, slidingTTL time.Duration) *TenantCache {
	if absoluteTTL <= 0 {
		absoluteTTL = DefaultAbsoluteTTL
	}
	if slidingTTL <= 0 {
		slidingTTL = DefaultSlidingTTL
	}
	return &TenantCache{
		store:           store,
		defaultAbsolute: absoluteTTL,
		defaultSliding:  slidingTTL,
	}
}

// EffectiveKey computes the partitioned, sanitized key sent to the
// store. Empty or whitespace-only keys are rejected. The result is
// deterministic for a given tenant and input key.
func (c *TenantCache) EffectiveKey(ctx context.Context, key string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return "", apperr.Validation("key", "cache key must not be empty")
	}

	partition, err := tenant.Partition(ctx)
	if err != nil {
		return "", err
	}

	return sanitizeKey(partition + ":" + normalized), nil
}

// Get reads the value for key into dest. The boolean reports whether
// the key was present.
func (c *TenantCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	effective, err := c.EffectiveKey(ctx, key)
	if err != nil {
		return false, err
	}

	value, ok, err := c.store.Get(ctx, effective)
	if err != nil {
		return false, err
	}
	if !ok {
		prometheus.CacheMissCounter.Inc()
		return false, nil
	}

	if err := json.Unmarshal(value, dest); err != nil {
		return false, err
	}

	prometheus.CacheHitCounter.Inc()
	return true, nil
}

// Set stores the value under key with the default expirations.
func (c *TenantCache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, 0, 0)
}

// SetWithTTL stores the value under key. Non-positive TTL arguments
// use the cache defaults.
func (c *TenantCache) SetWithTTL(ctx context.Context, key string, value interface{}, absoluteTTL, slidingTTL time.Duration) error {
	effective, err := c.EffectiveKey(ctx, key)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if absoluteTTL <= 0 {
		absoluteTTL = c.defaultAbsolute
	}
	if slidingTTL <= 0 {
		slidingTTL = c.defaultSliding
	}

	return c.store.Set(ctx, effective, payload, Options{
		AbsoluteTTL: absoluteTTL,
		SlidingTTL:  slidingTTL,
	})
}

// Remove drops the entry for key, if present.
func (c *TenantCache) Remove(ctx context.Context, key string) error {
	effective, err := c.EffectiveKey(ctx, key)
	if err != nil {
		return err
	}
	return c.store.Remove(ctx, effective)
}

// sanitizeKey strips every character outside the allow-listed
// alphanumeric, underscore and colon set.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '_' || r == ':':
			return r
		}
		return -1
	}, key)
}
