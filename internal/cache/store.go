// Package cache provides the expiring key-value store used by the
// registries and the tenant-scoped wrapper that partitions every key
// by the resolved tenant before it reaches the store.
package cache

import (
	"context"
	"time"
)

// Options carries the expiration settings for a Set call. A zero
// value on either field means "use the store default supplied by the
// wrapper".
type Options struct {
	// AbsoluteTTL is the hard upper bound on entry lifetime.
	AbsoluteTTL time.Duration
	// SlidingTTL extends the entry on each read, capped by the
	// absolute deadline.
	SlidingTTL time.Duration
}

// Store is a generic expiring key-value store. It has no tenant
// knowledge; keys arrive already partitioned and sanitized. Values
// are opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, opts Options) error
	Remove(ctx context.Context, key string) error
}
