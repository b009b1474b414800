package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	expiresAt  time.Time
	deadline   time.Time
	slidingTTL time.Duration
}

// MemoryStore is the in-process Store implementation. It is the
// default backend for single-node deployments and the test double
// for everything built on Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a memory store. When cleanupInterval is
// positive a janitor goroutine evicts expired entries until Stop is
// called; expired entries are filtered on read either way.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}

	// Sliding expiration extends the entry on each read, never past
	// the absolute deadline.
	if entry.slidingTTL > 0 {
		extended := now.Add(entry.slidingTTL)
		if extended.After(entry.deadline) {
			extended = entry.deadline
		}
		entry.expiresAt = extended
		s.entries[key] = entry
	}

	return entry.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	deadline := now.Add(opts.AbsoluteTTL)

	expiresAt := deadline
	if opts.SlidingTTL > 0 && opts.SlidingTTL < opts.AbsoluteTTL {
		expiresAt = now.Add(opts.SlidingTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:      value,
		expiresAt:  expiresAt,
		deadline:   deadline,
		slidingTTL: opts.SlidingTTL,
	}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Stop terminates the janitor goroutine.
func (s *MemoryStore) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
