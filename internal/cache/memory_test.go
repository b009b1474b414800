package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), Options{AbsoluteTTL: time.Minute}))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	require.NoError(t, store.Remove(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreAbsoluteExpiry(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), Options{AbsoluteTTL: 10 * time.Millisecond}))

	time.Sleep(25 * time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreSlidingExtension(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), Options{
		AbsoluteTTL: time.Minute,
		SlidingTTL:  40 * time.Millisecond,
	}))

	// Each read inside the sliding window keeps the entry alive.
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		_, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok, "read %d should extend the sliding window", i)
	}

	// Without reads the sliding window lapses.
	time.Sleep(60 * time.Millisecond)
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreSlidingCappedByAbsolute(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), Options{
		AbsoluteTTL: 50 * time.Millisecond,
		SlidingTTL:  40 * time.Millisecond,
	}))

	// Keep reading; the absolute deadline still wins.
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		store.Get(ctx, "k")
		time.Sleep(10 * time.Millisecond)
	}

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreHonorsCancellation(t *testing.T) {
	store := NewMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Set(ctx, "k", nil, Options{AbsoluteTTL: time.Minute}), context.Canceled)
	require.ErrorIs(t, store.Remove(ctx, "k"), context.Canceled)
}
