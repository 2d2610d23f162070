package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	t.Run("Get missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("Set then Get round-trips", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", "v", 0))
		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("Add wins only when key absent", func(t *testing.T) {
		won, err := store.Add(ctx, "add-key", "first", 0)
		require.NoError(t, err)
		assert.True(t, won)

		won, err = store.Add(ctx, "add-key", "second", 0)
		require.NoError(t, err)
		assert.False(t, won, "Add must not overwrite an existing value")

		got, err := store.Get(ctx, "add-key")
		require.NoError(t, err)
		assert.Equal(t, "first", got)
	})

	t.Run("Incr on missing key fails instead of creating it", func(t *testing.T) {
		_, err := store.Incr(ctx, "no-counter")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = store.Get(ctx, "no-counter")
		assert.ErrorIs(t, err, sentinel.ErrNotFound, "failed Incr must not create the key")
	})

	t.Run("Incr on existing integer returns new value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "counter", "41", 0))
		n, err := store.Incr(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("Incr on non-integer value fails", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "text", "hello", 0))
		_, err := store.Incr(ctx, "text")
		require.Error(t, err)
		assert.False(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("Delete removes key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", "v", 0))
		require.NoError(t, store.Delete(ctx, "gone"))
		_, err := store.Get(ctx, "gone")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("DeleteMany removes all listed keys", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", "1", 0))
		require.NoError(t, store.Set(ctx, "b", "2", 0))
		require.NoError(t, store.DeleteMany(ctx, []string{"a", "b", "never-existed"}))
		_, err := store.Get(ctx, "a")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = store.Get(ctx, "b")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStore_TTL(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "expiring", "7", time.Minute))

	got, err := store.Get(ctx, "expiring")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	// Advance past the TTL; the entry behaves as absent everywhere.
	now = now.Add(2 * time.Minute)

	_, err = store.Get(ctx, "expiring")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.Incr(ctx, "expiring")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	won, err := store.Add(ctx, "expiring", "fresh", 0)
	require.NoError(t, err)
	assert.True(t, won, "Add should win over an expired entry")
}

func TestInMemoryStore_ConcurrentIncr(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "counter", "0", 0))

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			_, err := store.Incr(ctx, "counter")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	got, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "100", got)
}
