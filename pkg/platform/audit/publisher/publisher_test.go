package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		PrincipalID: 42,
		Action:      string(audit.EventCacheCleared),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCacheCleared), events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "Emit should stamp the event time")
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	event := audit.Event{
		PrincipalID: 42,
		Action:      string(audit.EventInvoiceCreated),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	time.Sleep(100 * time.Millisecond)

	events, err := pub.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventInvoiceCreated), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	// Emit multiple events
	for range 10 {
		event := audit.Event{
			PrincipalID: 7,
			Action:      string(audit.EventCacheDisabled),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByPrincipal(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 10)
}

func TestPublisher_CloseTwice(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
}

func TestPublisher_EmitConcurrentWithClose(t *testing.T) {
	// Emitters racing Close must never panic on a closed channel, and every
	// event must land in the store either via the worker or the sync fallback.
	const emitters = 4
	const perEmitter = 50

	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(8))

	var wg sync.WaitGroup
	for range emitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perEmitter {
				err := pub.Emit(context.Background(), audit.Event{
					PrincipalID: 9,
					Action:      string(audit.EventCacheCleared),
				})
				assert.NoError(t, err)
			}
		}()
	}

	pub.Close()
	wg.Wait()

	events, err := store.ListByPrincipal(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, events, emitters*perEmitter)
}
