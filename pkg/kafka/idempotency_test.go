package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(t *testing.T, id string) *Event {
	t.Helper()
	event, err := NewEvent("microblog.user.registered", "user-1", "user", "auth-service", map[string]string{"id": "user-1"})
	require.NoError(t, err)
	event.EventID = id
	return event
}

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	exists, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Add(ctx, "evt-1"))

	exists, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_TTLExpiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-1"))
	time.Sleep(20 * time.Millisecond)

	exists, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists, "entry should lapse once the TTL passes")
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, testLogger())

	event := testEvent(t, "evt-1")

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 1, calls, "second delivery must be dropped")
}

func TestIdempotentHandler_FailedProcessingIsRetriable(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, testLogger())

	event := testEvent(t, "evt-1")

	require.Error(t, handler(context.Background(), event))

	// The failed attempt must not have been recorded as processed.
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)

	// A third delivery is now a duplicate.
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_NoEventID_PassesThrough(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, testLogger())

	event := testEvent(t, "")

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 2, calls, "events without an ID cannot be deduplicated")
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingStore) Add(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestIdempotentHandler_StoreFailure_ProcessesAnyway(t *testing.T) {
	calls := 0
	handler := IdempotentHandler(failingStore{}, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, handler(context.Background(), testEvent(t, "evt-1")))
	assert.Equal(t, 1, calls)
}
