package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

type countingHandler struct {
	name string
	mu   sync.Mutex
	seen []shared.EventType
	err  error
}

func (h *countingHandler) Handle(ctx context.Context, event shared.Event) error {
	h.mu.Lock()
	h.seen = append(h.seen, event.EventType())
	h.mu.Unlock()
	return h.err
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestEventBus_DeliversToTypeAndGlobalHandlers(t *testing.T) {
	bus := syncBus()
	typed := &countingHandler{name: "typed"}
	global := &countingHandler{name: "global"}

	require.NoError(t, bus.Subscribe(shared.EventXPAdded, typed))
	require.NoError(t, bus.SubscribeAll(global))

	require.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")))
	require.NoError(t, bus.Publish(context.Background(), shared.NewSessionSavedEvent("u1", "lesson")))

	assert.Equal(t, 1, typed.count(), "typed handler only sees its type")
	assert.Equal(t, 2, global.count(), "global handler sees everything")
}

func TestEventBus_NoHandlersIsFine(t *testing.T) {
	bus := syncBus()
	assert.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")))
}

func TestEventBus_NilArguments(t *testing.T) {
	bus := syncBus()

	assert.ErrorIs(t, bus.Publish(context.Background(), nil), ErrNilEvent)
	assert.ErrorIs(t, bus.Subscribe(shared.EventXPAdded, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := syncBus()
	failing := &countingHandler{name: "failing", err: errors.New("boom")}
	healthy := &countingHandler{name: "healthy"}

	require.NoError(t, bus.Subscribe(shared.EventXPAdded, failing))
	require.NoError(t, bus.Subscribe(shared.EventXPAdded, healthy))

	require.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")))
	assert.Equal(t, 1, healthy.count())
}

func TestEventBus_ClosedBusRejectsEverything(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventXPAdded, &countingHandler{name: "h"}), ErrEventBusClosed)

	assert.NoError(t, bus.Close(), "closing twice is a no-op")
}

func TestEventBus_AsyncCloseWaitsForHandlers(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var handled atomic.Int32
	h := shared.EventHandlerFunc{
		HandlerName: "counter",
		Fn: func(ctx context.Context, event shared.Event) error {
			handled.Add(1)
			return nil
		},
	}
	require.NoError(t, bus.Subscribe(shared.EventXPAdded, h))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")))
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, int32(5), handled.Load(), "close drains in-flight handlers")
}

func TestEventBus_MetricsCountPublishAndFailures(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Subscribe(shared.EventXPAdded, &countingHandler{name: "failing", err: errors.New("boom")}))

	require.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 10, 10, 1, "r")))
	require.NoError(t, bus.Publish(context.Background(), shared.NewXPAddedEvent("u1", 20, 30, 1, "r")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.Published[shared.EventXPAdded])
	assert.Equal(t, int64(2), snap.Handled[shared.EventXPAdded])
	assert.Equal(t, int64(2), snap.Failed[shared.EventXPAdded])
	assert.False(t, snap.Since.IsZero())
}
