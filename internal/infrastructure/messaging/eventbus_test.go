package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

type stubEvent struct {
	eventType shared.EventType
}

func (e stubEvent) EventType() shared.EventType     { return e.eventType }
func (e stubEvent) OccurredAt() time.Time           { return time.Now() }
func (e stubEvent) AggregateID() string             { return "aggregate-1" }
func (e stubEvent) Payload() map[string]interface{} { return map[string]interface{}{} }

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func TestInMemoryEventBus_DeliversToTypedHandler(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var received []shared.EventType
	err := bus.Subscribe(shared.EventStatLeveledUp, func(event shared.Event) error {
		received = append(received, event.EventType())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventStatLeveledUp}))
	require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventXPAwarded}))

	assert.Equal(t, []shared.EventType{shared.EventStatLeveledUp}, received)
}

func TestInMemoryEventBus_DeliversToGlobalHandler(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventStatLeveledUp}))
	require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventXPAwarded}))

	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_PanickingHandlerContained(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, func(event shared.Event) error {
		panic("handler exploded")
	}))

	delivered := false
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, func(event shared.Event) error {
		delivered = true
		return nil
	}))

	require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventXPAwarded}))

	assert.True(t, delivered, "panic in one handler must not starve the others")
	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.Less(t, snapshot.HandlerSuccessRate, 1.0)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		EnableMetrics:  true,
	})

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(stubEvent{eventType: shared.EventXPAwarded}))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(stubEvent{eventType: shared.EventXPAwarded})
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPAwarded, func(event shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_NilChecks(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventXPAwarded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Error(t, bus.Publish(nil))
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, func(event shared.Event) error {
		return errors.New("downstream failure")
	}))

	assert.NoError(t, bus.Publish(stubEvent{eventType: shared.EventXPAwarded}))
}
