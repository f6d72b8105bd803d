package event

import (
	"context"
	"errors"
	"testing"

	"github.com/boxflow/backend/internal/domain/fulfillment"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func placedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	order, err := fulfillment.NewOrder(uuid.New(), uuid.New(), uuid.New(), nil, fulfillment.NewOrderRef(), "",
		[]fulfillment.OrderLine{{ProductID: uuid.New(), BoxesRequested: 1}})
	require.NoError(t, err)
	events := order.GetDomainEvents()
	require.NotEmpty(t, events)
	return events[0]
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	event := placedEvent(t)

	matching := &recordingHandler{types: []string{event.EventType()}}
	other := &recordingHandler{types: []string{"something.else"}}
	bus.Subscribe(matching)
	bus.Subscribe(other)

	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, matching.received, 1)
	assert.Equal(t, event.EventID(), matching.received[0].EventID())
	assert.Empty(t, other.received)
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	wildcard := &recordingHandler{}
	bus.Subscribe(wildcard)

	event := placedEvent(t)
	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Len(t, wildcard.received, 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	event := placedEvent(t)

	failing := &recordingHandler{types: []string{event.EventType()}, err: errors.New("boom")}
	panicking := &recordingHandler{types: []string{event.EventType()}, panics: true}
	healthy := &recordingHandler{types: []string{event.EventType()}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	event := placedEvent(t)

	handler := &recordingHandler{types: []string{event.EventType()}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Empty(t, handler.received)
}

func TestHandlerRegistry_UnregisterCleansUpEmptyTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &recordingHandler{}

	registry.Register(handler, "a", "b")
	assert.Len(t, registry.GetHandlers("a"), 1)

	registry.Unregister(handler)
	assert.Empty(t, registry.GetHandlers("a"))
	assert.Empty(t, registry.GetHandlers("b"))
}
