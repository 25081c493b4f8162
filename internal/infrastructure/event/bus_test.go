package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingHandler captures every event it receives
type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

func newTestEvent(eventType string) shared.DomainEvent {
	event := shared.NewBaseDomainEvent(eventType, "ManufacturingOrder", uuid.New(), uuid.New())
	return &event
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to handlers of the matching type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"manufacturing.order.created"}}
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(), newTestEvent("manufacturing.order.created"))
		require.NoError(t, err)
		assert.Len(t, handler.received(), 1)
	})

	t.Run("skips handlers of other types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"manufacturing.order.created"}}
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(), newTestEvent("manufacturing.order.stage_advanced"))
		require.NoError(t, err)
		assert.Empty(t, handler.received())
	})

	t.Run("wildcard handlers receive every event", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(),
			newTestEvent("manufacturing.order.created"),
			newTestEvent("manufacturing.order.payment_recorded"),
		))
		assert.Len(t, handler.received(), 2)
	})

	t.Run("a failing handler does not fail the publish", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{types: []string{"manufacturing.order.created"}, err: errors.New("smtp down")}
		healthy := &recordingHandler{types: []string{"manufacturing.order.created"}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(context.Background(), newTestEvent("manufacturing.order.created"))
		require.NoError(t, err)
		assert.Len(t, healthy.received(), 1)
	})

	t.Run("unsubscribed handlers stop receiving", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"manufacturing.order.created"}}
		bus.Subscribe(handler)
		bus.Unsubscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("manufacturing.order.created")))
		assert.Empty(t, handler.received())
	})
}

func TestInMemoryEventBus_Subscribe(t *testing.T) {
	t.Run("explicit event types override the handler's own list", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"manufacturing.order.created"}}
		bus.Subscribe(handler, "manufacturing.order.delivered")

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("manufacturing.order.created")))
		assert.Empty(t, handler.received())

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("manufacturing.order.delivered")))
		assert.Len(t, handler.received(), 1)
	})

	t.Run("handler registered for several types receives each once", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler, "manufacturing.order.created", "manufacturing.order.cancelled")

		require.NoError(t, bus.Publish(context.Background(),
			newTestEvent("manufacturing.order.created"),
			newTestEvent("manufacturing.order.cancelled"),
		))
		assert.Len(t, handler.received(), 2)
	})

	t.Run("unsubscribe removes the handler from every type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler, "manufacturing.order.created", "manufacturing.order.cancelled")
		bus.Unsubscribe(handler)

		require.NoError(t, bus.Publish(context.Background(),
			newTestEvent("manufacturing.order.created"),
			newTestEvent("manufacturing.order.cancelled"),
		))
		assert.Empty(t, handler.received())
	})
}
