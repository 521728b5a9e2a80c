package events

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/syncengine/internal/models"
)

func testBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBus_EmitDeliversToListeners(t *testing.T) {
	bus := testBus()

	var received []models.SyncEvent
	bus.On(models.EventDataChange, func(e models.SyncEvent) {
		received = append(received, e)
	})

	bus.Emit(models.SyncEvent{ID: "e1", Type: models.EventDataChange})

	require.Len(t, received, 1)
	assert.Equal(t, "e1", received[0].ID)
}

func TestBus_DeliveryInRegistrationOrder(t *testing.T) {
	bus := testBus()

	var order []string
	bus.On(models.EventSync, func(models.SyncEvent) { order = append(order, "first") })
	bus.On(models.EventSync, func(models.SyncEvent) { order = append(order, "second") })
	bus.On(models.EventSync, func(models.SyncEvent) { order = append(order, "third") })

	bus.Emit(models.SyncEvent{ID: "e1", Type: models.EventSync})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := testBus()

	var dataChanges, conflicts int
	bus.On(models.EventDataChange, func(models.SyncEvent) { dataChanges++ })
	bus.On(models.EventConflict, func(models.SyncEvent) { conflicts++ })

	bus.Emit(models.SyncEvent{Type: models.EventDataChange})

	assert.Equal(t, 1, dataChanges)
	assert.Equal(t, 0, conflicts)
}

func TestBus_DisposerRemovesListener(t *testing.T) {
	bus := testBus()

	var calls int
	off := bus.On(models.EventSync, func(models.SyncEvent) { calls++ })

	bus.Emit(models.SyncEvent{Type: models.EventSync})
	off()
	bus.Emit(models.SyncEvent{Type: models.EventSync})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.ListenerCount(models.EventSync))
}

func TestBus_DisposerIdempotent(t *testing.T) {
	bus := testBus()

	off1 := bus.On(models.EventSync, func(models.SyncEvent) {})
	off2 := bus.On(models.EventSync, func(models.SyncEvent) {})

	off1()
	off1() // повторный вызов не должен снять чужую подписку
	assert.Equal(t, 1, bus.ListenerCount(models.EventSync))

	off2()
	assert.Equal(t, 0, bus.ListenerCount(models.EventSync))
}

func TestBus_PanicIsolation(t *testing.T) {
	bus := testBus()

	var survived bool
	bus.On(models.EventError, func(models.SyncEvent) { panic("listener bug") })
	bus.On(models.EventError, func(models.SyncEvent) { survived = true })

	require.NotPanics(t, func() {
		bus.Emit(models.SyncEvent{Type: models.EventError})
	})
	assert.True(t, survived)
}

func TestBus_NoReplayForLateSubscriber(t *testing.T) {
	bus := testBus()

	bus.Emit(models.SyncEvent{Type: models.EventDataChange})

	var calls int
	bus.On(models.EventDataChange, func(models.SyncEvent) { calls++ })

	// Поздний подписчик прошлое событие не получает
	assert.Equal(t, 0, calls)
}

func TestBus_UnsubscribeFromCallback(t *testing.T) {
	bus := testBus()

	var calls int
	var off func()
	off = bus.On(models.EventSync, func(models.SyncEvent) {
		calls++
		off()
	})

	bus.Emit(models.SyncEvent{Type: models.EventSync})
	bus.Emit(models.SyncEvent{Type: models.EventSync})

	assert.Equal(t, 1, calls)
}
