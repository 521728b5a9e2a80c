package events

import (
	"log/slog"
	"sync"

	"github.com/pathwise/syncengine/internal/models"
)

// Listener обрабатывает событие синхронизации.
type Listener func(models.SyncEvent)

type subscription struct {
	fn Listener
	id uint64
}

// Bus — типизированная in-process publish/subscribe шина событий.
//
// Доставка синхронная, в порядке регистрации слушателей. Паникующий
// слушатель изолируется: паника логируется, остальные слушатели того же
// события выполняются. Шина не хранит историю — replay нет, слушатель,
// зарегистрированный после публикации, событие не получает.
type Bus struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	listeners map[models.EventType][]subscription
	nextID    uint64
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:    logger,
		listeners: make(map[models.EventType][]subscription),
	}
}

// On регистрирует слушателя и возвращает disposer, снимающий подписку.
// Слушатели обязаны отписываться при teardown своего компонента,
// иначе подписка течет.
func (b *Bus) On(t models.EventType, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[t] = append(b.listeners[t], subscription{id: id, fn: fn})

	return func() {
		b.off(t, id)
	}
}

func (b *Bus) off(t models.EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[t]
	for i, sub := range subs {
		if sub.id == id {
			b.listeners[t] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.listeners[t]) == 0 {
		delete(b.listeners, t)
	}
}

// Emit синхронно доставляет событие всем слушателям его типа
// в порядке регистрации.
func (b *Bus) Emit(event models.SyncEvent) {
	b.mu.RLock()
	// Снимок под RLock: слушатель может отписаться прямо из колбэка
	subs := make([]subscription, len(b.listeners[event.Type]))
	copy(subs, b.listeners[event.Type])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(sub, event)
	}
}

// dispatch изолирует панику одного слушателя от остальных.
func (b *Bus) dispatch(sub subscription, event models.SyncEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event listener panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", r)
		}
	}()

	sub.fn(event)
}

// ListenerCount returns the number of listeners for an event type.
func (b *Bus) ListenerCount(t models.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.listeners[t])
}
