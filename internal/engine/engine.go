package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/syncengine/internal/cache"
	"github.com/pathwise/syncengine/internal/config"
	"github.com/pathwise/syncengine/internal/events"
	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/internal/queue"
	"github.com/pathwise/syncengine/internal/resolver"
	"github.com/pathwise/syncengine/internal/storage"
	"github.com/pathwise/syncengine/internal/transport"
	"github.com/pathwise/syncengine/internal/validation"
)

// Engine — координатор синхронизации: владеет кэшем, очередью, шиной и
// resolver'ом, выгружает очередь через транспорт при наличии связи и
// публикует каждое изменение состояния как событие.
//
// Зависимости (транспорт, durable-хранилище) внедряются конструктором;
// приложение владеет экземпляром в composition root, тесты создают
// изолированные экземпляры.
//
// Дисциплина конкурентности: кэш и очередь мутируются только через
// сериализованный путь обработки координатора (единственная drain-горутина
// плюс синхронные мутации под внутренними локами компонентов); внешние
// вызыватели напрямую их не трогают.
type Engine struct {
	lastSync  time.Time
	transport transport.Adapter
	store     storage.KVStore
	logger    *slog.Logger
	cache     *cache.Cache
	queue     *queue.Queue
	resolver  *resolver.Resolver
	bus       *events.Bus
	cancel    context.CancelFunc
	wake      chan struct{}
	conflicts map[string]*models.ConflictRecord // незакрытые конфликты по ID
	wg        sync.WaitGroup
	mu        sync.Mutex
	state     State
	errors    int
}

// New создает движок и восстанавливает offline-очередь из durable-хранилища.
// Движок стартует в состоянии Disconnected; мутации уже легальны и
// накапливаются в очереди до первого Initialize.
func New(adapter transport.Adapter, store storage.KVStore, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	q := queue.New(store, queue.Config{
		BackoffBase: cfg.Sync.BackoffBase,
		BackoffCap:  cfg.Sync.BackoffCap,
		MaxAttempts: cfg.Sync.MaxAttempts,
	}, logger)

	if err := q.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to restore offline queue: %w", err)
	}

	return &Engine{
		transport: adapter,
		store:     store,
		logger:    logger,
		cache:     cache.New(),
		queue:     q,
		resolver:  resolver.New(cfg.Policies, logger),
		bus:       events.NewBus(logger),
		wake:      make(chan struct{}, 1),
		conflicts: make(map[string]*models.ConflictRecord),
		state:     StateDisconnected,
	}, nil
}

// Initialize устанавливает соединение: Disconnected → Connecting, handshake,
// затем Connected и немедленный старт выгрузки очереди. Ошибка handshake
// возвращает движок в Disconnected, публикует событие error и возвращается
// вызывающему.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateDisconnected {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("cannot initialize from state %s", state)
	}
	e.state = StateConnecting
	e.mu.Unlock()
	e.emitSync()

	if err := e.transport.Handshake(ctx); err != nil {
		e.mu.Lock()
		e.state = StateDisconnected
		e.errors++
		e.mu.Unlock()
		e.emitError(models.Key{}, "", fmt.Sprintf("handshake failed: %v", err), false, 0)
		e.emitSync()
		return fmt.Errorf("handshake failed: %w", err)
	}

	drainCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.state = StateConnected
	e.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()
	e.emitSync()

	go e.drain(drainCtx)
	e.kick()

	return nil
}

// Disconnect останавливает drain-горутину и таймеры ретраев и переводит
// движок в Disconnected. Неотправленные операции остаются durable
// в очереди до следующего Initialize.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	if e.state == StateDisconnected {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	e.mu.Lock()
	e.state = StateDisconnected
	e.mu.Unlock()
	e.emitSync()
}

// Close отключает движок и закрывает durable-хранилище.
func (e *Engine) Close() error {
	e.Disconnect()
	return e.store.Close()
}

// Status возвращает производную read-only проекцию состояния движка.
func (e *Engine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.SyncStatus{
		State:          e.state.String(),
		Connected:      e.state.connected(),
		LastSync:       e.lastSync,
		PendingChanges: e.queue.Size(),
		Conflicts:      len(e.conflicts),
		Errors:         e.errors,
	}
}

// On подписывает слушателя на тип события и возвращает disposer.
// Слушатели должны отписываться при teardown компонента.
func (e *Engine) On(t models.EventType, fn events.Listener) func() {
	return e.bus.On(t, fn)
}

// Entry возвращает копию записи кэша для ключа.
func (e *Engine) Entry(key models.Key) (*models.CachedEntry, bool) {
	return e.cache.Get(key)
}

// EntriesByType возвращает неудаленные записи кэша данного типа.
func (e *Engine) EntriesByType(t models.ResourceType) []*models.CachedEntry {
	return e.cache.EntriesByType(t)
}

// Seed наполняет кэш чистым значением, прочитанным с сервера вне цикла
// синхронизации (начальная загрузка списков UI-обвязкой).
func (e *Engine) Seed(key models.Key, value json.RawMessage, version int64) {
	e.cache.Put(key, value, version)
	e.emitEvent(models.EventCacheUpdate, key, nil)
}

// Create ставит в очередь создание ресурса и оптимистично обновляет кэш.
func (e *Engine) Create(ctx context.Context, key models.Key, payload any) (string, error) {
	return e.mutate(ctx, key, models.OpCreate, payload)
}

// Update ставит в очередь изменение ресурса и оптимистично обновляет кэш.
func (e *Engine) Update(ctx context.Context, key models.Key, payload any) (string, error) {
	return e.mutate(ctx, key, models.OpUpdate, payload)
}

// Delete ставит в очередь удаление ресурса; запись в кэше помечается
// удаленной до подтверждения сервером.
func (e *Engine) Delete(ctx context.Context, key models.Key) (string, error) {
	return e.mutate(ctx, key, models.OpDelete, nil)
}

// mutate — единственный путь локальных записей: валидация ключа, durable
// постановка в очередь (с коалесцированием), затем оптимистичное обновление
// кэша и событие cacheUpdate. Легален в любом состоянии: при Disconnected
// операция просто ждет следующего Initialize.
func (e *Engine) mutate(ctx context.Context, key models.Key, kind models.OpKind, payload any) (string, error) {
	if err := validation.ValidateKey(key); err != nil {
		e.countError()
		e.emitError(key, "", fmt.Sprintf("invalid resource key: %v", err), true, 0)
		return "", fmt.Errorf("invalid resource key: %w", err)
	}

	var raw json.RawMessage
	if kind != models.OpDelete {
		data, err := json.Marshal(payload)
		if err != nil {
			e.countError()
			e.emitError(key, "", fmt.Sprintf("unserializable payload: %v", err), true, 0)
			return "", fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = data
	}

	baseVersion := int64(0)
	if entry, ok := e.cache.Get(key); ok {
		baseVersion = entry.Version
	}

	// Сначала durable-запись: оптимистичное изменение не должно пережить
	// кэш, не пережив хранилище
	opID, err := e.queue.Enqueue(ctx, key, kind, raw, baseVersion)
	if err != nil {
		e.countError()
		e.emitError(key, "", fmt.Sprintf("failed to enqueue operation: %v", err), true, 0)
		return "", err
	}

	if kind == models.OpDelete {
		e.cache.MarkDeleted(key)
	} else {
		e.cache.MarkDirty(key, raw)
	}

	e.emitEvent(models.EventCacheUpdate, key, payload)
	e.kick()

	return opID, nil
}

// kick будит drain-горутину, не блокируясь.
func (e *Engine) kick() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

// emitEvent публикует событие с новым ID и текущим временем.
func (e *Engine) emitEvent(t models.EventType, key models.Key, payload any) {
	e.bus.Emit(models.SyncEvent{
		ID:        uuid.New().String(),
		Type:      t,
		Key:       key,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// emitError публикует событие error. Фатальные ошибки несут достаточно
// деталей, чтобы UI показал их пользователю и предложил ручной повтор.
func (e *Engine) emitError(key models.Key, opID, reason string, fatal bool, attempt int) {
	e.emitEvent(models.EventError, key, models.ErrorEventPayload{
		OpID:    opID,
		Reason:  reason,
		Fatal:   fatal,
		Attempt: attempt,
	})
}

// emitSync публикует push-обновление агрегатного статуса; UI подписывается
// вместо поллинга Status.
func (e *Engine) emitSync() {
	e.emitEvent(models.EventSync, models.Key{}, e.Status())
}
