package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/syncengine/internal/config"
	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/internal/storage"
	"github.com/pathwise/syncengine/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig — конфигурация с минимальным backoff, чтобы ретраи в тестах
// занимали миллисекунды.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sync.BackoffBase = time.Millisecond
	cfg.Sync.BackoffCap = 2 * time.Millisecond
	cfg.Sync.MaxAttempts = 5
	return cfg
}

func testEngine(t *testing.T, adapter transport.Adapter, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	e, err := New(adapter, storage.NewMemory(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(e.Disconnect)
	return e
}

func okAdapter() *transport.AdapterMock {
	return &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			return transport.Outcome{Status: transport.StatusOK, Value: op.Payload, Version: 1}
		},
	}
}

func subjectKey(id string) models.Key {
	return models.NewKey(models.ResourceSubjects, id)
}

func waitDrained(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := e.Status()
		return s.PendingChanges == 0 && s.State != "Syncing"
	}, 2*time.Second, 5*time.Millisecond)
}

// eventRecorder потокобезопасно накапливает события для проверок.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.SyncEvent
}

func (r *eventRecorder) listen(e models.SyncEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) snapshot() []models.SyncEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SyncEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEngine_OptimisticWriteVisibleImmediately(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	// Движок не инициализирован — записи все равно легальны
	_, err := e.Create(context.Background(), subjectKey("math"), map[string]any{"id": "math", "name": "Mathematics"})
	require.NoError(t, err)

	entry, ok := e.Entry(subjectKey("math"))
	require.True(t, ok)
	assert.True(t, entry.Dirty)
	assert.JSONEq(t, `{"id":"math","name":"Mathematics"}`, string(entry.Value))

	assert.Equal(t, 1, e.Status().PendingChanges)
	assert.Equal(t, "Disconnected", e.Status().State)
}

func TestEngine_OfflineWritesSyncAfterConnect(t *testing.T) {
	adapter := okAdapter()
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	// Накапливаем записи offline
	_, err := e.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)
	_, err = e.Create(ctx, subjectKey("art"), map[string]any{"id": "art"})
	require.NoError(t, err)
	require.Equal(t, 2, e.Status().PendingChanges)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	assert.Len(t, adapter.SendCalls(), 2)

	entry, ok := e.Entry(subjectKey("math"))
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(1), entry.Version)

	status := e.Status()
	assert.Equal(t, 0, status.PendingChanges)
	assert.True(t, status.Connected)
	assert.False(t, status.LastSync.IsZero())
}

func TestEngine_SendOrderIsFIFOAcrossKeys(t *testing.T) {
	adapter := okAdapter()
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		_, err := e.Create(ctx, subjectKey(id), map[string]any{"id": id})
		require.NoError(t, err)
	}

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	calls := adapter.SendCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "first", calls[0].Op.Key.ID)
	assert.Equal(t, "second", calls[1].Op.Key.ID)
	assert.Equal(t, "third", calls[2].Op.Key.ID)
}

func TestEngine_RepeatedWritesCoalesceOffline(t *testing.T) {
	adapter := okAdapter()
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	key := subjectKey("math")
	_, err := e.Create(ctx, key, map[string]any{"id": "math", "name": "v1"})
	require.NoError(t, err)
	_, err = e.Update(ctx, key, map[string]any{"id": "math", "name": "v2"})
	require.NoError(t, err)
	_, err = e.Update(ctx, key, map[string]any{"id": "math", "name": "v3"})
	require.NoError(t, err)

	// Три записи по одному ключу схлопнулись в одну операцию
	require.Equal(t, 1, e.Status().PendingChanges)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	calls := adapter.SendCalls()
	require.Len(t, calls, 1)
	// Незасинканный create остается create, payload — последний
	assert.Equal(t, models.OpCreate, calls[0].Op.Kind)
	assert.JSONEq(t, `{"id":"math","name":"v3"}`, string(calls[0].Op.Payload))
}

func TestEngine_DeleteRemovesEntryAfterConfirm(t *testing.T) {
	adapter := okAdapter()
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	key := subjectKey("math")
	e.Seed(key, json.RawMessage(`{"id":"math"}`), 3)

	_, err := e.Delete(ctx, key)
	require.NoError(t, err)

	// До подтверждения запись помечена удаленной, но еще видна
	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.True(t, entry.Deleted)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	_, ok = e.Entry(key)
	assert.False(t, ok)
}

func TestEngine_TransientFailureRetriesUntilSuccess(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n < 3 {
				return transport.Outcome{Status: transport.StatusTransient, Reason: "connection reset"}
			}
			return transport.Outcome{Status: transport.StatusOK, Value: op.Payload, Version: 1}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	rec := &eventRecorder{}
	e.On(models.EventError, rec.listen)

	_, err := e.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()

	// Две транзиентные ошибки ушли событиями с fatal=false
	errs := rec.snapshot()
	require.Len(t, errs, 2)
	for _, ev := range errs {
		payload, ok := ev.Payload.(models.ErrorEventPayload)
		require.True(t, ok)
		assert.False(t, payload.Fatal)
	}

	entry, ok := e.Entry(subjectKey("math"))
	require.True(t, ok)
	assert.False(t, entry.Dirty)
}

func TestEngine_RetryBudgetExhaustionIsFatal(t *testing.T) {
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			return transport.Outcome{Status: transport.StatusTransient, Reason: "server unreachable"}
		},
	}
	cfg := testConfig()
	cfg.Sync.MaxAttempts = 2
	e := testEngine(t, adapter, cfg)
	ctx := context.Background()

	rec := &eventRecorder{}
	e.On(models.EventError, rec.listen)

	key := subjectKey("math")
	e.Seed(key, json.RawMessage(`{"id":"math","name":"clean"}`), 4)
	_, err := e.Update(ctx, key, map[string]any{"id": "math", "name": "doomed"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// Ретраи кончились: операция снята, кэш откатился к чистому значению
	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.JSONEq(t, `{"id":"math","name":"clean"}`, string(entry.Value))
	assert.Equal(t, int64(4), entry.Version)

	events := rec.snapshot()
	require.NotEmpty(t, events)
	last, ok := events[len(events)-1].Payload.(models.ErrorEventPayload)
	require.True(t, ok)
	assert.True(t, last.Fatal)
	assert.Contains(t, last.Reason, "exhausted")
}

func TestEngine_FatalFailureRevertsOptimisticWrite(t *testing.T) {
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			return transport.Outcome{Status: transport.StatusFatal, Reason: "validation failed"}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	rec := &eventRecorder{}
	e.On(models.EventError, rec.listen)

	key := subjectKey("math")
	e.Seed(key, json.RawMessage(`{"id":"math","name":"clean"}`), 2)
	_, err := e.Update(ctx, key, map[string]any{"id": "math", "name": "rejected"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// Ровно одна попытка: фатальные ошибки не ретраятся
	assert.Len(t, adapter.SendCalls(), 1)

	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"math","name":"clean"}`, string(entry.Value))

	events := rec.snapshot()
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(models.ErrorEventPayload)
	require.True(t, ok)
	assert.True(t, payload.Fatal)
}

func TestEngine_FatalOnNeverSyncedKeyDropsEntry(t *testing.T) {
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			return transport.Outcome{Status: transport.StatusFatal, Reason: "forbidden"}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	_, err := e.Create(ctx, subjectKey("ghost"), map[string]any{"id": "ghost"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// Чистого значения не существовало — запись исчезает целиком
	_, ok := e.Entry(subjectKey("ghost"))
	assert.False(t, ok)
}

func TestEngine_ConflictMergeResubmitsAndConverges(t *testing.T) {
	var mu sync.Mutex
	var sentVersions []int64
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			mu.Lock()
			sentVersions = append(sentVersions, op.BaseVersion)
			first := len(sentVersions) == 1
			mu.Unlock()

			if first {
				return transport.Outcome{
					Status:        transport.StatusConflict,
					RemoteValue:   json.RawMessage(`{"id":"math","name":"Math Renamed","notes":""}`),
					RemoteVersion: 5,
				}
			}
			return transport.Outcome{Status: transport.StatusOK, Value: op.Payload, Version: 6}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	conflicts := &eventRecorder{}
	resolved := &eventRecorder{}
	e.On(models.EventConflict, conflicts.listen)
	e.On(models.EventConflictResolved, resolved.listen)

	key := subjectKey("math")
	e.Seed(key, json.RawMessage(`{"id":"math","name":"Math","notes":""}`), 3)
	_, err := e.Update(ctx, key, map[string]any{"id": "math", "name": "Math", "notes": "mine"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// Первая отправка с base version кэша, переотправка — поверх удаленной
	mu.Lock()
	require.Equal(t, []int64{3, 5}, sentVersions)
	mu.Unlock()

	// conflict публикуется до conflictResolved
	require.Equal(t, 1, conflicts.count())
	require.Equal(t, 1, resolved.count())
	record, ok := resolved.snapshot()[0].Payload.(*models.ConflictRecord)
	require.True(t, ok)
	assert.Equal(t, models.ResolutionMerge, record.Resolution)

	// Сошлись на объединении: чужое переименование + локальные заметки
	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(6), entry.Version)
	assert.JSONEq(t, `{"id":"math","name":"Math Renamed","notes":"mine"}`, string(entry.Value))

	assert.Equal(t, 0, e.Status().Conflicts)
}

func TestEngine_ConflictAcceptAdoptsRemote(t *testing.T) {
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			return transport.Outcome{
				Status:        transport.StatusConflict,
				RemoteValue:   json.RawMessage(`{"id":"math","name":"Remote"}`),
				RemoteVersion: 9,
			}
		},
	}
	cfg := testConfig()
	cfg.Policies = map[models.ResourceType]models.Policy{
		models.ResourceSubjects: models.PolicyAccept,
	}
	e := testEngine(t, adapter, cfg)
	ctx := context.Background()

	key := subjectKey("math")
	e.Seed(key, json.RawMessage(`{"id":"math","name":"Old"}`), 3)
	_, err := e.Update(ctx, key, map[string]any{"id": "math", "name": "Mine"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// remote wins: одна отправка, локальная запись отброшена
	assert.Len(t, adapter.SendCalls(), 1)

	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(9), entry.Version)
	assert.JSONEq(t, `{"id":"math","name":"Remote"}`, string(entry.Value))
}

func TestEngine_ConflictRejectResubmitsLocal(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				return transport.Outcome{
					Status:        transport.StatusConflict,
					RemoteValue:   json.RawMessage(`{"name":"dark","value":"remote"}`),
					RemoteVersion: 5,
				}
			}
			return transport.Outcome{Status: transport.StatusOK, Value: op.Payload, Version: 6}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	// Preferences по умолчанию reject: локальный пользователь — хозяин
	key := models.NewKey(models.ResourcePreferences, "theme")
	e.Seed(key, json.RawMessage(`{"name":"theme","value":"light"}`), 2)
	_, err := e.Update(ctx, key, map[string]any{"name": "theme", "value": "dark"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	sends := adapter.SendCalls()
	require.Len(t, sends, 2)
	// Переотправлено локальное значение с поднятой base version
	assert.JSONEq(t, `{"name":"theme","value":"dark"}`, string(sends[1].Op.Payload))
	assert.Equal(t, int64(5), sends[1].Op.BaseVersion)

	entry, ok := e.Entry(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"theme","value":"dark"}`, string(entry.Value))
	assert.Equal(t, int64(6), entry.Version)
}

func TestEngine_InitializeHandshakeFailure(t *testing.T) {
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error {
			return errors.New("server unreachable")
		},
	}
	e := testEngine(t, adapter, nil)

	rec := &eventRecorder{}
	e.On(models.EventError, rec.listen)

	err := e.Initialize(context.Background())
	require.Error(t, err)

	status := e.Status()
	assert.Equal(t, "Disconnected", status.State)
	assert.False(t, status.Connected)
	assert.Equal(t, 1, status.Errors)
	assert.Equal(t, 1, rec.count())
}

func TestEngine_InitializeTwiceFails(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	require.NoError(t, e.Initialize(context.Background()))
	err := e.Initialize(context.Background())
	require.Error(t, err)
}

func TestEngine_InitializeAfterDisconnect(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	require.NoError(t, e.Initialize(context.Background()))
	e.Disconnect()
	assert.Equal(t, "Disconnected", e.Status().State)

	require.NoError(t, e.Initialize(context.Background()))
	assert.True(t, e.Status().Connected)
}

func TestEngine_DisconnectMidFlightKeepsOperationQueued(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	adapter := &transport.AdapterMock{
		HandshakeFunc: func(ctx context.Context) error { return nil },
		SendFunc: func(ctx context.Context, op *models.QueuedOperation) transport.Outcome {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				// Первый вызов зависает до отмены, как подвисший сетевой вызов
				<-ctx.Done()
				return transport.Outcome{Status: transport.StatusTransient, Reason: ctx.Err().Error()}
			}
			return transport.Outcome{Status: transport.StatusOK, Value: op.Payload, Version: 1}
		},
	}
	e := testEngine(t, adapter, nil)
	ctx := context.Background()

	_, err := e.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	require.Eventually(t, func() bool {
		return len(adapter.SendCalls()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	e.Disconnect()

	// Операция не потеряна и не подтверждена
	require.Equal(t, 1, e.Status().PendingChanges)

	// После повторного подключения пережившая отключение операция
	// выгружается заново, без дублирования
	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	assert.Len(t, adapter.SendCalls(), 2)

	entry, ok := e.Entry(subjectKey("math"))
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(1), entry.Version)
}

func TestEngine_SyncEventsPushed(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)
	ctx := context.Background()

	rec := &eventRecorder{}
	off := e.On(models.EventSync, rec.listen)
	defer off()

	_, err := e.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	// Последним подписчик видит возврат в Connected
	require.Eventually(t, func() bool {
		snap := rec.snapshot()
		if len(snap) == 0 {
			return false
		}
		status, ok := snap[len(snap)-1].Payload.(models.SyncStatus)
		return ok && status.State == "Connected"
	}, 2*time.Second, 5*time.Millisecond)

	var states []string
	for _, ev := range rec.snapshot() {
		status, ok := ev.Payload.(models.SyncStatus)
		require.True(t, ok)
		states = append(states, status.State)
	}

	// Подключение и выгрузка видны подписчику как последовательность статусов
	assert.Contains(t, states, "Connecting")
	assert.Contains(t, states, "Syncing")
}

func TestEngine_DataChangeEventOnConfirm(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)
	ctx := context.Background()

	rec := &eventRecorder{}
	e.On(models.EventDataChange, rec.listen)

	opID, err := e.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)

	require.NoError(t, e.Initialize(ctx))
	waitDrained(t, e)

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, subjectKey("math"), events[0].Key)

	payload, ok := events[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, opID, payload["op_id"])
}

func TestEngine_InvalidKeyRejected(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	rec := &eventRecorder{}
	e.On(models.EventError, rec.listen)

	_, err := e.Create(context.Background(), models.NewKey("bogus", "x"), map[string]any{})
	require.Error(t, err)

	assert.Equal(t, 0, e.Status().PendingChanges)
	assert.Equal(t, 1, e.Status().Errors)
	assert.Equal(t, 1, rec.count())
}

func TestEngine_UnserializablePayloadRejected(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	_, err := e.Create(context.Background(), subjectKey("math"), map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Equal(t, 0, e.Status().PendingChanges)
}

func TestEngine_QueueSurvivesRestart(t *testing.T) {
	store := storage.NewMemory()
	cfg := testConfig()
	ctx := context.Background()

	// Первый "процесс" пишет offline и умирает, не закрывая хранилище
	e1, err := New(okAdapter(), store, cfg, testLogger())
	require.NoError(t, err)
	_, err = e1.Create(ctx, subjectKey("math"), map[string]any{"id": "math"})
	require.NoError(t, err)
	require.Equal(t, 1, e1.Status().PendingChanges)

	// Второй "процесс" восстанавливает очередь и выгружает ее
	adapter := okAdapter()
	e2, err := New(adapter, store, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(e2.Disconnect)

	assert.Equal(t, 1, e2.Status().PendingChanges)

	require.NoError(t, e2.Initialize(ctx))
	waitDrained(t, e2)

	require.Len(t, adapter.SendCalls(), 1)
	assert.JSONEq(t, `{"id":"math"}`, string(adapter.SendCalls()[0].Op.Payload))
}

func TestEngine_SeedPopulatesCleanCache(t *testing.T) {
	e := testEngine(t, okAdapter(), nil)

	rec := &eventRecorder{}
	e.On(models.EventCacheUpdate, rec.listen)

	e.Seed(subjectKey("math"), json.RawMessage(`{"id":"math"}`), 12)

	entry, ok := e.Entry(subjectKey("math"))
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(12), entry.Version)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 0, e.Status().PendingChanges)
}
