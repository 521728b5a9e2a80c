package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/internal/storage"
)

// ErrAttemptsExhausted возвращается из Requeue, когда операция исчерпала
// бюджет ретраев и должна быть переведена на фатальный путь обработки.
var ErrAttemptsExhausted = errors.New("operation retry attempts exhausted")

// Config задает политику ретраев очереди.
type Config struct {
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		BackoffBase: DefaultBackoffBase,
		BackoffCap:  DefaultBackoffCap,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Queue — durable offline-очередь неподтвержденных операций записи.
//
// Порядок FIFO между ключами (по монотонному Seq); внутри ключа действует
// коалесцирование: повторная запись в ключ с уже стоящей в очереди
// (и не находящейся в полете) операцией заменяет ее payload, сохраняя
// исходные ID, EnqueuedAt и Seq — порядок остается стабильным.
//
// Операция считается поставленной в очередь только после durable-записи
// в KVStore, поэтому оптимистичные изменения переживают рестарт процесса.
type Queue struct {
	mu       sync.Mutex
	store    storage.KVStore
	logger   *slog.Logger
	cfg      Config
	ops      map[string]*models.QueuedOperation // op ID -> op
	byKey    map[string][]string                // key string -> op IDs в порядке постановки
	inFlight map[string]string                  // key string -> op ID, находящийся в полете
	nextSeq  uint64
}

// New creates a queue over the given durable store.
func New(store storage.KVStore, cfg Config, logger *slog.Logger) *Queue {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = DefaultBackoffCap
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	return &Queue{
		store:    store,
		logger:   logger,
		cfg:      cfg,
		ops:      make(map[string]*models.QueuedOperation),
		byKey:    make(map[string][]string),
		inFlight: make(map[string]string),
		nextSeq:  1,
	}
}

// Load восстанавливает очередь из durable-хранилища после рестарта.
// Поврежденные записи — bug-class ошибка движка: они логируются и
// удаляются, но не валят загрузку.
func (q *Queue) Load(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var malformed []string

	err := q.store.ForEach(ctx, storage.BucketQueue, func(key string, value []byte) error {
		var op models.QueuedOperation
		if err := json.Unmarshal(value, &op); err != nil || op.ID == "" {
			q.logger.Warn("Dropping malformed queue record", "record_key", key, "error", err)
			malformed = append(malformed, key)
			return nil
		}

		q.ops[op.ID] = &op
		if op.Seq >= q.nextSeq {
			q.nextSeq = op.Seq + 1
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load queue records: %w", err)
	}

	for _, key := range malformed {
		if err := q.store.Delete(ctx, storage.BucketQueue, key); err != nil {
			q.logger.Warn("Failed to delete malformed queue record", "record_key", key, "error", err)
		}
	}

	// Восстанавливаем порядок по ключам из Seq
	ids := make([]string, 0, len(q.ops))
	for id := range q.ops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return q.ops[ids[i]].Seq < q.ops[ids[j]].Seq
	})
	q.byKey = make(map[string][]string)
	for _, id := range ids {
		ks := q.ops[id].Key.String()
		q.byKey[ks] = append(q.byKey[ks], id)
	}

	return nil
}

// Enqueue durable-сохраняет операцию и возвращает ее ID.
// Если для ключа уже есть операция не в полете — новая запись
// коалесцируется в нее.
func (q *Queue) Enqueue(ctx context.Context, key models.Key, kind models.OpKind, payload json.RawMessage, baseVersion int64) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ks := key.String()

	// Коалесцирование: последняя операция ключа, если она не в полете
	if ids := q.byKey[ks]; len(ids) > 0 {
		lastID := ids[len(ids)-1]
		if q.inFlight[ks] != lastID {
			op := q.ops[lastID]
			op.Payload = payload
			op.Kind = coalesceKind(op.Kind, kind)
			op.Attempts = 0
			op.NextAttemptAt = time.Time{}
			if err := q.persist(ctx, op); err != nil {
				return "", err
			}
			return op.ID, nil
		}
	}

	op := &models.QueuedOperation{
		ID:          uuid.New().String(),
		Key:         key,
		Kind:        kind,
		Payload:     payload,
		BaseVersion: baseVersion,
		EnqueuedAt:  time.Now(),
		Seq:         q.nextSeq,
	}

	if err := q.persist(ctx, op); err != nil {
		return "", err
	}

	q.nextSeq++
	q.ops[op.ID] = op
	q.byKey[ks] = append(q.byKey[ks], op.ID)

	return op.ID, nil
}

// coalesceKind сохраняет семантику незасинканного создания:
// update поверх неотправленного create остается create.
func coalesceKind(existing, next models.OpKind) models.OpKind {
	if existing == models.OpCreate && next == models.OpUpdate {
		return models.OpCreate
	}
	return next
}

// NextReady возвращает копию следующей готовой к отправке операции в порядке
// FIFO и помечает ее как находящуюся в полете. Пропускаются ключи, у которых
// уже есть операция в полете, и операции, чей backoff-дедлайн еще не наступил.
// Возвращает nil, если готовых операций нет.
func (q *Queue) NextReady(now time.Time) *models.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	var best *models.QueuedOperation
	for ks, ids := range q.byKey {
		if _, busy := q.inFlight[ks]; busy || len(ids) == 0 {
			continue
		}
		op := q.ops[ids[0]]
		if op.NextAttemptAt.After(now) {
			continue
		}
		if best == nil || op.Seq < best.Seq {
			best = op
		}
	}

	if best == nil {
		return nil
	}

	q.inFlight[best.Key.String()] = best.ID
	return best.Clone()
}

// NextDeadline возвращает ближайший backoff-дедлайн среди операций не в
// полете, чтобы цикл выгрузки знал, сколько спать. ok=false — очередь
// не содержит отложенных операций.
func (q *Queue) NextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var deadline time.Time
	found := false
	for ks, ids := range q.byKey {
		if _, busy := q.inFlight[ks]; busy || len(ids) == 0 {
			continue
		}
		op := q.ops[ids[0]]
		if !found || op.NextAttemptAt.Before(deadline) {
			deadline = op.NextAttemptAt
			found = true
		}
	}
	return deadline, found
}

// Ack подтверждает успешную отправку операции и удаляет ее из очереди.
// Идемпотентен: повторный Ack по тому же ID — no-op.
func (q *Queue) Ack(ctx context.Context, opID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[opID]
	if !ok {
		return nil
	}
	return q.removeLocked(ctx, op)
}

// Requeue планирует повтор операции после транзиентной ошибки: увеличивает
// счетчик попыток и выставляет backoff-дедлайн. Когда бюджет ретраев
// исчерпан, возвращает ErrAttemptsExhausted, а операция остается в очереди —
// вызывающий переводит ее на фатальный путь через Drop.
func (q *Queue) Requeue(ctx context.Context, opID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[opID]
	if !ok {
		return fmt.Errorf("unknown operation %s", opID)
	}

	delete(q.inFlight, op.Key.String())

	op.Attempts++
	if op.Attempts >= q.cfg.MaxAttempts {
		return ErrAttemptsExhausted
	}

	op.NextAttemptAt = time.Now().Add(backoffDelay(q.cfg.BackoffBase, q.cfg.BackoffCap, op.Attempts))

	if err := q.persist(ctx, op); err != nil {
		return err
	}
	return nil
}

// Release снимает in-flight метку операции, не меняя ее состояние и
// счетчик попыток. Вызывается при отмене цикла выгрузки: операция,
// находившаяся в полете в момент Disconnect, остается в очереди и должна
// быть доступна для отправки после следующего подключения. Идемпотентен.
func (q *Queue) Release(opID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[opID]
	if !ok {
		return
	}
	ks := op.Key.String()
	if q.inFlight[ks] == opID {
		delete(q.inFlight, ks)
	}
}

// Drop удаляет операцию после фатальной (не подлежащей повтору) ошибки.
// Идемпотентен.
func (q *Queue) Drop(ctx context.Context, opID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[opID]
	if !ok {
		return nil
	}
	return q.removeLocked(ctx, op)
}

// Resubmit переотправляет операцию с новым payload и base version после
// разрешения конфликта (политики reject и merge). Счетчик попыток
// сбрасывается: это логически новая запись поверх новой базовой версии.
func (q *Queue) Resubmit(ctx context.Context, opID string, payload json.RawMessage, baseVersion int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[opID]
	if !ok {
		return fmt.Errorf("unknown operation %s", opID)
	}

	delete(q.inFlight, op.Key.String())

	op.Payload = payload
	op.BaseVersion = baseVersion
	op.Attempts = 0
	op.NextAttemptAt = time.Time{}

	return q.persist(ctx, op)
}

// Size returns the number of queued operations.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ops)
}

// Attempts returns the attempt counter of an operation (0 if unknown).
func (q *Queue) Attempts(opID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if op, ok := q.ops[opID]; ok {
		return op.Attempts
	}
	return 0
}

func (q *Queue) persist(ctx context.Context, op *models.QueuedOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}
	if err := q.store.Set(ctx, storage.BucketQueue, op.ID, data); err != nil {
		return fmt.Errorf("failed to persist operation: %w", err)
	}
	return nil
}

func (q *Queue) removeLocked(ctx context.Context, op *models.QueuedOperation) error {
	var storeErr error
	if err := q.store.Delete(ctx, storage.BucketQueue, op.ID); err != nil {
		// In-memory индексы чистим в любом случае: застрявшая in-flight
		// метка заблокировала бы ключ до конца процесса. Осиротевшая
		// durable-запись переотправится после рестарта (at-least-once).
		q.logger.Warn("Failed to delete operation record, leaving orphan",
			"op_id", op.ID, "error", err)
		storeErr = fmt.Errorf("failed to delete operation record: %w", err)
	}

	delete(q.ops, op.ID)
	ks := op.Key.String()
	ids := q.byKey[ks]
	for i, id := range ids {
		if id == op.ID {
			q.byKey[ks] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(q.byKey[ks]) == 0 {
		delete(q.byKey, ks)
	}
	if q.inFlight[ks] == op.ID {
		delete(q.inFlight, ks)
	}
	return storeErr
}
