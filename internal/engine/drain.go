package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/internal/queue"
	"github.com/pathwise/syncengine/internal/resolver"
	"github.com/pathwise/syncengine/internal/transport"
)

// drain — цикл выгрузки очереди. Операции уходят по одной (порядок внутри
// ключа гарантирован семантикой очереди: не более одной операции ключа в
// полете), исход каждой классифицируется транспортом и применяется к кэшу,
// очереди и шине событий.
func (e *Engine) drain(ctx context.Context) {
	defer e.wg.Done()

	for {
		op := e.queue.NextReady(time.Now())
		if op == nil {
			e.becomeIdle()

			// Спим до ближайшего backoff-дедлайна или до первого kick
			var timerC <-chan time.Time
			var timer *time.Timer
			if deadline, ok := e.queue.NextDeadline(); ok {
				wait := time.Until(deadline)
				if wait < 0 {
					wait = 0
				}
				timer = time.NewTimer(wait)
				timerC = timer.C
			}

			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-e.wake:
			case <-timerC:
			}
			if timer != nil {
				timer.Stop()
			}
			continue
		}

		e.setSyncing()

		outcome := e.transport.Send(ctx, op)
		if ctx.Err() != nil {
			// Disconnect во время полета: операция остается в очереди,
			// in-flight метка снимается, иначе ключ навсегда выпадет
			// из выгрузки после следующего Initialize
			e.queue.Release(op.ID)
			return
		}

		e.handleOutcome(ctx, op, outcome)
	}
}

// becomeIdle возвращает Syncing → Connected, когда очередь пуста.
func (e *Engine) becomeIdle() {
	e.mu.Lock()
	changed := e.state == StateSyncing
	if changed {
		e.state = StateConnected
	}
	e.mu.Unlock()

	if changed {
		e.emitSync()
	}
}

// setSyncing переводит Connected → Syncing перед отправкой операции.
func (e *Engine) setSyncing() {
	e.mu.Lock()
	changed := e.state == StateConnected
	if changed {
		e.state = StateSyncing
	}
	e.mu.Unlock()

	if changed {
		e.emitSync()
	}
}

// handleOutcome применяет классифицированный исход отправки к кэшу,
// очереди и шине.
func (e *Engine) handleOutcome(ctx context.Context, op *models.QueuedOperation, outcome transport.Outcome) {
	switch outcome.Status {
	case transport.StatusOK:
		e.handleOK(ctx, op, outcome)
	case transport.StatusConflict:
		e.handleConflict(ctx, op, outcome)
	case transport.StatusTransient:
		e.handleTransient(ctx, op, outcome)
	case transport.StatusFatal:
		e.handleFatal(ctx, op, outcome.Reason)
	}
}

func (e *Engine) handleOK(ctx context.Context, op *models.QueuedOperation, outcome transport.Outcome) {
	if op.Kind == models.OpDelete {
		e.cache.Remove(op.Key)
	} else {
		e.cache.MarkClean(op.Key, outcome.Value, outcome.Version)
	}

	if err := e.queue.Ack(ctx, op.ID); err != nil {
		e.logger.Warn("Failed to ack operation", "op_id", op.ID, "error", err)
	}

	e.mu.Lock()
	e.lastSync = time.Now()
	e.mu.Unlock()

	e.logger.Debug("Operation confirmed",
		"op_id", op.ID, "key", op.Key.String(), "version", outcome.Version)

	e.emitEvent(models.EventDataChange, op.Key, map[string]any{
		"op_id":   op.ID,
		"kind":    op.Kind,
		"version": outcome.Version,
	})
	e.emitSync()
}

// handleConflict: создаем ConflictRecord, публикуем conflict, зовем
// resolver, применяем решение и публикуем conflictResolved — строго
// в этом порядке.
func (e *Engine) handleConflict(ctx context.Context, op *models.QueuedOperation, outcome transport.Outcome) {
	var baseValue []byte
	if entry, ok := e.cache.Get(op.Key); ok {
		baseValue = entry.BaseValue
	}

	record := &models.ConflictRecord{
		ID:              uuid.New().String(),
		OpID:            op.ID,
		Key:             op.Key,
		LocalValue:      op.Payload,
		RemoteValue:     outcome.RemoteValue,
		BaseValue:       baseValue,
		RemoteWriterID:  outcome.RemoteWriterID,
		BaseVersion:     op.BaseVersion,
		RemoteVersion:   outcome.RemoteVersion,
		LocalTimestamp:  op.EnqueuedAt.Unix(),
		RemoteTimestamp: outcome.RemoteTimestamp,
		Resolution:      models.ResolutionPending,
		DetectedAt:      time.Now(),
	}

	e.mu.Lock()
	e.conflicts[record.ID] = record
	e.mu.Unlock()

	e.logger.Info("Conflict detected",
		"key", op.Key.String(),
		"base_version", record.BaseVersion,
		"remote_version", record.RemoteVersion)

	e.emitEvent(models.EventConflict, op.Key, record)

	policy := e.resolver.PolicyFor(op.Key.Type)
	result, err := e.resolver.Resolve(record, policy)
	if err != nil {
		// Некорректная политика — bug-class: принимаем удаленную версию,
		// чтобы не зациклить операцию
		e.logger.Warn("Resolver failed, adopting remote value",
			"key", op.Key.String(), "error", err)
		result = &resolver.Result{
			Action:       models.ResolutionAccept,
			FinalValue:   record.RemoteValue,
			FinalVersion: record.RemoteVersion,
		}
	}

	if result.Resubmit {
		// Локальная (или объединенная) запись переотправляется поверх
		// удаленной версии
		if err := e.queue.Resubmit(ctx, op.ID, result.FinalValue, result.FinalVersion); err != nil {
			e.logger.Warn("Failed to resubmit operation", "op_id", op.ID, "error", err)
		}
		if op.Kind != models.OpDelete {
			e.cache.MarkDirty(op.Key, result.FinalValue)
		}
	} else {
		if err := e.queue.Drop(ctx, op.ID); err != nil {
			e.logger.Warn("Failed to drop operation", "op_id", op.ID, "error", err)
		}
		if result.FinalValue == nil {
			e.cache.Remove(op.Key)
		} else {
			e.cache.MarkClean(op.Key, result.FinalValue, result.FinalVersion)
		}
	}

	record.Resolution = result.Action

	e.mu.Lock()
	delete(e.conflicts, record.ID)
	e.lastSync = time.Now()
	e.mu.Unlock()

	e.emitEvent(models.EventConflictResolved, op.Key, record)
	e.emitSync()
	e.kick()
}

func (e *Engine) handleTransient(ctx context.Context, op *models.QueuedOperation, outcome transport.Outcome) {
	err := e.queue.Requeue(ctx, op.ID)
	if errors.Is(err, queue.ErrAttemptsExhausted) {
		// Бюджет ретраев исчерпан: операция переводится на фатальный путь
		e.handleFatal(ctx, op, outcome.Reason+" (retry attempts exhausted)")
		return
	}
	if err != nil {
		e.logger.Warn("Failed to requeue operation", "op_id", op.ID, "error", err)
	}

	attempt := e.queue.Attempts(op.ID)
	e.countError()

	e.logger.Debug("Transient failure, retry scheduled",
		"op_id", op.ID, "key", op.Key.String(), "attempt", attempt, "reason", outcome.Reason)

	e.emitError(op.Key, op.ID, outcome.Reason, false, attempt)
	e.emitSync()
}

// handleFatal: операция снимается с очереди, оптимистичная запись
// откатывается к последнему чистому значению, ошибка уходит событием.
// Автоповторов больше не будет — дальше только явное действие пользователя.
func (e *Engine) handleFatal(ctx context.Context, op *models.QueuedOperation, reason string) {
	if err := e.queue.Drop(ctx, op.ID); err != nil {
		e.logger.Warn("Failed to drop operation", "op_id", op.ID, "error", err)
	}

	e.cache.Revert(op.Key)
	e.countError()

	e.logger.Warn("Operation failed fatally",
		"op_id", op.ID, "key", op.Key.String(), "reason", reason)

	e.emitError(op.Key, op.ID, reason, true, op.Attempts+1)
	e.emitSync()
}
