package models

import (
	"encoding/json"
	"time"
)

// OpKind определяет вид операции записи.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// QueuedOperation — одна неподтвержденная операция записи в offline-очереди.
//
// Инварианты:
//   - операции одного ключа полностью упорядочены по (EnqueuedAt, Seq);
//   - в полете (отправляется по сети) находится не более одной операции
//     на ключ; повторная локальная запись того же ключа коалесцируется
//     в существующую операцию с сохранением ее ID и порядка.
type QueuedOperation struct {
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	NextAttemptAt time.Time       `json:"next_attempt_at"` // раньше этого момента операция не отправляется
	Key           Key             `json:"key"`
	ID            string          `json:"id"` // UUID, стабилен при коалесцировании
	Kind          OpKind          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	BaseVersion   int64           `json:"base_version"` // версия кэша на момент постановки в очередь
	Seq           uint64          `json:"seq"`          // монотонный порядковый номер для FIFO между ключами
	Attempts      int             `json:"attempts"`     // количество неудачных попыток отправки
}

// Clone создает глубокую копию операции.
func (op *QueuedOperation) Clone() *QueuedOperation {
	clone := *op
	clone.Payload = cloneRaw(op.Payload)
	return &clone
}
