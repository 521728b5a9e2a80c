package models

import "time"

// EventType определяет тип события синхронизации.
type EventType string

const (
	EventDataChange       EventType = "dataChange"       // ресурс подтвержден сервером
	EventConflict         EventType = "conflict"         // обнаружен конфликт версий
	EventConflictResolved EventType = "conflictResolved" // конфликт разрешен
	EventCacheUpdate      EventType = "cacheUpdate"      // оптимистичное изменение кэша
	EventSync             EventType = "sync"             // изменение агрегатного статуса движка
	EventError            EventType = "error"            // ошибка (транзиентная или фатальная)
)

// SyncEvent — неизменяемое событие, публикуемое на шине.
// Шина не хранит историю: слушатель, подписавшийся после публикации,
// события не получит; источником истины для чтения остается кэш.
type SyncEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Key       Key       `json:"key"`
}

// ErrorEventPayload — полезная нагрузка события EventError.
type ErrorEventPayload struct {
	OpID    string `json:"op_id,omitempty"`
	Reason  string `json:"reason"`
	Fatal   bool   `json:"fatal"`   // true: ретраи исчерпаны или ошибка не подлежит повтору
	Attempt int    `json:"attempt"` // номер попытки, вызвавшей ошибку (0 если неприменимо)
}
