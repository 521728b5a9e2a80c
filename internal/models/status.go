package models

import "time"

// SyncStatus — производная read-only проекция состояния движка.
// Не хранится: вычисляется из длины очереди, незакрытых конфликтов,
// счетчика ошибок и состояния подключения.
type SyncStatus struct {
	LastSync       time.Time `json:"last_sync"`
	State          string    `json:"state"` // Disconnected | Connecting | Connected | Syncing
	Connected      bool      `json:"connected"`
	PendingChanges int       `json:"pending_changes"`
	Conflicts      int       `json:"conflicts"`
	Errors         int       `json:"errors"`
}
