package models

import (
	"encoding/json"
	"time"
)

// Resolution — состояние/исход разрешения конфликта.
type Resolution string

const (
	ResolutionPending Resolution = "pending"
	ResolutionAccept  Resolution = "accept" // удаленная версия победила
	ResolutionReject  Resolution = "reject" // локальная запись переотправляется поверх удаленной
	ResolutionMerge   Resolution = "merge"  // объединение полей обеих сторон
)

// Policy — настраиваемая политика разрешения конфликтов для типа ресурса.
type Policy string

const (
	PolicyAccept Policy = "accept" // remote wins: ресурс внешне-авторитетный
	PolicyReject Policy = "reject" // local wins: локальный актор — единственный законный писатель
	PolicyMerge  Policy = "merge"  // field-level union с приоритетом локальной стороны
	PolicyLWW    Policy = "lww"    // побеждает более поздняя запись, детерминированный tie-break
)

// KnownPolicy reports whether p is a supported resolution policy.
func KnownPolicy(p Policy) bool {
	switch p {
	case PolicyAccept, PolicyReject, PolicyMerge, PolicyLWW:
		return true
	}
	return false
}

// ConflictRecord создается, когда base version выгруженной операции больше
// не совпадает с текущей версией ресурса на сервере. Запись уничтожается,
// как только Resolution выходит из состояния pending.
type ConflictRecord struct {
	DetectedAt      time.Time       `json:"detected_at"`
	ID              string          `json:"id"`
	OpID            string          `json:"op_id"` // операция, вызвавшая конфликт
	Key             Key             `json:"key"`
	LocalValue      json.RawMessage `json:"local_value"`
	RemoteValue     json.RawMessage `json:"remote_value"`
	BaseValue       json.RawMessage `json:"base_value"` // общий предок для field-level merge

	RemoteWriterID  string          `json:"remote_writer_id"` // идентификатор узла, сделавшего удаленную запись
	BaseVersion     int64           `json:"base_version"`
	RemoteVersion   int64           `json:"remote_version"`
	LocalTimestamp  int64           `json:"local_timestamp"`  // unix-время локальной записи
	RemoteTimestamp int64           `json:"remote_timestamp"` // unix-время удаленной записи
	Resolution      Resolution      `json:"resolution"`
}

// LocalIsNewer сравнивает конфликтующие записи по правилу LWW:
// сначала timestamps, при равенстве — лексикографическое сравнение
// идентификаторов, чтобы исход был детерминированным и воспроизводимым.
func (c *ConflictRecord) LocalIsNewer() bool {
	if c.LocalTimestamp != c.RemoteTimestamp {
		return c.LocalTimestamp > c.RemoteTimestamp
	}
	return c.OpID > c.RemoteWriterID
}
