package models

import (
	"encoding/json"
	"time"
)

// CachedEntry представляет последнее известное значение ресурса в локальном кэше.
//
// Инвариант: у записи с Dirty = false поле Version равно версии, последней
// подтвержденной сервером. У записи с Dirty = true поле Value отражает
// оптимистичную локальную запись, а BaseValue хранит последнее подтвержденное
// значение — оно служит откатом при фатальной ошибке и общим предком при
// field-level merge.
type CachedEntry struct {
	LastSyncedAt time.Time       `json:"last_synced_at"` // время последнего подтверждения сервером
	Key          Key             `json:"key"`
	Value        json.RawMessage `json:"value"`      // текущее значение (возможно, оптимистичное)
	BaseValue    json.RawMessage `json:"base_value"` // последнее подтвержденное сервером значение
	Version      int64           `json:"version"`    // версия сервера; 0 = запись еще не синхронизировалась
	Dirty        bool            `json:"dirty"`      // true пока локальная запись не подтверждена
	Deleted      bool            `json:"deleted"`    // оптимистичное удаление, ожидающее подтверждения
}

// Clone создает глубокую копию записи кэша.
func (e *CachedEntry) Clone() *CachedEntry {
	clone := *e
	clone.Value = cloneRaw(e.Value)
	clone.BaseValue = cloneRaw(e.BaseValue)
	return &clone
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
