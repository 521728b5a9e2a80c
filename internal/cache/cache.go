package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pathwise/syncengine/internal/models"
)

// Cache — локальный кэш последних известных значений отслеживаемых ресурсов.
//
// Чтения синхронны и не блокируют на I/O: кэш никогда не ходит в сеть и
// на диск. Политики вытеснения нет — рабочий набор равен множеству
// ресурсов, на которые ссылается UI, и записи живут до явного Remove.
//
// Put и MarkClean перезаписывают безусловно (last writer wins на уровне
// кэша); корректность того, ЧЕЙ писатель должен победить, — ответственность
// resolver'а, применяемая до этих вызовов.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*models.CachedEntry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*models.CachedEntry),
	}
}

// Get returns a copy of the entry for key, or false if the key is untracked.
func (c *Cache) Get(key models.Key) (*models.CachedEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Put unconditionally stores a clean (remotely confirmed) value.
// Используется для заполнения кэша данными, прочитанными с сервера.
func (c *Cache) Put(key models.Key, value json.RawMessage, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = &models.CachedEntry{
		Key:          key,
		Value:        value,
		BaseValue:    value,
		Version:      version,
		LastSyncedAt: time.Now(),
	}
}

// MarkDirty applies an optimistic local write: Value становится новым
// значением немедленно, до сетевого подтверждения. BaseValue и Version
// сохраняются — они нужны для отката и для merge-предка.
func (c *Cache) MarkDirty(key models.Key, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		// Первая локальная запись еще не синхронизированного ресурса
		c.entries[key.String()] = &models.CachedEntry{
			Key:   key,
			Value: value,
			Dirty: true,
		}
		return
	}

	entry.Value = value
	entry.Dirty = true
	entry.Deleted = false
}

// MarkDeleted applies an optimistic delete: запись остается в кэше с флагом
// Deleted, чтобы фатальная ошибка могла откатить удаление к BaseValue.
func (c *Cache) MarkDeleted(key models.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		return
	}
	entry.Dirty = true
	entry.Deleted = true
}

// MarkClean records a remotely confirmed value and version.
func (c *Cache) MarkClean(key models.Key, value json.RawMessage, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = &models.CachedEntry{
		Key:          key,
		Value:        value,
		BaseValue:    value,
		Version:      version,
		LastSyncedAt: time.Now(),
	}
}

// Revert откатывает оптимистичную запись к последнему чистому значению.
// Если чистого значения не было (create так и не подтвердился) —
// запись удаляется целиком.
func (c *Cache) Revert(key models.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok || !entry.Dirty {
		return
	}

	if entry.BaseValue == nil {
		delete(c.entries, key.String())
		return
	}

	entry.Value = entry.BaseValue
	entry.Dirty = false
	entry.Deleted = false
}

// Remove removes the entry for key.
func (c *Cache) Remove(key models.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key.String())
}

// Entries returns copies of all entries, ordered by key for determinism.
func (c *Cache) Entries() []*models.CachedEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]*models.CachedEntry, 0, len(keys))
	for _, k := range keys {
		result = append(result, c.entries[k].Clone())
	}
	return result
}

// EntriesByType returns copies of all non-deleted entries of the given type.
func (c *Cache) EntriesByType(t models.ResourceType) []*models.CachedEntry {
	result := make([]*models.CachedEntry, 0)
	for _, entry := range c.Entries() {
		if entry.Key.Type == t && !entry.Deleted {
			result = append(result, entry)
		}
	}
	return result
}

// Len returns the number of tracked entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
