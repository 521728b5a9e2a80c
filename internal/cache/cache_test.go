package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/syncengine/internal/models"
)

func subjectKey(id string) models.Key {
	return models.NewKey(models.ResourceSubjects, id)
}

func TestCache_GetMissing(t *testing.T) {
	c := New()

	entry, ok := c.Get(subjectKey("math"))
	assert.Nil(t, entry)
	assert.False(t, ok)
}

func TestCache_PutAndGet(t *testing.T) {
	c := New()
	key := subjectKey("math")
	value := json.RawMessage(`{"id":"math","name":"Mathematics"}`)

	c.Put(key, value, 3)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, key, entry.Key)
	assert.JSONEq(t, string(value), string(entry.Value))
	assert.Equal(t, int64(3), entry.Version)
	assert.False(t, entry.Dirty)
	assert.False(t, entry.LastSyncedAt.IsZero())
	// Чистая запись: BaseValue совпадает с подтвержденным значением
	assert.JSONEq(t, string(value), string(entry.BaseValue))
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := New()
	key := subjectKey("math")
	c.Put(key, json.RawMessage(`{"a":1}`), 1)

	entry, ok := c.Get(key)
	require.True(t, ok)

	// Мутация копии не должна влиять на кэш
	entry.Value[1] = 'X'
	entry.Version = 99

	fresh, ok := c.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(fresh.Value))
	assert.Equal(t, int64(1), fresh.Version)
}

func TestCache_MarkDirty_OptimisticWrite(t *testing.T) {
	c := New()
	key := subjectKey("math")
	base := json.RawMessage(`{"name":"Mathematics"}`)
	c.Put(key, base, 5)

	updated := json.RawMessage(`{"name":"Applied Mathematics"}`)
	c.MarkDirty(key, updated)

	entry, ok := c.Get(key)
	require.True(t, ok)
	// Оптимистичная запись видна сразу, до сетевого подтверждения
	assert.JSONEq(t, string(updated), string(entry.Value))
	assert.True(t, entry.Dirty)
	// База и версия сохраняются для отката и merge
	assert.JSONEq(t, string(base), string(entry.BaseValue))
	assert.Equal(t, int64(5), entry.Version)
}

func TestCache_MarkDirty_NewEntry(t *testing.T) {
	c := New()
	key := subjectKey("new")

	c.MarkDirty(key, json.RawMessage(`{"name":"New"}`))

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, entry.Dirty)
	assert.Nil(t, entry.BaseValue)
	assert.Equal(t, int64(0), entry.Version)
}

func TestCache_MarkClean(t *testing.T) {
	c := New()
	key := subjectKey("math")
	c.MarkDirty(key, json.RawMessage(`{"name":"Mathematics"}`))

	confirmed := json.RawMessage(`{"name":"Mathematics","id":"math"}`)
	c.MarkClean(key, confirmed, 7)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.Equal(t, int64(7), entry.Version)
	assert.JSONEq(t, string(confirmed), string(entry.Value))
	assert.JSONEq(t, string(confirmed), string(entry.BaseValue))
}

func TestCache_MarkDeleted(t *testing.T) {
	c := New()
	key := subjectKey("math")
	c.Put(key, json.RawMessage(`{"name":"Mathematics"}`), 2)

	c.MarkDeleted(key)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, entry.Dirty)
	assert.True(t, entry.Deleted)
}

func TestCache_Revert_RestoresBase(t *testing.T) {
	c := New()
	key := subjectKey("math")
	base := json.RawMessage(`{"name":"Mathematics"}`)
	c.Put(key, base, 4)
	c.MarkDirty(key, json.RawMessage(`{"name":"Broken"}`))

	c.Revert(key)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.False(t, entry.Dirty)
	assert.False(t, entry.Deleted)
	assert.JSONEq(t, string(base), string(entry.Value))
	assert.Equal(t, int64(4), entry.Version)
}

func TestCache_Revert_RemovesNeverSynced(t *testing.T) {
	c := New()
	key := subjectKey("new")
	c.MarkDirty(key, json.RawMessage(`{"name":"New"}`))

	// Чистого значения не было: create так и не подтвердился
	c.Revert(key)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCache_Revert_CleanEntryNoop(t *testing.T) {
	c := New()
	key := subjectKey("math")
	c.Put(key, json.RawMessage(`{"a":1}`), 1)

	c.Revert(key)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(entry.Value))
}

func TestCache_Remove(t *testing.T) {
	c := New()
	key := subjectKey("math")
	c.Put(key, json.RawMessage(`{}`), 1)

	c.Remove(key)

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_EntriesByType(t *testing.T) {
	c := New()
	c.Put(subjectKey("math"), json.RawMessage(`{"id":"math"}`), 1)
	c.Put(subjectKey("art"), json.RawMessage(`{"id":"art"}`), 1)
	c.Put(models.NewKey(models.ResourceCareers, "dev"), json.RawMessage(`{"id":"dev"}`), 1)
	c.MarkDeleted(subjectKey("art"))

	subjects := c.EntriesByType(models.ResourceSubjects)
	require.Len(t, subjects, 1)
	assert.Equal(t, "math", subjects[0].Key.ID)

	careers := c.EntriesByType(models.ResourceCareers)
	assert.Len(t, careers, 1)
}

func TestCache_EntriesOrdered(t *testing.T) {
	c := New()
	c.Put(subjectKey("b"), json.RawMessage(`{}`), 1)
	c.Put(subjectKey("a"), json.RawMessage(`{}`), 1)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key.ID)
	assert.Equal(t, "b", entries[1].Key.ID)
}
