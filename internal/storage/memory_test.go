package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, BucketQueue, "k", []byte("v")))

	value, err := m.Get(ctx, BucketQueue, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), BucketQueue, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ValueIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, m.Set(ctx, BucketQueue, "k", original))

	// Мутация исходного буфера не видна хранилищу
	original[0] = 'X'

	stored, err := m.Get(ctx, BucketQueue, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), stored)

	// Мутация прочитанного буфера не видна хранилищу
	stored[0] = 'Y'
	again, err := m.Get(ctx, BucketQueue, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_ForEachOrdered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, BucketQueue, "b", []byte("2")))
	require.NoError(t, m.Set(ctx, BucketQueue, "a", []byte("1")))

	var keys []string
	err := m.ForEach(ctx, BucketQueue, func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestMemory_ClosedStoreFails(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Close())

	_, err := m.Get(ctx, BucketQueue, "k")
	assert.ErrorIs(t, err, ErrStorageClosed)
	assert.ErrorIs(t, m.Set(ctx, BucketQueue, "k", nil), ErrStorageClosed)
	assert.ErrorIs(t, m.Delete(ctx, BucketQueue, "k"), ErrStorageClosed)
}
