package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory KVStore implementation.
// Используется в тестах и клиентами, которым не нужна durable очередь.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

var _ KVStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string][]byte),
	}
}

// Get retrieves the value for key in bucket.
func (m *Memory) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, ErrNotFound
	}
	value, ok := b[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key in bucket.
func (m *Memory) Set(ctx context.Context, bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	b[key] = stored
	return nil
}

// Delete removes key from bucket.
func (m *Memory) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}

	if b, ok := m.buckets[bucket]; ok {
		delete(b, key)
	}
	return nil
}

// ForEach iterates over all pairs in bucket in lexicographic key order.
// Детерминированный порядок упрощает воспроизводимость тестов.
func (m *Memory) ForEach(ctx context.Context, bucket string, fn func(key string, value []byte) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrStorageClosed
	}

	b := m.buckets[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Копируем значения, чтобы не держать lock во время колбэков
	values := make([][]byte, len(keys))
	for i, k := range keys {
		v := make([]byte, len(b[k]))
		copy(v, b[k])
		values[i] = v
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if err := fn(k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the store as closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
