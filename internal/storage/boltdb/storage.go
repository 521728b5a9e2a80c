package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/pathwise/syncengine/internal/storage"
)

// engineBuckets создаются при открытии файла, чтобы первые записи
// не конкурировали за создание bucket'ов.
var engineBuckets = [][]byte{
	[]byte(storage.BucketQueue),
	[]byte(storage.BucketCredentials),
	[]byte(storage.BucketMeta),
}

// Storage represents the BoltDB-backed KVStore implementation.
type Storage struct {
	db *bbolt.DB
}

var _ storage.KVStore = (*Storage)(nil)

// New opens (or creates) the BoltDB file at dbPath and initializes
// the engine buckets.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range engineBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", name, err)
			}
		}
		return nil
	})
}

// Get retrieves the value for key in bucket.
func (s *Storage) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return storage.ErrNotFound
		}

		data := b.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// Копируем: данные bbolt валидны только внутри транзакции
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores value under key in bucket.
func (s *Storage) Set(ctx context.Context, bucket, key string, value []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		if err := b.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save value: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// Delete removes key from bucket. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// ForEach calls fn for every key/value pair in bucket.
func (s *Storage) ForEach(ctx context.Context, bucket string, fn func(key string, value []byte) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			// Нет bucket — нечего обходить
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			key := string(k)
			value := make([]byte, len(v))
			copy(value, v)
			return fn(key, value)
		})
	})
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
