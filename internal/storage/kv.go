package storage

import "context"

// Bucket names used by the engine. Движку нужна только key-value семантика
// над строковыми ключами; конкретная технология хранения — деталь реализации.
const (
	BucketQueue       = "queue"       // durable offline queue records
	BucketCredentials = "credentials" // encrypted bearer credentials
	BucketMeta        = "meta"        // node id, last sync timestamp
)

//go:generate moq -out kv_mock.go . KVStore

// KVStore defines the durable key-value persistence boundary of the engine.
// Очередь считается "поставленной" только после того, как запись durable
// сохранена, поэтому оптимистичная запись не теряется при рестарте процесса.
type KVStore interface {
	// Get retrieves the value for key in bucket.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Set stores value under key in bucket, creating the bucket if needed.
	Set(ctx context.Context, bucket, key string, value []byte) error

	// Delete removes key from bucket. Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// ForEach calls fn for every key/value pair in bucket.
	// Returning an error from fn stops the iteration.
	ForEach(ctx context.Context, bucket string, fn func(key string, value []byte) error) error

	// Close releases the underlying store.
	Close() error
}
