package storage

import "errors"

// Common persistence errors
var (
	// ErrNotFound indicates that no value exists for the requested key
	ErrNotFound = errors.New("value not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
