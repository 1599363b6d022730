// Package kv provides text key/value storage backends used to persist
// application state. Every operation may fail independently; callers decide
// whether a failure is fatal.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetText when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Storage is a generic text key/value backend.
type Storage interface {
	// GetText returns the value stored under key, or ErrNotFound.
	GetText(ctx context.Context, key string) (string, error)
	// SetText stores value under key, replacing any previous value.
	SetText(ctx context.Context, key, value string) error
	// DeleteItem removes key. Deleting an absent key is not an error.
	DeleteItem(ctx context.Context, key string) error
	// Clear removes every key owned by this storage.
	Clear(ctx context.Context) error
	// GetKeys lists the stored keys in ascending order.
	GetKeys(ctx context.Context) ([]string, error)
}

// Closer is implemented by backends holding external resources.
type Closer interface {
	Close() error
}

// Close releases s if it holds external resources.
func Close(s Storage) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
