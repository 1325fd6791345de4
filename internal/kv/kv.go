// Package kv is the flat key-value substrate backing the vault collections,
// the theme key and the per-user settings blobs.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Keys returns all keys matching the glob pattern (e.g. "settings_*").
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}
