// Package store is the persistent key-value contract used by the pipeline.
// Two logical records are persisted: the user profile and the by-date map of
// daily summaries, both as opaque JSON blobs under fixed keys.
package store

import (
	"context"
	"errors"
)

// Fixed keys for the two persisted records.
const (
	KeyProfile        = "profile"
	KeyDailySummaries = "daily_summaries"
)

// ErrQuotaExceeded is returned by Set when the backing storage is full. It is
// a recoverable, user-visible condition, not a crash.
var ErrQuotaExceeded = errors.New("store: quota exceeded")

// Store is a persistent key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, overwriting any previous value. Returns
	// ErrQuotaExceeded when storage is full.
	Set(ctx context.Context, key, value string) error
	Close() error
}
