package ports

// Package ports defines interfaces (hexagonal ports) for session and host behavior.
// Implementations live in internal/adapters; orchestration in internal/session and internal/bridge.

import (
	"context"
)

// KVStore is the durable key/value store the session is persisted in.
// Each call is atomic per key; there is no cross-key transaction.
type KVStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
