package metadata

import (
	"context"
)

// Repository is a durable string-keyed blob store.
type Repository interface {
	// Get returns common.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
