package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStorage when a key is absent
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStorage stores small named settings. Keys are case-insensitive.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)

	// Set creates or replaces key; description documents what the value is for
	Set(ctx context.Context, key, value, description string) error

	// Delete returns ErrKeyNotFound when key is absent
	Delete(ctx context.Context, key string) error
}
