package storage

import (
	"context"
	"errors"
)

// Keys mirrored by the client state.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"
	KeyCart     = "cart"
	KeyTheme    = "theme"
)

var ErrEmptyKey = errors.New("storage key is required")

// KeyValueStore is the persistent mirror of client state. Writes are last
// write wins; SetMany and Remove apply all keys or none.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

func validateKeys(keys ...string) error {
	for _, k := range keys {
		if k == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
