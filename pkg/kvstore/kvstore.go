// Package kvstore is the durable client-side key/value storage the storefront
// keeps its session state in. Values are plain strings.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrClosed = errors.New("kvstore: closed")

type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open picks a backend by driver name: "file", "sqlite" or "memory".
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "file":
		return OpenFile(path)
	case "sqlite", "sqlite3":
		return OpenSQLite(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kvstore: unknown driver %q", driver)
	}
}
