// Package prefs provides the key-value preferences the gallery persists its
// photo index in.
package prefs

import (
	"context"
	"fmt"
)

// Drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value stored for key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value stored for key.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open opens the store selected by driver at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverBadger:
		return OpenBadger(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("prefs: unknown driver %q", driver)
	}
}
