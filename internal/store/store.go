// Package store provides persistence backends for the model state record.
package store

import (
	"errors"
	"fmt"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("model state not found")

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a model.Persister that owns closable resources.
type Store interface {
	model.Persister
	Close() error
}

// Open returns the store for the named backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
