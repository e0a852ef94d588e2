// Package sqlite provides the public API for the SQLite archive backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
//
// Implements: prd001-atlas-core R2, R4 (backend factory).
package sqlite

import (
	"github.com/mesh-intelligence/masterplan/internal/sqlite"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".atlas-db",
//	})
//	defer backend.Detach()
func NewBackend() types.Atlas {
	return sqlite.NewBackend()
}
