// Package sqlite provides the public API for the SQLite crime store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/criminalintent/internal/sqlite"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// SchemaVersion is the schema version the backend reads and writes.
const SchemaVersion = sqlite.SchemaVersion

// Backend is the SQLite implementation of types.Database. Beyond the
// Database methods it reports its file path and stored schema version and
// can watch the file for writes made by other processes.
type Backend = sqlite.Backend

var _ types.Database = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	db := sqlite.NewBackend(nil)
//	err := db.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".criminalintent-db",
//	})
//	defer db.Detach()
//	crimes, err := db.Crimes()
func NewBackend(logger *slog.Logger) *Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
