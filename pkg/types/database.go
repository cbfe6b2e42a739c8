package types

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/criminalintent/pkg/live"
)

// Database is the schema container. Callers attach it to a backend, obtain
// the data-access surface, and detach when done.
type Database interface {
	// Attach opens the store described by config, applying any schema
	// migrations before returning. Returns ErrAlreadyAttached if called
	// while attached and ErrMigrationGap if the stored schema cannot be
	// brought to the current version.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, Crimes
	// returns ErrDetached.
	Detach() error

	// Crimes returns the data-access surface for crime records.
	// Returns ErrDetached if the database is not attached.
	Crimes() (CrimeDAO, error)
}

// CrimeDAO reads and writes crime records in a single table.
type CrimeDAO interface {
	// Crimes returns a live list of every record in insertion order.
	Crimes() *live.Data[[]Crime]

	// Crime returns a live handle on one record. The value is nil while no
	// row matches id.
	Crime(id uuid.UUID) *live.Data[*Crime]

	// List returns the current records in insertion order.
	List(ctx context.Context) ([]Crime, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (Crime, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Insert adds a new record. Returns ErrDuplicateID if the id exists.
	Insert(ctx context.Context, c Crime) error

	// Update overwrites an existing record. Returns ErrNotFound if no row
	// has the id.
	Update(ctx context.Context, c Crime) error

	// Upsert writes c, inserting or replacing by id.
	Upsert(ctx context.Context, c Crime) error
}

// Lifecycle errors.
var (
	ErrDetached        = errors.New("database is not attached")
	ErrAlreadyAttached = errors.New("database is already attached")
	ErrMigrationGap    = errors.New("no migration path to current schema version")
)

// Record errors.
var (
	ErrNotFound    = errors.New("crime not found")
	ErrDuplicateID = errors.New("crime id already exists")
	ErrInvalidID   = errors.New("invalid crime id")
	ErrInvalidData = errors.New("invalid crime data")
)
