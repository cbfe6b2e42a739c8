package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/criminalintent/internal/slogutil"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// Compile-time interface check.
var _ types.Database = (*Backend)(nil)

// pragmas applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Backend implements types.Database on a SQLite file. It owns the
// connection pool, the invalidation tracker that drives live queries, and
// the crime data-access object.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dbPath   string
	logger   *slog.Logger
	tracker  *invalidationTracker
	crimes   *crimeDAO

	// liveCtx is the parent of every live query refresher; Detach cancels it.
	liveCtx    context.Context
	liveCancel context.CancelFunc

	migrations    []migration
	schemaVersion int
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used by the backend and its live queries.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tracker:       newInvalidationTracker(),
		migrations:    migrations,
		schemaVersion: SchemaVersion,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = slogutil.OrDiscard(b.logger)
	return b
}

// Attach opens the database under config.DataDir, creating the directory if
// needed, and brings the schema to SchemaVersion before serving queries.
// Returns ErrAlreadyAttached if already attached. A stored schema that
// cannot be migrated fails with ErrMigrationGap and leaves the backend
// detached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, config.GetDatabaseName()+".db")
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("opening database: %w", err)
	}
	if err := migrate(ctx, db, b.migrations, b.schemaVersion, b.logger.With("db", dbPath)); err != nil {
		db.Close()
		return fmt.Errorf("migrating %s: %w", dbPath, err)
	}

	b.db = db
	b.dbPath = dbPath
	b.config = config
	b.liveCtx, b.liveCancel = context.WithCancel(context.Background())
	b.crimes = newCrimeDAO(b)
	b.attached = true

	b.logger.Debug("database attached", "path", dbPath, "schema_version", b.schemaVersion)
	return nil
}

// Detach stops live query refreshers and closes the database. Detach is
// idempotent. After Detach, Crimes returns ErrDetached and DAO operations
// return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.liveCancel()
	b.attached = false
	b.crimes = nil

	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	b.logger.Debug("database detached", "path", b.dbPath)
	return nil
}

// Crimes returns the crime data-access object.
// Returns ErrDetached if the backend is not attached.
func (b *Backend) Crimes() (types.CrimeDAO, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.crimes, nil
}

// Path returns the database file path of the last Attach.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dbPath
}

// SchemaVersion returns the schema version stamped in the open database.
func (b *Backend) SchemaVersion(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrDetached
	}
	return userVersion(ctx, b.db)
}

// liveContext returns a context for a live query refresher. It is already
// cancelled when the backend is detached.
func (b *Backend) liveContext() (context.Context, context.CancelFunc) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	return context.WithCancel(b.liveCtx)
}

// withDB runs fn with the open database while holding the read lock, so
// Detach waits for in-flight statements.
func (b *Backend) withDB(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	return fn(b.db)
}

// invalidate tells live queries on table to refresh.
func (b *Backend) invalidate(table string) {
	b.tracker.notify(table)
}

// dsn builds the modernc.org/sqlite connection string for path.
func dsn(path string) string {
	s := "file:" + path
	for i, p := range pragmas {
		if i == 0 {
			s += "?"
		} else {
			s += "&"
		}
		s += "_pragma=" + p
	}
	return s
}
