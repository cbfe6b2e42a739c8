package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// migration upgrades the schema from one version to the next higher one.
type migration struct {
	from, to int
	name     string
	apply    func(ctx context.Context, tx *sql.Tx) error
}

// migrations lists every registered upgrade step.
var migrations = []migration{
	{
		from: 1, to: 2,
		name: "add suspect column",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				"ALTER TABLE case_record ADD COLUMN suspect TEXT NOT NULL DEFAULT ''")
			return err
		},
	},
}

// migrationPath returns the steps that take the schema from version from to
// version to, preferring the longest jump available at each step. It wraps
// ErrMigrationGap when no path exists.
func migrationPath(registered []migration, from, to int) ([]migration, error) {
	if from > to {
		return nil, fmt.Errorf("%w: stored version %d is newer than %d", types.ErrMigrationGap, from, to)
	}
	var path []migration
	for cur := from; cur < to; {
		best := -1
		for i, m := range registered {
			if m.from != cur || m.to > to {
				continue
			}
			if best < 0 || m.to > registered[best].to {
				best = i
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("%w: from version %d to %d", types.ErrMigrationGap, from, to)
		}
		path = append(path, registered[best])
		cur = registered[best].to
	}
	return path, nil
}

// userVersion reads PRAGMA user_version.
func userVersion(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// tableExists reports whether a table with the given name exists.
func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

// migrate brings the database to target. A database with no schema is
// created at target directly; otherwise the registered migrations are
// applied in order, each in its own transaction together with its version
// stamp. The path is resolved before any step runs, so a gap leaves the
// database untouched.
func migrate(ctx context.Context, db *sql.DB, registered []migration, target int, logger *slog.Logger) error {
	current, err := userVersion(ctx, db)
	if err != nil {
		return err
	}

	if current == 0 {
		exists, err := tableExists(ctx, db, crimeTable)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: table %s exists without a schema version", types.ErrMigrationGap, crimeTable)
		}
		logger.Info("creating schema", "version", target)
		return createSchema(ctx, db, target)
	}

	if current == target {
		return nil
	}

	path, err := migrationPath(registered, current, target)
	if err != nil {
		return err
	}
	for _, m := range path {
		logger.Info("applying migration", "from", m.from, "to", m.to, "name", m.name)
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func createSchema(ctx context.Context, db *sql.DB, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if err := setUserVersion(ctx, tx, version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %d->%d: %w", m.from, m.to, err)
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return fmt.Errorf("migration %d->%d (%s): %w", m.from, m.to, m.name, err)
	}
	if err := setUserVersion(ctx, tx, m.to); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d->%d: %w", m.from, m.to, err)
	}
	return nil
}

// setUserVersion stamps the schema version. PRAGMA does not accept bound
// parameters, so the value is formatted in; it is always an int.
func setUserVersion(ctx context.Context, tx *sql.Tx, version int) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("setting schema version %d: %w", version, err)
	}
	return nil
}
