// This file implements the crime data-access object for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// Compile-time interface check: crimeDAO must implement CrimeDAO.
var _ types.CrimeDAO = (*crimeDAO)(nil)

// crimeDAO reads and writes the case_record table. Every committed write
// invalidates the table so live queries refresh.
type crimeDAO struct {
	backend *Backend

	listOnce sync.Once
	list     *live.Data[[]types.Crime]
}

func newCrimeDAO(b *Backend) *crimeDAO {
	return &crimeDAO{backend: b}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCrime hydrates one case_record row.
func scanCrime(row rowScanner) (types.Crime, error) {
	var (
		idStr    string
		title    string
		suspect  string
		occurred int64
		solved   int
	)
	if err := row.Scan(&idStr, &title, &suspect, &occurred, &solved); err != nil {
		return types.Crime{}, err
	}
	id, err := stringToUUID(idStr)
	if err != nil {
		return types.Crime{}, err
	}
	return types.Crime{
		ID:       id,
		Title:    title,
		Suspect:  suspect,
		Date:     epochToDate(occurred),
		IsSolved: solved != 0,
	}, nil
}

// Crimes returns the live list of every record in insertion order. The
// handle is shared by all callers for the lifetime of the attach.
func (d *crimeDAO) Crimes() *live.Data[[]types.Crime] {
	d.listOnce.Do(func() {
		d.list = newLiveQuery(d.backend, crimeTable, "list crimes", d.List)
	})
	return d.list
}

// Crime returns a live handle on one record; its value is nil while no row
// matches id. The nil id never matches a row.
func (d *crimeDAO) Crime(id uuid.UUID) *live.Data[*types.Crime] {
	if id == uuid.Nil {
		return live.NewData[*types.Crime](nil)
	}
	return newLiveQuery(d.backend, crimeTable, "get crime "+id.String(),
		func(ctx context.Context) (*types.Crime, error) {
			c, err := d.Get(ctx, id)
			if errors.Is(err, types.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &c, nil
		})
}

// List returns the current records in insertion order.
func (d *crimeDAO) List(ctx context.Context) ([]types.Crime, error) {
	var crimes []types.Crime
	err := d.backend.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT "+crimeColumns+" FROM "+crimeTable+" ORDER BY rowid")
		if err != nil {
			return fmt.Errorf("querying crimes: %w", err)
		}
		defer rows.Close()

		crimes = make([]types.Crime, 0)
		for rows.Next() {
			c, err := scanCrime(rows)
			if err != nil {
				return fmt.Errorf("scanning crime: %w", err)
			}
			crimes = append(crimes, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return crimes, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (d *crimeDAO) Get(ctx context.Context, id uuid.UUID) (types.Crime, error) {
	if id == uuid.Nil {
		return types.Crime{}, types.ErrInvalidID
	}
	var c types.Crime
	err := d.backend.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			"SELECT "+crimeColumns+" FROM "+crimeTable+" WHERE identifier = ?",
			uuidToString(id))
		var err error
		c, err = scanCrime(row)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("getting crime %s: %w", id, err)
		}
		return nil
	})
	return c, err
}

// Count returns the number of stored records.
func (d *crimeDAO) Count(ctx context.Context) (int, error) {
	var n int
	err := d.backend.withDB(func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+crimeTable).Scan(&n); err != nil {
			return fmt.Errorf("counting crimes: %w", err)
		}
		return nil
	})
	return n, err
}

// Insert adds a new record. Returns ErrDuplicateID if the id exists.
func (d *crimeDAO) Insert(ctx context.Context, c types.Crime) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := d.exec(func(db *sql.DB) (sql.Result, error) {
		return db.ExecContext(ctx,
			"INSERT INTO "+crimeTable+" ("+crimeColumns+") VALUES (?, ?, ?, ?, ?) "+
				"ON CONFLICT(identifier) DO NOTHING",
			uuidToString(c.ID), c.Title, c.Suspect, dateToEpoch(c.Date), boolToInt(c.IsSolved))
	}, types.ErrDuplicateID)
	if err != nil {
		return fmt.Errorf("inserting crime %s: %w", c.ID, err)
	}
	return nil
}

// Update overwrites an existing record. Returns ErrNotFound if no row has
// the id.
func (d *crimeDAO) Update(ctx context.Context, c types.Crime) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := d.exec(func(db *sql.DB) (sql.Result, error) {
		return db.ExecContext(ctx,
			"UPDATE "+crimeTable+" SET title = ?, suspect = ?, occurred_on = ?, is_solved = ? "+
				"WHERE identifier = ?",
			c.Title, c.Suspect, dateToEpoch(c.Date), boolToInt(c.IsSolved), uuidToString(c.ID))
	}, types.ErrNotFound)
	if err != nil {
		return fmt.Errorf("updating crime %s: %w", c.ID, err)
	}
	return nil
}

// Upsert writes c, inserting or replacing by id. An existing row keeps its
// position in the list.
func (d *crimeDAO) Upsert(ctx context.Context, c types.Crime) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := d.exec(func(db *sql.DB) (sql.Result, error) {
		return db.ExecContext(ctx,
			"INSERT INTO "+crimeTable+" ("+crimeColumns+") VALUES (?, ?, ?, ?, ?) "+
				"ON CONFLICT(identifier) DO UPDATE SET "+
				"title = excluded.title, suspect = excluded.suspect, "+
				"occurred_on = excluded.occurred_on, is_solved = excluded.is_solved",
			uuidToString(c.ID), c.Title, c.Suspect, dateToEpoch(c.Date), boolToInt(c.IsSolved))
	}, nil)
	if err != nil {
		return fmt.Errorf("upserting crime %s: %w", c.ID, err)
	}
	return nil
}

// exec runs a single write statement and invalidates the table once it has
// committed. When noRows is set, a statement that touched no row fails with
// it and nothing is invalidated.
func (d *crimeDAO) exec(stmt func(db *sql.DB) (sql.Result, error), noRows error) error {
	err := d.backend.withDB(func(db *sql.DB) error {
		res, err := stmt(db)
		if err != nil {
			return err
		}
		if noRows == nil {
			return nil
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return noRows
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.backend.invalidate(crimeTable)
	return nil
}
