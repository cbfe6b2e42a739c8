// Package sqlite implements the SQLite backend for the criminalintent store.
package sqlite

// SchemaVersion is the schema version this package reads and writes. It is
// stamped into PRAGMA user_version.
const SchemaVersion = 2

// crimeTable is the single table holding crime records.
const crimeTable = "case_record"

// Schema DDL for the current version. A fresh database is created directly
// at this version without replaying migrations.
const createCaseRecord = `CREATE TABLE case_record (
    identifier TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    suspect TEXT NOT NULL DEFAULT '',
    occurred_on INTEGER NOT NULL,
    is_solved INTEGER NOT NULL DEFAULT 0
);`

// schemaDDL lists the CREATE statements for the current version.
var schemaDDL = []string{
	createCaseRecord,
}

// Column list shared by every SELECT so scanCrime stays in step.
const crimeColumns = "identifier, title, suspect, occurred_on, is_solved"
