// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"database/sql"
	"fmt"

	// Register the pure Go sqlite driver.
	_ "modernc.org/sqlite"
)

const recordColumns = `id, target, selected_value, fee, change_value, waste,
	fee_rate, algorithm, pass, created_at`

var sqliteQueries = selectionQueries{
	recordExists: `SELECT 1 FROM selection_records WHERE id = ?`,
	insertRecord: `INSERT INTO selection_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	insertInput: `INSERT INTO selection_inputs
		(record_id, input_index, tx_hash, output_index)
		VALUES (?, ?, ?, ?)`,
	getRecord: `SELECT ` + recordColumns + `
		FROM selection_records WHERE id = ?`,
	listInputs: `SELECT tx_hash, output_index FROM selection_inputs
		WHERE record_id = ? ORDER BY input_index`,
	listRecords: `SELECT ` + recordColumns + `
		FROM selection_records ORDER BY created_at DESC, id`,
	listLimited: `SELECT ` + recordColumns + `
		FROM selection_records ORDER BY created_at DESC, id LIMIT ?`,
}

// SQLiteSelectionStore is the SQLite implementation of the SelectionStore
// interface.
type SQLiteSelectionStore struct {
	sqlSelectionStore
}

// A compile-time check to ensure that SQLiteSelectionStore implements the
// SelectionStore interface.
var _ SelectionStore = (*SQLiteSelectionStore)(nil)

// NewSQLiteSelectionStore creates a new SQLite-based SelectionStore. The
// schema is expected to be migrated already, see ApplySQLiteMigrations.
func NewSQLiteSelectionStore(db *sql.DB) (*SQLiteSelectionStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	return &SQLiteSelectionStore{
		sqlSelectionStore: sqlSelectionStore{
			db:      db,
			queries: sqliteQueries,
		},
	}, nil
}

// SQLiteDSN builds the connection string used to open the SQLite database at
// path. Foreign keys are enforced and writers take the lock up front.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys=on"+
		"&_pragma=journal_mode=WAL&_txlock=immediate"+
		"&_pragma=busy_timeout=5000", path)
}

// OpenSQLite opens the SQLite database at path and applies all migrations.
func OpenSQLite(path string) (*sql.DB, error) {
	dbConn, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, newError(ErrDatabase, "open sqlite", err)
	}

	err = ApplySQLiteMigrations(dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return dbConn, nil
}
