// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"database/sql"

	// Register the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresQueries = selectionQueries{
	recordExists: `SELECT 1 FROM selection_records WHERE id = $1`,
	insertRecord: `INSERT INTO selection_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	insertInput: `INSERT INTO selection_inputs
		(record_id, input_index, tx_hash, output_index)
		VALUES ($1, $2, $3, $4)`,
	getRecord: `SELECT ` + recordColumns + `
		FROM selection_records WHERE id = $1`,
	listInputs: `SELECT tx_hash, output_index FROM selection_inputs
		WHERE record_id = $1 ORDER BY input_index`,
	listRecords: `SELECT ` + recordColumns + `
		FROM selection_records ORDER BY created_at DESC, id`,
	listLimited: `SELECT ` + recordColumns + `
		FROM selection_records ORDER BY created_at DESC, id LIMIT $1`,
}

// PostgresSelectionStore is the PostgreSQL implementation of the
// SelectionStore interface.
type PostgresSelectionStore struct {
	sqlSelectionStore
}

// A compile-time check to ensure that PostgresSelectionStore implements the
// SelectionStore interface.
var _ SelectionStore = (*PostgresSelectionStore)(nil)

// NewPostgresSelectionStore creates a new PostgreSQL-based SelectionStore.
// The schema is expected to be migrated already, see
// ApplyPostgresMigrations.
func NewPostgresSelectionStore(db *sql.DB) (*PostgresSelectionStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	return &PostgresSelectionStore{
		sqlSelectionStore: sqlSelectionStore{
			db:      db,
			queries: postgresQueries,
		},
	}, nil
}

// OpenPostgres connects to the database at dsn and applies all migrations.
func OpenPostgres(dsn string) (*sql.DB, error) {
	dbConn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, newError(ErrDatabase, "open postgres", err)
	}

	err = ApplyPostgresMigrations(dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return dbConn, nil
}
