// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb" // Register the bdb driver.
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/btcsuite/coinselect/wallet/internal/db"
	"github.com/btcsuite/coinselect/wallet/internal/db/kvdb"
)

const (
	// kvdbDriver is the walletdb driver used for recorder files.
	kvdbDriver = "bdb"

	// kvdbTimeout is how long opening a recorder file waits for the
	// file lock.
	kvdbTimeout = 10 * time.Second
)

// SelectionRecord is the persisted form of a selection.
type SelectionRecord = db.SelectionRecord

// ListSelectionsQuery bounds a listing of recorded selections.
type ListSelectionsQuery = db.ListSelectionsQuery

// RecordWriter persists finalized selections.
type RecordWriter interface {
	// PutSelection stores rec.
	PutSelection(ctx context.Context, rec SelectionRecord) error
}

// Recorder is a selection store that owns its database connection.
type Recorder struct {
	db.SelectionStore

	close func() error
}

// A compile-time assertion to ensure Recorder implements RecordWriter.
var _ RecordWriter = (*Recorder)(nil)

// Close releases the database of the recorder.
func (r *Recorder) Close() error {
	if r.close == nil {
		return nil
	}

	return r.close()
}

// NewKvdbRecorder creates a recorder keeping selections in an open walletdb.
// The database stays owned by the caller.
func NewKvdbRecorder(dbConn walletdb.DB) (*Recorder, error) {
	store, err := kvdb.NewSelectionStore(dbConn)
	if err != nil {
		return nil, err
	}

	return &Recorder{SelectionStore: store}, nil
}

// OpenKvdbRecorder opens, or creates, the walletdb file at path and records
// selections in it.
func OpenKvdbRecorder(path string) (*Recorder, error) {
	dbConn, err := walletdb.Open(kvdbDriver, path, true, kvdbTimeout, false)
	if errors.Is(err, walletdb.ErrDbDoesNotExist) {
		dbConn, err = walletdb.Create(
			kvdbDriver, path, true, kvdbTimeout, false,
		)
	}
	if err != nil {
		return nil, err
	}

	rec, err := NewKvdbRecorder(dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	rec.close = dbConn.Close

	return rec, nil
}

// NewSQLiteRecorder records selections in the SQLite database at path,
// applying the schema migrations first.
func NewSQLiteRecorder(path string) (*Recorder, error) {
	dbConn, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	store, err := db.NewSQLiteSelectionStore(dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return newSQLRecorder(store, dbConn), nil
}

// NewPostgresRecorder records selections in the Postgres database at dsn,
// applying the schema migrations first.
func NewPostgresRecorder(dsn string) (*Recorder, error) {
	dbConn, err := db.OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}

	store, err := db.NewPostgresSelectionStore(dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return newSQLRecorder(store, dbConn), nil
}

func newSQLRecorder(store db.SelectionStore, dbConn *sql.DB) *Recorder {
	return &Recorder{
		SelectionStore: store,
		close:          dbConn.Close,
	}
}

// newSelectionRecord converts a finalized selection into its persisted form.
func newSelectionRecord(sel *Selection,
	params *coinselection.SelectionParams,
	createdAt time.Time) SelectionRecord {

	inputs := sel.Result.OutPoints()
	createdAt = createdAt.Truncate(time.Second)

	return SelectionRecord{
		ID:            db.RecordID(inputs, sel.Target, createdAt),
		Inputs:        inputs,
		Target:        sel.Target,
		SelectedValue: sel.Result.SelectedValue(),
		Fee:           sel.Fee,
		Change:        sel.Change,
		Waste:         sel.Waste,
		FeeRate:       params.EffectiveFeeRate,
		Algorithm:     uint8(sel.Result.Algorithm()),
		Pass:          uint32(sel.Pass),
		CreatedAt:     createdAt,
	}
}
