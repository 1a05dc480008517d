// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// selectionQueries holds the dialect specific statements used by
// sqlSelectionStore.
type selectionQueries struct {
	recordExists string
	insertRecord string
	insertInput  string
	getRecord    string
	listInputs   string
	listRecords  string
	listLimited  string
}

// sqlSelectionStore implements SelectionStore on top of database/sql. The
// SQLite and PostgreSQL stores embed it with their own statements.
type sqlSelectionStore struct {
	db      *sql.DB
	queries selectionQueries
}

// ValidateRecord checks that rec can be stored. Every SelectionStore
// implementation rejects records failing it with ErrInvalidRecord.
func ValidateRecord(rec *SelectionRecord) error {
	switch {
	case rec.ID == (chainhash.Hash{}):
		return newError(ErrInvalidRecord, "record has no id", nil)

	case len(rec.Inputs) == 0:
		return newError(ErrInvalidRecord, "record has no inputs", nil)

	case rec.Target <= 0:
		return newError(ErrInvalidRecord,
			fmt.Sprintf("invalid target %v", rec.Target), nil)
	}

	return nil
}

// PutSelection stores a finalized selection. It fails with ErrRecordExists if
// a record with the same ID is already stored.
func (s *sqlSelectionStore) PutSelection(ctx context.Context,
	rec SelectionRecord) error {

	err := ValidateRecord(&rec)
	if err != nil {
		return err
	}

	return execInTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(
			ctx, s.queries.recordExists, rec.ID[:],
		).Scan(&exists)

		switch {
		case err == nil:
			return newError(ErrRecordExists,
				fmt.Sprintf("selection %v", rec.ID), nil)

		case !errors.Is(err, sql.ErrNoRows):
			return newError(ErrDatabase, "check selection", err)
		}

		_, err = tx.ExecContext(
			ctx, s.queries.insertRecord, rec.ID[:],
			int64(rec.Target), int64(rec.SelectedValue),
			int64(rec.Fee), int64(rec.Change), int64(rec.Waste),
			int64(rec.FeeRate), int64(rec.Algorithm),
			int64(rec.Pass), rec.CreatedAt.Unix(),
		)
		if err != nil {
			return newError(ErrDatabase, "insert selection", err)
		}

		for i, op := range rec.Inputs {
			_, err = tx.ExecContext(
				ctx, s.queries.insertInput, rec.ID[:], int64(i),
				op.Hash[:], int64(op.Index),
			)
			if err != nil {
				return newError(ErrDatabase,
					fmt.Sprintf("insert input %v", op), err)
			}
		}

		return nil
	})
}

// GetSelection returns the record with the given ID.
func (s *sqlSelectionStore) GetSelection(ctx context.Context,
	id chainhash.Hash) (*SelectionRecord, error) {

	row := s.db.QueryRowContext(ctx, s.queries.getRecord, id[:])

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(ErrSelectionNotFound,
			fmt.Sprintf("selection %v", id), nil)
	}
	if err != nil {
		return nil, err
	}

	rec.Inputs, err = s.listInputs(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListSelections returns the stored records, newest first.
func (s *sqlSelectionStore) ListSelections(ctx context.Context,
	query ListSelectionsQuery) ([]SelectionRecord, error) {

	var (
		rows *sql.Rows
		err  error
	)
	if query.Limit > 0 {
		rows, err = s.db.QueryContext(
			ctx, s.queries.listLimited, int64(query.Limit),
		)
	} else {
		rows, err = s.db.QueryContext(ctx, s.queries.listRecords)
	}
	if err != nil {
		return nil, newError(ErrDatabase, "list selections", err)
	}
	defer rows.Close()

	var records []SelectionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrDatabase, "list selections", err)
	}

	// Inputs are fetched after the record cursor is closed.
	for i := range records {
		records[i].Inputs, err = s.listInputs(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// listInputs returns the inputs of a record in their stored order.
func (s *sqlSelectionStore) listInputs(ctx context.Context,
	id chainhash.Hash) ([]wire.OutPoint, error) {

	rows, err := s.db.QueryContext(ctx, s.queries.listInputs, id[:])
	if err != nil {
		return nil, newError(ErrDatabase, "list inputs", err)
	}
	defer rows.Close()

	var inputs []wire.OutPoint
	for rows.Next() {
		var (
			txHash []byte
			index  int64
		)
		if err := rows.Scan(&txHash, &index); err != nil {
			return nil, newError(ErrDatabase, "scan input", err)
		}

		hash, err := chainhash.NewHash(txHash)
		if err != nil {
			return nil, newError(ErrInvalidRecord, "input hash", err)
		}

		outIndex, err := int64ToUint32(index)
		if err != nil {
			return nil, newError(ErrInvalidRecord, "input index", err)
		}

		inputs = append(inputs, wire.OutPoint{
			Hash:  *hash,
			Index: outIndex,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrDatabase, "list inputs", err)
	}

	return inputs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads the columns of a selection_records row. sql.ErrNoRows is
// returned unwrapped.
func scanRecord(row rowScanner) (*SelectionRecord, error) {
	var (
		id                                    []byte
		target, selected, fee, change, waste  int64
		feeRate, algorithm, pass, createdUnix int64
	)

	err := row.Scan(
		&id, &target, &selected, &fee, &change, &waste, &feeRate,
		&algorithm, &pass, &createdUnix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, newError(ErrDatabase, "scan selection", err)
	}

	hash, err := chainhash.NewHash(id)
	if err != nil {
		return nil, newError(ErrInvalidRecord, "record id", err)
	}

	algo, err := int64ToUint8(algorithm)
	if err != nil {
		return nil, newError(ErrInvalidRecord, "algorithm", err)
	}

	passIndex, err := int64ToUint32(pass)
	if err != nil {
		return nil, newError(ErrInvalidRecord, "pass", err)
	}

	return &SelectionRecord{
		ID:            *hash,
		Target:        btcutil.Amount(target),
		SelectedValue: btcutil.Amount(selected),
		Fee:           btcutil.Amount(fee),
		Change:        btcutil.Amount(change),
		Waste:         btcutil.Amount(waste),
		FeeRate:       btcunit.SatPerKVByte(feeRate),
		Algorithm:     algo,
		Pass:          passIndex,
		CreatedAt:     time.Unix(createdUnix, 0),
	}, nil
}
