// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// execInTx runs fn inside a database transaction. The transaction is
// committed if fn succeeds and rolled back otherwise.
func execInTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newError(ErrDatabase, "begin transaction", err)
	}

	err = fn(tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rollbackErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return newError(ErrDatabase, "commit transaction", err)
	}

	return nil
}
