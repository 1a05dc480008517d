// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Store is the top-level interface that combines all the more granular
// sub-interfaces.
type Store interface {
	UTXOStore
	SelectionStore
}

// UTXOStore defines the database actions for reading the UTXO set and
// leasing outputs so concurrent selections do not spend them twice.
type UTXOStore interface {
	ListUTXOs(ctx context.Context, query ListUtxosQuery) ([]UtxoInfo, error)
	LeaseOutput(ctx context.Context, params LeaseOutputParams) (*LeasedOutput,
		error)
	ReleaseOutput(ctx context.Context, params ReleaseOutputParams) error
	ListLeasedOutputs(ctx context.Context) ([]LeasedOutput, error)
}

// SelectionStore defines the database actions for persisting finalized
// coin selections.
type SelectionStore interface {
	PutSelection(ctx context.Context, rec SelectionRecord) error
	GetSelection(ctx context.Context, id chainhash.Hash) (*SelectionRecord,
		error)
	ListSelections(ctx context.Context,
		query ListSelectionsQuery) ([]SelectionRecord, error)
}
