// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"encoding/binary"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// UtxoInfo represents an unspent output owned by the wallet.
type UtxoInfo struct {
	// OutPoint is the outpoint of the UTXO.
	OutPoint wire.OutPoint

	// Amount is the value of the UTXO.
	Amount btcutil.Amount

	// PkScript is the public key script of the UTXO.
	PkScript []byte

	// Received is the timestamp when the UTXO was received.
	Received time.Time

	// FromCoinBase indicates whether the UTXO is from a coinbase
	// transaction.
	FromCoinBase bool

	// Height is the block height of the UTXO, -1 when unmined.
	Height int32
}

// Confirmations returns the depth of the UTXO at the given chain height.
func (u UtxoInfo) Confirmations(currentHeight int32) int32 {
	if u.Height < 0 || currentHeight < u.Height {
		return 0
	}

	return currentHeight - u.Height + 1
}

// ListUtxosQuery holds the set of options for a ListUTXOs query.
type ListUtxosQuery struct {
	// CurrentHeight is the height of the chain tip, used to compute the
	// confirmations of each UTXO.
	CurrentHeight int32

	// MinConfs is the minimum number of confirmations for a UTXO to be
	// included.
	MinConfs int32

	// MaxConfs is the maximum number of confirmations for a UTXO to be
	// included. Zero means no limit.
	MaxConfs int32
}

// Matches returns true if the UTXO satisfies the confirmation bounds of the
// query.
func (q ListUtxosQuery) Matches(u UtxoInfo) bool {
	confs := u.Confirmations(q.CurrentHeight)
	if confs < q.MinConfs {
		return false
	}

	return q.MaxConfs == 0 || confs <= q.MaxConfs
}

// LockID represents a unique context-specific ID assigned to an output lock.
type LockID [32]byte

// LeaseOutputParams holds the parameters for leasing an output.
type LeaseOutputParams struct {
	// ID is the lock ID the output is leased to.
	ID LockID

	// OutPoint is the output to lease.
	OutPoint wire.OutPoint

	// Duration is how long the lease lasts.
	Duration time.Duration
}

// ReleaseOutputParams holds the parameters for releasing a leased output.
type ReleaseOutputParams struct {
	// ID is the lock ID the output was leased to.
	ID LockID

	// OutPoint is the output to release.
	OutPoint wire.OutPoint
}

// LeasedOutput is an output leased to a lock ID until its expiration.
type LeasedOutput struct {
	// OutPoint is the outpoint of the locked UTXO.
	OutPoint wire.OutPoint

	// LockID is the ID of the lock.
	LockID LockID

	// Expiration is the time when the lock expires.
	Expiration time.Time
}

// SelectionRecord is the persisted summary of a finalized coin selection.
type SelectionRecord struct {
	// ID uniquely identifies the record, see RecordID.
	ID chainhash.Hash

	// Inputs are the selected outpoints, in canonical order.
	Inputs []wire.OutPoint

	// Target is the amount paid to the recipients.
	Target btcutil.Amount

	// SelectedValue is the nominal value of the inputs.
	SelectedValue btcutil.Amount

	// Fee is the total fee paid by the transaction.
	Fee btcutil.Amount

	// Change is the value of the change output, zero if none is made.
	Change btcutil.Amount

	// Waste is the waste score of the selection. It may be negative.
	Waste btcutil.Amount

	// FeeRate is the fee rate the selection was made at.
	FeeRate btcunit.SatPerKVByte

	// Algorithm identifies the selector that produced the selection.
	Algorithm uint8

	// Pass is the index of the eligibility filter the selection was made
	// under.
	Pass uint32

	// CreatedAt is when the selection was made, with second precision.
	CreatedAt time.Time
}

// RecordID derives the ID of a selection record from its inputs, target and
// creation time.
func RecordID(inputs []wire.OutPoint, target btcutil.Amount,
	createdAt time.Time) chainhash.Hash {

	buf := make([]byte, 0, len(inputs)*36+16)
	for _, op := range inputs {
		buf = append(buf, op.Hash[:]...)
		buf = binary.BigEndian.AppendUint32(buf, op.Index)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(target))
	buf = binary.BigEndian.AppendUint64(buf, uint64(createdAt.Unix()))

	return chainhash.HashH(buf)
}

// ListSelectionsQuery holds the options of a ListSelections query.
type ListSelectionsQuery struct {
	// Limit caps the number of records returned. Zero means no limit.
	Limit int
}
