// Package kvdb provides walletdb (kvdb) backed implementations of the
// wallet/internal/db store interfaces.
package kvdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/btcsuite/coinselect/wallet/internal/db"
)

var (
	// wtxmgrNamespaceKey is the top-level bucket key for the transaction
	// manager.
	wtxmgrNamespaceKey = []byte("wtxmgr")

	// errMissingNamespace is returned when the transaction manager bucket
	// has not been created.
	errMissingNamespace = errors.New("missing transaction manager namespace")
)

// TxStore is the part of the wtxmgr transaction store the UTXO store reads
// and leases outputs through. It is satisfied by *wtxmgr.Store.
type TxStore interface {
	// UnspentOutputs returns all unspent, unleased outputs.
	UnspentOutputs(ns walletdb.ReadBucket) ([]wtxmgr.Credit, error)

	// LockOutput leases an output to id for duration and returns the
	// expiration of the lease.
	LockOutput(ns walletdb.ReadWriteBucket, id wtxmgr.LockID,
		op wire.OutPoint, duration time.Duration) (time.Time, error)

	// UnlockOutput releases an output leased to id.
	UnlockOutput(ns walletdb.ReadWriteBucket, id wtxmgr.LockID,
		op wire.OutPoint) error

	// ListLockedOutputs returns all outputs with an active lease.
	ListLockedOutputs(ns walletdb.ReadBucket) ([]*wtxmgr.LockedOutput,
		error)
}

// UTXOStore is the kvdb (walletdb) implementation of the db.UTXOStore
// interface.
type UTXOStore struct {
	db      walletdb.DB
	txStore TxStore
}

// A compile-time assertion to ensure that UTXOStore implements the
// db.UTXOStore interface.
var _ db.UTXOStore = (*UTXOStore)(nil)

// NewUTXOStore creates a new kvdb-backed UTXO store.
func NewUTXOStore(dbConn walletdb.DB, txStore TxStore) *UTXOStore {
	return &UTXOStore{
		db:      dbConn,
		txStore: txStore,
	}
}

// ListUTXOs returns the unspent outputs within the confirmation bounds of the
// query.
func (s *UTXOStore) ListUTXOs(ctx context.Context,
	query db.ListUtxosQuery) ([]db.UtxoInfo, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var utxos []db.UtxoInfo
	err := walletdb.View(s.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(wtxmgrNamespaceKey)
		if ns == nil {
			return errMissingNamespace
		}

		credits, err := s.txStore.UnspentOutputs(ns)
		if err != nil {
			return err
		}

		for _, credit := range credits {
			utxo := db.UtxoInfo{
				OutPoint:     credit.OutPoint,
				Amount:       credit.Amount,
				PkScript:     credit.PkScript,
				Received:     credit.Received,
				FromCoinBase: credit.FromCoinBase,
				Height:       credit.Height,
			}

			if query.Matches(utxo) {
				utxos = append(utxos, utxo)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list utxos: %w", err)
	}

	return utxos, nil
}

// LeaseOutput leases an output to the given lock ID.
func (s *UTXOStore) LeaseOutput(ctx context.Context,
	params db.LeaseOutputParams) (*db.LeasedOutput, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var expiration time.Time
	err := walletdb.Update(s.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(wtxmgrNamespaceKey)
		if ns == nil {
			return errMissingNamespace
		}

		var err error
		expiration, err = s.txStore.LockOutput(
			ns, wtxmgr.LockID(params.ID), params.OutPoint,
			params.Duration,
		)

		return err
	})
	if err != nil {
		return nil, leaseError(params.OutPoint, err)
	}

	return &db.LeasedOutput{
		OutPoint:   params.OutPoint,
		LockID:     params.ID,
		Expiration: expiration,
	}, nil
}

// ReleaseOutput releases an output leased to the given lock ID.
func (s *UTXOStore) ReleaseOutput(ctx context.Context,
	params db.ReleaseOutputParams) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	err := walletdb.Update(s.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(wtxmgrNamespaceKey)
		if ns == nil {
			return errMissingNamespace
		}

		return s.txStore.UnlockOutput(
			ns, wtxmgr.LockID(params.ID), params.OutPoint,
		)
	})
	if err != nil {
		return leaseError(params.OutPoint, err)
	}

	return nil
}

// ListLeasedOutputs returns all outputs with an active lease.
func (s *UTXOStore) ListLeasedOutputs(
	ctx context.Context) ([]db.LeasedOutput, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var leased []db.LeasedOutput
	err := walletdb.View(s.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(wtxmgrNamespaceKey)
		if ns == nil {
			return errMissingNamespace
		}

		locked, err := s.txStore.ListLockedOutputs(ns)
		if err != nil {
			return err
		}

		for _, l := range locked {
			leased = append(leased, db.LeasedOutput{
				OutPoint:   l.Outpoint,
				LockID:     db.LockID(l.LockID),
				Expiration: l.Expiration,
			})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list leased outputs: %w", err)
	}

	return leased, nil
}

// leaseError maps the lease errors of the transaction store onto db error
// codes.
func leaseError(op wire.OutPoint, err error) error {
	switch {
	case errors.Is(err, wtxmgr.ErrUnknownOutput):
		return db.Error{
			Code: db.ErrUnknownOutput,
			Desc: fmt.Sprintf("output %v", op),
			Err:  err,
		}

	case errors.Is(err, wtxmgr.ErrOutputAlreadyLocked),
		errors.Is(err, wtxmgr.ErrOutputUnlockNotAllowed):

		return db.Error{
			Code: db.ErrLeaseConflict,
			Desc: fmt.Sprintf("output %v", op),
			Err:  err,
		}
	}

	return db.Error{
		Code: db.ErrDatabase,
		Desc: fmt.Sprintf("lease output %v", op),
		Err:  err,
	}
}
