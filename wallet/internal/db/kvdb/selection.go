package kvdb

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/coinselect/wallet/internal/db"
)

var (
	// selectionNamespaceKey is the top-level bucket holding the selection
	// records, keyed by record ID.
	selectionNamespaceKey = []byte("coinselect")
)

// SelectionStore is the kvdb (walletdb) implementation of the
// db.SelectionStore interface. Records are stored as TLV streams.
type SelectionStore struct {
	db walletdb.DB
}

// A compile-time assertion to ensure that SelectionStore implements the
// db.SelectionStore interface.
var _ db.SelectionStore = (*SelectionStore)(nil)

// NewSelectionStore creates a kvdb-backed selection store, creating its
// bucket if needed.
func NewSelectionStore(dbConn walletdb.DB) (*SelectionStore, error) {
	if dbConn == nil {
		return nil, db.ErrNilDB
	}

	err := walletdb.Update(dbConn, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(selectionNamespaceKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create selection bucket: %w", err)
	}

	return &SelectionStore{db: dbConn}, nil
}

// PutSelection stores a finalized selection.
func (s *SelectionStore) PutSelection(ctx context.Context,
	rec db.SelectionRecord) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	err := db.ValidateRecord(&rec)
	if err != nil {
		return err
	}

	value, err := db.EncodeSelectionRecord(&rec)
	if err != nil {
		return err
	}

	return walletdb.Update(s.db, func(tx walletdb.ReadWriteTx) error {
		bucket := tx.ReadWriteBucket(selectionNamespaceKey)
		if bucket.Get(rec.ID[:]) != nil {
			return db.Error{
				Code: db.ErrRecordExists,
				Desc: fmt.Sprintf("selection %v", rec.ID),
			}
		}

		return bucket.Put(rec.ID[:], value)
	})
}

// GetSelection returns the record with the given ID.
func (s *SelectionStore) GetSelection(ctx context.Context,
	id chainhash.Hash) (*db.SelectionRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *db.SelectionRecord
	err := walletdb.View(s.db, func(tx walletdb.ReadTx) error {
		value := tx.ReadBucket(selectionNamespaceKey).Get(id[:])
		if value == nil {
			return db.Error{
				Code: db.ErrSelectionNotFound,
				Desc: fmt.Sprintf("selection %v", id),
			}
		}

		var err error
		rec, err = db.DecodeSelectionRecord(value)

		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListSelections returns the stored records, newest first.
func (s *SelectionStore) ListSelections(ctx context.Context,
	query db.ListSelectionsQuery) ([]db.SelectionRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []db.SelectionRecord
	err := walletdb.View(s.db, func(tx walletdb.ReadTx) error {
		bucket := tx.ReadBucket(selectionNamespaceKey)

		return bucket.ForEach(func(_, v []byte) error {
			rec, err := db.DecodeSelectionRecord(v)
			if err != nil {
				return err
			}

			records = append(records, *rec)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		ti, tj := records[i].CreatedAt, records[j].CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}

		return bytes.Compare(records[i].ID[:], records[j].ID[:]) < 0
	})

	if query.Limit > 0 && len(records) > query.Limit {
		records = records[:query.Limit]
	}

	return records, nil
}
