package kvdb

import (
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/coinselect/wallet/internal/db"
)

// Store is the kvdb (walletdb) implementation of the db.Store interface.
type Store struct {
	*UTXOStore
	*SelectionStore
}

// A compile-time check to ensure that Store implements the db.Store
// interface.
var _ db.Store = (*Store)(nil)

// NewStore creates a kvdb-backed store reading UTXOs through txStore and
// keeping selection records in the same database.
func NewStore(dbConn walletdb.DB, txStore TxStore) (*Store, error) {
	selections, err := NewSelectionStore(dbConn)
	if err != nil {
		return nil, err
	}

	return &Store{
		UTXOStore:      NewUTXOStore(dbConn, txStore),
		SelectionStore: selections,
	}, nil
}
