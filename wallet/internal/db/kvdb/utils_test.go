package kvdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	"github.com/btcsuite/btcwallet/wtxmgr"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const defaultDBTimeout = 10 * time.Second

// newTestDB creates a temporary bdb walletdb for kvdb store tests. The
// database is closed when the test finishes.
func newTestDB(t *testing.T) walletdb.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "wallet.db")

	dbConn, err := walletdb.Create(
		"bdb", dbPath, true, defaultDBTimeout, false,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = dbConn.Close()
	})

	return dbConn
}

// newTestDBWithNamespace creates a test database holding an empty
// transaction manager bucket.
func newTestDBWithNamespace(t *testing.T) walletdb.DB {
	t.Helper()

	dbConn := newTestDB(t)
	err := walletdb.Update(dbConn, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(wtxmgrNamespaceKey)
		return err
	})
	require.NoError(t, err)

	return dbConn
}

// mockTxStore is a mock implementation of the TxStore interface.
type mockTxStore struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockTxStore implements TxStore.
var _ TxStore = (*mockTxStore)(nil)

func (m *mockTxStore) UnspentOutputs(
	ns walletdb.ReadBucket) ([]wtxmgr.Credit, error) {

	args := m.Called(ns)
	credits, _ := args.Get(0).([]wtxmgr.Credit)

	return credits, args.Error(1)
}

func (m *mockTxStore) LockOutput(ns walletdb.ReadWriteBucket,
	id wtxmgr.LockID, op wire.OutPoint,
	duration time.Duration) (time.Time, error) {

	args := m.Called(ns, id, op, duration)
	expiry, _ := args.Get(0).(time.Time)

	return expiry, args.Error(1)
}

func (m *mockTxStore) UnlockOutput(ns walletdb.ReadWriteBucket,
	id wtxmgr.LockID, op wire.OutPoint) error {

	args := m.Called(ns, id, op)

	return args.Error(0)
}

func (m *mockTxStore) ListLockedOutputs(
	ns walletdb.ReadBucket) ([]*wtxmgr.LockedOutput, error) {

	args := m.Called(ns)
	locked, _ := args.Get(0).([]*wtxmgr.LockedOutput)

	return locked, args.Error(1)
}
