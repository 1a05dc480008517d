// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/btcsuite/coinselect/wallet/internal/db"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testOutPoint returns a unique outpoint for id.
func testOutPoint(id uint32) wire.OutPoint {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)

	return wire.OutPoint{Hash: chainhash.HashH(b[:]), Index: id % 3}
}

// p2wpkhScript returns a p2wpkh script unique for id.
func p2wpkhScript(id uint32) []byte {
	script := make([]byte, 22)
	script[0], script[1] = 0x00, 0x14
	binary.BigEndian.PutUint32(script[2:], id)

	return script
}

// newOutput returns a spendable p2wpkh output of the given value and depth
// received from someone else.
func newOutput(id uint32, value btcutil.Amount,
	depth int32) coinselection.SpendableOutput {

	script := p2wpkhScript(id)

	return coinselection.SpendableOutput{
		Coin: coinselection.NewCoin(
			testOutPoint(id),
			wire.TxOut{Value: int64(value), PkScript: script},
			EstimateInputSize(script),
		),
		Depth:     depth,
		Spendable: true,
	}
}

// testParams returns parameters at 1 sat/vb. A p2wpkh input then costs 69
// sats, the transaction without inputs 42 sats and the change output 31
// sats. The cost of change is 99 sats.
func testParams(t *testing.T) *coinselection.SelectionParams {
	t.Helper()

	params, err := coinselection.NewSelectionParams(
		coinselection.SelectionParamsConfig{
			ChangeOutputSize: 31,
			ChangeSpendSize:  68,
			TxNoInputsSize:   42,
			EffectiveFeeRate: btcunit.SatPerKVByte(1000),
			LongTermFeeRate:  btcunit.SatPerKVByte(1000),
			DiscardFeeRate:   btcunit.SatPerKVByte(3000),
		},
	)
	require.NoError(t, err)

	return params
}

// newTestSelector returns a selector over outputs with the default policy.
func newTestSelector(t *testing.T,
	outputs ...coinselection.SpendableOutput) *CoinSelector {

	t.Helper()

	selector, err := NewCoinSelector(
		DefaultSelectorConfig(StaticCoinSource(outputs)),
	)
	require.NoError(t, err)

	return selector
}

// mockUTXOStore is a mock implementation of the db.UTXOStore interface.
type mockUTXOStore struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockUTXOStore implements
// db.UTXOStore.
var _ db.UTXOStore = (*mockUTXOStore)(nil)

func (m *mockUTXOStore) ListUTXOs(ctx context.Context,
	query db.ListUtxosQuery) ([]db.UtxoInfo, error) {

	args := m.Called(ctx, query)
	utxos, _ := args.Get(0).([]db.UtxoInfo)

	return utxos, args.Error(1)
}

func (m *mockUTXOStore) LeaseOutput(ctx context.Context,
	params db.LeaseOutputParams) (*db.LeasedOutput, error) {

	args := m.Called(ctx, params)
	lease, _ := args.Get(0).(*db.LeasedOutput)

	return lease, args.Error(1)
}

func (m *mockUTXOStore) ReleaseOutput(ctx context.Context,
	params db.ReleaseOutputParams) error {

	args := m.Called(ctx, params)

	return args.Error(0)
}

func (m *mockUTXOStore) ListLeasedOutputs(
	ctx context.Context) ([]db.LeasedOutput, error) {

	args := m.Called(ctx)
	leases, _ := args.Get(0).([]db.LeasedOutput)

	return leases, args.Error(1)
}

// mockRecordWriter is a mock implementation of the RecordWriter interface.
type mockRecordWriter struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockRecordWriter implements
// RecordWriter.
var _ RecordWriter = (*mockRecordWriter)(nil)

func (m *mockRecordWriter) PutSelection(ctx context.Context,
	rec SelectionRecord) error {

	args := m.Called(ctx, rec)

	return args.Error(0)
}

// mockAncestry is a mock implementation of the AncestryOracle interface.
type mockAncestry struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockAncestry implements
// AncestryOracle.
var _ AncestryOracle = (*mockAncestry)(nil)

func (m *mockAncestry) Ancestry(op wire.OutPoint) (uint64, uint64) {
	args := m.Called(op)

	return args.Get(0).(uint64), args.Get(1).(uint64)
}
