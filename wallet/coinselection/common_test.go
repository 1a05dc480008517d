// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// p2wpkhInputSize is the vsize of a signed p2wpkh input.
const p2wpkhInputSize = btcunit.VByte(68)

// testOutPoint returns a unique outpoint for id.
func testOutPoint(id uint32) wire.OutPoint {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)

	return wire.OutPoint{Hash: chainhash.HashH(b[:]), Index: id % 4}
}

// testScript returns a p2wpkh-shaped script unique for id.
func testScript(id uint32) []byte {
	script := make([]byte, 22)
	script[0], script[1] = 0x00, 0x14
	binary.BigEndian.PutUint32(script[2:], id)

	return script
}

// newTestCoin returns a coin of the given value with an unknown input size,
// so it is free to spend.
func newTestCoin(id uint32, value btcutil.Amount) Coin {
	return NewCoin(
		testOutPoint(id),
		wire.TxOut{Value: int64(value), PkScript: testScript(id)},
		fn.None[btcunit.VByte](),
	)
}

// newSizedCoin returns a coin spent through a p2wpkh input.
func newSizedCoin(id uint32, value btcutil.Amount) Coin {
	return NewCoin(
		testOutPoint(id),
		wire.TxOut{Value: int64(value), PkScript: testScript(id)},
		fn.Some(p2wpkhInputSize),
	)
}

// zeroFeeParams returns parameters under which every coin is worth its
// nominal value.
func zeroFeeParams() *SelectionParams {
	return &SelectionParams{}
}

// feeParams returns parameters with the given effective and long term fee
// rates.
func feeParams(t *testing.T, effective,
	longTerm btcunit.SatPerKVByte) *SelectionParams {

	t.Helper()

	params, err := NewSelectionParams(SelectionParamsConfig{
		ChangeOutputSize: 31,
		ChangeSpendSize:  68,
		TxNoInputsSize:   42,
		EffectiveFeeRate: effective,
		LongTermFeeRate:  longTerm,
		DiscardFeeRate:   3000,
	})
	require.NoError(t, err)

	return params
}

// newBuilder returns a group builder for params.
func newBuilder(t *testing.T, params *SelectionParams) *OutputGroupBuilder {
	t.Helper()

	b, err := NewOutputGroupBuilder(params)
	require.NoError(t, err)

	return b
}

// singleGroups returns one confirmed group per coin.
func singleGroups(t *testing.T, params *SelectionParams,
	coins ...Coin) []OutputGroup {

	t.Helper()

	groups := make([]OutputGroup, 0, len(coins))
	for _, c := range coins {
		b, err := NewOutputGroupBuilder(params)
		require.NoError(t, err)

		_, err = b.Insert(c, 6, false, 0, 0, false)
		require.NoError(t, err)

		groups = append(groups, b.Build())
	}

	return groups
}

// valueGroups returns zero fee groups, one per value.
func valueGroups(t *testing.T, values ...btcutil.Amount) []OutputGroup {
	t.Helper()

	coins := make([]Coin, len(values))
	for i, v := range values {
		coins[i] = newTestCoin(uint32(i), v)
	}

	return singleGroups(t, zeroFeeParams(), coins...)
}

// selectedValues returns the nominal values of the selected coins sorted
// ascending.
func selectedValues(r *SelectionResult) []btcutil.Amount {
	return r.sortedValues()
}
