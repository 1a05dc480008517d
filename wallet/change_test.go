// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/stretchr/testify/require"
)

// newTestResult returns a selection of p2wpkh outputs of the given values.
func newTestResult(t *testing.T, params *coinselection.SelectionParams,
	target btcutil.Amount,
	values ...btcutil.Amount) *coinselection.SelectionResult {

	t.Helper()

	result := coinselection.NewSelectionResult(
		target, params.CostOfChange, params.SubtractFeeOutputs,
	)
	for i, value := range values {
		out := newOutput(uint32(i), value, 6)

		b, err := coinselection.NewOutputGroupBuilder(params)
		require.NoError(t, err)

		_, err = b.Insert(out.Coin, out.Depth, false, 0, 0, false)
		require.NoError(t, err)
		require.NoError(t, result.AddInput(b.Build()))
	}

	return result
}

// TestSettleChange checks how the excess of a selection is split between
// fee and change.
func TestSettleChange(t *testing.T) {
	t.Parallel()

	params := testParams(t)
	sfo := *testParams(t)
	sfo.SubtractFeeOutputs = true

	testCases := []struct {
		name      string
		params    *coinselection.SelectionParams
		value     btcutil.Amount
		minChange btcutil.Amount
		fee       btcutil.Amount
		change    btcutil.Amount
		waste     btcutil.Amount
	}{
		{
			// 80_000 - 60_000 - (42 + 69 + 31).
			name:   "change kept",
			params: params,
			value:  80_000,
			fee:    142,
			change: 19_858,
			waste:  99,
		},
		{
			// 258 sats of change is dust at 3 sat/vb.
			name:   "dust change dropped",
			params: params,
			value:  60_400,
			fee:    400,
			waste:  289,
		},
		{
			name:      "change below the minimum dropped",
			params:    params,
			value:     65_000,
			minChange: 10_000,
			fee:       5_000,
			waste:     4_889,
		},
		{
			name:   "recipients pay the fee",
			params: &sfo,
			value:  80_000,
			fee:    142,
			change: 20_000,
			waste:  99,
		},
		{
			name:   "recipients pay the fee and dust dropped",
			params: &sfo,
			value:  60_500,
			fee:    611,
			waste:  500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange.
			const target = 60_000
			result := newTestResult(t, tc.params, target, tc.value)

			// Act.
			out := settleChange(result, target, tc.params, tc.minChange)

			// Assert.
			require.Equal(t, tc.fee, out.fee)
			require.Equal(t, tc.change, out.change)
			require.Equal(t, tc.change == 0, out.dropped)
			require.Equal(t, tc.waste, out.waste)
		})
	}
}

// TestMinFinalChange checks the legacy change floors.
func TestMinFinalChange(t *testing.T) {
	t.Parallel()

	require.Equal(t, btcutil.Amount(1_000_000), MinChange)
	require.Equal(t, btcutil.Amount(500_000), MinFinalChange)
}
