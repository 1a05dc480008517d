// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// spendable wraps a coin paying to script into a confirmed, spendable
// output.
func spendable(c Coin, script []byte) SpendableOutput {
	c.PkScript = script

	return SpendableOutput{Coin: c, Depth: 6, Spendable: true}
}

// TestGroupOutputsPerOutput checks that every output forms its own group
// when partial spends are allowed.
func TestGroupOutputsPerOutput(t *testing.T) {
	t.Parallel()

	script := testScript(1)
	outputs := []SpendableOutput{
		spendable(newTestCoin(1, 1_000), script),
		spendable(newTestCoin(2, 2_000), script),
		spendable(newTestCoin(3, 3_000), testScript(2)),
	}
	outputs[1].Spendable = false

	groups, err := GroupOutputs(
		outputs, zeroFeeParams(), EligibilityFilter{ConfTheirs: 1},
		false,
	)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, btcutil.Amount(1_000), groups[0].Value())
	require.Equal(t, btcutil.Amount(3_000), groups[1].Value())
}

// TestGroupOutputsByScript checks outputs to the same script are spent
// together when partial spends are avoided.
func TestGroupOutputsByScript(t *testing.T) {
	t.Parallel()

	params := zeroFeeParams()
	params.AvoidPartialSpends = true

	a, b := testScript(1), testScript(2)
	outputs := []SpendableOutput{
		spendable(newTestCoin(1, 1_000), a),
		spendable(newTestCoin(2, 2_000), b),
		spendable(newTestCoin(3, 3_000), a),
	}

	groups, err := GroupOutputs(
		outputs, params, EligibilityFilter{ConfTheirs: 1}, false,
	)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, btcutil.Amount(4_000), groups[0].Value())
	require.Equal(t, 2, groups[0].Len())
	require.Equal(t, btcutil.Amount(2_000), groups[1].Value())
}

// TestGroupOutputsPartialGroups checks reused scripts are split into groups
// of at most MaxGroupEntries and that the partial group is only used when
// the filter allows it.
func TestGroupOutputsPartialGroups(t *testing.T) {
	t.Parallel()

	params := zeroFeeParams()
	params.AvoidPartialSpends = true

	script := testScript(7)
	var outputs []SpendableOutput
	for i := uint32(0); i < MaxGroupEntries+10; i++ {
		outputs = append(
			outputs, spendable(newTestCoin(i, 1_000), script),
		)
	}

	groups, err := GroupOutputs(
		outputs, params, EligibilityFilter{ConfTheirs: 1}, false,
	)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, MaxGroupEntries, groups[0].Len())

	groups, err = GroupOutputs(
		outputs, params, EligibilityFilter{
			ConfTheirs: 1, IncludePartialGroups: true,
		}, false,
	)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// The partial group comes first.
	require.Equal(t, 10, groups[0].Len())
	require.Equal(t, MaxGroupEntries, groups[1].Len())

	// A single partial group is always usable.
	groups, err = GroupOutputs(
		outputs[:10], params, EligibilityFilter{ConfTheirs: 1}, false,
	)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, 10, groups[0].Len())
}

// TestGroupOutputsFilters checks ineligible and uneconomical groups are
// dropped.
func TestGroupOutputsFilters(t *testing.T) {
	t.Parallel()

	params := feeParams(t, 10_000, 1_000)

	unconfirmed := spendable(newSizedCoin(1, 50_000), testScript(1))
	unconfirmed.Depth = 0

	dust := spendable(newSizedCoin(2, 500), testScript(2))
	fine := spendable(newSizedCoin(3, 50_000), testScript(3))

	outputs := []SpendableOutput{unconfirmed, dust, fine}
	filter := EligibilityFilter{ConfMine: 1, ConfTheirs: 1}

	groups, err := GroupOutputs(outputs, params, filter, true)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, fine.OutPoint, groups[0].Coins()[0].OutPoint)

	groups, err = GroupOutputs(outputs, params, filter, false)
	require.NoError(t, err)
	require.Len(t, groups, 2)
}

// TestGroupOutputsInvalidParams checks the parameters are validated.
func TestGroupOutputsInvalidParams(t *testing.T) {
	t.Parallel()

	_, err := GroupOutputs(nil, nil, EligibilityFilter{}, false)
	require.ErrorIs(t, err, ErrNilParams)

	_, err = GroupOutputs(
		nil, &SelectionParams{EffectiveFeeRate: -1},
		EligibilityFilter{}, false,
	)
	require.ErrorIs(t, err, ErrInvalidFeeRate)
}
