// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestBnBScenarios runs branch-and-bound over small pools with known
// answers.
func TestBnBScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		values       []btcutil.Amount
		target       btcutil.Amount
		costOfChange btcutil.Amount
		expected     []btcutil.Amount
		makeChange   bool
		err          error
	}{
		{
			name:     "two largest match exactly",
			values:   []btcutil.Amount{100, 50, 30, 20},
			target:   150,
			expected: []btcutil.Amount{50, 100},
		},
		{
			name:         "nothing in window",
			values:       []btcutil.Amount{40, 40, 40},
			target:       100,
			costOfChange: 10,
			err:          ErrNoExactMatch,
		},
		{
			name:     "exact match deep in the tree",
			values:   []btcutil.Amount{64, 32, 16, 8, 4, 2, 1},
			target:   21,
			expected: []btcutil.Amount{1, 4, 16},
		},
		{
			name:         "window allows an overshoot",
			values:       []btcutil.Amount{60, 45, 25},
			target:       100,
			costOfChange: 10,
			expected:     []btcutil.Amount{45, 60},
			makeChange:   true,
		},
		{
			name:         "lowest waste in window wins",
			values:       []btcutil.Amount{108, 103, 101},
			target:       100,
			costOfChange: 10,
			expected:     []btcutil.Amount{101},
			makeChange:   true,
		},
		{
			name:     "equal waste keeps the earliest found",
			values:   []btcutil.Amount{60, 50, 50, 40},
			target:   100,
			expected: []btcutil.Amount{40, 60},
		},
		{
			name:   "not enough value",
			values: []btcutil.Amount{10, 20},
			target: 100,
			err:    ErrNoExactMatch,
		},
		{
			name:   "empty pool",
			target: 1,
			err:    ErrNoExactMatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pool := valueGroups(t, tc.values...)
			result, err := SelectCoinsBnB(
				pool, tc.target, tc.costOfChange,
			)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				require.Nil(t, result)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, selectedValues(result))
			require.Equal(t, tc.makeChange, result.MakeChange())
			require.Equal(t, AlgoBnB, result.Algorithm())
			require.Equal(t, tc.target, result.Target())
			require.Equal(t, tc.costOfChange, result.ChangeCost())
		})
	}
}

// TestBnBInvalidInput checks preconditions are enforced before searching.
func TestBnBInvalidInput(t *testing.T) {
	t.Parallel()

	pool := valueGroups(t, 10, 20)

	_, err := SelectCoinsBnB(pool, 0, 0)
	require.ErrorIs(t, err, ErrInvalidTarget)

	_, err = SelectCoinsBnB(pool, -5, 0)
	require.ErrorIs(t, err, ErrInvalidTarget)

	_, err = SelectCoinsBnB(pool, 10, -1)
	require.ErrorIs(t, err, ErrInvalidCostOfChange)
}

// TestBnBPoolUntouched checks the pool order is left as given.
func TestBnBPoolUntouched(t *testing.T) {
	t.Parallel()

	pool := valueGroups(t, 1, 5, 3, 9, 2)
	before := make([]btcutil.Amount, len(pool))
	for i, g := range pool {
		before[i] = g.Value()
	}

	_, err := SelectCoinsBnB(pool, 11, 0)
	require.NoError(t, err)

	for i, g := range pool {
		require.Equal(t, before[i], g.Value())
	}
}

// TestBnBBudget checks the search gives up once the budget is used.
func TestBnBBudget(t *testing.T) {
	t.Parallel()

	// Even values can never sum to an odd target, so the whole tree has
	// to be searched.
	values := make([]btcutil.Amount, 40)
	for i := range values {
		values[i] = btcutil.Amount(2 * (i + 1))
	}
	pool := valueGroups(t, values...)

	_, err := BranchAndBound{MaxTries: 1_000}.Select(pool, 301, 0)
	require.ErrorIs(t, err, ErrNoExactMatch)
}

// TestBnBPrefersEfficientInputs checks that with equal values the inputs
// cheaper to spend now than later are preferred.
func TestBnBPrefersEfficientInputs(t *testing.T) {
	t.Parallel()

	// At a rate below the long term rate, sized inputs reduce waste.
	params := feeParams(t, 1_000, 10_000)
	sized := singleGroups(t, params, newSizedCoin(1, 10_068))
	free := singleGroups(t, params, newTestCoin(2, 10_000))

	pool := append(free, sized...)
	result, err := SelectCoinsBnB(pool, 10_000, 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	require.Equal(t, sized[0].Coins()[0].OutPoint, result.OutPoints()[0])
	require.Equal(t, btcutil.Amount(68-680), result.Waste())
}

// TestBnBCountsChangeCost checks an overshoot is scored with the cost of the
// change output it needs, so an exact match paying more timing waste still
// wins.
func TestBnBCountsChangeCost(t *testing.T) {
	t.Parallel()

	// Arrange: At 10 sat/vB the sized coin is worth exactly 10_000 and
	// pays 680 - 68 = 612 over its long term fee. The free coin
	// overshoots by 5.
	params := feeParams(t, 10_000, 1_000)
	exact := singleGroups(t, params, newSizedCoin(1, 10_680))
	over := singleGroups(t, params, newTestCoin(2, 10_005))
	pool := append(over, exact...)

	// Act.
	result, err := SelectCoinsBnB(pool, 10_000, 1_000)

	// Assert: 612 beats 5 + 1_000.
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	require.Equal(t, exact[0].Coins()[0].OutPoint, result.OutPoints()[0])
	require.False(t, result.MakeChange())
	require.Equal(t, btcutil.Amount(612), result.Waste())
}

// TestBnBTieWithoutPruning checks the earliest of two equally wasteful
// selections is kept when cheap inputs turn waste pruning off.
func TestBnBTieWithoutPruning(t *testing.T) {
	t.Parallel()

	// Arrange: Every input saves 612 sats, so {60, 40} and {55, 45}
	// both score -1224.
	params := feeParams(t, 1_000, 10_000)
	pool := singleGroups(t, params,
		newSizedCoin(1, 128), newSizedCoin(2, 123),
		newSizedCoin(3, 113), newSizedCoin(4, 108),
	)

	// Act.
	result, err := SelectCoinsBnB(pool, 100, 0)

	// Assert.
	require.NoError(t, err)
	require.Equal(t, []btcutil.Amount{108, 128}, selectedValues(result))
	require.Equal(t, btcutil.Amount(-1224), result.Waste())
}

// TestBnBSkipsEquivalentSiblings checks that groups equal to an excluded
// predecessor are not branched on again.
func TestBnBSkipsEquivalentSiblings(t *testing.T) {
	t.Parallel()

	// Arrange: Twenty coins of 2 can never sum to 21. Searching every
	// subset of at most ten of them would exhaust the default budget.
	values := make([]btcutil.Amount, 20)
	for i := range values {
		values[i] = 2
	}
	pool := valueGroups(t, values...)
	order := sortBySelectionAmount(pool)

	// Act.
	search := BranchAndBound{}.search(pool, order, 21, 0)

	// Assert: The tree is exhausted after visiting each count of
	// included coins once.
	require.Nil(t, search.best)
	require.Equal(t, 121, search.tries)
}

// TestBnBProperties checks, over random pools, that every selection lies in
// the target window and that an exact subset is always found when the
// window is closed.
func TestBnBProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(12)
		values := make([]btcutil.Amount, n)
		for i := range values {
			values[i] = btcutil.Amount(1 + rng.Intn(1_000))
		}
		pool := valueGroups(t, values...)

		// A random subset gives a target that is known to be
		// reachable exactly.
		var exact btcutil.Amount
		for _, v := range values {
			if rng.Intn(2) == 0 {
				exact += v
			}
		}
		if exact == 0 {
			exact = values[0]
		}

		result, err := SelectCoinsBnB(pool, exact, 0)
		require.NoError(t, err, "values=%v target=%v", values, exact)
		require.Equal(t, exact, result.SelectedValue())
		require.False(t, result.MakeChange())
		require.Zero(t, result.Waste())

		target := btcutil.Amount(1 + rng.Intn(3_000))
		costOfChange := btcutil.Amount(rng.Intn(50))
		result, err = SelectCoinsBnB(pool, target, costOfChange)
		if err != nil {
			require.ErrorIs(t, err, ErrNoExactMatch)
			continue
		}

		sum := result.SelectedValue()
		require.GreaterOrEqual(t, sum, target)
		require.LessOrEqual(t, sum, target+costOfChange)
	}
}
