// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
)

// DefaultKnapsackIterations is the default number of randomized passes of
// the knapsack solver.
const DefaultKnapsackIterations = 1000

// Knapsack is an approximate subset-sum solver used when branch-and-bound
// finds no changeless selection. It is not safe for concurrent use since it
// owns its random source.
type Knapsack struct {
	// Iterations is the number of randomized passes. Zero or less means
	// DefaultKnapsackIterations.
	Iterations int

	// Rand drives the shuffling and the random inclusion decisions. A nil
	// Rand behaves like one seeded with zero.
	Rand *rand.Rand

	// ChangeCost is recorded on the results as their cost of change.
	ChangeCost btcutil.Amount
}

// NewKnapsack returns a solver with the default pass count, seeded with
// seed.
func NewKnapsack(seed int64) *Knapsack {
	return &Knapsack{
		Iterations: DefaultKnapsackIterations,
		Rand:       rand.New(rand.NewSource(seed)), //nolint:gosec
	}
}

// KnapsackSolver selects coins out of groups worth at least target. It
// returns the selected coins and their selection value.
func KnapsackSolver(target btcutil.Amount, groups []OutputGroup,
	rng *rand.Rand) ([]Coin, btcutil.Amount, error) {

	k := &Knapsack{Iterations: DefaultKnapsackIterations, Rand: rng}
	result, err := k.Select(target, groups)
	if err != nil {
		return nil, 0, err
	}

	return result.Inputs(), result.selectionSum(), nil
}

// Select returns a selection out of groups worth at least target, or
// ErrInsufficientFunds when all of them together fall short. The groups are
// not modified.
func (k *Knapsack) Select(target btcutil.Amount,
	groups []OutputGroup) (*SelectionResult, error) {

	if target <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	}

	iterations := k.Iterations
	if iterations <= 0 {
		iterations = DefaultKnapsackIterations
	}

	rng := k.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(0)) //nolint:gosec
	}

	shuffled := make([]OutputGroup, 0, len(groups))
	for _, g := range groups {
		// A group worth nothing can not help reaching the target.
		if g.Len() == 0 || g.SelectionAmount() <= 0 {
			continue
		}

		shuffled = append(shuffled, g)
	}
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var (
		small        []OutputGroup
		smallTotal   btcutil.Amount
		lowestLarger *OutputGroup
	)
	for i := range shuffled {
		g := &shuffled[i]

		switch amount := g.SelectionAmount(); {
		case amount == target:
			log.Debugf("Knapsack found an exact match for %v", target)

			return k.result(target, []OutputGroup{*g})

		case amount < target:
			small = append(small, *g)
			smallTotal += amount

		case lowestLarger == nil ||
			amount < lowestLarger.SelectionAmount() ||
			(amount == lowestLarger.SelectionAmount() &&
				g.Len() < lowestLarger.Len()):

			lowestLarger = g
		}
	}

	if smallTotal == target {
		return k.result(target, small)
	}

	if smallTotal < target {
		if lowestLarger == nil {
			return nil, fmt.Errorf("%w: have %v, need %v",
				ErrInsufficientFunds, smallTotal, target)
		}

		return k.result(target, []OutputGroup{*lowestLarger})
	}

	sort.SliceStable(small, func(i, j int) bool {
		return small[i].SelectionAmount() > small[j].SelectionAmount()
	})

	included, bestTotal := approximateBestSubset(
		rng, small, smallTotal, target, iterations,
	)
	bestTotal = pruneSubset(small, included, bestTotal, target)

	if lowestLarger != nil &&
		lowestLarger.SelectionAmount() <= bestTotal {

		log.Debugf("Knapsack prefers single group of %v over subset "+
			"of %v", lowestLarger.SelectionAmount(), bestTotal)

		return k.result(target, []OutputGroup{*lowestLarger})
	}

	chosen := make([]OutputGroup, 0, len(small))
	for i, in := range included {
		if in {
			chosen = append(chosen, small[i])
		}
	}

	return k.result(target, chosen)
}

// approximateBestSubset looks for the subset of groups with the smallest
// total not below target. Each pass first includes groups at random, then
// the ones left out, recording the total every time it reaches the target
// and stepping back to keep looking for a closer one. Among equal totals
// the subset with fewer coins wins.
func approximateBestSubset(rng *rand.Rand, groups []OutputGroup,
	total, target btcutil.Amount, iterations int) ([]bool,
	btcutil.Amount) {

	best := make([]bool, len(groups))
	for i := range best {
		best[i] = true
	}
	bestTotal := total
	bestCoins := countCoins(groups, best)

	included := make([]bool, len(groups))
	for rep := 0; rep < iterations && bestTotal != target; rep++ {
		clear(included)

		var (
			sum     btcutil.Amount
			coins   int
			reached bool
		)
		for pass := 0; pass < 2 && !reached; pass++ {
			for i := range groups {
				var take bool
				if pass == 0 {
					take = rng.Intn(2) == 0
				} else {
					take = !included[i]
				}
				if !take {
					continue
				}

				amount := groups[i].SelectionAmount()
				sum += amount
				coins += groups[i].Len()
				included[i] = true

				if sum < target {
					continue
				}

				reached = true
				if sum < bestTotal ||
					(sum == bestTotal && coins < bestCoins) {

					bestTotal = sum
					bestCoins = coins
					copy(best, included)
				}

				sum -= amount
				coins -= groups[i].Len()
				included[i] = false
			}
		}
	}

	return best, bestTotal
}

// pruneSubset drops the largest members of the subset whose removal keeps
// the total at or above target. The groups must be sorted by amount
// descending. It returns the new total.
func pruneSubset(groups []OutputGroup, included []bool,
	total, target btcutil.Amount) btcutil.Amount {

	for i := range groups {
		if !included[i] {
			continue
		}

		amount := groups[i].SelectionAmount()
		if total-amount >= target {
			included[i] = false
			total -= amount
		}
	}

	return total
}

func countCoins(groups []OutputGroup, included []bool) int {
	var n int
	for i, g := range groups {
		if included[i] {
			n += g.Len()
		}
	}

	return n
}

// result assembles the selection of the given groups.
func (k *Knapsack) result(target btcutil.Amount,
	groups []OutputGroup) (*SelectionResult, error) {

	result := NewSelectionResult(
		target, k.ChangeCost, groups[0].SubtractFeeOutputs(),
	)
	for _, g := range groups {
		if err := result.AddInput(g); err != nil {
			return nil, err
		}
	}

	result.algorithm = AlgoKnapsack
	result.makeChange = result.selectionSum() > target

	return result, nil
}
