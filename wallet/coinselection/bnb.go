// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"
	"math"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
)

// DefaultBnBMaxTries is the default number of nodes branch-and-bound visits
// before giving up.
const DefaultBnBMaxTries = 100_000

// BranchAndBound searches for a changeless selection.
//
// The search is a depth-first walk over the binary inclusion tree of the
// groups sorted by selection amount, largest first. A branch is cut as soon
// as it overshoots target+costOfChange or can no longer reach target with
// what is left. Every subset landing in [target, target+costOfChange] is
// scored by waste, an overshoot also paying the cost of change. The lowest
// scoring one wins and the earliest found wins ties.
type BranchAndBound struct {
	// MaxTries bounds the number of tree nodes visited. Zero or less
	// means DefaultBnBMaxTries.
	MaxTries int
}

// SelectCoinsBnB runs branch-and-bound with the default budget.
func SelectCoinsBnB(pool []OutputGroup, target,
	costOfChange btcutil.Amount) (*SelectionResult, error) {

	return BranchAndBound{}.Select(pool, target, costOfChange)
}

// Select returns the best changeless selection out of pool, or
// ErrNoExactMatch when none was found within the budget. The pool is not
// modified.
func (b BranchAndBound) Select(pool []OutputGroup, target,
	costOfChange btcutil.Amount) (*SelectionResult, error) {

	if target <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	}
	if costOfChange < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCostOfChange,
			costOfChange)
	}

	order := sortBySelectionAmount(pool)
	search := b.search(pool, order, target, costOfChange)

	if search.best == nil {
		log.Debugf("Branch and bound found no selection for target %v "+
			"within %v after %d tries", target, costOfChange,
			search.tries)

		return nil, fmt.Errorf("%w: target %v, cost of change %v",
			ErrNoExactMatch, target, costOfChange)
	}

	result := NewSelectionResult(
		target, costOfChange, pool[order[0]].SubtractFeeOutputs(),
	)
	for i, included := range search.best {
		if !included {
			continue
		}

		if err := result.AddInput(pool[order[i]]); err != nil {
			return nil, err
		}
	}

	result.algorithm = AlgoBnB
	result.makeChange = result.selectionSum() > target

	log.Debugf("Branch and bound selected %d inputs for target %v with "+
		"waste %v after %d tries", result.Len(), target,
		search.bestWaste, search.tries)

	return result, nil
}

// bnbSearch is the outcome of a branch-and-bound traversal.
type bnbSearch struct {
	// best holds the inclusion decision of the winning subset for each
	// position of the traversal order, nil if none was found.
	best []bool

	bestWaste btcutil.Amount

	// tries is the number of tree nodes visited.
	tries int
}

// search walks the inclusion tree of the groups in order. A subset landing
// above target is scored with the cost of change, since returning its
// excess needs a change output.
func (b BranchAndBound) search(pool []OutputGroup, order []int, target,
	costOfChange btcutil.Amount) bnbSearch {

	maxTries := b.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultBnBMaxTries
	}

	amount := func(i int) btcutil.Amount {
		return pool[order[i]].SelectionAmount()
	}

	// Waste only grows going down the tree when no input is cheaper now
	// than in the long term. That allows cutting any branch already worse
	// than the best selection.
	var available btcutil.Amount
	wasteMonotone := true
	for _, idx := range order {
		g := pool[idx]
		available += g.SelectionAmount()
		if g.Fee() < g.LongTermFee() {
			wasteMonotone = false
		}
	}

	out := bnbSearch{bestWaste: math.MaxInt64}
	if available < target {
		return out
	}

	var (
		currValue btcutil.Amount
		currWaste btcutil.Amount

		// selection holds the inclusion decision for every group up
		// to the current depth.
		selection []bool
	)

	for ; out.tries < maxTries; out.tries++ {
		backtrack := false

		switch {
		case currValue+available < target,
			currValue > target+costOfChange:

			backtrack = true

		case wasteMonotone && currWaste > out.bestWaste:
			backtrack = true

		case currValue >= target:
			waste := currWaste + (currValue - target)
			if currValue > target {
				waste += costOfChange
			}
			if waste < out.bestWaste {
				out.best = append(out.best[:0], selection...)
				out.bestWaste = waste
			}

			backtrack = true
		}

		if backtrack {
			if wasteMonotone && out.best != nil &&
				out.bestWaste == 0 {

				break
			}

			// Walk back to the last included group, whose
			// exclusion branch is still unexplored.
			for len(selection) > 0 && !selection[len(selection)-1] {
				selection = selection[:len(selection)-1]
				available += amount(len(selection))
			}
			if len(selection) == 0 {
				break
			}

			last := len(selection) - 1
			selection[last] = false
			g := pool[order[last]]
			currValue -= g.SelectionAmount()
			currWaste -= g.Fee() - g.LongTermFee()

			continue
		}

		depth := len(selection)
		g := pool[order[depth]]
		available -= g.SelectionAmount()

		// Including a group identical to an excluded predecessor
		// leads to a subtree that was already searched.
		if depth > 0 && !selection[depth-1] {
			prev := pool[order[depth-1]]
			if g.SelectionAmount() == prev.SelectionAmount() &&
				g.Fee() == prev.Fee() {

				selection = append(selection, false)
				continue
			}
		}

		selection = append(selection, true)
		currValue += g.SelectionAmount()
		currWaste += g.Fee() - g.LongTermFee()
	}

	return out
}

// sortBySelectionAmount returns the indices of the groups with a positive
// selection amount, ordered by amount descending. Equal amounts are ordered
// by the outpoint of their first coin so the traversal does not depend on
// the order of the pool.
func sortBySelectionAmount(pool []OutputGroup) []int {
	order := make([]int, 0, len(pool))
	for i, g := range pool {
		if g.Len() == 0 || g.SelectionAmount() <= 0 {
			continue
		}

		order = append(order, i)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := pool[order[i]], pool[order[j]]
		if a.SelectionAmount() != b.SelectionAmount() {
			return a.SelectionAmount() > b.SelectionAmount()
		}

		return Less(a.coins[0].OutPoint, b.coins[0].OutPoint)
	})

	return order
}
