// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Algorithm identifies the selector that produced a result.
type Algorithm uint8

const (
	// AlgoUnknown marks a result no selector has claimed yet.
	AlgoUnknown Algorithm = iota

	// AlgoBnB marks a result found by branch-and-bound.
	AlgoBnB

	// AlgoKnapsack marks a result found by the knapsack solver.
	AlgoKnapsack
)

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgoUnknown:
		return "unknown"
	case AlgoBnB:
		return "bnb"
	case AlgoKnapsack:
		return "knapsack"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// SelectionResult is the outcome of one selection attempt.
type SelectionResult struct {
	inputs map[wire.OutPoint]Coin

	inputFees btcutil.Amount

	// useRealValue compares the selection by nominal value.
	useRealValue bool

	// makeChange is set when the selection needs a change output to
	// return its excess.
	makeChange bool

	// changeCost is the cost of change of the attempt.
	changeCost btcutil.Amount

	// target is the amount sought.
	target btcutil.Amount

	algorithm Algorithm
}

// NewSelectionResult creates an empty result for an attempt to fund target.
func NewSelectionResult(target, changeCost btcutil.Amount,
	useRealValue bool) *SelectionResult {

	return &SelectionResult{
		inputs:       make(map[wire.OutPoint]Coin),
		target:       target,
		changeCost:   changeCost,
		useRealValue: useRealValue,
	}
}

// AddInput adds every coin of group to the selection. If any of them is
// already selected nothing is added and an ErrInternalInconsistency is
// returned.
func (r *SelectionResult) AddInput(group OutputGroup) error {
	for _, c := range group.coins {
		if _, ok := r.inputs[c.OutPoint]; ok {
			return fmt.Errorf("%w: %w: %v", ErrInternalInconsistency,
				ErrDuplicateInput, c.OutPoint)
		}
	}

	for _, c := range group.coins {
		r.inputs[c.OutPoint] = c
	}
	r.inputFees += group.fee

	return nil
}

// Inputs returns the selected coins ordered by outpoint.
func (r *SelectionResult) Inputs() []Coin {
	coins := make([]Coin, 0, len(r.inputs))
	for _, c := range r.inputs {
		coins = append(coins, c)
	}
	SortCoins(coins)

	return coins
}

// OutPoints returns the selected outpoints in order.
func (r *SelectionResult) OutPoints() []wire.OutPoint {
	coins := r.Inputs()
	ops := make([]wire.OutPoint, len(coins))
	for i, c := range coins {
		ops[i] = c.OutPoint
	}

	return ops
}

// Len returns the number of selected coins.
func (r *SelectionResult) Len() int {
	return len(r.inputs)
}

// SelectedValue returns the nominal value of the selected coins.
func (r *SelectionResult) SelectedValue() btcutil.Amount {
	var total btcutil.Amount
	for _, c := range r.inputs {
		total += c.Value()
	}

	return total
}

// SelectedEffectiveValue returns the effective value of the selected coins.
func (r *SelectionResult) SelectedEffectiveValue() btcutil.Amount {
	var total btcutil.Amount
	for _, c := range r.inputs {
		total += c.EffectiveValue()
	}

	return total
}

// InputFees returns the fees paid for the selected inputs at the effective
// fee rate.
func (r *SelectionResult) InputFees() btcutil.Amount {
	return r.inputFees
}

// Target returns the amount the selection was made for.
func (r *SelectionResult) Target() btcutil.Amount {
	return r.target
}

// ChangeCost returns the cost of change of the attempt.
func (r *SelectionResult) ChangeCost() btcutil.Amount {
	return r.changeCost
}

// MakeChange returns true if the selection returns its excess through a
// change output.
func (r *SelectionResult) MakeChange() bool {
	return r.makeChange
}

// UseRealValue returns true if the selection is valued nominally.
func (r *SelectionResult) UseRealValue() bool {
	return r.useRealValue
}

// Algorithm returns the selector that produced the result.
func (r *SelectionResult) Algorithm() Algorithm {
	return r.algorithm
}

// Waste returns the waste of the selection. The cost of change only counts
// when a change output is made.
func (r *SelectionResult) Waste() btcutil.Amount {
	var changeCost btcutil.Amount
	if r.makeChange {
		changeCost = r.changeCost
	}

	return SelectionWaste(
		r.Inputs(), changeCost, r.target, r.useRealValue,
	)
}

// EquivalentResult returns true if both selections are made of the same
// values, possibly from different outputs.
func (r *SelectionResult) EquivalentResult(other *SelectionResult) bool {
	if r.Len() != other.Len() {
		return false
	}

	return slices.Equal(r.sortedValues(), other.sortedValues())
}

// EqualResult returns true if both selections spend exactly the same
// outpoints.
func (r *SelectionResult) EqualResult(other *SelectionResult) bool {
	if r.Len() != other.Len() {
		return false
	}

	for op := range r.inputs {
		if _, ok := other.inputs[op]; !ok {
			return false
		}
	}

	return true
}

// Clear drops the selected inputs. The target and cost of change of the
// attempt are kept.
func (r *SelectionResult) Clear() {
	r.inputs = make(map[wire.OutPoint]Coin)
	r.inputFees = 0
	r.makeChange = false
}

func (r *SelectionResult) sortedValues() []btcutil.Amount {
	values := make([]btcutil.Amount, 0, len(r.inputs))
	for _, c := range r.inputs {
		values = append(values, c.Value())
	}
	slices.Sort(values)

	return values
}

// selectionSum returns the selection amount of the chosen coins, the value
// the selectors compare against the target.
func (r *SelectionResult) selectionSum() btcutil.Amount {
	if r.useRealValue {
		return r.SelectedValue()
	}

	return r.SelectedEffectiveValue()
}
