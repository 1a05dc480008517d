// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import "errors"

var (
	// ErrInsufficientFunds is returned when no subset of the eligible
	// groups can reach the target.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoExactMatch is returned by the branch-and-bound selector when it
	// could not find any subset whose value lies within the target window
	// before exhausting its search budget. It is not fatal, callers are
	// expected to fall back to the knapsack selector.
	ErrNoExactMatch = errors.New("no selection within cost of change")

	// ErrInternalInconsistency is returned when a selection breaks one of
	// its structural invariants. It signals a programming error and the
	// attempt that produced it must be aborted.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrDuplicateInput is returned when the same outpoint is added twice
	// to a group or a selection result.
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrInvalidTarget is returned when the target amount is not
	// positive.
	ErrInvalidTarget = errors.New("target must be positive")

	// ErrInvalidDepth is returned when a coin with a negative confirmation
	// depth is inserted into a group.
	ErrInvalidDepth = errors.New("depth must not be negative")

	// ErrInvalidFeeRate is returned when a fee rate is negative.
	ErrInvalidFeeRate = errors.New("fee rate must not be negative")

	// ErrInvalidCostOfChange is returned when the cost of change is
	// negative.
	ErrInvalidCostOfChange = errors.New("cost of change must not be " +
		"negative")

	// ErrNilParams is returned when no selection parameters are given.
	ErrNilParams = errors.New("selection params must be provided")
)
