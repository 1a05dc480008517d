// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package coinselection picks the unspent outputs a wallet spends to fund a
transaction.

Candidate coins are aggregated into output groups, one per spending script
when partial spends are avoided. Groups that pass an eligibility filter are
handed to one of two selectors:

  - BranchAndBound searches for a subset whose value lands in
    [target, target+costOfChange], so that no change output is needed, and
    keeps the subset with the lowest waste.
  - Knapsack is a randomized approximate subset-sum solver used when no such
    subset exists. Its randomness comes from an injected *rand.Rand so runs
    are reproducible.

Both return a SelectionResult. Results produced under different filters are
compared with SelectionResult.Waste, lower being better:

	waste = changeCost + (selected - target) + sum(fee - longTermFee)

The package performs no I/O and holds no shared state. Independent
selections can run concurrently as long as each works on its own groups.
*/
package coinselection
