// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/coinselect/wallet/coinselection"
)

const (
	// MinChange is the change amount the legacy knapsack policy aimed
	// for.
	MinChange btcutil.Amount = 1_000_000

	// MinFinalChange is the smallest change the legacy policy would keep
	// when it could not reach MinChange.
	MinFinalChange = MinChange / 2

	// outputOverhead is the part of a serialized output that is not its
	// script: the 8 byte value and a one byte script length.
	outputOverhead = 9
)

// changeOutcome is the settlement of a selection into fee and change.
type changeOutcome struct {
	fee     btcutil.Amount
	change  btcutil.Amount
	dropped bool
	waste   btcutil.Amount
}

// selectionTarget returns the amount the selectors must reach for a payment
// of target, before any change fee.
func selectionTarget(target btcutil.Amount,
	params *coinselection.SelectionParams) btcutil.Amount {

	if params.SubtractFeeOutputs {
		return target
	}

	return target + params.NoInputsFee()
}

// settleChange splits the excess of result over target into fee and change.
// Change below minChange or dust at the discard rate is added to the fee.
func settleChange(result *coinselection.SelectionResult,
	target btcutil.Amount, params *coinselection.SelectionParams,
	minChange btcutil.Amount) changeOutcome {

	selected := result.SelectedValue()
	fees := params.NoInputsFee() + result.InputFees()

	// With the fee paid by the recipients, everything above the target
	// is change.
	change := selected - target
	if !params.SubtractFeeOutputs {
		change -= fees + params.ChangeFee
	}

	var out changeOutcome
	if keepChange(change, params, minChange) {
		out.change = change
		out.fee = fees + params.ChangeFee
	} else {
		out.dropped = true
		out.fee = selected - target
		if params.SubtractFeeOutputs {
			out.fee = fees + change
		}
	}

	out.waste = realizedWaste(result, target, params, out.dropped)

	return out
}

// keepChange reports whether a change output of the given amount is worth
// creating.
func keepChange(change btcutil.Amount,
	params *coinselection.SelectionParams, minChange btcutil.Amount) bool {

	if change <= 0 || change < minChange {
		return false
	}

	scriptSize := int(params.ChangeOutputSize) - outputOverhead
	if scriptSize < 0 {
		scriptSize = 0
	}

	return !txrules.IsDustAmount(
		change, scriptSize, btcutil.Amount(params.DiscardFeeRate),
	)
}

// realizedWaste scores the selection as it will be broadcast. Kept change
// costs the cost of change and leaves no excess. Dropped change is excess.
func realizedWaste(result *coinselection.SelectionResult,
	target btcutil.Amount, params *coinselection.SelectionParams,
	dropped bool) btcutil.Amount {

	if dropped {
		return coinselection.SelectionWaste(
			result.Inputs(), 0, selectionTarget(target, params),
			result.UseRealValue(),
		)
	}

	sum := result.SelectedEffectiveValue()
	if result.UseRealValue() {
		sum = result.SelectedValue()
	}

	return coinselection.SelectionWaste(
		result.Inputs(), params.CostOfChange, sum, result.UseRealValue(),
	)
}
