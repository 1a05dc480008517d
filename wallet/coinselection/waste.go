// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import "github.com/btcsuite/btcd/btcutil"

// SelectionWaste scores spending coins to fund target. Lower is better.
//
// The score is the cost of change, plus the excess of the selected value
// over target, plus what each input pays now above what it would pay at the
// long term fee rate. changeCost must be zero when no change output is
// created. When useRealValue is set the coins are valued nominally,
// otherwise by their effective value.
func SelectionWaste(coins []Coin, changeCost, target btcutil.Amount,
	useRealValue bool) btcutil.Amount {

	var (
		selected btcutil.Amount
		timing   btcutil.Amount
	)
	for _, c := range coins {
		if useRealValue {
			selected += c.Value()
		} else {
			selected += c.EffectiveValue()
		}

		timing += c.Fee() - c.LongTermFee()
	}

	return changeCost + (selected - target) + timing
}
