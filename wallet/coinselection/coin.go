// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Coin is a candidate output for spending. It is the union of an output and
// the outpoint that created it, plus the cost of spending it.
//
// A Coin returned by NewCoin is unpriced. It picks up its fee and effective
// value once inserted into an OutputGroupBuilder, which prices it at the
// group's fee rates.
type Coin struct {
	wire.TxOut
	wire.OutPoint

	// inputSize is the estimated size of the signed input spending this
	// coin. None means the size is unknown, in which case the coin is
	// treated as free to spend.
	inputSize fn.Option[btcunit.VByte]

	// fee is the fee paid for the input at the effective fee rate.
	fee btcutil.Amount

	// longTermFee is the fee paid for the input at the long term fee rate.
	longTermFee btcutil.Amount

	// effectiveValue is the value of the coin minus fee, or the nominal
	// value when fees are subtracted from the recipient outputs.
	effectiveValue btcutil.Amount
}

// NewCoin creates an unpriced candidate coin.
func NewCoin(op wire.OutPoint, txOut wire.TxOut,
	inputSize fn.Option[btcunit.VByte]) Coin {

	return Coin{
		TxOut:          txOut,
		OutPoint:       op,
		inputSize:      inputSize,
		effectiveValue: btcutil.Amount(txOut.Value),
	}
}

// priced returns a copy of the coin with its fees computed at the given
// rates.
func (c Coin) priced(effective, longTerm btcunit.FeeRate,
	subtractFee bool) Coin {

	c.fee, c.longTermFee = 0, 0
	c.inputSize.WhenSome(func(vb btcunit.VByte) {
		c.fee = effective.FeeForVSize(vb)
		c.longTermFee = longTerm.FeeForVSize(vb)
	})

	c.effectiveValue = c.Value()
	if !subtractFee {
		c.effectiveValue -= c.fee
	}

	return c
}

// Value returns the nominal value of the coin.
func (c Coin) Value() btcutil.Amount {
	return btcutil.Amount(c.TxOut.Value)
}

// EffectiveValue returns the value left after paying for the input.
func (c Coin) EffectiveValue() btcutil.Amount {
	return c.effectiveValue
}

// Fee returns the fee for spending the coin at the effective fee rate.
func (c Coin) Fee() btcutil.Amount {
	return c.fee
}

// LongTermFee returns the fee for spending the coin at the long term fee
// rate.
func (c Coin) LongTermFee() btcutil.Amount {
	return c.longTermFee
}

// InputSize returns the estimated signed input size, if known.
func (c Coin) InputSize() fn.Option[btcunit.VByte] {
	return c.inputSize
}

// Less reports whether the outpoint of a sorts before the outpoint of b. The
// order is lexicographic on the transaction hash bytes and then the output
// index.
func Less(a, b wire.OutPoint) bool {
	cmp := bytes.Compare(a.Hash[:], b.Hash[:])
	if cmp != 0 {
		return cmp < 0
	}

	return a.Index < b.Index
}

// SortCoins sorts coins in place by outpoint.
func SortCoins(coins []Coin) {
	sort.Slice(coins, func(i, j int) bool {
		return Less(coins[i].OutPoint, coins[j].OutPoint)
	})
}
