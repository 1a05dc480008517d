// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// OutputGroup is an immutable aggregate of coins that are spent together,
// typically because they pay to the same script.
type OutputGroup struct {
	coins []Coin

	value          btcutil.Amount
	effectiveValue btcutil.Amount
	fee            btcutil.Amount
	longTermFee    btcutil.Amount

	// fromMe is true if every member was created by the wallet itself.
	fromMe bool

	// depth is the smallest confirmation depth of the members.
	depth int32

	// ancestors is the sum of the unconfirmed ancestors of the members.
	// Shared ancestors are counted more than once.
	ancestors uint64

	// descendants is the largest unconfirmed descendant count of any
	// member.
	descendants uint64

	effectiveFeeRate btcunit.SatPerKVByte
	longTermFeeRate  btcunit.SatPerKVByte

	subtractFeeOutputs bool
}

// Coins returns a copy of the member coins in insertion order.
func (g OutputGroup) Coins() []Coin {
	coins := make([]Coin, len(g.coins))
	copy(coins, g.coins)

	return coins
}

// Len returns the number of coins in the group.
func (g OutputGroup) Len() int {
	return len(g.coins)
}

// Value returns the nominal value of the group.
func (g OutputGroup) Value() btcutil.Amount {
	return g.value
}

// EffectiveValue returns the value of the group minus the fees of its
// members.
func (g OutputGroup) EffectiveValue() btcutil.Amount {
	return g.effectiveValue
}

// Fee returns the fee for spending the group at the effective fee rate.
func (g OutputGroup) Fee() btcutil.Amount {
	return g.fee
}

// LongTermFee returns the fee for spending the group at the long term fee
// rate.
func (g OutputGroup) LongTermFee() btcutil.Amount {
	return g.longTermFee
}

// FromMe returns true if every member was sent by the wallet itself.
func (g OutputGroup) FromMe() bool {
	return g.fromMe
}

// Depth returns the smallest confirmation depth of the members.
func (g OutputGroup) Depth() int32 {
	return g.depth
}

// Ancestors returns the summed unconfirmed ancestor count.
func (g OutputGroup) Ancestors() uint64 {
	return g.ancestors
}

// Descendants returns the largest unconfirmed descendant count.
func (g OutputGroup) Descendants() uint64 {
	return g.descendants
}

// EffectiveFeeRate returns the rate the group was priced at.
func (g OutputGroup) EffectiveFeeRate() btcunit.SatPerKVByte {
	return g.effectiveFeeRate
}

// LongTermFeeRate returns the long term rate the group was priced at.
func (g OutputGroup) LongTermFeeRate() btcunit.SatPerKVByte {
	return g.longTermFeeRate
}

// SubtractFeeOutputs returns true if the group is valued nominally because
// the recipients pay the fee.
func (g OutputGroup) SubtractFeeOutputs() bool {
	return g.subtractFeeOutputs
}

// EligibleForSpending returns true if the group satisfies the filter.
func (g OutputGroup) EligibleForSpending(filter EligibilityFilter) bool {
	minDepth := filter.ConfTheirs
	if g.fromMe {
		minDepth = filter.ConfMine
	}

	return g.depth >= minDepth &&
		g.ancestors <= filter.MaxAncestors &&
		g.descendants <= filter.MaxDescendants
}

// SelectionAmount returns the amount the selectors compare against the
// target.
func (g OutputGroup) SelectionAmount() btcutil.Amount {
	if g.subtractFeeOutputs {
		return g.value
	}

	return g.effectiveValue
}

// OutputGroupBuilder accumulates coins into an OutputGroup. It is not safe
// for concurrent use.
type OutputGroupBuilder struct {
	group OutputGroup

	// seen tracks member outpoints to reject duplicates.
	seen map[wire.OutPoint]struct{}
}

// NewOutputGroupBuilder returns a builder pricing coins with the fee rates
// of params.
func NewOutputGroupBuilder(params *SelectionParams) (*OutputGroupBuilder,
	error) {

	if params == nil {
		return nil, ErrNilParams
	}

	return &OutputGroupBuilder{
		group: OutputGroup{
			fromMe:             true,
			effectiveFeeRate:   params.EffectiveFeeRate,
			longTermFeeRate:    params.LongTermFeeRate,
			subtractFeeOutputs: params.SubtractFeeOutputs,
		},
		seen: make(map[wire.OutPoint]struct{}),
	}, nil
}

// Insert prices the coin and adds it to the group.
//
// When positiveOnly is set and the priced coin has a non-positive effective
// value, the coin is left out and false is returned. This is not an error,
// the caller decides whether the group is still worth using.
func (b *OutputGroupBuilder) Insert(coin Coin, depth int32, fromMe bool,
	ancestors, descendants uint64, positiveOnly bool) (bool, error) {

	if depth < 0 {
		return false, fmt.Errorf("%w: %v has depth %d",
			ErrInvalidDepth, coin.OutPoint, depth)
	}
	if _, ok := b.seen[coin.OutPoint]; ok {
		return false, fmt.Errorf("%w: %v", ErrDuplicateInput,
			coin.OutPoint)
	}

	g := &b.group
	coin = coin.priced(
		g.effectiveFeeRate, g.longTermFeeRate, g.subtractFeeOutputs,
	)
	if positiveOnly && coin.EffectiveValue() <= 0 {
		return false, nil
	}

	if len(g.coins) == 0 || depth < g.depth {
		g.depth = depth
	}

	g.coins = append(g.coins, coin)
	g.value += coin.Value()
	g.effectiveValue += coin.EffectiveValue()
	g.fee += coin.Fee()
	g.longTermFee += coin.LongTermFee()
	g.fromMe = g.fromMe && fromMe
	g.ancestors += ancestors
	g.descendants = max(g.descendants, descendants)

	b.seen[coin.OutPoint] = struct{}{}

	return true, nil
}

// Len returns the number of coins inserted so far.
func (b *OutputGroupBuilder) Len() int {
	return len(b.group.coins)
}

// Build returns the finished group. The builder may keep being used, later
// inserts do not affect groups already built.
func (b *OutputGroupBuilder) Build() OutputGroup {
	g := b.group
	g.coins = b.group.Coins()

	return g
}
