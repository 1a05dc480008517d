// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package btcunit provides a set of types for dealing with bitcoin units.
//
// All fee rates are integer based so that fee computations are exact and
// reproducible across platforms.
package btcunit

import (
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
)

// kilo is a generic multiplier for kilo units.
const kilo = 1000

// FeeRate is implemented by every fee rate unit in this package. It returns
// the fee owed for a transaction part of the given virtual size.
type FeeRate interface {
	// FeeForVSize returns the fee for vb virtual bytes.
	FeeForVSize(vb VByte) btcutil.Amount

	fmt.Stringer
}

// SatPerKVByte represents a fee rate in sat/kvb. It is the canonical fee rate
// unit used for coin selection.
type SatPerKVByte btcutil.Amount

// A compile-time assertion to ensure SatPerKVByte implements FeeRate.
var _ FeeRate = SatPerKVByte(0)

// NewSatPerKVByte creates a new fee rate in sat/kvb from a fee paid for a
// transaction of the given virtual size.
func NewSatPerKVByte(fee btcutil.Amount, vb VByte) SatPerKVByte {
	if vb == 0 {
		return 0
	}

	return SatPerKVByte(fee * kilo / btcutil.Amount(vb))
}

// FeeForVSize calculates the fee resulting from this fee rate and the given
// vsize in vbytes. The result is rounded down, except that a non-zero rate
// applied to a non-zero size always yields at least one satoshi.
func (s SatPerKVByte) FeeForVSize(vb VByte) btcutil.Amount {
	if s <= 0 || vb == 0 {
		return 0
	}

	fee := btcutil.Amount(s) * btcutil.Amount(vb) / kilo
	if fee == 0 {
		return 1
	}

	return fee
}

// FeeForWeight calculates the fee resulting from this fee rate and the given
// weight in weight units (wu).
func (s SatPerKVByte) FeeForWeight(wu WeightUnit) btcutil.Amount {
	return s.FeeForVSize(wu.ToVB())
}

// FeePerKWeight converts the current fee rate from sat/kvb to sat/kw.
func (s SatPerKVByte) FeePerKWeight() SatPerKWeight {
	return SatPerKWeight(s / blockchain.WitnessScaleFactor)
}

// FeePerVByte converts the current fee rate from sat/kvb to sat/vb, rounding
// down.
func (s SatPerKVByte) FeePerVByte() SatPerVByte {
	return SatPerVByte(s / kilo)
}

// String returns a human-readable string of the fee rate.
func (s SatPerKVByte) String() string {
	return fmt.Sprintf("%d sat/kvb", int64(s))
}

// SatPerVByte represents a fee rate in sat/vb.
type SatPerVByte btcutil.Amount

// FeePerKVByte converts the current fee rate from sat/vb to sat/kvb.
func (s SatPerVByte) FeePerKVByte() SatPerKVByte {
	return SatPerKVByte(s * kilo)
}

// FeePerKWeight converts the current fee rate from sat/vb to sat/kw.
func (s SatPerVByte) FeePerKWeight() SatPerKWeight {
	return SatPerKWeight(s * kilo / blockchain.WitnessScaleFactor)
}

// FeeForVSize calculates the fee resulting from this fee rate and the given
// vsize in vbytes.
func (s SatPerVByte) FeeForVSize(vb VByte) btcutil.Amount {
	return s.FeePerKVByte().FeeForVSize(vb)
}

// String returns a human-readable string of the fee rate.
func (s SatPerVByte) String() string {
	return fmt.Sprintf("%d sat/vb", int64(s))
}

// SatPerKWeight represents a fee rate in sat/kw.
type SatPerKWeight btcutil.Amount

// NewSatPerKWeight creates a new fee rate in sat/kw.
func NewSatPerKWeight(fee btcutil.Amount, wu WeightUnit) SatPerKWeight {
	if wu == 0 {
		return 0
	}

	return SatPerKWeight(fee * kilo / btcutil.Amount(wu))
}

// FeeForWeight calculates the fee resulting from this fee rate and the given
// weight in weight units (wu).
func (s SatPerKWeight) FeeForWeight(wu WeightUnit) btcutil.Amount {
	// The resulting fee is rounded down, as specified in BOLT#03.
	return btcutil.Amount(s) * btcutil.Amount(wu) / kilo
}

// FeeForVSize calculates the fee resulting from this fee rate and the given
// size in vbytes (vb).
func (s SatPerKWeight) FeeForVSize(vb VByte) btcutil.Amount {
	return s.FeePerKVByte().FeeForVSize(vb)
}

// FeePerKVByte converts the current fee rate from sat/kw to sat/kvb.
func (s SatPerKWeight) FeePerKVByte() SatPerKVByte {
	return SatPerKVByte(s * blockchain.WitnessScaleFactor)
}

// String returns a human-readable string of the fee rate.
func (s SatPerKWeight) String() string {
	return fmt.Sprintf("%d sat/kw", int64(s))
}
