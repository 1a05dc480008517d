// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// SelectionParamsConfig holds the inputs from which SelectionParams are
// derived.
type SelectionParamsConfig struct {
	// ChangeOutputSize is the size of the change output, if one is
	// created.
	ChangeOutputSize btcunit.VByte

	// ChangeSpendSize is the size of the input that will later spend the
	// change output.
	ChangeSpendSize btcunit.VByte

	// TxNoInputsSize is the size of the transaction being built without
	// any of its inputs.
	TxNoInputsSize btcunit.VByte

	// EffectiveFeeRate is the fee rate the transaction pays.
	EffectiveFeeRate btcunit.SatPerKVByte

	// LongTermFeeRate is the fee rate expected for consolidating outputs
	// at some point in the future.
	LongTermFeeRate btcunit.SatPerKVByte

	// DiscardFeeRate is the rate below which a change output is not worth
	// creating and its value is added to the fee instead.
	DiscardFeeRate btcunit.SatPerKVByte

	// SubtractFeeOutputs indicates the fee is paid by the recipients.
	SubtractFeeOutputs bool

	// AvoidPartialSpends keeps outputs sharing a script together.
	AvoidPartialSpends bool
}

// SelectionParams is the economic configuration of one selection attempt.
type SelectionParams struct {
	// ChangeOutputSize is the size of the change output.
	ChangeOutputSize btcunit.VByte

	// ChangeSpendSize is the size of spending the change output later.
	ChangeSpendSize btcunit.VByte

	// TxNoInputsSize is the size of the transaction without inputs.
	TxNoInputsSize btcunit.VByte

	// ChangeFee is the fee for creating the change output now.
	ChangeFee btcutil.Amount

	// CostOfChange is the fee for creating the change output now plus the
	// fee for spending it later at the long term fee rate.
	CostOfChange btcutil.Amount

	// EffectiveFeeRate is the fee rate the transaction pays.
	EffectiveFeeRate btcunit.SatPerKVByte

	// LongTermFeeRate is the fee rate used to estimate future spends.
	LongTermFeeRate btcunit.SatPerKVByte

	// DiscardFeeRate is the rate at which change is judged to be dust.
	DiscardFeeRate btcunit.SatPerKVByte

	// SubtractFeeOutputs indicates the fee is paid by the recipients, so
	// coins are compared by their nominal value.
	SubtractFeeOutputs bool

	// AvoidPartialSpends keeps outputs sharing a script in a single group.
	AvoidPartialSpends bool
}

// NewSelectionParams derives the selection parameters from cfg.
func NewSelectionParams(cfg SelectionParamsConfig) (*SelectionParams,
	error) {

	changeFee := cfg.EffectiveFeeRate.FeeForVSize(cfg.ChangeOutputSize)
	spendFee := cfg.LongTermFeeRate.FeeForVSize(cfg.ChangeSpendSize)

	p := &SelectionParams{
		ChangeOutputSize:   cfg.ChangeOutputSize,
		ChangeSpendSize:    cfg.ChangeSpendSize,
		TxNoInputsSize:     cfg.TxNoInputsSize,
		ChangeFee:          changeFee,
		CostOfChange:       changeFee + spendFee,
		EffectiveFeeRate:   cfg.EffectiveFeeRate,
		LongTermFeeRate:    cfg.LongTermFeeRate,
		DiscardFeeRate:     cfg.DiscardFeeRate,
		SubtractFeeOutputs: cfg.SubtractFeeOutputs,
		AvoidPartialSpends: cfg.AvoidPartialSpends,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks that the fee rates and the cost of change are
// non-negative.
func (p *SelectionParams) Validate() error {
	if p == nil {
		return ErrNilParams
	}

	rates := []struct {
		name string
		rate btcunit.SatPerKVByte
	}{
		{"effective", p.EffectiveFeeRate},
		{"long term", p.LongTermFeeRate},
		{"discard", p.DiscardFeeRate},
	}
	for _, r := range rates {
		if r.rate < 0 {
			return fmt.Errorf("%w: %s fee rate %v", ErrInvalidFeeRate,
				r.name, r.rate)
		}
	}

	if p.CostOfChange < 0 || p.ChangeFee < 0 {
		return fmt.Errorf("%w: change fee %v, cost of change %v",
			ErrInvalidCostOfChange, p.ChangeFee, p.CostOfChange)
	}

	return nil
}

// NoInputsFee returns the fee paid for the part of the transaction that is
// not an input.
func (p *SelectionParams) NoInputsFee() btcutil.Amount {
	return p.EffectiveFeeRate.FeeForVSize(p.TxNoInputsSize)
}
