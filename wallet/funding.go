// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// fundedTxVersion is the version of the transactions funded by FundPsbt.
const fundedTxVersion = 2

var (
	// ErrPacketOutputsMissing is returned when a packet is funded without
	// any recipient outputs.
	ErrPacketOutputsMissing = errors.New("psbt packet has no outputs")

	// ErrChangeScriptMissing is returned when a selection keeps change
	// but no script to pay it to is given.
	ErrChangeScriptMissing = errors.New("change script missing")

	// ErrOutputsMismatch is returned when the recipient outputs do not
	// add up to the target of the selection.
	ErrOutputsMismatch = errors.New("outputs do not match selection " +
		"target")

	// ErrOutputTooSmall is returned when a recipient output can not pay
	// its share of the fee.
	ErrOutputTooSmall = errors.New("output too small to pay its fee")

	// ErrChangeIndexOutOfRange is returned when the change output index
	// does not fit an int32.
	ErrChangeIndexOutOfRange = errors.New("change index out of range")
)

// FundPsbt builds the unsigned packet spending the inputs of sel to outputs.
// A change output paying to changeScript is added when the selection keeps
// its change. The outputs must add up to the selection target. When the
// recipients pay the fee, their outputs are reduced evenly, the first
// output covering any remainder.
//
// Inputs and outputs are sorted per BIP 69. The index of the change output
// is returned, or -1 when there is none.
func FundPsbt(sel *Selection, outputs []*wire.TxOut,
	changeScript []byte) (*psbt.Packet, int32, error) {

	if sel == nil || sel.Result == nil {
		return nil, 0, ErrNilSelection
	}
	if len(outputs) == 0 {
		return nil, 0, ErrPacketOutputsMissing
	}
	if sel.HasChange() && len(changeScript) == 0 {
		return nil, 0, ErrChangeScriptMissing
	}

	txOuts, err := payOutputs(sel, outputs)
	if err != nil {
		return nil, 0, err
	}

	var changeOutput *wire.TxOut
	if sel.HasChange() {
		changeOutput = wire.NewTxOut(int64(sel.Change), changeScript)
		txOuts = append(txOuts, changeOutput)
	}

	coins := sel.Result.Inputs()
	inputs := make([]*wire.OutPoint, len(coins))
	sequences := make([]uint32, len(coins))
	for i := range coins {
		inputs[i] = &coins[i].OutPoint
		sequences[i] = wire.MaxTxInSequenceNum
	}

	packet, err := psbt.New(
		inputs, txOuts, fundedTxVersion, 0, sequences,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot create psbt: %w", err)
	}

	// Only witness spends can be decorated with the output alone. Nested
	// P2WPKH is assumed behind P2SH scripts.
	for i, coin := range coins {
		script := coin.PkScript
		if !txscript.IsWitnessProgram(script) &&
			!txscript.IsPayToScriptHash(script) {

			continue
		}

		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(
			coin.TxOut.Value, script,
		)
	}

	err = psbt.InPlaceSort(packet)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot sort psbt: %w", err)
	}

	changeIndex, err := findChangeIndex(changeOutput, packet)
	if err != nil {
		return nil, 0, err
	}

	log.Debugf("Funded psbt with %d inputs and %d outputs, change index "+
		"%d", len(packet.UnsignedTx.TxIn), len(packet.UnsignedTx.TxOut),
		changeIndex)

	return packet, changeIndex, nil
}

// payOutputs returns copies of the recipient outputs, reduced by the part
// of the fee the recipients pay.
func payOutputs(sel *Selection, outputs []*wire.TxOut) ([]*wire.TxOut,
	error) {

	var total btcutil.Amount
	for _, out := range outputs {
		total += btcutil.Amount(out.Value)
	}
	if total != sel.Target {
		return nil, fmt.Errorf("%w: outputs pay %v, target is %v",
			ErrOutputsMismatch, total, sel.Target)
	}

	// Whatever the inputs do not cover is taken from the recipients.
	paid := sel.Result.SelectedValue() - sel.Fee - sel.Change
	deduct := sel.Target - paid
	if deduct < 0 {
		return nil, fmt.Errorf("%w: selection pays %v over target %v",
			ErrOutputsMismatch, -deduct, sel.Target)
	}

	n := btcutil.Amount(len(outputs))
	share, remainder := deduct/n, deduct%n

	txOuts := make([]*wire.TxOut, len(outputs))
	for i, out := range outputs {
		value := btcutil.Amount(out.Value) - share
		if i == 0 {
			value -= remainder
		}
		if value <= 0 {
			return nil, fmt.Errorf("%w: output %d of %v",
				ErrOutputTooSmall, i, btcutil.Amount(out.Value))
		}

		txOuts[i] = wire.NewTxOut(int64(value), out.PkScript)
	}

	return txOuts, nil
}

// findChangeIndex finds the index of the change output after the packet has
// been sorted.
func findChangeIndex(changeOutput *wire.TxOut,
	packet *psbt.Packet) (int32, error) {

	if changeOutput == nil {
		return -1, nil
	}

	for i, txOut := range packet.UnsignedTx.TxOut {
		if i > math.MaxInt32 {
			return 0, ErrChangeIndexOutOfRange
		}

		if psbt.TxOutsEqual(changeOutput, txOut) {
			//nolint:gosec
			return int32(i), nil
		}
	}

	return -1, nil
}
