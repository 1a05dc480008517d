// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/wallet"
	"github.com/btcsuite/coinselect/wallet/coinselection"
)

// unmined is the height of coins not yet in a block.
const unmined = -1

// errFeeMismatch is returned when a funded transaction does not pay the fee
// of its selection.
var errFeeMismatch = errors.New("funded transaction fee mismatch")

// simCoin is an output of the simulated wallet.
type simCoin struct {
	outPoint wire.OutPoint
	txOut    wire.TxOut
	fromMe   bool
	height   int32
}

// simWallet is an in-memory wallet. Every operation is followed by a block
// confirming the coins received during it.
type simWallet struct {
	height int32
	coins  map[wire.OutPoint]*simCoin
	nextID uint32

	depositScript []byte
}

// A compile-time assertion to ensure simWallet implements wallet.CoinSource.
var _ wallet.CoinSource = (*simWallet)(nil)

func newSimWallet() *simWallet {
	w := &simWallet{
		coins: make(map[wire.OutPoint]*simCoin),
	}
	w.depositScript = w.newScript()

	return w
}

// newScript returns the p2wpkh script of a fresh key. Keys are derived from
// a counter so that runs are reproducible.
func (w *simWallet) newScript() []byte {
	w.nextID++

	var id [4]byte
	binary.BigEndian.PutUint32(id[:], w.nextID)
	_, pubKey := btcec.PrivKeyFromBytes(chainhash.HashB(id[:]))
	pkHash := btcutil.Hash160(pubKey.SerializeCompressed())

	return append([]byte{txscript.OP_0, txscript.OP_DATA_20}, pkHash...)
}

// newOutPoint returns an outpoint no other coin uses.
func (w *simWallet) newOutPoint() wire.OutPoint {
	w.nextID++

	var id [4]byte
	binary.BigEndian.PutUint32(id[:], w.nextID)

	return wire.OutPoint{Hash: chainhash.HashH(id[:])}
}

// receive adds an unmined coin.
func (w *simWallet) receive(amount btcutil.Amount, script []byte,
	fromMe bool) wire.OutPoint {

	op := w.newOutPoint()
	w.coins[op] = &simCoin{
		outPoint: op,
		txOut:    wire.TxOut{Value: int64(amount), PkScript: script},
		fromMe:   fromMe,
		height:   unmined,
	}

	return op
}

// deposit receives amount from someone else.
func (w *simWallet) deposit(amount btcutil.Amount) wire.OutPoint {
	return w.receive(amount, w.depositScript, false)
}

// receiveChange receives a change output sent by the wallet to itself.
func (w *simWallet) receiveChange(txOut *wire.TxOut) wire.OutPoint {
	return w.receive(btcutil.Amount(txOut.Value), txOut.PkScript, true)
}

// spend removes the given coins.
func (w *simWallet) spend(ops []wire.OutPoint) error {
	for _, op := range ops {
		if _, ok := w.coins[op]; !ok {
			return fmt.Errorf("spending unknown coin %v", op)
		}
	}
	for _, op := range ops {
		delete(w.coins, op)
	}

	return nil
}

// mine confirms every unmined coin in a new block.
func (w *simWallet) mine() {
	w.height++
	for _, c := range w.coins {
		if c.height == unmined {
			c.height = w.height
		}
	}
}

// balance returns the value of all coins.
func (w *simWallet) balance() btcutil.Amount {
	var total btcutil.Amount
	for _, c := range w.coins {
		total += btcutil.Amount(c.txOut.Value)
	}

	return total
}

// costToEmpty returns the fee for spending every coin at rate.
func (w *simWallet) costToEmpty(rate btcunit.SatPerKVByte) btcutil.Amount {
	var total btcutil.Amount
	for _, c := range w.coins {
		size := wallet.EstimateInputSize(c.txOut.PkScript)
		total += rate.FeeForVSize(size.UnwrapOr(0))
	}

	return total
}

// SpendableOutputs returns the coins ordered by outpoint.
func (w *simWallet) SpendableOutputs(
	ctx context.Context) ([]coinselection.SpendableOutput, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputs := make([]coinselection.SpendableOutput, 0, len(w.coins))
	for _, c := range w.coins {
		var depth int32
		if c.height != unmined {
			depth = w.height - c.height + 1
		}

		outputs = append(outputs, coinselection.SpendableOutput{
			Coin: coinselection.NewCoin(
				c.outPoint, c.txOut,
				wallet.EstimateInputSize(c.txOut.PkScript),
			),
			Depth:     depth,
			FromMe:    c.fromMe,
			Spendable: true,
		})
	}

	slices.SortFunc(outputs, func(a, b coinselection.SpendableOutput) int {
		switch {
		case coinselection.Less(a.OutPoint, b.OutPoint):
			return -1
		case coinselection.Less(b.OutPoint, a.OutPoint):
			return 1
		}

		return 0
	})

	return outputs, nil
}

// simConfig holds the policy of a simulation.
type simConfig struct {
	LongTermFeeRate     btcunit.SatPerKVByte
	DiscardFeeRate      btcunit.SatPerKVByte
	MinChange           btcutil.Amount
	Seed                int64
	AvoidPartialSpends  bool
	SpendZeroConfChange bool
	Parallel            bool

	// Recorder is optional.
	Recorder wallet.RecordWriter

	// ReportInterval is the number of operations between calls to
	// OnReport. Zero disables progress reports.
	ReportInterval int

	// OnReport is optional.
	OnReport func(ops int, r report)
}

// simulator replays a scenario against a simulated wallet.
type simulator struct {
	cfg      simConfig
	wallet   *simWallet
	selector *wallet.CoinSelector
	stats    stats

	recipientScript []byte
	changeSpendSize btcunit.VByte
}

func newSimulator(cfg simConfig) (*simulator, error) {
	w := newSimWallet()

	selCfg := wallet.DefaultSelectorConfig(w)
	selCfg.Seed = cfg.Seed
	selCfg.MinChange = cfg.MinChange
	selCfg.SpendZeroConfChange = cfg.SpendZeroConfChange
	selCfg.Parallel = cfg.Parallel
	selCfg.Recorder = cfg.Recorder

	selector, err := wallet.NewCoinSelector(selCfg)
	if err != nil {
		return nil, err
	}

	recipientScript := w.newScript()
	changeSpendSize := wallet.EstimateInputSize(recipientScript).UnwrapOr(0)

	return &simulator{
		cfg:             cfg,
		wallet:          w,
		selector:        selector,
		recipientScript: recipientScript,
		changeSpendSize: changeSpendSize,
	}, nil
}

// run replays ops and returns the final report.
func (s *simulator) run(ctx context.Context, ops []operation) (report,
	error) {

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return report{}, err
		}

		if s.cfg.ReportInterval > 0 && i > 0 &&
			i%s.cfg.ReportInterval == 0 && s.cfg.OnReport != nil {

			s.cfg.OnReport(i, s.report())
		}

		switch {
		case op.isDeposit():
			s.wallet.deposit(op.amount)
			s.stats.deposits++

		case op.isWithdrawal():
			err := s.withdraw(ctx, op)
			if err != nil {
				return report{}, fmt.Errorf("line %d: %w", op.line,
					err)
			}
		}

		s.stats.utxoCounts = append(
			s.stats.utxoCounts, len(s.wallet.coins),
		)
		s.wallet.mine()
	}

	return s.report(), nil
}

// withdraw pays -op.amount out of the wallet. A withdrawal the wallet can
// not fund is counted and skipped.
func (s *simulator) withdraw(ctx context.Context, op operation) error {
	target := -op.amount
	recipient := wire.NewTxOut(int64(target), s.recipientScript)

	params, err := coinselection.NewSelectionParams(
		coinselection.SelectionParamsConfig{
			ChangeOutputSize: txsizes.P2WPKHOutputSize,
			ChangeSpendSize:  s.changeSpendSize,
			TxNoInputsSize: btcunit.VByte(txsizes.EstimateVirtualSize(
				0, 0, 0, 0, []*wire.TxOut{recipient}, 0,
			)),
			EffectiveFeeRate:   op.feeRate,
			LongTermFeeRate:    s.cfg.LongTermFeeRate,
			DiscardFeeRate:     s.cfg.DiscardFeeRate,
			AvoidPartialSpends: s.cfg.AvoidPartialSpends,
		},
	)
	if err != nil {
		return err
	}

	sel, err := s.selector.Select(ctx, &wallet.SelectionRequest{
		Target: target,
		Params: params,
	})
	switch {
	case errors.Is(err, coinselection.ErrInsufficientFunds):
		log.Warnf("Unable to withdraw %v on line %d: %v", target,
			op.line, err)
		s.stats.failed++

		return nil

	case err != nil:
		return err
	}

	packet, changeIndex, err := wallet.FundPsbt(
		sel, []*wire.TxOut{recipient}, s.wallet.newScript(),
	)
	if err != nil {
		return err
	}

	fee, err := packet.GetTxFee()
	if err != nil {
		return err
	}
	if fee != sel.Fee {
		return fmt.Errorf("%w: packet pays %v, selection %v",
			errFeeMismatch, fee, sel.Fee)
	}

	spent := make([]wire.OutPoint, len(packet.UnsignedTx.TxIn))
	for i, txIn := range packet.UnsignedTx.TxIn {
		spent[i] = txIn.PreviousOutPoint
	}
	if err := s.wallet.spend(spent); err != nil {
		return err
	}
	if changeIndex >= 0 {
		s.wallet.receiveChange(packet.UnsignedTx.TxOut[changeIndex])
	}

	s.stats.addWithdrawal(sel)

	return nil
}

// report summarizes the simulation so far.
func (s *simulator) report() report {
	return s.stats.report(
		s.wallet.balance(), len(s.wallet.coins),
		s.wallet.costToEmpty(s.cfg.LongTermFeeRate),
	)
}
