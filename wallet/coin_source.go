// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/btcsuite/coinselect/wallet/internal/db"
	"github.com/btcsuite/coinselect/wallet/internal/db/kvdb"
	"github.com/lightningnetwork/lnd/fn/v2"
)

var (
	// ErrNilUTXOStore is returned when a UTXO source is created without a
	// store to read from.
	ErrNilUTXOStore = errors.New("nil utxo store")

	// ErrMissingChainParams is returned when a UTXO source is created
	// without chain parameters.
	ErrMissingChainParams = errors.New("missing chain params")

	// ErrMissingBestHeight is returned when a UTXO source is created
	// without a way to learn the current chain height.
	ErrMissingBestHeight = errors.New("missing best height func")
)

// CoinSource provides the outputs a selection may spend.
type CoinSource interface {
	// SpendableOutputs returns a snapshot of the wallet outputs together
	// with their spending metadata.
	SpendableOutputs(ctx context.Context) (
		[]coinselection.SpendableOutput, error)
}

// StaticCoinSource is a CoinSource over a fixed list of outputs.
type StaticCoinSource []coinselection.SpendableOutput

// A compile-time assertion to ensure StaticCoinSource implements CoinSource.
var _ CoinSource = (StaticCoinSource)(nil)

// SpendableOutputs returns a copy of the outputs.
func (s StaticCoinSource) SpendableOutputs(
	ctx context.Context) ([]coinselection.SpendableOutput, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return slices.Clone(s), nil
}

// AncestryOracle reports the unconfirmed ancestry of the transaction that
// created an output.
type AncestryOracle interface {
	// Ancestry returns the number of unconfirmed ancestors and
	// descendants of the transaction creating op.
	Ancestry(op wire.OutPoint) (ancestors, descendants uint64)
}

// TxStore is the transaction store a kvdb backed UTXO source reads through.
// It is satisfied by *wtxmgr.Store.
type TxStore = kvdb.TxStore

// UTXOSourceConfig holds the dependencies of a UTXOSource.
type UTXOSourceConfig struct {
	// Store is the UTXO store outputs are read from.
	Store db.UTXOStore

	// ChainParams decides the coinbase maturity.
	ChainParams *chaincfg.Params

	// BestHeight returns the height of the current chain tip.
	BestHeight func() int32

	// ChangeScripts are the scripts of the wallet change addresses.
	// Outputs paying to them count as sent from the wallet.
	ChangeScripts [][]byte

	// Ancestry is optional. Without it unconfirmed outputs are assumed to
	// have no unconfirmed ancestry.
	Ancestry AncestryOracle

	// Now returns the current time and is used to discard expired
	// leases. Defaults to time.Now.
	Now func() time.Time
}

// UTXOSource is a CoinSource backed by a UTXO store.
type UTXOSource struct {
	cfg UTXOSourceConfig

	changeScripts fn.Set[string]
}

// A compile-time assertion to ensure UTXOSource implements CoinSource.
var _ CoinSource = (*UTXOSource)(nil)

// NewUTXOSource creates a coin source reading from cfg.Store.
func NewUTXOSource(cfg UTXOSourceConfig) (*UTXOSource, error) {
	switch {
	case cfg.Store == nil:
		return nil, ErrNilUTXOStore

	case cfg.ChainParams == nil:
		return nil, ErrMissingChainParams

	case cfg.BestHeight == nil:
		return nil, ErrMissingBestHeight
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	changeScripts := fn.NewSet[string]()
	for _, script := range cfg.ChangeScripts {
		changeScripts.Add(string(script))
	}

	return &UTXOSource{
		cfg:           cfg,
		changeScripts: changeScripts,
	}, nil
}

// NewKvdbUTXOSource creates a coin source reading the outputs of a wtxmgr
// transaction store kept in dbConn.
func NewKvdbUTXOSource(dbConn walletdb.DB, txStore TxStore,
	cfg UTXOSourceConfig) (*UTXOSource, error) {

	store, err := kvdb.NewStore(dbConn, txStore)
	if err != nil {
		return nil, err
	}
	cfg.Store = store

	return NewUTXOSource(cfg)
}

// SpendableOutputs returns the unleased outputs of the store. Immature
// coinbase outputs are returned as unspendable.
func (u *UTXOSource) SpendableOutputs(
	ctx context.Context) ([]coinselection.SpendableOutput, error) {

	height := u.cfg.BestHeight()

	utxos, err := u.cfg.Store.ListUTXOs(ctx, db.ListUtxosQuery{
		CurrentHeight: height,
	})
	if err != nil {
		return nil, err
	}

	leased, err := u.leasedOutPoints(ctx)
	if err != nil {
		return nil, err
	}

	maturity := int32(u.cfg.ChainParams.CoinbaseMaturity)

	outputs := make([]coinselection.SpendableOutput, 0, len(utxos))
	for _, utxo := range utxos {
		if leased.Contains(utxo.OutPoint) {
			log.Tracef("Skipping leased output %v", utxo.OutPoint)
			continue
		}

		depth := utxo.Confirmations(height)
		spendable := !utxo.FromCoinBase || depth >= maturity

		out := coinselection.SpendableOutput{
			Coin: coinselection.NewCoin(
				utxo.OutPoint, wire.TxOut{
					Value:    int64(utxo.Amount),
					PkScript: utxo.PkScript,
				}, EstimateInputSize(utxo.PkScript),
			),
			Depth:     depth,
			FromMe:    u.changeScripts.Contains(string(utxo.PkScript)),
			Spendable: spendable,
		}

		if depth == 0 && u.cfg.Ancestry != nil {
			out.Ancestors, out.Descendants = u.cfg.Ancestry.Ancestry(
				utxo.OutPoint,
			)
		}

		outputs = append(outputs, out)
	}

	log.Debugf("Loaded %d spendable outputs at height %d, skipped %d "+
		"leased", len(outputs), height, len(utxos)-len(outputs))

	return outputs, nil
}

// leasedOutPoints returns the outpoints with an unexpired lease.
func (u *UTXOSource) leasedOutPoints(
	ctx context.Context) (fn.Set[wire.OutPoint], error) {

	leases, err := u.cfg.Store.ListLeasedOutputs(ctx)
	if err != nil {
		return nil, err
	}

	now := u.cfg.Now()
	leased := fn.NewSet[wire.OutPoint]()
	for _, lease := range leases {
		if lease.Expiration.After(now) {
			leased.Add(lease.OutPoint)
		}
	}

	return leased, nil
}

// LeaseSelection leases every input of sel to id so concurrent selections
// skip them. If any lease fails, the ones already taken are released.
func (u *UTXOSource) LeaseSelection(ctx context.Context, sel *Selection,
	id db.LockID, duration time.Duration) error {

	if sel == nil || sel.Result == nil {
		return ErrNilSelection
	}

	var taken []wire.OutPoint
	for _, op := range sel.Result.OutPoints() {
		_, err := u.cfg.Store.LeaseOutput(ctx, db.LeaseOutputParams{
			ID:       id,
			OutPoint: op,
			Duration: duration,
		})
		if err == nil {
			taken = append(taken, op)
			continue
		}

		for _, prev := range taken {
			releaseErr := u.cfg.Store.ReleaseOutput(
				ctx, db.ReleaseOutputParams{ID: id, OutPoint: prev},
			)
			if releaseErr != nil {
				log.Errorf("Unable to release output %v: %v",
					prev, releaseErr)
			}
		}

		return fmt.Errorf("lease %v: %w", op, err)
	}

	return nil
}

// EstimateInputSize returns the size of the signed input spending an output
// with the given script. None is returned for scripts the wallet does not
// know how to sign for.
func EstimateInputSize(pkScript []byte) fn.Option[btcunit.VByte] {
	switch {
	case txscript.IsPayToPubKeyHash(pkScript):
		return fn.Some(btcunit.VByte(txsizes.RedeemP2PKHInputSize))

	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		return fn.Some(btcunit.VSizeFromParts(
			txsizes.RedeemP2WPKHInputSize,
			txsizes.RedeemP2WPKHInputWitnessWeight,
		))

	// Only nested P2WPKH is assumed behind a P2SH script.
	case txscript.IsPayToScriptHash(pkScript):
		return fn.Some(btcunit.VSizeFromParts(
			txsizes.RedeemNestedP2WPKHInputSize,
			txsizes.RedeemP2WPKHInputWitnessWeight,
		))

	case txscript.IsPayToTaproot(pkScript):
		return fn.Some(btcunit.VSizeFromParts(
			txsizes.RedeemP2TRInputSize,
			txsizes.RedeemP2TRInputWitnessWeight,
		))
	}

	return fn.None[btcunit.VByte]()
}
