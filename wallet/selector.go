// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrManualInputsEmpty is returned when a request restricts the pool
	// to an empty list of candidates.
	ErrManualInputsEmpty = errors.New("manual inputs cannot be empty")

	// ErrDuplicatedUtxo is returned when the same candidate is listed
	// twice.
	ErrDuplicatedUtxo = errors.New("duplicated utxo")

	// ErrUnknownCandidate is returned when a candidate is not among the
	// outputs of the coin source.
	ErrUnknownCandidate = errors.New("unknown candidate outpoint")

	// ErrNilCoinSource is returned when a selector is created without a
	// coin source.
	ErrNilCoinSource = errors.New("nil coin source")

	// ErrNilSelection is returned when an operation is given no
	// selection.
	ErrNilSelection = errors.New("nil selection")

	// ErrNilRequest is returned when Select is called without a request.
	ErrNilRequest = errors.New("nil selection request")
)

// SelectorConfig holds the policy of a CoinSelector.
type SelectorConfig struct {
	// Source provides the outputs to select from.
	Source CoinSource

	// BnBMaxTries bounds the branch-and-bound search of every pass.
	BnBMaxTries int

	// KnapsackIterations is the number of randomized knapsack passes.
	KnapsackIterations int

	// Seed seeds the knapsack of the first pass. Pass i uses Seed+i.
	Seed int64

	// MinChange is the smallest change output kept. Smaller change is
	// added to the fee. Zero keeps any change that is not dust.
	MinChange btcutil.Amount

	// MaxAncestors is the mempool ancestor limit.
	MaxAncestors uint64

	// MaxDescendants is the mempool descendant limit.
	MaxDescendants uint64

	// SpendZeroConfChange allows unconfirmed change to be spent.
	SpendZeroConfChange bool

	// RejectLongChains keeps the mempool limits in the last pass.
	RejectLongChains bool

	// Parallel runs the passes concurrently.
	Parallel bool

	// Recorder is optional. When set, every selection is recorded.
	Recorder RecordWriter

	// Now returns the time a selection is recorded at. Defaults to
	// time.Now.
	Now func() time.Time
}

// DefaultSelectorConfig returns the default policy over source.
func DefaultSelectorConfig(source CoinSource) SelectorConfig {
	return SelectorConfig{
		Source:              source,
		BnBMaxTries:         coinselection.DefaultBnBMaxTries,
		KnapsackIterations:  coinselection.DefaultKnapsackIterations,
		MaxAncestors:        coinselection.DefaultMaxAncestors,
		MaxDescendants:      coinselection.DefaultMaxDescendants,
		SpendZeroConfChange: true,
	}
}

// SelectionRequest describes the payment to fund.
type SelectionRequest struct {
	// Target is the amount paid to the recipients.
	Target btcutil.Amount

	// Params is the economic configuration of the transaction.
	Params *coinselection.SelectionParams

	// Candidates restricts the selection to these outpoints when not
	// nil.
	Candidates []wire.OutPoint
}

// Selection is the funding chosen for a request.
type Selection struct {
	// Result holds the selected inputs.
	Result *coinselection.SelectionResult

	// Filter is the eligibility filter of the winning pass.
	Filter coinselection.EligibilityFilter

	// Pass is the index of the winning pass in the filter ladder.
	Pass int

	// Target is the amount paid to the recipients.
	Target btcutil.Amount

	// Fee is the total fee of the transaction.
	Fee btcutil.Amount

	// Change is the value of the change output, zero if none is made.
	Change btcutil.Amount

	// ChangeDropped is set when the excess went to the fee instead of a
	// change output.
	ChangeDropped bool

	// Waste is the waste of the transaction as it will be built.
	Waste btcutil.Amount
}

// HasChange reports whether the transaction carries a change output.
func (s *Selection) HasChange() bool {
	return !s.ChangeDropped && s.Change > 0
}

// CoinSelector funds payments out of a coin source by running the
// selectors over a ladder of eligibility filters.
type CoinSelector struct {
	cfg SelectorConfig
}

// NewCoinSelector creates a selector with the given policy.
func NewCoinSelector(cfg SelectorConfig) (*CoinSelector, error) {
	if cfg.Source == nil {
		return nil, ErrNilCoinSource
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &CoinSelector{cfg: cfg}, nil
}

// Filters returns the eligibility filters tried, in order.
func (c *CoinSelector) Filters() []coinselection.EligibilityFilter {
	return coinselection.FilterLadder(
		c.cfg.MaxAncestors, c.cfg.MaxDescendants,
		c.cfg.SpendZeroConfChange, c.cfg.RejectLongChains,
	)
}

// passResult is the outcome of one filter of the ladder.
type passResult struct {
	result  *coinselection.SelectionResult
	outcome changeOutcome
}

// Select funds req. Every filter of the ladder is tried and the selection
// with the lowest waste wins, the earliest pass winning ties. When no pass
// can fund the request an error wrapping ErrInsufficientFunds is returned.
func (c *CoinSelector) Select(ctx context.Context,
	req *SelectionRequest) (*Selection, error) {

	if req == nil {
		return nil, ErrNilRequest
	}
	if req.Target <= 0 {
		return nil, fmt.Errorf("%w: %v", coinselection.ErrInvalidTarget,
			req.Target)
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	outputs, err := c.cfg.Source.SpendableOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load outputs: %w", err)
	}

	if req.Candidates != nil {
		outputs, err = filterCandidates(outputs, req.Candidates)
		if err != nil {
			return nil, err
		}
	}

	filters := c.Filters()
	passes := make([]fn.Option[passResult], len(filters))

	if c.cfg.Parallel {
		err = c.runParallel(ctx, req, outputs, filters, passes)
	} else {
		err = c.runSequential(ctx, req, outputs, filters, passes)
	}
	if err != nil {
		return nil, err
	}

	sel := c.pickBest(req, filters, passes)
	if sel == nil {
		var total btcutil.Amount
		for _, out := range outputs {
			if out.Spendable {
				total += out.Value()
			}
		}

		return nil, fmt.Errorf("%w: %v available for target %v",
			coinselection.ErrInsufficientFunds, total, req.Target)
	}

	log.Infof("Selected %d inputs worth %v for target %v using %v in "+
		"pass %d: fee=%v, change=%v, waste=%v", sel.Result.Len(),
		sel.Result.SelectedValue(), sel.Target, sel.Result.Algorithm(),
		sel.Pass, sel.Fee, sel.Change, sel.Waste)

	if c.cfg.Recorder != nil {
		rec := newSelectionRecord(sel, req.Params, c.cfg.Now())
		err := c.cfg.Recorder.PutSelection(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("unable to record selection: %w",
				err)
		}
	}

	return sel, nil
}

// runSequential runs the passes one after the other, checking ctx in
// between.
func (c *CoinSelector) runSequential(ctx context.Context,
	req *SelectionRequest, outputs []coinselection.SpendableOutput,
	filters []coinselection.EligibilityFilter,
	passes []fn.Option[passResult]) error {

	for i, filter := range filters {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := c.runPass(i, filter, req, outputs)
		if err != nil {
			return err
		}
		passes[i] = res
	}

	return nil
}

// runParallel runs every pass in its own goroutine. Each pass only writes
// its own slot of passes.
func (c *CoinSelector) runParallel(ctx context.Context,
	req *SelectionRequest, outputs []coinselection.SpendableOutput,
	filters []coinselection.EligibilityFilter,
	passes []fn.Option[passResult]) error {

	g, ctx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := c.runPass(i, filter, req, outputs)
			if err != nil {
				return err
			}
			passes[i] = res

			return nil
		})
	}

	return g.Wait()
}

// runPass tries branch-and-bound and then knapsack under one filter. None
// is returned when the filter leaves too little to fund the request.
func (c *CoinSelector) runPass(pass int,
	filter coinselection.EligibilityFilter, req *SelectionRequest,
	outputs []coinselection.SpendableOutput) (fn.Option[passResult],
	error) {

	none := fn.None[passResult]()
	params := req.Params
	target := selectionTarget(req.Target, params)

	positive, err := coinselection.GroupOutputs(
		outputs, params, filter, true,
	)
	if err != nil {
		return none, err
	}

	bnb := coinselection.BranchAndBound{MaxTries: c.cfg.BnBMaxTries}
	result, err := bnb.Select(positive, target, params.CostOfChange)
	switch {
	case err == nil:
		log.Debugf("Pass %d %v: branch-and-bound found %d inputs",
			pass, filter, result.Len())

		return c.settle(result, req), nil

	case !errors.Is(err, coinselection.ErrNoExactMatch):
		return none, err
	}

	all, err := coinselection.GroupOutputs(outputs, params, filter, false)
	if err != nil {
		return none, err
	}

	knapsackTarget := target
	if !params.SubtractFeeOutputs {
		knapsackTarget += params.ChangeFee
	}

	knapsack := &coinselection.Knapsack{
		Iterations: c.cfg.KnapsackIterations,
		Rand: rand.New( //nolint:gosec
			rand.NewSource(c.cfg.Seed + int64(pass)),
		),
		ChangeCost: params.CostOfChange,
	}
	result, err = knapsack.Select(knapsackTarget, all)
	switch {
	case err == nil:
		log.Debugf("Pass %d %v: knapsack found %d inputs", pass,
			filter, result.Len())

		return c.settle(result, req), nil

	case errors.Is(err, coinselection.ErrInsufficientFunds):
		log.Debugf("Pass %d %v: %v", pass, filter, err)

		return none, nil

	default:
		return none, err
	}
}

// settle finalizes the change of a pass result.
func (c *CoinSelector) settle(result *coinselection.SelectionResult,
	req *SelectionRequest) fn.Option[passResult] {

	return fn.Some(passResult{
		result: result,
		outcome: settleChange(
			result, req.Target, req.Params, c.cfg.MinChange,
		),
	})
}

// pickBest returns the successful pass with the lowest waste, or nil if
// every pass failed.
func (c *CoinSelector) pickBest(req *SelectionRequest,
	filters []coinselection.EligibilityFilter,
	passes []fn.Option[passResult]) *Selection {

	var best *Selection
	for i, pass := range passes {
		pass.WhenSome(func(p passResult) {
			if best != nil && p.outcome.waste >= best.Waste {
				return
			}

			best = &Selection{
				Result:        p.result,
				Filter:        filters[i],
				Pass:          i,
				Target:        req.Target,
				Fee:           p.outcome.fee,
				Change:        p.outcome.change,
				ChangeDropped: p.outcome.dropped,
				Waste:         p.outcome.waste,
			}
		})
	}

	return best
}

// filterCandidates restricts outputs to the given candidates.
func filterCandidates(outputs []coinselection.SpendableOutput,
	candidates []wire.OutPoint) ([]coinselection.SpendableOutput, error) {

	if err := validateOutPoints(candidates); err != nil {
		return nil, err
	}

	wanted := fn.NewSet(candidates...)
	filtered := make([]coinselection.SpendableOutput, 0, len(candidates))
	for _, out := range outputs {
		if wanted.Contains(out.OutPoint) {
			filtered = append(filtered, out)
		}
	}

	if len(filtered) != len(candidates) {
		found := fn.NewSet[wire.OutPoint]()
		for _, out := range filtered {
			found.Add(out.OutPoint)
		}

		missing := wanted.Diff(found).ToSlice()

		return nil, fmt.Errorf("%w: %v", ErrUnknownCandidate, missing[0])
	}

	return filtered, nil
}

// validateOutPoints checks a slice of outpoints for emptiness and duplicate
// entries.
func validateOutPoints(outpoints []wire.OutPoint) error {
	if len(outpoints) == 0 {
		return ErrManualInputsEmpty
	}

	seen := fn.NewSet[wire.OutPoint]()
	for _, op := range outpoints {
		if seen.Contains(op) {
			return fmt.Errorf("%w: %v", ErrDuplicatedUtxo, op)
		}

		seen.Add(op)
	}

	return nil
}
