// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/wallet"
	"github.com/btcsuite/coinselect/wallet/coinselection"
)

// reportHeader names the columns of report.String.
const reportHeader = "| final value | mean #UTXO | final #UTXO | " +
	"#received | #spent | #payments sent | #failed | #changes created | " +
	"min change | max change | mean change | stDev of change | " +
	"total fees | average fees | fees to spend remaining UTXO | " +
	"total cost | min input set | max input set | " +
	"mean size of input set | stdev of input set size | changeless | " +
	"BnB usage |"

// stats accumulates the outcome of a simulation.
type stats struct {
	deposits    int
	withdrawals int
	failed      int
	inputsSpent int
	changeless  int
	bnb         int
	totalFees   btcutil.Amount
	changes     []float64
	inputCounts []float64
	utxoCounts  []float64
}

// addWithdrawal accounts for a funded withdrawal.
func (s *stats) addWithdrawal(sel *wallet.Selection) {
	s.withdrawals++
	s.inputsSpent += sel.Result.Len()
	s.inputCounts = append(s.inputCounts, float64(sel.Result.Len()))
	s.totalFees += sel.Fee

	if sel.HasChange() {
		s.changes = append(s.changes, float64(sel.Change))
	} else {
		s.changeless++
	}

	if sel.Result.Algorithm() == coinselection.AlgoBnB {
		s.bnb++
	}
}

// report is a summary of a simulation.
type report struct {
	Balance       btcutil.Amount
	MeanUTXOs     float64
	UTXOs         int
	Deposits      int
	InputsSpent   int
	Withdrawals   int
	Failed        int
	ChangeOutputs int
	MinChange     btcutil.Amount
	MaxChange     btcutil.Amount
	MeanChange    btcutil.Amount
	StdDevChange  btcutil.Amount
	TotalFees     btcutil.Amount
	MeanFee       btcutil.Amount
	CostToEmpty   btcutil.Amount
	TotalCost     btcutil.Amount
	MinInputs     int
	MaxInputs     int
	MeanInputs    float64
	StdDevInputs  float64
	Changeless    int
	BnB           int
}

// report summarizes the statistics given the current state of the wallet.
func (s *stats) report(balance btcutil.Amount, utxos int,
	costToEmpty btcutil.Amount) report {

	r := report{
		Balance:       balance,
		UTXOs:         utxos,
		Deposits:      s.deposits,
		InputsSpent:   s.inputsSpent,
		Withdrawals:   s.withdrawals,
		Failed:        s.failed,
		ChangeOutputs: len(s.changes),
		TotalFees:     s.totalFees,
		CostToEmpty:   costToEmpty,
		TotalCost:     s.totalFees + costToEmpty,
		Changeless:    s.changeless,
		BnB:           s.bnb,
	}

	r.MeanUTXOs, _ = meanStdDev(s.utxoCounts)

	if len(s.changes) > 0 {
		mean, stdDev := meanStdDev(s.changes)
		r.MinChange = btcutil.Amount(slices.Min(s.changes))
		r.MaxChange = btcutil.Amount(slices.Max(s.changes))
		r.MeanChange = btcutil.Amount(math.Round(mean))
		r.StdDevChange = btcutil.Amount(math.Round(stdDev))
	}

	if s.withdrawals > 0 {
		r.MeanFee = s.totalFees / btcutil.Amount(s.withdrawals)
	}

	if len(s.inputCounts) > 0 {
		r.MinInputs = int(slices.Min(s.inputCounts))
		r.MaxInputs = int(slices.Max(s.inputCounts))
		r.MeanInputs, r.StdDevInputs = meanStdDev(s.inputCounts)
	}

	return r
}

// String formats the report as a row under reportHeader.
func (r report) String() string {
	return fmt.Sprintf("| %.8f | %.2f | %d | %d | %d | %d | %d | %d | "+
		"%.8f | %.8f | %.8f | %.8f | %.8f | %.8f | %.8f | %.8f | "+
		"%d | %d | %.2f | %.2f | %d | %d |",
		r.Balance.ToBTC(), r.MeanUTXOs, r.UTXOs, r.Deposits,
		r.InputsSpent, r.Withdrawals, r.Failed, r.ChangeOutputs,
		r.MinChange.ToBTC(), r.MaxChange.ToBTC(), r.MeanChange.ToBTC(),
		r.StdDevChange.ToBTC(), r.TotalFees.ToBTC(), r.MeanFee.ToBTC(),
		r.CostToEmpty.ToBTC(), r.TotalCost.ToBTC(), r.MinInputs,
		r.MaxInputs, r.MeanInputs, r.StdDevInputs, r.Changeless, r.BnB)
}

// meanStdDev returns the mean and the sample standard deviation of values.
// The deviation of fewer than two values is zero.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(sq / float64(len(values)-1))
}
