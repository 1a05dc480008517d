// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// operation is one line of a scenario. A positive amount is a deposit, a
// negative one a withdrawal.
type operation struct {
	line    int
	amount  btcutil.Amount
	feeRate btcunit.SatPerKVByte
}

// isDeposit reports whether the operation receives coins.
func (o operation) isDeposit() bool {
	return o.amount > 0
}

// isWithdrawal reports whether the operation pays coins out.
func (o operation) isWithdrawal() bool {
	return o.amount < 0
}

// parseScenario reads operations from a CSV stream of "amount[,feerate]"
// lines. Amounts are in BTC and fee rates in BTC/kvB. Lines without a fee
// rate use defaultRate.
func parseScenario(r io.Reader,
	defaultRate btcunit.SatPerKVByte) ([]operation, error) {

	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var ops []operation
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		op, err := parseOperation(fields, defaultRate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		op.line = line

		ops = append(ops, op)
	}

	return ops, nil
}

// parseOperation parses the fields of one scenario line.
func parseOperation(fields []string,
	defaultRate btcunit.SatPerKVByte) (operation, error) {

	if len(fields) == 0 || len(fields) > 2 {
		return operation{}, fmt.Errorf("expected amount[,feerate], got "+
			"%d fields", len(fields))
	}

	amount, err := parseBTC(fields[0])
	if err != nil {
		return operation{}, fmt.Errorf("invalid amount: %w", err)
	}

	op := operation{amount: amount, feeRate: defaultRate}
	if len(fields) == 2 && strings.TrimSpace(fields[1]) != "" {
		rate, err := parseBTC(fields[1])
		if err != nil {
			return operation{}, fmt.Errorf("invalid fee rate: %w", err)
		}
		if rate < 0 {
			return operation{}, fmt.Errorf("negative fee rate %v", rate)
		}

		// A rate in BTC/kvB is a rate in sat/kvB once converted to
		// satoshis.
		op.feeRate = btcunit.SatPerKVByte(rate)
	}

	return op, nil
}

// parseBTC parses a decimal BTC amount.
func parseBTC(s string) (btcutil.Amount, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}

	return btcutil.NewAmount(f)
}
