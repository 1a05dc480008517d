// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig checks flags are parsed over the defaults.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig([]string{
		"--feerate=2000", "--minchange=0.005", "--recorddb=sqlite",
		"--recordpath=/tmp/records.db", "--parallel", "scenario.csv",
	})
	require.NoError(t, err)

	require.Equal(t, "scenario.csv", cfg.Scenario)
	require.EqualValues(t, 2000, cfg.feeRate())
	require.Equal(t, btcutil.Amount(500_000), cfg.MinChange.Amount)
	require.Equal(t, recordDBSQLite, cfg.RecordDB)
	require.True(t, cfg.Parallel)
	require.Equal(t, int64(defaultFeeRate), cfg.LongTermFeeRate)
	require.Equal(t, defaultDebugLevel, cfg.DebugLevel)
}

// TestLoadConfigErrors checks inconsistent options are rejected.
func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		err  error
	}{
		{
			name: "missing scenario",
			args: []string{"--feerate=1000"},
			err:  errMissingScenario,
		},
		{
			name: "record db without a path",
			args: []string{"-s", "scenario.csv", "--recorddb=bdb"},
			err:  errMissingRecordPath,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadConfig(tc.args)
			require.ErrorIs(t, err, tc.err)
		})
	}

	_, err := loadConfig([]string{"-s", "x.csv", "--feerate=-1"})
	require.ErrorContains(t, err, "--feerate must not be negative")

	_, err = loadConfig([]string{"-s", "x.csv", "--debuglevel=loud"})
	require.ErrorContains(t, err, "invalid --debuglevel")
}

// TestAmountFlag checks BTC amounts are parsed and formatted.
func TestAmountFlag(t *testing.T) {
	t.Parallel()

	var a amountFlag
	require.NoError(t, a.UnmarshalFlag("0.01"))
	require.Equal(t, btcutil.Amount(1_000_000), a.Amount)

	s, err := a.MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "0.01", s)

	require.Error(t, a.UnmarshalFlag("-1"))
	require.Error(t, a.UnmarshalFlag("one"))
}
