// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/jessevdk/go-flags"
)

const (
	defaultLogFilename    = "coinsim.log"
	defaultLogDirname     = "logs"
	defaultDebugLevel     = "info"
	defaultMaxLogFiles    = 3
	defaultReportInterval = 500

	// defaultFeeRate is the fee rate of withdrawals whose scenario line
	// carries none, 10 sat/vb.
	defaultFeeRate = 10_000

	// defaultDiscardFeeRate matches the discard rate of Bitcoin Core.
	defaultDiscardFeeRate = 10_000

	recordDBNone     = "none"
	recordDBBolt     = "bdb"
	recordDBSQLite   = "sqlite"
	recordDBPostgres = "postgres"
)

var (
	defaultAppDir = btcutil.AppDataDir("coinsim", false)
	defaultLogDir = filepath.Join(defaultAppDir, defaultLogDirname)

	errMissingScenario   = errors.New("a scenario file is required")
	errMissingRecordPath = errors.New("--recordpath is required with " +
		"--recorddb")
)

// amountFlag is a flag holding an amount given in BTC.
type amountFlag struct {
	btcutil.Amount
}

// UnmarshalFlag parses a BTC amount.
func (a *amountFlag) UnmarshalFlag(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}

	amt, err := btcutil.NewAmount(f)
	if err != nil {
		return err
	}
	if amt < 0 {
		return fmt.Errorf("amount %v is negative", amt)
	}
	a.Amount = amt

	return nil
}

// MarshalFlag formats the amount in BTC.
func (a amountFlag) MarshalFlag() (string, error) {
	return strconv.FormatFloat(a.ToBTC(), 'f', -1, 64), nil
}

// config defines the configuration options for coinsim.
type config struct {
	Scenario           string     `short:"s" long:"scenario" description:"CSV file of deposits and withdrawals"`
	FeeRate            int64      `long:"feerate" description:"Fee rate in sat/kvB of withdrawals without one"`
	LongTermFeeRate    int64      `long:"longtermfeerate" description:"Expected future fee rate in sat/kvB"`
	DiscardFeeRate     int64      `long:"discardfeerate" description:"Fee rate in sat/kvB under which change is dust"`
	Seed               int64      `long:"seed" description:"Seed of the knapsack solver"`
	MinChange          amountFlag `long:"minchange" description:"Smallest change output kept, in BTC"`
	AvoidPartialSpends bool       `long:"avoidpartialspends" description:"Spend all outputs of an address together"`
	NoZeroConfChange   bool       `long:"nozeroconfchange" description:"Never spend unconfirmed change"`
	Parallel           bool       `long:"parallel" description:"Run the selection passes concurrently"`
	RecordDB           string     `long:"recorddb" description:"Database recording every selection" choice:"none" choice:"bdb" choice:"sqlite" choice:"postgres"`
	RecordPath         string     `long:"recordpath" description:"Path of the record database, or the DSN for postgres"`
	LogDir             string     `long:"logdir" description:"Directory to log output"`
	MaxLogFiles        int        `long:"maxlogfiles" description:"Maximum log files to keep (0 for no rotation)"`
	DebugLevel         string     `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	ReportInterval     int        `long:"reportinterval" description:"Operations between progress reports (0 to disable)"`
}

// defaultConfig returns the configuration used for unset options.
func defaultConfig() config {
	return config{
		FeeRate:         defaultFeeRate,
		LongTermFeeRate: defaultFeeRate,
		DiscardFeeRate:  defaultDiscardFeeRate,
		RecordDB:        recordDBNone,
		LogDir:          defaultLogDir,
		MaxLogFiles:     defaultMaxLogFiles,
		DebugLevel:      defaultDebugLevel,
		ReportInterval:  defaultReportInterval,
	}
}

// loadConfig parses args over the default configuration. A scenario file may
// also be given as the only positional argument.
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(&cfg, flags.Default)
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if cfg.Scenario == "" && len(rest) == 1 {
		cfg.Scenario = rest[0]
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	return &cfg, nil
}

// validate checks the options are consistent.
func (c *config) validate() error {
	if c.Scenario == "" {
		return errMissingScenario
	}

	rates := []struct {
		name string
		rate int64
	}{
		{"feerate", c.FeeRate},
		{"longtermfeerate", c.LongTermFeeRate},
		{"discardfeerate", c.DiscardFeeRate},
	}
	for _, r := range rates {
		if r.rate < 0 {
			return fmt.Errorf("--%s must not be negative: %d", r.name,
				r.rate)
		}
	}

	if c.RecordDB != recordDBNone && c.RecordPath == "" {
		return errMissingRecordPath
	}

	if c.ReportInterval < 0 {
		return fmt.Errorf("--reportinterval must not be negative: %d",
			c.ReportInterval)
	}

	if _, ok := parseLevel(c.DebugLevel); !ok {
		return fmt.Errorf("invalid --debuglevel %q", c.DebugLevel)
	}

	return nil
}

// feeRate returns the default withdrawal fee rate.
func (c *config) feeRate() btcunit.SatPerKVByte {
	return btcunit.SatPerKVByte(c.FeeRate)
}

// cleanAndExpandPath expands environment variables and a leading ~ in path
// and cleans the result.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}
