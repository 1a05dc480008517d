// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command coinsim replays a scenario of deposits and withdrawals against an
// in-memory wallet and reports how its coin selection performed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/wallet"
	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			return
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	if err := initLogRotator(logFile, cfg.MaxLogFiles); err != nil {
		return err
	}
	defer logRotator.Close()

	setLogLevels(cfg.DebugLevel)

	f, err := os.Open(cfg.Scenario)
	if err != nil {
		return err
	}
	defer f.Close()

	ops, err := parseScenario(f, cfg.feeRate())
	if err != nil {
		return fmt.Errorf("unable to read scenario %s: %w", cfg.Scenario,
			err)
	}

	recorder, err := openRecorder(cfg)
	if err != nil {
		return fmt.Errorf("unable to open record db: %w", err)
	}
	if recorder != nil {
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Errorf("Unable to close record db: %v", err)
			}
		}()
	}

	simCfg := simConfig{
		LongTermFeeRate:     btcunit.SatPerKVByte(cfg.LongTermFeeRate),
		DiscardFeeRate:      btcunit.SatPerKVByte(cfg.DiscardFeeRate),
		MinChange:           cfg.MinChange.Amount,
		Seed:                cfg.Seed,
		AvoidPartialSpends:  cfg.AvoidPartialSpends,
		SpendZeroConfChange: !cfg.NoZeroConfChange,
		Parallel:            cfg.Parallel,
		ReportInterval:      cfg.ReportInterval,
		OnReport: func(ops int, r report) {
			log.Infof("%d operations performed so far", ops)
			log.Infof("%s", reportHeader)
			log.Infof("%v", r)
		},
	}
	if recorder != nil {
		simCfg.Recorder = recorder
	}

	sim, err := newSimulator(simCfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Infof("Simulating %d operations from %s", len(ops), cfg.Scenario)

	r, err := sim.run(ctx, ops)
	if err != nil {
		return err
	}

	log.Infof("Simulation of %s finished", cfg.Scenario)
	fmt.Println(reportHeader)
	fmt.Println(r)

	return nil
}

// openRecorder opens the record database chosen in cfg. It returns nil when
// selections are not recorded.
func openRecorder(cfg *config) (*wallet.Recorder, error) {
	switch cfg.RecordDB {
	case recordDBBolt:
		return wallet.OpenKvdbRecorder(cleanAndExpandPath(cfg.RecordPath))

	case recordDBSQLite:
		return wallet.NewSQLiteRecorder(
			cleanAndExpandPath(cfg.RecordPath),
		)

	case recordDBPostgres:
		return wallet.NewPostgresRecorder(cfg.RecordPath)

	default:
		return nil, nil
	}
}
