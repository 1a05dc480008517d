// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/coinselect/wallet"
	"github.com/btcsuite/coinselect/wallet/coinselection"
	"github.com/jrick/logrotate/rotator"
)

const (
	// logDirPerm keeps the log directory private to the user.
	logDirPerm = 0o700

	// logRollSize is the size in KiB at which the log file is rolled.
	logRollSize = 10 * 1024
)

// logWriter writes to standard output and to the log rotator once it is
// initialized.
type logWriter struct{}

// Write writes p to standard output and the log rotator.
func (logWriter) Write(p []byte) (int, error) {
	_, _ = os.Stdout.Write(p)
	if logRotator == nil {
		return len(p), nil
	}

	return logRotator.Write(p)
}

var (
	// backendLog is the logging backend all subsystem loggers write to.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is the file output of the backend. It is set by
	// initLogRotator and must be closed on shutdown.
	logRotator *rotator.Rotator

	log     = backendLog.Logger("SIM")
	wlltLog = backendLog.Logger("WLLT")
	cselLog = backendLog.Logger("CSEL")
	dbLog   = backendLog.Logger("DBSE")

	// subsystemLoggers maps each subsystem identifier to its logger.
	subsystemLoggers = map[string]btclog.Logger{
		"SIM":  log,
		"WLLT": wlltLog,
		"CSEL": cselLog,
		"DBSE": dbLog,
	}
)

func init() {
	wallet.UseLogger(wlltLog)
	wallet.UseStoreLogger(dbLog)
	coinselection.UseLogger(cselLog)
}

// initLogRotator creates the log directory and starts rotating logFile,
// keeping at most maxRolls old files.
func initLogRotator(logFile string, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, logDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, logRollSize, false, maxRolls)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r

	return nil
}

// parseLevel converts a level name into a btclog level.
func parseLevel(level string) (btclog.Level, bool) {
	return btclog.LevelFromString(level)
}

// setLogLevels sets every subsystem logger to level. Unknown levels fall
// back to info.
func setLogLevels(level string) {
	lvl, ok := parseLevel(level)
	if !ok {
		lvl = btclog.LevelInfo
	}

	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}
}
