// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import "errors"

var (
	// ErrNilDB is returned when a store is created without a database
	// connection.
	ErrNilDB = errors.New("nil database connection")
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrDatabase indicates a database error.
	ErrDatabase ErrorCode = iota

	// ErrSelectionNotFound is returned when a requested selection record
	// does not exist.
	ErrSelectionNotFound

	// ErrRecordExists is returned when a selection record with the same
	// ID is already stored.
	ErrRecordExists

	// ErrInvalidRecord is returned when a selection record can not be
	// stored or read back because it is malformed.
	ErrInvalidRecord

	// ErrLeaseConflict is returned when an output is leased or released
	// under a lock ID that does not own it.
	ErrLeaseConflict

	// ErrUnknownOutput is returned when leasing an output the store does
	// not know about.
	ErrUnknownOutput
)

// errorCodeStrings maps error codes to their names.
var errorCodeStrings = map[ErrorCode]string{
	ErrDatabase:          "ErrDatabase",
	ErrSelectionNotFound: "ErrSelectionNotFound",
	ErrRecordExists:      "ErrRecordExists",
	ErrInvalidRecord:     "ErrInvalidRecord",
	ErrLeaseConflict:     "ErrLeaseConflict",
	ErrUnknownOutput:     "ErrUnknownOutput",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}

	return "Unknown ErrorCode"
}

// Error identifies a wallet error. It has an error code and a descriptive
// message.
type Error struct {
	Code ErrorCode
	Desc string
	Err  error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.Err != nil {
		return e.Desc + ": " + e.Err.Error()
	}

	return e.Desc
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// newError creates an Error given a set of arguments.
func newError(c ErrorCode, desc string, err error) Error {
	return Error{Code: c, Desc: desc, Err: err}
}

// IsError returns whether the error is an Error with a matching error code.
func IsError(err error, code ErrorCode) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == code
}
