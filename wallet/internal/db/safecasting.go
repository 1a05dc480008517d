// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"errors"
	"fmt"
	"math"
)

// ErrCastingOverflow is returned when a stored column cannot be safely cast
// to the type of the field it is read into.
var ErrCastingOverflow = errors.New("casting overflow")

// int64ToUint32 safely casts an int64 to an uint32, returning an error
// if the value is out of range.
func int64ToUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("could not cast %d to uint32: %w", v,
			ErrCastingOverflow)
	}

	return uint32(v), nil
}

// int64ToUint8 safely casts an int64 to an uint8, returning an error
// if the value is out of range.
func int64ToUint8(v int64) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("could not cast %d to uint8: %w", v,
			ErrCastingOverflow)
	}

	return uint8(v), nil
}
