// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSizeConversions checks the conversion between weight units and virtual
// bytes, including rounding.
func TestSizeConversions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		wu   WeightUnit
		vb   VByte
	}{
		{name: "zero", wu: 0, vb: 0},
		{name: "exact", wu: 400, vb: 100},
		{name: "round up one", wu: 401, vb: 101},
		{name: "round up three", wu: 403, vb: 101},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.vb, tc.wu.ToVB())
		})
	}

	require.Equal(t, WeightUnit(400), VByte(100).ToWU())
	require.Equal(t, "400 wu", WeightUnit(400).String())
	require.Equal(t, "100 vb", VByte(100).String())
}

// TestVSizeFromParts checks the vsize of a p2wpkh input made of its
// non-witness bytes and witness weight.
func TestVSizeFromParts(t *testing.T) {
	t.Parallel()

	// 41 bytes of outpoint, empty script and sequence plus a 109 wu
	// witness.
	require.Equal(t, VByte(69), VSizeFromParts(41, 109))
	require.Equal(t, VByte(41), VSizeFromParts(41, 0))
}
