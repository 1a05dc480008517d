// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

import (
	"fmt"
	"math"
)

const (
	// DefaultMaxAncestors is the default limit of unconfirmed ancestors a
	// transaction may have in the mempool.
	DefaultMaxAncestors = 25

	// DefaultMaxDescendants is the default limit of unconfirmed
	// descendants a transaction may have in the mempool.
	DefaultMaxDescendants = 25
)

// EligibilityFilter decides which output groups may take part in a selection
// attempt.
type EligibilityFilter struct {
	// ConfMine is the minimum depth of outputs sent by the wallet itself.
	ConfMine int32

	// ConfTheirs is the minimum depth of outputs received from others.
	ConfTheirs int32

	// MaxAncestors is the maximum number of unconfirmed ancestors summed
	// over the members of a group.
	MaxAncestors uint64

	// MaxDescendants is the maximum number of unconfirmed descendants of
	// any single member of a group.
	MaxDescendants uint64

	// IncludePartialGroups allows the last, non-full group of a script to
	// be used when full groups for the same script exist.
	IncludePartialGroups bool
}

// String returns a compact description of the filter for logging.
func (f EligibilityFilter) String() string {
	return fmt.Sprintf("(mine=%d, theirs=%d, ancestors=%d, "+
		"descendants=%d, partial=%v)", f.ConfMine, f.ConfTheirs,
		f.MaxAncestors, f.MaxDescendants, f.IncludePartialGroups)
}

// FilterLadder returns the eligibility filters tried by a wallet, most
// restrictive first. The first two only use confirmed outputs. When
// spendZeroConfChange is set, unconfirmed change is admitted with an
// increasingly generous ancestry budget. The last filter ignores the
// ancestry limits entirely unless rejectLongChains is set.
func FilterLadder(maxAncestors, maxDescendants uint64,
	spendZeroConfChange, rejectLongChains bool) []EligibilityFilter {

	filters := []EligibilityFilter{
		{ConfMine: 1, ConfTheirs: 6},
		{ConfMine: 1, ConfTheirs: 1},
	}
	if !spendZeroConfChange {
		return filters
	}

	filters = append(filters,
		EligibilityFilter{
			ConfMine: 0, ConfTheirs: 1,
			MaxAncestors: 2, MaxDescendants: 2,
		},
		EligibilityFilter{
			ConfMine: 0, ConfTheirs: 1,
			MaxAncestors:   min(4, maxAncestors/3),
			MaxDescendants: min(4, maxDescendants/3),
		},
		EligibilityFilter{
			ConfMine: 0, ConfTheirs: 1,
			MaxAncestors:   maxAncestors / 2,
			MaxDescendants: maxDescendants / 2,
		},
		EligibilityFilter{
			ConfMine: 0, ConfTheirs: 1,
			MaxAncestors:         saturatingDec(maxAncestors),
			MaxDescendants:       saturatingDec(maxDescendants),
			IncludePartialGroups: true,
		},
	)

	if !rejectLongChains {
		filters = append(filters, EligibilityFilter{
			ConfMine: 0, ConfTheirs: 1,
			MaxAncestors:         math.MaxUint64,
			MaxDescendants:       math.MaxUint64,
			IncludePartialGroups: true,
		})
	}

	return filters
}

func saturatingDec(v uint64) uint64 {
	if v == 0 {
		return 0
	}

	return v - 1
}
