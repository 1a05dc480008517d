// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselection

// MaxGroupEntries is the largest number of coins placed in a single group
// when partial spends are avoided. Outputs to a heavily reused script are
// split over several groups so one selection does not sweep them all.
const MaxGroupEntries = 100

// SpendableOutput is a coin together with the wallet metadata needed to
// decide whether it can be spent.
type SpendableOutput struct {
	Coin

	// Depth is the number of confirmations, zero when unconfirmed.
	Depth int32

	// FromMe is true if the wallet created the transaction paying this
	// output, e.g. change.
	FromMe bool

	// Spendable is false for outputs the wallet can not sign for, or that
	// are otherwise unavailable, e.g. immature coinbase outputs.
	Spendable bool

	// Ancestors is the number of unconfirmed ancestors of the creating
	// transaction.
	Ancestors uint64

	// Descendants is the number of unconfirmed descendants of the creating
	// transaction.
	Descendants uint64
}

// GroupOutputs aggregates outputs into the groups eligible under filter.
//
// Without AvoidPartialSpends each spendable output forms its own group.
// Otherwise outputs are grouped by script, at most MaxGroupEntries to a
// group. The last group of a script is partial. It is only returned when it
// is the sole group of the script or the filter includes partial groups.
//
// With positiveOnly, coins and groups that would cost more to spend than
// they are worth are left out.
func GroupOutputs(outputs []SpendableOutput, params *SelectionParams,
	filter EligibilityFilter, positiveOnly bool) ([]OutputGroup, error) {

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var groups []OutputGroup
	keep := func(g OutputGroup) {
		if g.Len() == 0 {
			return
		}
		if positiveOnly && g.SelectionAmount() <= 0 {
			return
		}
		if !g.EligibleForSpending(filter) {
			return
		}

		groups = append(groups, g)
	}

	if !params.AvoidPartialSpends {
		for _, out := range outputs {
			if !out.Spendable {
				continue
			}

			b, err := NewOutputGroupBuilder(params)
			if err != nil {
				return nil, err
			}

			_, err = b.Insert(
				out.Coin, out.Depth, out.FromMe, out.Ancestors,
				out.Descendants, positiveOnly,
			)
			if err != nil {
				return nil, err
			}

			keep(b.Build())
		}

		return groups, nil
	}

	// Scripts are kept in first-seen order so the result is
	// deterministic.
	var scripts []string
	builders := make(map[string][]*OutputGroupBuilder)

	for _, out := range outputs {
		if !out.Spendable {
			continue
		}

		script := string(out.PkScript)
		perScript, ok := builders[script]
		if !ok {
			scripts = append(scripts, script)
		}

		if len(perScript) == 0 ||
			perScript[len(perScript)-1].Len() >= MaxGroupEntries {

			b, err := NewOutputGroupBuilder(params)
			if err != nil {
				return nil, err
			}
			perScript = append(perScript, b)
		}

		b := perScript[len(perScript)-1]
		_, err := b.Insert(
			out.Coin, out.Depth, out.FromMe, out.Ancestors,
			out.Descendants, positiveOnly,
		)
		if err != nil {
			return nil, err
		}

		builders[script] = perScript
	}

	for _, script := range scripts {
		perScript := builders[script]

		// Walk backwards so the partial group is handled first.
		for i := len(perScript) - 1; i >= 0; i-- {
			partial := i == len(perScript)-1 && len(perScript) > 1
			if partial && !filter.IncludePartialGroups {
				continue
			}

			keep(perScript[i].Build())
		}
	}

	log.Tracef("Grouped %d outputs into %d groups under filter %v",
		len(outputs), len(groups), filter)

	return groups, nil
}
