package itest

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/wallet/internal/db"
)

// RandomHash generates a random chainhash.Hash for testing.
func RandomHash() chainhash.Hash {
	var h chainhash.Hash

	_, err := rand.Read(h[:])
	if err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to generate random hash: %v", err))
	}

	return h
}

// RandomOutPoints returns n outpoints with random hashes.
func RandomOutPoints(n int) []wire.OutPoint {
	ops := make([]wire.OutPoint, n)
	for i := range ops {
		ops[i] = wire.OutPoint{Hash: RandomHash(), Index: uint32(i)}
	}

	return ops
}

// SelectionRecordFixture creates a selection record spending n random
// outpoints, created at the given unix time.
func SelectionRecordFixture(n int, target btcutil.Amount,
	unix int64) db.SelectionRecord {

	inputs := RandomOutPoints(n)
	createdAt := time.Unix(unix, 0)

	return db.SelectionRecord{
		ID:            db.RecordID(inputs, target, createdAt),
		Inputs:        inputs,
		Target:        target,
		SelectedValue: target + 1_000,
		Fee:           420,
		Change:        580,
		Waste:         -35,
		FeeRate:       3_000,
		Algorithm:     2,
		Pass:          1,
		CreatedAt:     createdAt,
	}
}
