// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	typeSelectionID            tlv.Type = 1
	typeSelectionInputs        tlv.Type = 2
	typeSelectionTarget        tlv.Type = 3
	typeSelectionSelectedValue tlv.Type = 4
	typeSelectionFee           tlv.Type = 5
	typeSelectionChange        tlv.Type = 6
	typeSelectionWaste         tlv.Type = 7
	typeSelectionFeeRate       tlv.Type = 8
	typeSelectionAlgorithm     tlv.Type = 9
	typeSelectionPass          tlv.Type = 10
	typeSelectionCreatedAt     tlv.Type = 11

	// outPointSize is the serialized size of an outpoint: the 32 byte
	// hash followed by the big endian output index.
	outPointSize = chainhash.HashSize + 4
)

// selectionRecordFields holds the flat form of a SelectionRecord as it is
// written to a TLV stream. Amounts are kept as their two's complement bit
// pattern since the waste of a selection may be negative.
type selectionRecordFields struct {
	id            [32]byte
	inputs        []wire.OutPoint
	target        uint64
	selectedValue uint64
	fee           uint64
	change        uint64
	waste         uint64
	feeRate       uint64
	algorithm     uint8
	pass          uint32
	createdAt     uint64
}

func (f *selectionRecordFields) records() []tlv.Record {
	return []tlv.Record{
		tlv.MakePrimitiveRecord(typeSelectionID, &f.id),
		tlv.MakeDynamicRecord(
			typeSelectionInputs, &f.inputs, func() uint64 {
				return uint64(len(f.inputs) * outPointSize)
			}, outPointsEncoder, outPointsDecoder,
		),
		tlv.MakePrimitiveRecord(typeSelectionTarget, &f.target),
		tlv.MakePrimitiveRecord(
			typeSelectionSelectedValue, &f.selectedValue,
		),
		tlv.MakePrimitiveRecord(typeSelectionFee, &f.fee),
		tlv.MakePrimitiveRecord(typeSelectionChange, &f.change),
		tlv.MakePrimitiveRecord(typeSelectionWaste, &f.waste),
		tlv.MakePrimitiveRecord(typeSelectionFeeRate, &f.feeRate),
		tlv.MakePrimitiveRecord(typeSelectionAlgorithm, &f.algorithm),
		tlv.MakePrimitiveRecord(typeSelectionPass, &f.pass),
		tlv.MakePrimitiveRecord(typeSelectionCreatedAt, &f.createdAt),
	}
}

// EncodeSelectionRecord serializes the record as a TLV stream.
func EncodeSelectionRecord(rec *SelectionRecord) ([]byte, error) {
	if rec == nil {
		return nil, newError(
			ErrInvalidRecord, "cannot encode nil record", nil,
		)
	}

	f := selectionRecordFields{
		id:            rec.ID,
		inputs:        rec.Inputs,
		target:        uint64(rec.Target),
		selectedValue: uint64(rec.SelectedValue),
		fee:           uint64(rec.Fee),
		change:        uint64(rec.Change),
		waste:         uint64(rec.Waste),
		feeRate:       uint64(rec.FeeRate),
		algorithm:     rec.Algorithm,
		pass:          rec.Pass,
		createdAt:     uint64(rec.CreatedAt.Unix()),
	}

	tlvStream, err := tlv.NewStream(f.records()...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tlvStream.Encode(&buf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeSelectionRecord parses a record serialized by EncodeSelectionRecord.
func DecodeSelectionRecord(data []byte) (*SelectionRecord, error) {
	var f selectionRecordFields

	tlvStream, err := tlv.NewStream(f.records()...)
	if err != nil {
		return nil, err
	}

	parsedTypes, err := tlvStream.DecodeWithParsedTypes(
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, newError(
			ErrInvalidRecord, "decode selection record", err,
		)
	}

	for _, typ := range []tlv.Type{
		typeSelectionID, typeSelectionInputs, typeSelectionTarget,
	} {
		if _, ok := parsedTypes[typ]; !ok {
			return nil, newError(ErrInvalidRecord,
				fmt.Sprintf("missing record type %d", typ), nil)
		}
	}

	return &SelectionRecord{
		ID:            chainhash.Hash(f.id),
		Inputs:        f.inputs,
		Target:        btcutil.Amount(f.target),
		SelectedValue: btcutil.Amount(f.selectedValue),
		Fee:           btcutil.Amount(f.fee),
		Change:        btcutil.Amount(f.change),
		Waste:         btcutil.Amount(f.waste),
		FeeRate:       btcunit.SatPerKVByte(f.feeRate),
		Algorithm:     f.algorithm,
		Pass:          f.pass,
		CreatedAt:     time.Unix(int64(f.createdAt), 0),
	}, nil
}

// outPointsEncoder writes a list of outpoints back to back.
func outPointsEncoder(w io.Writer, val interface{}, _ *[8]byte) error {
	ops, ok := val.(*[]wire.OutPoint)
	if !ok {
		return tlv.NewTypeForEncodingErr(val, "*[]wire.OutPoint")
	}

	var b [outPointSize]byte
	for _, op := range *ops {
		copy(b[:chainhash.HashSize], op.Hash[:])
		binary.BigEndian.PutUint32(b[chainhash.HashSize:], op.Index)

		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}

	return nil
}

// outPointsDecoder reads a list of outpoints written by outPointsEncoder.
func outPointsDecoder(r io.Reader, val interface{}, _ *[8]byte,
	l uint64) error {

	ops, ok := val.(*[]wire.OutPoint)
	if !ok || l%outPointSize != 0 {
		return tlv.NewTypeForDecodingErr(
			val, "*[]wire.OutPoint", l, l-l%outPointSize,
		)
	}

	n := l / outPointSize
	*ops = make([]wire.OutPoint, 0, n)

	var b [outPointSize]byte
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}

		var op wire.OutPoint
		copy(op.Hash[:], b[:chainhash.HashSize])
		op.Index = binary.BigEndian.Uint32(b[chainhash.HashSize:])
		*ops = append(*ops, op)
	}

	return nil
}
