/*
NAME
  rpu.go

DESCRIPTION
  rpu.go implements DoviRpu, the top-level container binding an RPU
  payload's header, mapping, optional NLQ and optional VDR-DM sections, and
  driving the full parse/serialize pipeline: NAL prefix and type, profile
  derivation, trailing alignment bits, and the trailing CRC-32/marker byte.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dovi implements the Dolby Vision RPU bitstream: its header,
// reshaping mapping, optional enhancement-layer NLQ parameters, optional
// VDR-DM metadata, and the top-level DoviRpu container that parses and
// serializes a full payload.
package dovi

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/dovi/bits"
	"github.com/ausocean/dovi/crc32mpeg2"
	"github.com/ausocean/dovi/dmdata"
	"github.com/ausocean/dovi/doverr"
)

// TrailingMarker is the single byte that must terminate every RPU payload.
const TrailingMarker = 0x80

// DoviRpu is the full, in-memory representation of one RPU payload.
type DoviRpu struct {
	Profile Profile

	Header  *RpuDataHeader
	Mapping *RpuDataMapping
	Nlq     *RpuDataNlq // nil unless Header.NlqPresent()
	VdrDm   *dmdata.VdrDmData // nil unless Header.VdrDmMetadataPresentFlag

	CRC32 uint32

	// Modified is set by every edit operation in edit.go. Parse sets it to
	// false; Serialize re-derives the CRC and re-validates VdrDm only when
	// it is true, otherwise emitting the parsed input verbatim.
	Modified bool

	original []byte // the exact bytes Parse was given, retained for the unmodified fast path.
}

// Parse reads one RPU payload (the de-escaped NAL RBSP, prefix byte
// included) into a DoviRpu.
func Parse(payload []byte) (*DoviRpu, error) {
	if len(payload) < 5 {
		return nil, doverr.ErrTruncated
	}

	r := bits.NewReader(payload)

	header, err := parseRpuDataHeader(r)
	if err != nil {
		return nil, errors.Wrap(err, "rpu_data_header")
	}

	profile, err := deriveProfile(header)
	if err != nil {
		return nil, err
	}

	mapping, err := parseRpuDataMapping(r, header)
	if err != nil {
		return nil, errors.Wrap(err, "rpu_data_mapping")
	}

	rpu := &DoviRpu{
		Profile:  profile,
		Header:   header,
		Mapping:  mapping,
		original: append([]byte(nil), payload...),
	}

	if header.NlqPresent() {
		rpu.Nlq, err = parseRpuDataNlq(r, header)
		if err != nil {
			return nil, errors.Wrap(err, "rpu_data_nlq")
		}
	}

	if header.VdrDmMetadataPresentFlag {
		rpu.VdrDm, err = dmdata.Parse(r)
		if err != nil {
			return nil, errors.Wrap(err, "vdr_dm_data")
		}
	}

	if _, err := r.AlignToByte(); err != nil {
		return nil, err
	}

	trailerStart := r.ByteOffset()
	if len(payload) < trailerStart+5 {
		return nil, doverr.ErrTruncated
	}

	wantCRC := binary.BigEndian.Uint32(payload[trailerStart : trailerStart+4])
	gotCRC := crc32mpeg2.Checksum(payload[1:trailerStart])
	if gotCRC != wantCRC {
		return nil, doverr.ErrCrcMismatch
	}
	rpu.CRC32 = gotCRC

	if payload[trailerStart+4] != TrailingMarker {
		return nil, doverr.ErrMissingMarker
	}
	if len(payload) != trailerStart+5 {
		return nil, doverr.ErrTruncated
	}

	return rpu, nil
}

// Serialize emits rpu's payload bytes. When rpu has not been modified since
// Parse, it returns the exact original bytes; otherwise it re-validates,
// re-serializes every section and recomputes the trailing CRC-32.
func (rpu *DoviRpu) Serialize() ([]byte, error) {
	if !rpu.Modified && rpu.original != nil {
		return append([]byte(nil), rpu.original...), nil
	}

	if rpu.VdrDm != nil {
		if err := rpu.VdrDm.Validate(); err != nil {
			return nil, err
		}
	}

	w := bits.NewWriter()
	rpu.Header.write(w)
	rpu.Mapping.write(w, rpu.Header)

	if rpu.Header.NlqPresent() {
		if rpu.Nlq == nil {
			return nil, errors.New("rpu: use_nlq_flag is set but Nlq is nil")
		}
		rpu.Nlq.write(w, rpu.Header)
	}

	if rpu.Header.VdrDmMetadataPresentFlag {
		if rpu.VdrDm == nil {
			return nil, errors.New("rpu: vdr_dm_metadata_present_flag is set but VdrDm is nil")
		}
		rpu.VdrDm.Write(w)
	}

	w.AlignToByte()
	body := w.Bytes()

	crc := crc32mpeg2.Checksum(body[1:])
	out := make([]byte, 0, len(body)+5)
	out = append(out, body...)
	var crcBytes [4]byte
	binary.BigEndian.PutUint32(crcBytes[:], crc)
	out = append(out, crcBytes[:]...)
	out = append(out, TrailingMarker)

	rpu.CRC32 = crc
	return out, nil
}
