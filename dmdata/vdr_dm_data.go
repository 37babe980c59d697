/*
NAME
  vdr_dm_data.go

DESCRIPTION
  vdr_dm_data.go implements VdrDmData, the Video Dynamic-Range Display
  Management payload embedded in an RPU's extension area: a fixed header of
  colorimetry and signal-description fields, followed by an ordered run of
  byte-aligned extension metadata blocks (see blocks.go).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dmdata

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ausocean/dovi/bits"
	"github.com/ausocean/dovi/doverr"
)

// P81YccToRgbCoef and P81RgbToLmsCoef are the canonical colorimetry matrices
// mandated for profile 8.1 content, used both when converting a profile 5
// RPU to 8.1 and when generating new RPUs from scratch.
var (
	P81YccToRgbCoef   = [9]int16{9574, 0, 13802, 9574, -1540, -5348, 9574, 17610, 0}
	P81YccToRgbOffset = [3]uint32{16777216, 134217728, 134217728}
	P81RgbToLmsCoef   = [9]int16{7222, 8771, 390, 2654, 12430, 1300, 0, 422, 15962}
	P81SignalColorSpace uint8 = 0
)

// VdrDmData is the fixed-header portion of the VDR-DM payload, plus the
// extension metadata blocks that follow it. Field order matches the wire
// layout exactly: both Parse and Write iterate it top to bottom.
type VdrDmData struct {
	AffectedDmMetadataID uint64
	CurrentDmMetadataID  uint64
	SceneRefreshFlag     uint64

	YccToRgbCoef   [9]int16
	YccToRgbOffset [3]uint32
	RgbToLmsCoef   [9]int16

	SignalEOTF        uint16
	SignalEOTFParam0  uint16
	SignalEOTFParam1  uint16
	SignalEOTFParam2  uint32
	SignalBitDepth    uint8 // u5
	SignalColorSpace  uint8 // u2
	SignalChromaFormat uint8 // u2
	SignalFullRangeFlag uint8 // u2

	SourceMinPQ   uint16 // u12
	SourceMaxPQ   uint16 // u12
	SourceDiagonal uint16 // u10

	ExtMetadataBlocks []ExtensionBlock
}

// Parse reads a VdrDmData payload from r.
func Parse(r *bits.Reader) (*VdrDmData, error) {
	d := &VdrDmData{}

	var err error
	if d.AffectedDmMetadataID, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "affected_dm_metadata_id")
	}
	if d.CurrentDmMetadataID, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "current_dm_metadata_id")
	}
	if d.SceneRefreshFlag, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "scene_refresh_flag")
	}

	for i := range d.YccToRgbCoef {
		v, err := r.GetN(16)
		if err != nil {
			return nil, errors.Wrapf(err, "ycc_to_rgb_coef%d", i)
		}
		d.YccToRgbCoef[i] = int16(v)
	}
	for i := range d.YccToRgbOffset {
		v, err := r.GetN(32)
		if err != nil {
			return nil, errors.Wrapf(err, "ycc_to_rgb_offset%d", i)
		}
		d.YccToRgbOffset[i] = uint32(v)
	}
	for i := range d.RgbToLmsCoef {
		v, err := r.GetN(16)
		if err != nil {
			return nil, errors.Wrapf(err, "rgb_to_lms_coef%d", i)
		}
		d.RgbToLmsCoef[i] = int16(v)
	}

	fields := []struct {
		dst  *uint16
		bits int
	}{
		{&d.SignalEOTF, 16},
		{&d.SignalEOTFParam0, 16},
		{&d.SignalEOTFParam1, 16},
	}
	for _, f := range fields {
		v, err := r.GetN(f.bits)
		if err != nil {
			return nil, err
		}
		*f.dst = uint16(v)
	}
	v32, err := r.GetN(32)
	if err != nil {
		return nil, errors.Wrap(err, "signal_eotf_param2")
	}
	d.SignalEOTFParam2 = uint32(v32)

	if d.SignalBitDepth, err = readU8(r, 5); err != nil {
		return nil, errors.Wrap(err, "signal_bit_depth")
	}
	if d.SignalColorSpace, err = readU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "signal_color_space")
	}
	if d.SignalChromaFormat, err = readU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "signal_chroma_format")
	}
	if d.SignalFullRangeFlag, err = readU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "signal_full_range_flag")
	}

	if d.SourceMinPQ, err = readU16(r, 12); err != nil {
		return nil, errors.Wrap(err, "source_min_pq")
	}
	if d.SourceMaxPQ, err = readU16(r, 12); err != nil {
		return nil, errors.Wrap(err, "source_max_pq")
	}
	if d.SourceDiagonal, err = readU16(r, 10); err != nil {
		return nil, errors.Wrap(err, "source_diagonal")
	}

	numExtBlocks, err := r.GetUE()
	if err != nil {
		return nil, errors.Wrap(err, "num_ext_blocks")
	}

	if numExtBlocks > 0 {
		if ok, err := r.AlignToByte(); err != nil {
			return nil, err
		} else if !ok {
			return nil, doverr.ErrAlignmentPaddingNonZero
		}

		for i := uint64(0); i < numExtBlocks; i++ {
			block, err := ParseExtensionBlock(r)
			if err != nil {
				return nil, errors.Wrapf(err, "ext_metadata_block[%d]", i)
			}
			d.ExtMetadataBlocks = append(d.ExtMetadataBlocks, block)
		}
	}

	return d, nil
}

// Write serialises d to w, byte-aligning before the extension block run
// exactly as Parse expects to find it.
func (d *VdrDmData) Write(w *bits.Writer) {
	w.WriteUE(d.AffectedDmMetadataID)
	w.WriteUE(d.CurrentDmMetadataID)
	w.WriteUE(d.SceneRefreshFlag)

	for _, c := range d.YccToRgbCoef {
		w.WriteN(uint64(uint16(c)), 16)
	}
	for _, o := range d.YccToRgbOffset {
		w.WriteN(uint64(o), 32)
	}
	for _, c := range d.RgbToLmsCoef {
		w.WriteN(uint64(uint16(c)), 16)
	}

	w.WriteN(uint64(d.SignalEOTF), 16)
	w.WriteN(uint64(d.SignalEOTFParam0), 16)
	w.WriteN(uint64(d.SignalEOTFParam1), 16)
	w.WriteN(uint64(d.SignalEOTFParam2), 32)

	w.WriteN(uint64(d.SignalBitDepth), 5)
	w.WriteN(uint64(d.SignalColorSpace), 2)
	w.WriteN(uint64(d.SignalChromaFormat), 2)
	w.WriteN(uint64(d.SignalFullRangeFlag), 2)

	w.WriteN(uint64(d.SourceMinPQ), 12)
	w.WriteN(uint64(d.SourceMaxPQ), 12)
	w.WriteN(uint64(d.SourceDiagonal), 10)

	w.WriteUE(uint64(len(d.ExtMetadataBlocks)))

	if len(d.ExtMetadataBlocks) > 0 {
		w.AlignToByte()
		for _, block := range d.ExtMetadataBlocks {
			WriteExtensionBlock(w, block)
		}
	}
}

// Validate checks the invariants vdr_dm_data_payload's producer must hold
// before Write is called.
func (d *VdrDmData) Validate() error {
	if d.AffectedDmMetadataID > 15 {
		return &doverr.ValidationFailedError{Field: "affected_dm_metadata_id", Reason: "must be <= 15"}
	}
	if d.SignalBitDepth < 8 || d.SignalBitDepth > 16 {
		return &doverr.ValidationFailedError{Field: "signal_bit_depth", Reason: "must be in [8, 16]"}
	}
	if d.SignalEOTFParam0 == 0 && d.SignalEOTFParam1 == 0 && d.SignalEOTFParam2 == 0 {
		if d.SignalEOTF != 0xFFFF {
			return &doverr.ValidationFailedError{Field: "signal_eotf", Reason: "must be 0xFFFF when all eotf params are zero"}
		}
	}
	return nil
}

// ConvertToP81 overwrites the colorimetry matrices with the canonical
// profile 8.1 coefficients, discarding whatever profile 5 (or other) values
// were previously in place.
func (d *VdrDmData) ConvertToP81() {
	d.YccToRgbCoef = P81YccToRgbCoef
	d.YccToRgbOffset = P81YccToRgbOffset
	d.RgbToLmsCoef = P81RgbToLmsCoef
	d.SignalColorSpace = P81SignalColorSpace
}

// ChangeSourceLevels overwrites SourceMinPQ and/or SourceMaxPQ when the
// corresponding pointer is non-nil, leaving the other untouched.
func (d *VdrDmData) ChangeSourceLevels(minPQ, maxPQ *uint16) {
	if minPQ != nil {
		d.SourceMinPQ = *minPQ
	}
	if maxPQ != nil {
		d.SourceMaxPQ = *maxPQ
	}
}

// Level2Block returns the first Level2Block present, or nil.
func (d *VdrDmData) Level2Block() *Level2Block {
	for _, b := range d.ExtMetadataBlocks {
		if l2, ok := b.(*Level2Block); ok {
			return l2
		}
	}
	return nil
}

// Level5Block returns the first Level5Block present, or nil.
func (d *VdrDmData) Level5Block() *Level5Block {
	for _, b := range d.ExtMetadataBlocks {
		if l5, ok := b.(*Level5Block); ok {
			return l5
		}
	}
	return nil
}

// Level6Block returns the first Level6Block present, or nil.
func (d *VdrDmData) Level6Block() *Level6Block {
	for _, b := range d.ExtMetadataBlocks {
		if l6, ok := b.(*Level6Block); ok {
			return l6
		}
	}
	return nil
}

// AddLevel5Metadata appends (or, if one is already present, replaces) the
// active-area crop offsets carried in a Level5Block.
func (d *VdrDmData) AddLevel5Metadata(left, right, top, bottom uint16) {
	block := &Level5Block{
		Length:                 Level5Length,
		ActiveAreaLeftOffset:   left,
		ActiveAreaRightOffset:  right,
		ActiveAreaTopOffset:    top,
		ActiveAreaBottomOffset: bottom,
	}
	for i, b := range d.ExtMetadataBlocks {
		if _, ok := b.(*Level5Block); ok {
			d.ExtMetadataBlocks[i] = block
			return
		}
	}
	d.ExtMetadataBlocks = append(d.ExtMetadataBlocks, block)
	d.SortExtensionBlocks()
}

// RemoveLevel5Metadata zeroes out any present Level5Block's offsets rather
// than removing the block outright, matching crop_l5's reset-not-delete
// semantics.
func (d *VdrDmData) RemoveLevel5Metadata() {
	if l5 := d.Level5Block(); l5 != nil {
		l5.ActiveAreaLeftOffset = 0
		l5.ActiveAreaRightOffset = 0
		l5.ActiveAreaTopOffset = 0
		l5.ActiveAreaBottomOffset = 0
	}
}

// SortExtensionBlocks stably reorders ExtMetadataBlocks by ascending level,
// breaking ties among multiple Level2 blocks by ascending TargetMaxPQ (all
// other levels are expected to appear at most once and need no tiebreak).
func (d *VdrDmData) SortExtensionBlocks() {
	sort.SliceStable(d.ExtMetadataBlocks, func(i, j int) bool {
		a, b := d.ExtMetadataBlocks[i], d.ExtMetadataBlocks[j]
		if a.BlockLevel() != b.BlockLevel() {
			return a.BlockLevel() < b.BlockLevel()
		}
		return sortTiebreak(a) < sortTiebreak(b)
	})
}

func sortTiebreak(b ExtensionBlock) uint16 {
	if l2, ok := b.(*Level2Block); ok {
		return l2.TargetMaxPQ
	}
	return 0
}

func readU8(r *bits.Reader, n int) (uint8, error) {
	v, err := r.GetN(n)
	return uint8(v), err
}

func readU16(r *bits.Reader, n int) (uint16, error) {
	v, err := r.GetN(n)
	return uint16(v), err
}
