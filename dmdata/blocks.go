/*
NAME
  blocks.go

DESCRIPTION
  blocks.go defines the VDR-DM extension metadata block variants (levels
  1/2/3/4/5/6/8/9, plus an opaque Reserved catch-all) as a tagged variant
  dispatched on ext_block_level, following the "tagged variants over
  inheritance" design used for syntax elements throughout
  codec/h264/h264dec (e.g. the mbPartPredMode / fieldReader dispatch in
  parse.go): each level is a distinct Go type, and ParseExtensionBlock is the
  single point of dispatch rather than a virtual method set.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dmdata implements the Video Dynamic Metadata (VDR-DM) data model:
// the fixed VdrDmData header and its ordered list of extension metadata
// blocks.
package dmdata

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dovi/bits"
	"github.com/ausocean/dovi/doverr"
)

// Canonical declared lengths (in bytes) for each fixed-size extension block
// level, per the field layout table. Level 3's declared length is fixed at
// 5 bytes here rather than the 2 bytes asserted by the tool this format was
// reverse engineered from: that source reads a 36-bit payload against a
// 2-byte (16-bit) declared length, which cannot hold it and would desync
// every block that follows. 5 bytes (36-bit payload plus 4 bits of padding)
// is the only value consistent with the rest of the format's byte-alignment
// invariant, and matches Level 1's identically shaped 36-bit payload.
const (
	Level1Length = 5
	Level2Length = 11
	Level3Length = 5
	Level4Length = 3
	Level5Length = 7
	Level6Length = 8
	Level9Length = 1

	// Level8DefaultLength is the declared length used when emitting a new
	// Level 8 block: an 8-bit target_display_index prefix followed by the
	// same five 12-bit trims and a 13-bit ms_weight as Level 2 (81 bits),
	// rounded up to a whole number of bytes. The wire layout for Level 8 has
	// no authoritative reference to verify against (see the Level8 doc
	// comment below); its emission is not gated by any option.
	Level8DefaultLength = 11
)

// Level identifies an extension metadata block's kind, i.e. ext_block_level.
type Level uint8

const (
	Level1 Level = 1
	Level2 Level = 2
	Level3 Level = 3
	Level4 Level = 4
	Level5 Level = 5
	Level6 Level = 6
	Level8 Level = 8
	Level9 Level = 9
)

// ExtensionBlock is implemented by every VDR-DM extension metadata block
// variant. BlockLevel and BlockLength expose the shared BlockInfo fields;
// the concrete type is recovered with a type assertion, e.g. in sortTiebreak.
type ExtensionBlock interface {
	BlockLevel() Level
	BlockLength() int

	write(w *bits.Writer)
}

// Level1Block carries the frame's min/max/average PQ luminance (L1).
type Level1Block struct {
	Length int
	MinPQ  uint16 // u12
	MaxPQ  uint16 // u12
	AvgPQ  uint16 // u12
}

func (b *Level1Block) BlockLevel() Level  { return Level1 }
func (b *Level1Block) BlockLength() int   { return b.Length }
func (b *Level1Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.MinPQ), 12)
	w.WriteN(uint64(b.MaxPQ), 12)
	w.WriteN(uint64(b.AvgPQ), 12)
}

// Level2Block carries a target-display trim pass (L2).
type Level2Block struct {
	Length              int
	TargetMaxPQ         uint16 // u12
	TrimSlope           uint16 // u12
	TrimOffset          uint16 // u12
	TrimPower           uint16 // u12
	TrimChromaWeight    uint16 // u12
	TrimSaturationGain  uint16 // u12
	MSWeight            int16  // i13, stored without sign-extension beyond 13 bits
}

func (b *Level2Block) BlockLevel() Level { return Level2 }
func (b *Level2Block) BlockLength() int  { return b.Length }
func (b *Level2Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.TargetMaxPQ), 12)
	w.WriteN(uint64(b.TrimSlope), 12)
	w.WriteN(uint64(b.TrimOffset), 12)
	w.WriteN(uint64(b.TrimPower), 12)
	w.WriteN(uint64(b.TrimChromaWeight), 12)
	w.WriteN(uint64(b.TrimSaturationGain), 12)
	w.WriteN(uint64(uint16(b.MSWeight))&0x1fff, 13)
}

// Level3Block carries L1 min/max/average PQ offsets (L3).
type Level3Block struct {
	Length       int
	MinPQOffset  uint16 // u12
	MaxPQOffset  uint16 // u12
	AvgPQOffset  uint16 // u12
}

func (b *Level3Block) BlockLevel() Level { return Level3 }
func (b *Level3Block) BlockLength() int  { return b.Length }
func (b *Level3Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.MinPQOffset), 12)
	w.WriteN(uint64(b.MaxPQOffset), 12)
	w.WriteN(uint64(b.AvgPQOffset), 12)
}

// Level4Block carries the anchor PQ/power pair used for graphics blending (L4).
type Level4Block struct {
	Length       int
	AnchorPQ     uint16 // u12
	AnchorPower  uint16 // u12
}

func (b *Level4Block) BlockLevel() Level { return Level4 }
func (b *Level4Block) BlockLength() int  { return b.Length }
func (b *Level4Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.AnchorPQ), 12)
	w.WriteN(uint64(b.AnchorPower), 12)
}

// Level5Block carries the active-area crop offsets (L5).
type Level5Block struct {
	Length                 int
	ActiveAreaLeftOffset   uint16 // u13
	ActiveAreaRightOffset  uint16 // u13
	ActiveAreaTopOffset    uint16 // u13
	ActiveAreaBottomOffset uint16 // u13
}

func (b *Level5Block) BlockLevel() Level { return Level5 }
func (b *Level5Block) BlockLength() int  { return b.Length }
func (b *Level5Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.ActiveAreaLeftOffset), 13)
	w.WriteN(uint64(b.ActiveAreaRightOffset), 13)
	w.WriteN(uint64(b.ActiveAreaTopOffset), 13)
	w.WriteN(uint64(b.ActiveAreaBottomOffset), 13)
}

// IsZero reports whether all four offsets are zero, i.e. no active-area
// cropping is in effect.
func (b *Level5Block) IsZero() bool {
	return b.ActiveAreaLeftOffset == 0 && b.ActiveAreaRightOffset == 0 &&
		b.ActiveAreaTopOffset == 0 && b.ActiveAreaBottomOffset == 0
}

// Level6Block carries the static HDR10 mastering-display and light-level
// metrics (L6).
type Level6Block struct {
	Length                       int
	MaxDisplayMasteringLuminance uint16
	MinDisplayMasteringLuminance uint16
	MaxContentLightLevel         uint16
	MaxFrameAverageLightLevel    uint16
}

func (b *Level6Block) BlockLevel() Level { return Level6 }
func (b *Level6Block) BlockLength() int  { return b.Length }
func (b *Level6Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.MaxDisplayMasteringLuminance), 16)
	w.WriteN(uint64(b.MinDisplayMasteringLuminance), 16)
	w.WriteN(uint64(b.MaxContentLightLevel), 16)
	w.WriteN(uint64(b.MaxFrameAverageLightLevel), 16)
}

// Level8Block carries a per-target-display trim pass for CM v4.0 content
// (L8). Its wire layout has no authoritative reference to verify against:
// it is modelled here as Level 2's trims prefixed by an 8-bit
// target_display_index, which is consistent with the XML generator's L8
// trim formulas but unconfirmed against a real encoder's bitstream. No
// option gates its emission: the generator emits one for every L8 trim in a
// CM v4.0 document.
type Level8Block struct {
	Length             int
	TargetDisplayIndex uint8
	TrimSlope          uint16 // u12
	TrimOffset         uint16 // u12
	TrimPower          uint16 // u12
	TrimChromaWeight   uint16 // u12
	TrimSaturationGain uint16 // u12
	MSWeight           int16  // i13, same storage convention as Level2Block.MSWeight
}

func (b *Level8Block) BlockLevel() Level { return Level8 }
func (b *Level8Block) BlockLength() int  { return b.Length }
func (b *Level8Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.TargetDisplayIndex), 8)
	w.WriteN(uint64(b.TrimSlope), 12)
	w.WriteN(uint64(b.TrimOffset), 12)
	w.WriteN(uint64(b.TrimPower), 12)
	w.WriteN(uint64(b.TrimChromaWeight), 12)
	w.WriteN(uint64(b.TrimSaturationGain), 12)
	w.WriteN(uint64(uint16(b.MSWeight))&0x1fff, 13)
}

// Level9Block selects the mastering display's source color primaries (L9).
type Level9Block struct {
	Length             int
	SourcePrimaryIndex uint8
}

func (b *Level9Block) BlockLevel() Level { return Level9 }
func (b *Level9Block) BlockLength() int  { return b.Length }
func (b *Level9Block) write(w *bits.Writer) {
	w.WriteN(uint64(b.SourcePrimaryIndex), 8)
}

// ReservedBlock preserves an extension block of unrecognised level verbatim,
// so that round-tripping never drops data this codec doesn't understand.
type ReservedBlock struct {
	Length  int
	Lvl     Level
	Payload []byte // exactly Length bytes, byte-aligned by construction.
}

func (b *ReservedBlock) BlockLevel() Level { return b.Lvl }
func (b *ReservedBlock) BlockLength() int  { return b.Length }
func (b *ReservedBlock) write(w *bits.Writer) {
	for _, by := range b.Payload {
		w.WriteN(uint64(by), 8)
	}
}

// payloadBits returns the number of bits each level's known fields occupy,
// excluding any trailing padding.
func payloadBits(level Level) int {
	switch level {
	case Level1:
		return 36
	case Level2:
		return 85
	case Level3:
		return 36
	case Level4:
		return 24
	case Level5:
		return 52
	case Level6:
		return 64
	case Level8:
		return 81
	case Level9:
		return 8
	default:
		return 0
	}
}

// canonicalLength returns the fixed declared length in bytes for level, and
// false if the level has a variable or undeclared length (Level8, Reserved).
func canonicalLength(level Level) (int, bool) {
	switch level {
	case Level1:
		return Level1Length, true
	case Level2:
		return Level2Length, true
	case Level3:
		return Level3Length, true
	case Level4:
		return Level4Length, true
	case Level5:
		return Level5Length, true
	case Level6:
		return Level6Length, true
	case Level9:
		return Level9Length, true
	default:
		return 0, false
	}
}

// ParseExtensionBlock reads one length-prefixed extension block from r. The
// block is read byte-aligned, per the caller's obligation ahead of the
// first block and after every prior one. Errors raised once the level is
// known are wrapped with doverr.AtLevel.
func ParseExtensionBlock(r *bits.Reader) (_ ExtensionBlock, err error) {
	length, err := r.GetUE()
	if err != nil {
		return nil, errors.Wrap(err, "reading ext_block_length")
	}
	levelBits, err := r.GetN(8)
	if err != nil {
		return nil, errors.Wrap(err, "reading ext_block_level")
	}
	level := Level(levelBits)
	declared := int(length)
	defer func() {
		if err != nil {
			err = doverr.AtLevel(err, int(level))
		}
	}()

	if want, ok := canonicalLength(level); ok && declared != want {
		return nil, &doverr.UnexpectedExtBlockLengthError{Level: int(level), Got: declared, Want: want}
	}

	totalBits := declared * 8
	used := 0

	var block ExtensionBlock
	switch level {
	case Level1:
		b := &Level1Block{Length: declared}
		if b.MinPQ, err = readU12(r); err != nil {
			return nil, err
		}
		if b.MaxPQ, err = readU12(r); err != nil {
			return nil, err
		}
		if b.AvgPQ, err = readU12(r); err != nil {
			return nil, err
		}
		block, used = b, payloadBits(Level1)
	case Level2:
		b := &Level2Block{Length: declared}
		if err = readFieldsU12(r, &b.TargetMaxPQ, &b.TrimSlope, &b.TrimOffset, &b.TrimPower, &b.TrimChromaWeight, &b.TrimSaturationGain); err != nil {
			return nil, err
		}
		msw, err := r.GetN(13)
		if err != nil {
			return nil, err
		}
		b.MSWeight = int16(msw)
		block, used = b, payloadBits(Level2)
	case Level3:
		b := &Level3Block{Length: declared}
		if err = readFieldsU12(r, &b.MinPQOffset, &b.MaxPQOffset, &b.AvgPQOffset); err != nil {
			return nil, err
		}
		block, used = b, payloadBits(Level3)
	case Level4:
		b := &Level4Block{Length: declared}
		if err = readFieldsU12(r, &b.AnchorPQ, &b.AnchorPower); err != nil {
			return nil, err
		}
		block, used = b, payloadBits(Level4)
	case Level5:
		b := &Level5Block{Length: declared}
		if b.ActiveAreaLeftOffset, err = readU13(r); err != nil {
			return nil, err
		}
		if b.ActiveAreaRightOffset, err = readU13(r); err != nil {
			return nil, err
		}
		if b.ActiveAreaTopOffset, err = readU13(r); err != nil {
			return nil, err
		}
		if b.ActiveAreaBottomOffset, err = readU13(r); err != nil {
			return nil, err
		}
		block, used = b, payloadBits(Level5)
	case Level6:
		b := &Level6Block{Length: declared}
		if err = readFieldsU16(r, &b.MaxDisplayMasteringLuminance, &b.MinDisplayMasteringLuminance, &b.MaxContentLightLevel, &b.MaxFrameAverageLightLevel); err != nil {
			return nil, err
		}
		block, used = b, payloadBits(Level6)
	case Level8:
		b := &Level8Block{Length: declared}
		tdi, err := r.GetN(8)
		if err != nil {
			return nil, err
		}
		b.TargetDisplayIndex = uint8(tdi)
		if err = readFieldsU12(r, &b.TrimSlope, &b.TrimOffset, &b.TrimPower, &b.TrimChromaWeight, &b.TrimSaturationGain); err != nil {
			return nil, err
		}
		msw, err := r.GetN(13)
		if err != nil {
			return nil, err
		}
		b.MSWeight = int16(msw)
		block, used = b, payloadBits(Level8)
	case Level9:
		b := &Level9Block{Length: declared}
		spi, err := r.GetN(8)
		if err != nil {
			return nil, err
		}
		b.SourcePrimaryIndex = uint8(spi)
		block, used = b, payloadBits(Level9)
	default:
		payload := make([]byte, declared)
		for i := range payload {
			v, err := r.GetN(8)
			if err != nil {
				return nil, err
			}
			payload[i] = byte(v)
		}
		return &ReservedBlock{Length: declared, Lvl: level, Payload: payload}, nil
	}

	for used < totalBits {
		if _, err := r.Get(); err != nil {
			return nil, err
		}
		used++
	}

	return block, nil
}

// WriteExtensionBlock writes block's length prefix, level tag and payload,
// padding with zero bits out to its declared length (Reserved blocks carry
// their full opaque payload and need no separate padding).
func WriteExtensionBlock(w *bits.Writer, block ExtensionBlock) {
	w.WriteUE(uint64(block.BlockLength()))
	w.WriteN(uint64(block.BlockLevel()), 8)
	block.write(w)

	if _, ok := block.(*ReservedBlock); ok {
		return
	}
	used := payloadBits(block.BlockLevel())
	total := block.BlockLength() * 8
	for used < total {
		w.Write(false)
		used++
	}
}

func readU12(r *bits.Reader) (uint16, error) {
	v, err := r.GetN(12)
	return uint16(v), err
}

func readU13(r *bits.Reader) (uint16, error) {
	v, err := r.GetN(13)
	return uint16(v), err
}

func readFieldsU12(r *bits.Reader, fields ...*uint16) error {
	for _, f := range fields {
		v, err := r.GetN(12)
		if err != nil {
			return err
		}
		*f = uint16(v)
	}
	return nil
}

func readFieldsU16(r *bits.Reader, fields ...*uint16) error {
	for _, f := range fields {
		v, err := r.GetN(16)
		if err != nil {
			return err
		}
		*f = uint16(v)
	}
	return nil
}
