/*
NAME
  header.go

DESCRIPTION
  header.go implements RpuDataHeader, the fixed prolog of an RPU payload:
  the profile/format identification fields, the coefficient encoding mode,
  bit-depth declarations, and the per-component pivot tables that anchor
  RpuDataMapping's polynomial segments.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dovi

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dovi/bits"
	"github.com/ausocean/dovi/doverr"
)

// RpuNalPrefix is the fixed value of the rpu_nal_prefix field.
const RpuNalPrefix = 25

// RpuType identifies the RPU's NAL payload kind; only type 2 (the RPU data
// NAL) is supported.
const RpuType = 2

// Profile identifies which Dolby Vision profile an RPU was authored for.
type Profile int

const (
	ProfileUnknown Profile = 0
	Profile4       Profile = 4
	Profile5       Profile = 5
	Profile7       Profile = 7
	Profile8       Profile = 8
)

// RpuDataHeader is the RPU's fixed prolog, present in every payload ahead
// of the mapping, NLQ and VDR-DM sections.
type RpuDataHeader struct {
	RpuType   uint8 // u6
	RpuFormat uint16 // u11

	VdrRpuProfile uint8 // u4
	VdrRpuLevel   uint8 // u4

	ElSpatialResamplingFilterFlag bool
	DisableResidualFlag           bool
	VdrDmMetadataPresentFlag      bool
	UseNlqFlag                    bool

	ChromaResamplingExplicitFilterFlag bool
	CoefficientDataType                uint8 // u2: 0 = integer, 1 = fixed-fraction
	CoefficientLog2Denom               uint64 // ue(v), present iff CoefficientDataType == 0

	VdrRpuNormalizedIdc uint8 // u2
	BlVideoFullRangeFlag bool

	BlBitDepthMinus8  uint64 // ue(v)
	ElBitDepthMinus8  uint64 // ue(v)
	VdrBitDepthMinus8 uint64 // ue(v)

	ColorSpace   uint8 // u2
	ChromaFormat uint8 // u2

	NumPivotsMinus2 [3]uint64     // ue(v) per component
	PredPivotValue  [3][]uint64 // width = BlBitDepthMinus8+8, len = NumPivotsMinus2[c]+2
}

// BlBitDepth is the base-layer bit depth in bits.
func (h *RpuDataHeader) BlBitDepth() int { return int(h.BlBitDepthMinus8) + 8 }

// ElBitDepth is the enhancement-layer bit depth in bits.
func (h *RpuDataHeader) ElBitDepth() int { return int(h.ElBitDepthMinus8) + 8 }

// VdrBitDepth is the VDR (reshaped) bit depth in bits.
func (h *RpuDataHeader) VdrBitDepth() int { return int(h.VdrBitDepthMinus8) + 8 }

// NlqPresent reports whether the header advertises an enhancement-layer
// NLQ block, per the profile-derivation rule in deriveProfile.
func (h *RpuDataHeader) NlqPresent() bool {
	return h.UseNlqFlag
}

// parseRpuDataHeader reads the rpu_nal_prefix/rpu_type pair and the header
// body, verifying rpu_type == 2.
func parseRpuDataHeader(r *bits.Reader) (*RpuDataHeader, error) {
	prefix, err := r.GetN(8)
	if err != nil {
		return nil, errors.Wrap(err, "rpu_nal_prefix")
	}
	if prefix != RpuNalPrefix {
		return nil, doverr.ErrUnsupportedNalType
	}

	rpuType, err := r.GetN(6)
	if err != nil {
		return nil, errors.Wrap(err, "rpu_type")
	}
	if rpuType != RpuType {
		return nil, doverr.ErrUnsupportedNalType
	}

	h := &RpuDataHeader{RpuType: uint8(rpuType)}

	rpuFormat, err := r.GetN(11)
	if err != nil {
		return nil, errors.Wrap(err, "rpu_format")
	}
	h.RpuFormat = uint16(rpuFormat)

	if h.VdrRpuProfile, err = readBitsU8(r, 4); err != nil {
		return nil, errors.Wrap(err, "vdr_rpu_profile")
	}
	if h.VdrRpuLevel, err = readBitsU8(r, 4); err != nil {
		return nil, errors.Wrap(err, "vdr_rpu_level")
	}

	if h.ElSpatialResamplingFilterFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "el_spatial_resampling_filter_flag")
	}
	if h.DisableResidualFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "disable_residual_flag")
	}
	if h.VdrDmMetadataPresentFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "vdr_dm_metadata_present_flag")
	}
	if h.UseNlqFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "use_nlq_flag")
	}

	if h.ChromaResamplingExplicitFilterFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "chroma_resampling_explicit_filter_flag")
	}
	if h.CoefficientDataType, err = readBitsU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "coefficient_data_type")
	}
	if h.CoefficientDataType == 0 {
		if h.CoefficientLog2Denom, err = r.GetUE(); err != nil {
			return nil, errors.Wrap(err, "coefficient_log2_denom")
		}
	}

	if h.VdrRpuNormalizedIdc, err = readBitsU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "vdr_rpu_normalized_idc")
	}
	if h.BlVideoFullRangeFlag, err = readBitsBool(r); err != nil {
		return nil, errors.Wrap(err, "bl_video_full_range_flag")
	}

	if h.BlBitDepthMinus8, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "bl_bit_depth_minus8")
	}
	if h.ElBitDepthMinus8, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "el_bit_depth_minus8")
	}
	if h.VdrBitDepthMinus8, err = r.GetUE(); err != nil {
		return nil, errors.Wrap(err, "vdr_bit_depth_minus_8")
	}

	if h.ColorSpace, err = readBitsU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "color_space")
	}
	if h.ChromaFormat, err = readBitsU8(r, 2); err != nil {
		return nil, errors.Wrap(err, "chroma_format")
	}

	blBitDepth := h.BlBitDepth()
	for c := 0; c < 3; c++ {
		n, err := r.GetUE()
		if err != nil {
			return nil, errors.Wrapf(err, "num_pivots_minus_2[%d]", c)
		}
		h.NumPivotsMinus2[c] = n

		count := int(n) + 2
		pivots := make([]uint64, count)
		for i := 0; i < count; i++ {
			v, err := r.GetN(blBitDepth)
			if err != nil {
				return nil, errors.Wrapf(err, "pred_pivot_value[%d][%d]", c, i)
			}
			pivots[i] = v
		}
		h.PredPivotValue[c] = pivots
	}

	return h, nil
}

func (h *RpuDataHeader) write(w *bits.Writer) {
	w.WriteN(RpuNalPrefix, 8)
	w.WriteN(uint64(RpuType), 6)
	w.WriteN(uint64(h.RpuFormat), 11)
	w.WriteN(uint64(h.VdrRpuProfile), 4)
	w.WriteN(uint64(h.VdrRpuLevel), 4)

	writeBool(w, h.ElSpatialResamplingFilterFlag)
	writeBool(w, h.DisableResidualFlag)
	writeBool(w, h.VdrDmMetadataPresentFlag)
	writeBool(w, h.UseNlqFlag)

	writeBool(w, h.ChromaResamplingExplicitFilterFlag)
	w.WriteN(uint64(h.CoefficientDataType), 2)
	if h.CoefficientDataType == 0 {
		w.WriteUE(h.CoefficientLog2Denom)
	}

	w.WriteN(uint64(h.VdrRpuNormalizedIdc), 2)
	writeBool(w, h.BlVideoFullRangeFlag)

	w.WriteUE(h.BlBitDepthMinus8)
	w.WriteUE(h.ElBitDepthMinus8)
	w.WriteUE(h.VdrBitDepthMinus8)

	w.WriteN(uint64(h.ColorSpace), 2)
	w.WriteN(uint64(h.ChromaFormat), 2)

	blBitDepth := h.BlBitDepth()
	for c := 0; c < 3; c++ {
		w.WriteUE(h.NumPivotsMinus2[c])
		for _, v := range h.PredPivotValue[c] {
			w.WriteN(v, blBitDepth)
		}
	}
}

// deriveProfile maps the header's profile-identification fields onto the
// canonical Dolby Vision profile number.
func deriveProfile(h *RpuDataHeader) (Profile, error) {
	switch {
	case h.VdrRpuProfile == 0 && !h.NlqPresent():
		return Profile5, nil
	case h.VdrRpuProfile == 1 && h.NlqPresent():
		return Profile7, nil
	case h.VdrRpuProfile == 1 && !h.NlqPresent():
		return Profile8, nil
	case h.VdrRpuProfile == 0 && h.NlqPresent():
		return Profile4, nil
	default:
		return ProfileUnknown, doverr.ErrInvalidProfile
	}
}

func readBitsBool(r *bits.Reader) (bool, error) { return r.Get() }

func readBitsU8(r *bits.Reader, n int) (uint8, error) {
	v, err := r.GetN(n)
	return uint8(v), err
}

func writeBool(w *bits.Writer, b bool) { w.Write(b) }
