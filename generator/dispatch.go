/*
NAME
  dispatch.go

DESCRIPTION
  dispatch.go fans a GenerateConfig's shot timeline out into one RPU
  payload per frame: each frame inherits its enclosing shot's extension
  metadata, with any frame-edit override applied for exactly that frame,
  and carries scene_refresh_flag=1 iff it is the first frame of its shot.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package generator

import (
	"github.com/pkg/errors"

	"github.com/ausocean/dovi/dmdata"
	"github.com/ausocean/dovi/dovi"
)

// GenerateRpuBytes produces one RPU payload per frame across config's shot
// timeline, in frame order.
func GenerateRpuBytes(config *GenerateConfig) ([][]byte, error) {
	var out [][]byte

	for _, shot := range config.Shots {
		for i := 0; i < shot.Duration; i++ {
			frameIdx := shot.Start + i
			metadata := shot.Metadata
			if edit := frameEditAt(shot, i); edit != nil {
				metadata = overrideByLevel(shot.Metadata, edit.Metadata)
			}
			metadata = withGlobalLevel5(metadata, config.Level5)

			rpu := newGeneratedRpu(config, metadata, frameIdx == shot.Start)
			payload, err := rpu.Serialize()
			if err != nil {
				return nil, errors.Wrapf(err, "serializing frame %d", frameIdx)
			}
			out = append(out, payload)
		}
	}

	return out, nil
}

// withGlobalLevel5 appends the document-wide Level5Block computed from the
// canvas/image aspect ratio, unless the shot (or its frame edit) already
// carries its own Level 5 block, which takes precedence.
func withGlobalLevel5(metadata []dmdata.ExtensionBlock, global *L5Offsets) []dmdata.ExtensionBlock {
	if global == nil {
		return metadata
	}
	for _, b := range metadata {
		if b.BlockLevel() == dmdata.Level5 {
			return metadata
		}
	}
	return append(metadata, &dmdata.Level5Block{
		Length:                 dmdata.Level5Length,
		ActiveAreaLeftOffset:   global.Left,
		ActiveAreaRightOffset:  global.Right,
		ActiveAreaTopOffset:    global.Top,
		ActiveAreaBottomOffset: global.Bottom,
	})
}

// withTargetLevel2 appends the document-wide target-nits-derived
// Level2Block (flat trims, target_max_pq from nitsToPQ(targetNits)), unless
// the frame already carries its own Level 2 block from a per-shot trim,
// which takes precedence.
func withTargetLevel2(metadata []dmdata.ExtensionBlock, targetNits uint16) []dmdata.ExtensionBlock {
	for _, b := range metadata {
		if b.BlockLevel() == dmdata.Level2 {
			return metadata
		}
	}
	return append(metadata, &dmdata.Level2Block{
		Length:             dmdata.Level2Length,
		TargetMaxPQ:        pqFromNits(targetNits),
		TrimSlope:          2048,
		TrimOffset:         2048,
		TrimPower:          2048,
		TrimChromaWeight:   2048,
		TrimSaturationGain: 2048,
		MSWeight:           2048,
	})
}

// withGlobalLevel6 appends the document-wide Level6Block parsed from the
// XML's mastering-display metadata, unless the frame already carries its own
// Level 6 block. When it appends, it also defaults each of vdrDm's
// source_min_pq/source_max_pq that is still zero (not set via
// config.SourceMinPQ/SourceMaxPQ) from the mastering display luminance
// (MDL), using the MDL-to-source-PQ table this format assumes: max MDL
// 1000/4000/10000 nits -> 3079/3696/4095 (any other value -> 3079), min MDL
// in 0.0001-nit units of 1..10 -> 7 and of exactly 50 -> 62.
func withGlobalLevel6(metadata []dmdata.ExtensionBlock, level6 *dmdata.Level6Block, vdrDm *dmdata.VdrDmData) []dmdata.ExtensionBlock {
	if level6 == nil {
		return metadata
	}
	for _, b := range metadata {
		if b.BlockLevel() == dmdata.Level6 {
			return metadata
		}
	}

	mdlMin := level6.MinDisplayMasteringLuminance
	mdlMax := level6.MaxDisplayMasteringLuminance
	if mdlMin > 0 && vdrDm.SourceMinPQ == 0 {
		switch {
		case mdlMin <= 10:
			vdrDm.SourceMinPQ = 7
		case mdlMin == 50:
			vdrDm.SourceMinPQ = 62
		}
	}
	if vdrDm.SourceMaxPQ == 0 {
		switch mdlMax {
		case 1000:
			vdrDm.SourceMaxPQ = 3079
		case 4000:
			vdrDm.SourceMaxPQ = 3696
		case 10000:
			vdrDm.SourceMaxPQ = 4095
		default:
			vdrDm.SourceMaxPQ = 3079
		}
	}

	return append(metadata, &dmdata.Level6Block{
		Length:                       dmdata.Level6Length,
		MaxDisplayMasteringLuminance: level6.MaxDisplayMasteringLuminance,
		MinDisplayMasteringLuminance: level6.MinDisplayMasteringLuminance,
		MaxContentLightLevel:         level6.MaxContentLightLevel,
		MaxFrameAverageLightLevel:    level6.MaxFrameAverageLightLevel,
	})
}

func frameEditAt(shot VideoShot, offsetWithinShot int) *ShotFrameEdit {
	for i := range shot.FrameEdits {
		if shot.FrameEdits[i].EditOffset == offsetWithinShot {
			return &shot.FrameEdits[i]
		}
	}
	return nil
}

// overrideByLevel replaces any block in base whose level matches a block
// in overrides, appending overrides whose level isn't already present.
func overrideByLevel(base, overrides []dmdata.ExtensionBlock) []dmdata.ExtensionBlock {
	merged := append([]dmdata.ExtensionBlock(nil), base...)
	for _, ov := range overrides {
		replaced := false
		for i, b := range merged {
			if b.BlockLevel() == ov.BlockLevel() {
				merged[i] = ov
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, ov)
		}
	}
	return merged
}

// newGeneratedRpu builds a fresh DoviRpu for one frame: a profile 8.1
// header/mapping pair (generated content never carries an enhancement layer)
// plus the frame's VDR-DM metadata.
func newGeneratedRpu(config *GenerateConfig, metadata []dmdata.ExtensionBlock, sceneStart bool) *dovi.DoviRpu {
	vdrDm := &dmdata.VdrDmData{
		SceneRefreshFlag:    boolToUE(sceneStart),
		YccToRgbCoef:        dmdata.P81YccToRgbCoef,
		YccToRgbOffset:      dmdata.P81YccToRgbOffset,
		RgbToLmsCoef:        dmdata.P81RgbToLmsCoef,
		SignalEOTF:          0xFFFF,
		SignalBitDepth:      12,
		SignalFullRangeFlag: 1,
		SourceDiagonal:      42,
		ExtMetadataBlocks:   append([]dmdata.ExtensionBlock(nil), metadata...),
	}
	if config.SourceMinPQ != nil {
		vdrDm.SourceMinPQ = *config.SourceMinPQ
	}
	if config.SourceMaxPQ != nil {
		vdrDm.SourceMaxPQ = *config.SourceMaxPQ
	}
	vdrDm.ExtMetadataBlocks = withTargetLevel2(vdrDm.ExtMetadataBlocks, config.TargetNits)
	vdrDm.ExtMetadataBlocks = withGlobalLevel6(vdrDm.ExtMetadataBlocks, config.Level6, vdrDm)
	vdrDm.SortExtensionBlocks()

	header := &dovi.RpuDataHeader{
		VdrRpuProfile:            1,
		VdrDmMetadataPresentFlag: true,
		CoefficientDataType:      0,
		CoefficientLog2Denom:     23,
	}
	for c := 0; c < 3; c++ {
		header.NumPivotsMinus2[c] = 0
		header.PredPivotValue[c] = []uint64{0, (1 << uint(header.BlBitDepth())) - 1}
	}

	mapping := &dovi.RpuDataMapping{}
	for c := 0; c < 3; c++ {
		mapping.Segments[c] = []dovi.PivotSegment{{
			MappingIdc: dovi.MappingPolynomial,
			PolyOrder:  1,
			PolyCoef:   []dovi.Coefficient{{Raw: 0, Denom: 23}, {Raw: 1 << 23, Denom: 23}},
		}}
	}

	return &dovi.DoviRpu{
		Profile:  dovi.Profile8,
		Header:   header,
		Mapping:  mapping,
		VdrDm:    vdrDm,
		Modified: true,
	}
}

func boolToUE(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
