/*
NAME
  edit.go

DESCRIPTION
  edit.go implements DoviRpu's edit operations: profile conversion,
  active-area crop/offset mutation, source mastering-level overrides, and
  collapsing the reshaping mapping to identity. Every operation sets
  Modified so Serialize knows to recompute the CRC rather than replay the
  original bytes.

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
	"github.com/ausocean/dovi/dmdata"
	"github.com/ausocean/dovi/doverr"
)

// ConvertProfile converts rpu in place to target. Only 7->8 and 5->8.1 are
// supported.
func (rpu *DoviRpu) ConvertProfile(target Profile) error {
	switch {
	case rpu.Profile == Profile7 && target == Profile8:
		rpu.Header.UseNlqFlag = false
		rpu.Header.VdrRpuProfile = 1
		rpu.Nlq = nil
		rpu.RemoveMapping()
		rpu.convertColorimetryToP81()
		rpu.Profile = Profile8

	case rpu.Profile == Profile5 && target == Profile8:
		rpu.Header.VdrRpuProfile = 1
		rpu.convertColorimetryToP81()
		rpu.Profile = Profile8

	default:
		return doverr.ErrInvalidProfile
	}

	rpu.Modified = true
	return nil
}

func (rpu *DoviRpu) convertColorimetryToP81() {
	if rpu.VdrDm == nil {
		rpu.VdrDm = &dmdata.VdrDmData{}
	}
	rpu.VdrDm.ConvertToP81()
}

// RemoveMapping collapses each component's reshaping curve to a single
// identity-polynomial segment spanning its first and last pivot, reducing
// the header's pivot table to match, used ahead of a 7->8 profile
// conversion once the enhancement layer's NLQ is dropped. The slope is
// rescaled to the header's precision only for integer coefficients
// (CoefficientDataType == 0).
func (rpu *DoviRpu) RemoveMapping() {
	rpu.Mapping = identityMapping()
	if h := rpu.Header; h != nil {
		for c := 0; c < 3; c++ {
			if pivots := h.PredPivotValue[c]; len(pivots) > 2 {
				h.PredPivotValue[c] = []uint64{pivots[0], pivots[len(pivots)-1]}
			}
			h.NumPivotsMinus2[c] = 0
			if h.CoefficientDataType == 0 {
				denom := h.CoefficientLog2Denom
				rpu.Mapping.Segments[c][0].PolyCoef[1] = Coefficient{Raw: 1 << denom, Denom: denom}
			}
		}
	}
	rpu.Modified = true
}

// CropL5 sets the active-area offsets to zero, creating a Level5Block if
// none is present. Calling it twice is equivalent to calling it once.
func (rpu *DoviRpu) CropL5() {
	rpu.ensureVdrDm()
	rpu.VdrDm.AddLevel5Metadata(0, 0, 0, 0)
	rpu.Modified = true
}

// SetL5Offsets updates (or inserts) the Level5Block's active-area offsets
// and re-sorts the extension block list.
func (rpu *DoviRpu) SetL5Offsets(left, right, top, bottom uint16) {
	rpu.ensureVdrDm()
	rpu.VdrDm.AddLevel5Metadata(left, right, top, bottom)
	rpu.Modified = true
}

// ChangeSourceLevels overwrites SourceMinPQ and/or SourceMaxPQ when the
// corresponding pointer is non-nil.
func (rpu *DoviRpu) ChangeSourceLevels(minPQ, maxPQ *uint16) {
	rpu.ensureVdrDm()
	rpu.VdrDm.ChangeSourceLevels(minPQ, maxPQ)
	rpu.Modified = true
}

func (rpu *DoviRpu) ensureVdrDm() {
	if rpu.VdrDm == nil {
		rpu.VdrDm = &dmdata.VdrDmData{}
		rpu.Header.VdrDmMetadataPresentFlag = true
	}
}
