/*
NAME
  trims.go

DESCRIPTION
  trims.go implements the lift/gain/gamma/chroma-weight/saturation-gain/
  ms-weight trim formula shared by Level 2 and Level 8 blocks, and the
  rounding/clamping helper every trim value in the XML generator goes
  through before it's stored in a u12 (or i13, for ms_weight) field.

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
	"math"

	"github.com/ausocean/dovi/dmdata"
)

// clampRound4095 rounds v to the nearest integer and clamps it into
// [0, 4095], the u12 range every trim field but ms_weight shares.
func clampRound4095(v float64) uint16 {
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 4095:
		return 4095
	default:
		return uint16(r)
	}
}

func clampRoundMSWeight(v float64) int16 {
	r := math.Round(v)
	if r > 4095 {
		r = 4095
	}
	return int16(r)
}

// trimFormula converts the six authored trim controls (lift, gain, gamma,
// chroma weight, saturation gain, ms weight) into their wire-ready u12/i13
// field values. target_max_pq and Length are left unset for the caller to
// fill in, since they come from a source outside the trim tuple itself.
func trimFormula(lift, gain, gamma, chromaWeight, saturationGain, msWeight float64) *dmdata.Level2Block {
	if gamma < -1 {
		gamma = -1
	} else if gamma > 1 {
		gamma = 1
	}

	return &dmdata.Level2Block{
		TrimSlope:          clampRound4095(((gain+2)*(1-lift/2)-2)*2048 + 2048),
		TrimOffset:         clampRound4095((gain+2)*(lift/2)*2048 + 2048),
		TrimPower:          clampRound4095((2/(1+gamma/2)-2)*2048 + 2048),
		TrimChromaWeight:   clampRound4095(chromaWeight*2048 + 2048),
		TrimSaturationGain: clampRound4095(saturationGain*2048 + 2048),
		MSWeight:           clampRoundMSWeight(msWeight*2048 + 2048),
	}
}
