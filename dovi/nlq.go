/*
NAME
  nlq.go

DESCRIPTION
  nlq.go implements RpuDataNlq: the non-linear quantization parameters
  carried for the enhancement layer in dual-layer profiles (4 and 7),
  present iff the header's use_nlq_flag is set.

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
)

// intFracValue is an integer-and-fraction pair: the integer part is a fixed
// 6-bit field, the fraction part's width is the header's
// CoefficientLog2Denom, mirroring the precision the reshaping polynomial
// coefficients use.
type intFracValue struct {
	IntPart  uint8
	FracPart uint64
}

// Float64 returns v's value as IntPart + FracPart/2^denom.
func (v intFracValue) Float64(denom uint64) float64 {
	return float64(v.IntPart) + float64(v.FracPart)/float64(uint64(1)<<denom)
}

// NlqComponent carries one color component's NLQ parameters.
type NlqComponent struct {
	Offset                      uint32
	HdrInMax                    intFracValue
	LinearDeadzoneSlope         intFracValue
	LinearDeadzoneThreshold     intFracValue
}

// RpuDataNlq holds the per-component NLQ parameter sets.
type RpuDataNlq struct {
	Components [3]NlqComponent
}

func parseRpuDataNlq(r *bits.Reader, h *RpuDataHeader) (*RpuDataNlq, error) {
	n := &RpuDataNlq{}
	elBitDepth := h.ElBitDepth()

	for c := 0; c < 3; c++ {
		comp := NlqComponent{}

		off, err := r.GetN(elBitDepth)
		if err != nil {
			return nil, errors.Wrapf(err, "nlq_offset[%d]", c)
		}
		comp.Offset = uint32(off)

		for _, pair := range []*intFracValue{&comp.HdrInMax, &comp.LinearDeadzoneSlope, &comp.LinearDeadzoneThreshold} {
			v, err := readIntFrac(r, h.CoefficientLog2Denom)
			if err != nil {
				return nil, errors.Wrapf(err, "nlq value[%d]", c)
			}
			*pair = v
		}

		n.Components[c] = comp
	}

	return n, nil
}

func (n *RpuDataNlq) write(w *bits.Writer, h *RpuDataHeader) {
	elBitDepth := h.ElBitDepth()
	for c := 0; c < 3; c++ {
		comp := n.Components[c]
		w.WriteN(uint64(comp.Offset), elBitDepth)
		for _, pair := range []intFracValue{comp.HdrInMax, comp.LinearDeadzoneSlope, comp.LinearDeadzoneThreshold} {
			writeIntFrac(w, h.CoefficientLog2Denom, pair)
		}
	}
}

// readIntFrac reads the 6-bit integer part and, when denom > 0, a
// denom-bit fraction part. A zero denom arises when the header's
// coefficients use the fixed-fraction encoding, which never populates
// CoefficientLog2Denom; the fraction is then taken to be zero.
func readIntFrac(r *bits.Reader, denom uint64) (intFracValue, error) {
	i, err := r.GetN(6)
	if err != nil {
		return intFracValue{}, err
	}
	if denom == 0 {
		return intFracValue{IntPart: uint8(i)}, nil
	}
	f, err := r.GetN(int(denom))
	if err != nil {
		return intFracValue{}, err
	}
	return intFracValue{IntPart: uint8(i), FracPart: f}, nil
}

func writeIntFrac(w *bits.Writer, denom uint64, v intFracValue) {
	w.WriteN(uint64(v.IntPart), 6)
	if denom == 0 {
		return
	}
	w.WriteN(v.FracPart, int(denom))
}
