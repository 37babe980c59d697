/*
NAME
  mapping.go

DESCRIPTION
  mapping.go implements RpuDataMapping: the per-component, per-pivot-segment
  reshaping curve that maps base-layer samples onto the VDR (reshaped)
  range, expressed either as a low-order polynomial or as a multivariate
  multiple regression (MMR) matrix.

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

// MappingIdc selects a pivot segment's curve shape.
type MappingIdc uint64

const (
	MappingPolynomial MappingIdc = 0
	MappingMMR        MappingIdc = 1
)

// mmrCoefficientsPerOrder is the number of MMR coefficients contributed by
// each order of the matrix (three single-component terms, three pairwise
// cross products and one three-way cross product; the constant term is
// carried once per segment, outside this count).
const mmrCoefficientsPerOrder = 7

// Coefficient is a single reshaping coefficient, stored either as a signed
// integer scaled by 2^-CoefficientLog2Denom (CoefficientDataType == 0) or
// as 32 fixed-fraction bits interpreted as a signed value scaled by 2^-32
// (CoefficientDataType == 1).
type Coefficient struct {
	Raw    int64
	Fixed  bool // true when this came from the fixed-fraction encoding.
	Denom  uint64
}

// Float64 returns the coefficient's value as a float, dividing by
// 2^Denom when the coefficient is an integer encoding.
func (c Coefficient) Float64() float64 {
	if c.Fixed {
		return float64(c.Raw) / float64(int64(1)<<32)
	}
	return float64(c.Raw) / float64(int64(1)<<c.Denom)
}

// PivotSegment is one polynomial-or-MMR curve segment between two adjacent
// pivot values.
type PivotSegment struct {
	MappingIdc MappingIdc

	// Polynomial fields, valid when MappingIdc == MappingPolynomial.
	PolyOrder    int // 1, 2 or 3
	PolyCoef     []Coefficient

	// MMR fields, valid when MappingIdc == MappingMMR.
	MMROrder    int // 1, 2 or 3
	MMRConstant Coefficient
	MMRCoef     []Coefficient // len == MMROrder * mmrCoefficientsPerOrder
}

// RpuDataMapping carries, for each of the 3 color components, one
// PivotSegment per pivot interval (NumPivotsMinus2[c]+1 of them).
type RpuDataMapping struct {
	Segments [3][]PivotSegment
}

func parseRpuDataMapping(r *bits.Reader, h *RpuDataHeader) (*RpuDataMapping, error) {
	m := &RpuDataMapping{}

	for c := 0; c < 3; c++ {
		segCount := int(h.NumPivotsMinus2[c]) + 1
		segs := make([]PivotSegment, segCount)

		for s := 0; s < segCount; s++ {
			idc, err := r.GetUE()
			if err != nil {
				return nil, errors.Wrapf(err, "mapping_idc[%d][%d]", c, s)
			}
			seg := PivotSegment{MappingIdc: MappingIdc(idc)}

			switch seg.MappingIdc {
			case MappingPolynomial:
				orderMinus1, err := r.GetUE()
				if err != nil {
					return nil, errors.Wrapf(err, "poly_order_minus1[%d][%d]", c, s)
				}
				seg.PolyOrder = int(orderMinus1) + 1
				seg.PolyCoef = make([]Coefficient, seg.PolyOrder+1)
				for i := range seg.PolyCoef {
					coef, err := readCoefficient(r, h)
					if err != nil {
						return nil, errors.Wrapf(err, "poly_coef[%d][%d][%d]", c, s, i)
					}
					seg.PolyCoef[i] = coef
				}

			case MappingMMR:
				orderMinus1, err := r.GetUE()
				if err != nil {
					return nil, errors.Wrapf(err, "mmr_order_minus1[%d][%d]", c, s)
				}
				seg.MMROrder = int(orderMinus1) + 1
				if seg.MMRConstant, err = readCoefficient(r, h); err != nil {
					return nil, errors.Wrapf(err, "mmr_constant[%d][%d]", c, s)
				}
				seg.MMRCoef = make([]Coefficient, seg.MMROrder*mmrCoefficientsPerOrder)
				for i := range seg.MMRCoef {
					coef, err := readCoefficient(r, h)
					if err != nil {
						return nil, errors.Wrapf(err, "mmr_coef[%d][%d][%d]", c, s, i)
					}
					seg.MMRCoef[i] = coef
				}

			default:
				return nil, errors.Errorf("unsupported mapping_idc %d", idc)
			}

			segs[s] = seg
		}
		m.Segments[c] = segs
	}

	return m, nil
}

func (m *RpuDataMapping) write(w *bits.Writer, h *RpuDataHeader) {
	for c := 0; c < 3; c++ {
		for _, seg := range m.Segments[c] {
			w.WriteUE(uint64(seg.MappingIdc))
			switch seg.MappingIdc {
			case MappingPolynomial:
				w.WriteUE(uint64(seg.PolyOrder - 1))
				for _, coef := range seg.PolyCoef {
					writeCoefficient(w, h, coef)
				}
			case MappingMMR:
				w.WriteUE(uint64(seg.MMROrder - 1))
				writeCoefficient(w, h, seg.MMRConstant)
				for _, coef := range seg.MMRCoef {
					writeCoefficient(w, h, coef)
				}
			}
		}
	}
}

// identityMapping returns a single-segment, first-order polynomial mapping
// per component with raw coefficients {0, 1}, used by RemoveMapping (which
// rescales the slope to the header's coefficient precision) to collapse a
// profile 7 RPU's reshaping curve to a pass-through ahead of conversion to
// profile 8.
func identityMapping() *RpuDataMapping {
	m := &RpuDataMapping{}
	for c := 0; c < 3; c++ {
		m.Segments[c] = []PivotSegment{{
			MappingIdc: MappingPolynomial,
			PolyOrder:  1,
			PolyCoef:   []Coefficient{{Raw: 0}, {Raw: 1}},
		}}
	}
	return m
}

func readCoefficient(r *bits.Reader, h *RpuDataHeader) (Coefficient, error) {
	if h.CoefficientDataType == 1 {
		v, err := r.GetN(32)
		if err != nil {
			return Coefficient{}, err
		}
		return Coefficient{Raw: int64(int32(v)), Fixed: true}, nil
	}

	width := int(h.CoefficientLog2Denom) + 2
	sign, err := r.Get()
	if err != nil {
		return Coefficient{}, err
	}
	mag, err := r.GetN(width)
	if err != nil {
		return Coefficient{}, err
	}
	v := int64(mag)
	if sign {
		v = -v
	}
	return Coefficient{Raw: v, Denom: h.CoefficientLog2Denom}, nil
}

func writeCoefficient(w *bits.Writer, h *RpuDataHeader, c Coefficient) {
	if h.CoefficientDataType == 1 {
		w.WriteN(uint64(uint32(int32(c.Raw))), 32)
		return
	}

	width := int(h.CoefficientLog2Denom) + 2
	w.Write(c.Raw < 0)
	mag := c.Raw
	if mag < 0 {
		mag = -mag
	}
	w.WriteN(uint64(mag), width)
}
