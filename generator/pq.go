/*
NAME
  pq.go

DESCRIPTION
  pq.go implements the SMPTE ST 2084 (PQ) forward EOTF inverse, used to
  convert a target display's peak brightness in nits into the normalized
  PQ code value carried by Level2Block.TargetMaxPQ.

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

import "math"

const (
	pqM1 = 0.1593017578125
	pqM2 = 78.84375
	pqC1 = 0.8359375
	pqC2 = 18.8515625
	pqC3 = 18.6875
)

// nitsToPQ converts a luminance in nits to its normalized PQ code value in
// [0, 1], per SMPTE ST 2084's inverse EOTF.
func nitsToPQ(nits float64) float64 {
	y := nits / 10000.0
	yM1 := math.Pow(y, pqM1)
	num := pqC1 + pqC2*yM1
	den := 1 + pqC3*yM1
	return math.Pow(num/den, pqM2)
}
