/*
NAME
  aspect.go

DESCRIPTION
  aspect.go computes the Level5Block active-area offsets implied by a
  canvas/image aspect-ratio pair: letterboxing when the image is wider than
  the canvas, pillarboxing when it is narrower, and zero offsets when the
  two ratios match.

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

	"github.com/ausocean/dovi/doverr"
)

// aspectEpsilon is the tolerance below which canvas_ar and image_ar are
// treated as equal, matching float32's machine epsilon in the reference
// this was translated from.
const aspectEpsilon = 1.1920929e-7

// L5Offsets holds the four active-area crop offsets Level5Block carries.
type L5Offsets struct {
	Left, Right, Top, Bottom uint16
}

// calculateLevel5Offsets computes the active-area offsets for a canvas of
// canvasWidth x canvasHeight displaying content at imageAR inside a frame
// authored at canvasAR.
func calculateLevel5Offsets(canvasAR, imageAR float64, canvasWidth, canvasHeight *uint16) (L5Offsets, error) {
	if canvasWidth == nil || canvasHeight == nil {
		return L5Offsets{}, doverr.ErrXmlMissingCanvas
	}
	cw := float64(*canvasWidth)
	ch := float64(*canvasHeight)

	if math.Abs(canvasAR-imageAR) < aspectEpsilon {
		return L5Offsets{}, nil
	}

	if imageAR > canvasAR {
		imageH := math.Round(ch * (canvasAR / imageAR))
		diff := ch - imageH
		top := math.Trunc(diff / 2)
		bottom := diff - top
		return L5Offsets{Top: uint16(top), Bottom: uint16(bottom)}, nil
	}

	imageW := math.Round(cw * (imageAR / canvasAR))
	diff := cw - imageW
	left := math.Trunc(diff / 2)
	right := diff - left
	return L5Offsets{Left: uint16(left), Right: uint16(right)}, nil
}
