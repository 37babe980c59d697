/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the error taxonomy shared by the dmdata, dovi and
  generator packages, following the sentinel and wrapped-error style
  used throughout codec/h264/h264dec (e.g. errReadTeBadX, errInvalidCAT).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package doverr collects the error values and wrapped-error types returned
// across the RPU codec, VDR-DM data model and XML generator.
package doverr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned by the bit-level codec and container parsing.
var (
	ErrTruncated           = errors.New("truncated")
	ErrMalformedExpGolomb  = errors.New("malformed exp-golomb code")
	ErrUnsupportedNalType  = errors.New("unsupported nal type")
	ErrAlignmentPaddingNonZero = errors.New("alignment padding was not all zero")
	ErrCrcMismatch         = errors.New("crc32 mismatch")
	ErrMissingMarker       = errors.New("missing trailing 0x80 marker byte")
	ErrInvalidProfile      = errors.New("invalid or unsupported dovi profile conversion")
	ErrNoCmVersion         = errors.New("no CM version found")
	ErrXmlMissingCanvas    = errors.New("canvas dimensions required to calculate level 5 metadata")
)

// UnexpectedExtBlockLengthError reports that an extension block's declared
// length did not match the length required for its level.
type UnexpectedExtBlockLengthError struct {
	Level int
	Got   int
	Want  int
}

func (e *UnexpectedExtBlockLengthError) Error() string {
	return fmt.Sprintf("unexpected ext block length for level %d: got %d, want %d", e.Level, e.Got, e.Want)
}

// ValidationFailedError reports that a VdrDmData or RpuDataHeader invariant
// did not hold before serialization.
type ValidationFailedError struct {
	Field  string
	Reason string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Reason)
}

// XmlMissingNodeError reports a required XML node was absent.
type XmlMissingNodeError struct {
	Path string
}

func (e *XmlMissingNodeError) Error() string {
	return fmt.Sprintf("missing required xml node: %s", e.Path)
}

// XmlBadNumberError reports a numeric XML node that failed to parse.
type XmlBadNumberError struct {
	Path string
	Text string
}

func (e *XmlBadNumberError) Error() string {
	return fmt.Sprintf("could not parse number at %s: %q", e.Path, e.Text)
}

// AtBitOffset wraps err with the bit offset at which it occurred, for the
// "failing block level and bit offset" detail required of CLI adapters.
func AtBitOffset(err error, bitOffset int) error {
	return errors.Wrapf(err, "at bit offset %d", bitOffset)
}

// AtLevel wraps err with the extension block level under which it occurred.
func AtLevel(err error, level int) error {
	return errors.Wrapf(err, "in level %d extension block", level)
}
