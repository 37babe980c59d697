/*
NAME
  bits.go

DESCRIPTION
  bits.go defines the errors shared by the bit reader and writer in this
  package.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit-granular reader and writer over a byte buffer,
// with msb-first ordering and an unsigned Exp-Golomb (ue(v)) codec, as used
// by the Dolby Vision RPU bitstream.
package bits

import "github.com/pkg/errors"

// ErrTruncated is returned when a read runs past the end of the underlying
// buffer.
var ErrTruncated = errors.New("bits: truncated read")

// ErrMalformedExpGolomb is returned when a ue(v) code has more than 32
// leading zero bits.
var ErrMalformedExpGolomb = errors.New("bits: malformed exp-golomb code")

// maxExpGolombZeros bounds the number of leading zero bits a ue(v) code may
// have before it is considered malformed.
const maxExpGolombZeros = 32
