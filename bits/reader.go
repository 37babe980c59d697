/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a msb-first bit reader over a byte slice, with support
  for fixed-width fields and unsigned Exp-Golomb (ue(v)) codes, following the
  bit-reading approach of codec/h264/h264dec/bits.BitReader but operating
  directly over an in-memory buffer rather than an io.Reader, since RPU
  payloads are always fully buffered before parsing.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

// Reader reads bits msb-first from a byte slice that it borrows for its
// lifetime. The caller retains ownership of buf; Reader never mutates it.
type Reader struct {
	buf []byte
	pos int // absolute bit offset from the start of buf.
}

// NewReader returns a Reader over buf, starting at bit offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Get reads a single bit and returns it as a bool.
func (r *Reader) Get() (bool, error) {
	byteIdx := r.pos >> 3
	if byteIdx >= len(r.buf) {
		return false, ErrTruncated
	}
	shift := 7 - uint(r.pos&7)
	b := (r.buf[byteIdx]>>shift)&1 == 1
	r.pos++
	return b, nil
}

// GetN reads n bits, 1 <= n <= 32, and returns them as the low n bits of a
// uint64.
func (r *Reader) GetN(n int) (uint64, error) {
	if n < 1 || n > 32 {
		panic("bits: GetN requires 1 <= n <= 32")
	}
	var v uint64
	for i := 0; i < n; i++ {
		b, err := r.Get()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// GetUE reads an unsigned Exp-Golomb coded value: it counts leading zero
// bits z, reads z+1 bits as a value v, and returns v-1. z is capped at 32;
// exceeding it is malformed.
func (r *Reader) GetUE() (uint64, error) {
	zeros := 0
	for {
		b, err := r.Get()
		if err != nil {
			return 0, err
		}
		if b {
			break
		}
		zeros++
		if zeros > maxExpGolombZeros {
			return 0, ErrMalformedExpGolomb
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	rem, err := r.GetN(zeros)
	if err != nil {
		return 0, err
	}
	return (uint64(1)<<uint(zeros) - 1) + rem, nil
}

// IsAligned reports whether the current bit position is a multiple of 8.
func (r *Reader) IsAligned() bool {
	return r.pos%8 == 0
}

// BitPos returns the current absolute bit offset.
func (r *Reader) BitPos() int {
	return r.pos
}

// ByteOffset returns the current byte offset, i.e. BitPos()/8.
func (r *Reader) ByteOffset() int {
	return r.pos / 8
}

// AlignToByte advances the reader to the next byte boundary, returning
// ErrValidationFailed-style feedback via the bool: it reports false if any
// skipped padding bit was non-zero. Callers that must reject non-zero
// padding (as the VDR-DM alignment rule requires) can act on the result.
func (r *Reader) AlignToByte() (allZero bool, err error) {
	allZero = true
	for !r.IsAligned() {
		b, err := r.Get()
		if err != nil {
			return false, err
		}
		if b {
			allZero = false
		}
	}
	return allZero, nil
}

// Remaining returns the number of unread bits left in the buffer.
func (r *Reader) Remaining() int {
	return len(r.buf)*8 - r.pos
}
