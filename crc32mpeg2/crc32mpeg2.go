/*
NAME
  crc32mpeg2.go

DESCRIPTION
  crc32mpeg2.go implements the CRC-32/MPEG-2 checksum used to terminate an
  RPU payload: polynomial 0x04C11DB7, initial value 0xFFFFFFFF, no input or
  output reflection, and no final XOR.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crc32mpeg2 computes the CRC-32/MPEG-2 checksum, as used by the
// Dolby Vision RPU trailer and by MPEG-2 program-specific information
// tables.
package crc32mpeg2

import "hash/crc32"

// Poly is the CRC-32/MPEG-2 polynomial, 0x04C11DB7.
const Poly uint32 = 0x04C11DB7

// table is built once from Poly by makeTable; only the crc32.Table array
// type is taken from the stdlib, not its (reflected) table builder.
var table = makeTable(Poly)

// makeTable builds an msb-first CRC table for poly, without reflection.
func makeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// Checksum returns the CRC-32/MPEG-2 checksum of p.
func Checksum(p []byte) uint32 {
	return Update(0xffffffff, p)
}

// Update continues a CRC-32/MPEG-2 computation, feeding p into the running
// checksum crc.
func Update(crc uint32, p []byte) uint32 {
	for _, v := range p {
		crc = table[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}
