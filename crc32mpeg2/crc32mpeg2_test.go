package crc32mpeg2

import "testing"

func TestChecksumKnownVector(t *testing.T) {
	// "123456789" is the standard check string for CRC-32/MPEG-2, with a
	// known checksum of 0x0376E6E7.
	got := Checksum([]byte("123456789"))
	want := uint32(0x0376E6E7)
	if got != want {
		t.Errorf("got %#08x, want %#08x", got, want)
	}
}

func TestUpdateIncremental(t *testing.T) {
	data := []byte("123456789")
	whole := Checksum(data)

	crc := uint32(0xffffffff)
	crc = Update(crc, data[:4])
	crc = Update(crc, data[4:])
	if crc != whole {
		t.Errorf("incremental checksum %#08x != whole %#08x", crc, whole)
	}
}
