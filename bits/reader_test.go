package bits

import "testing"

func TestGetN(t *testing.T) {
	// 0x8f, 0xe3 = 1000 1111, 1110 0011
	r := NewReader([]byte{0x8f, 0xe3})

	tests := []struct {
		n    int
		want uint64
	}{
		{n: 4, want: 0x8},
		{n: 2, want: 0x3},
		{n: 4, want: 0xf},
		{n: 6, want: 0x23},
	}

	for i, test := range tests {
		got, err := r.GetN(test.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.want {
			t.Errorf("test %d: got %#x, want %#x", i, got, test.want)
		}
	}
}

func TestGetTruncated(t *testing.T) {
	r := NewReader([]byte{0xff})
	if _, err := r.GetN(8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Get(); err != ErrTruncated {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestGetUE(t *testing.T) {
	// ue(v) codes for 0..5: 1, 010, 011, 00100, 00101, 00110
	// Packed msb-first: 1 010 011 00100 00101 00110 -> pad to bytes.
	w := NewWriter()
	for _, v := range []uint64{0, 1, 2, 3, 4, 5} {
		w.WriteUE(v)
	}
	w.AlignToByte()

	r := NewReader(w.Bytes())
	for i, want := range []uint64{0, 1, 2, 3, 4, 5} {
		got, err := r.GetUE()
		if err != nil {
			t.Fatalf("value %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("value %d: got %d, want %d", i, got, want)
		}
	}
}

func TestGetUEMalformed(t *testing.T) {
	buf := make([]byte, 5) // 40 zero bits: more than 32 leading zeros.
	r := NewReader(buf)
	if _, err := r.GetUE(); err != ErrMalformedExpGolomb {
		t.Errorf("got %v, want ErrMalformedExpGolomb", err)
	}
}

func TestIsAlignedAndByteOffset(t *testing.T) {
	r := NewReader([]byte{0xff, 0xff})
	if !r.IsAligned() {
		t.Fatal("expected reader to start aligned")
	}
	if _, err := r.GetN(4); err != nil {
		t.Fatal(err)
	}
	if r.IsAligned() {
		t.Error("expected reader to be unaligned after reading 4 bits")
	}
	if _, err := r.GetN(4); err != nil {
		t.Fatal(err)
	}
	if !r.IsAligned() {
		t.Error("expected reader to be aligned after reading a full byte")
	}
	if got := r.ByteOffset(); got != 1 {
		t.Errorf("got byte offset %d, want 1", got)
	}
}

func TestAlignToByteDetectsNonZeroPadding(t *testing.T) {
	r := NewReader([]byte{0b11100000})
	if _, err := r.GetN(3); err != nil {
		t.Fatal(err)
	}
	allZero, err := r.AlignToByte()
	if err != nil {
		t.Fatal(err)
	}
	if !allZero {
		t.Error("expected all-zero padding")
	}

	r2 := NewReader([]byte{0b00011000})
	if _, err := r2.GetN(3); err != nil {
		t.Fatal(err)
	}
	allZero, err = r2.AlignToByte()
	if err != nil {
		t.Fatal(err)
	}
	if allZero {
		t.Error("expected non-zero padding to be detected")
	}
}
