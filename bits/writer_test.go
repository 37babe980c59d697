package bits

import (
	"bytes"
	"testing"
)

func TestWriteNRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteN(0x8, 4)
	w.WriteN(0x3, 2)
	w.WriteN(0xf, 4)
	w.WriteN(0x23, 6)
	w.AlignToByte()

	got := w.Bytes()
	want := []byte{0x8f, 0xe3}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestWriteUERoundTrip(t *testing.T) {
	for v := uint64(0); v < 64; v++ {
		w := NewWriter()
		w.WriteUE(v)
		w.AlignToByte()

		r := NewReader(w.Bytes())
		got, err := r.GetUE()
		if err != nil {
			t.Fatalf("value %d: unexpected error: %v", v, err)
		}
		if got != v {
			t.Errorf("value %d: round-tripped to %d", v, got)
		}
	}
}

func TestWriterLenAndAlignment(t *testing.T) {
	w := NewWriter()
	if !w.IsAligned() {
		t.Fatal("expected empty writer to be aligned")
	}
	w.Write(true)
	w.Write(false)
	w.Write(true)
	if w.IsAligned() {
		t.Error("expected writer to be unaligned after 3 bits")
	}
	if w.Len() != 3 {
		t.Errorf("got Len() %d, want 3", w.Len())
	}
	w.AlignToByte()
	if !w.IsAligned() || w.Len() != 8 {
		t.Errorf("got Len() %d aligned=%v, want 8 true", w.Len(), w.IsAligned())
	}
}
