package dovi

import "testing"

func TestDeriveProfile(t *testing.T) {
	cases := []struct {
		name    string
		profile uint8
		nlq     bool
		want    Profile
	}{
		{"profile5", 0, false, Profile5},
		{"profile7", 1, true, Profile7},
		{"profile8", 1, false, Profile8},
		{"profile4", 0, true, Profile4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := &RpuDataHeader{VdrRpuProfile: c.profile, UseNlqFlag: c.nlq}
			got, err := deriveProfile(h)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestHeaderBitDepthHelpers(t *testing.T) {
	h := &RpuDataHeader{BlBitDepthMinus8: 2, ElBitDepthMinus8: 4, VdrBitDepthMinus8: 0}
	if h.BlBitDepth() != 10 {
		t.Errorf("got BlBitDepth() %d, want 10", h.BlBitDepth())
	}
	if h.ElBitDepth() != 12 {
		t.Errorf("got ElBitDepth() %d, want 12", h.ElBitDepth())
	}
	if h.VdrBitDepth() != 8 {
		t.Errorf("got VdrBitDepth() %d, want 8", h.VdrBitDepth())
	}
}
