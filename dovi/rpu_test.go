package dovi

import (
	"bytes"
	"testing"

	"github.com/ausocean/dovi/dmdata"
)

// buildSampleRpu returns a minimal, internally consistent profile 8 RPU:
// one polynomial segment per component, no NLQ, and a VDR-DM payload
// carrying an L1 block.
func buildSampleRpu() *DoviRpu {
	header := &RpuDataHeader{
		RpuType:                            RpuType,
		RpuFormat:                          0,
		VdrRpuProfile:                      1,
		VdrRpuLevel:                        0,
		VdrDmMetadataPresentFlag:           true,
		ChromaResamplingExplicitFilterFlag: false,
		CoefficientDataType:                0,
		CoefficientLog2Denom:               23,
		VdrRpuNormalizedIdc:                1,
		BlVideoFullRangeFlag:               false,
		BlBitDepthMinus8:                   2,
		ElBitDepthMinus8:                   2,
		VdrBitDepthMinus8:                  2,
		ColorSpace:                         0,
		ChromaFormat:                       0,
	}
	for c := 0; c < 3; c++ {
		header.NumPivotsMinus2[c] = 0
		header.PredPivotValue[c] = []uint64{0, 1023}
	}

	mapping := &RpuDataMapping{}
	for c := 0; c < 3; c++ {
		mapping.Segments[c] = []PivotSegment{{
			MappingIdc: MappingPolynomial,
			PolyOrder:  1,
			PolyCoef:   []Coefficient{{Raw: 0, Denom: 23}, {Raw: 1 << 23, Denom: 23}},
		}}
	}

	vdrDm := &dmdata.VdrDmData{
		SignalEOTF:          0xFFFF,
		SignalBitDepth:       12,
		SourceMaxPQ:          3079,
		SourceDiagonal:       42,
		ExtMetadataBlocks: []dmdata.ExtensionBlock{
			&dmdata.Level1Block{Length: dmdata.Level1Length, MinPQ: 10, MaxPQ: 3079, AvgPQ: 1500},
		},
	}

	return &DoviRpu{
		Profile: Profile8,
		Header:  header,
		Mapping: mapping,
		VdrDm:   vdrDm,
	}
}

func TestRoundTrip(t *testing.T) {
	rpu := buildSampleRpu()

	out, err := rpu.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if reparsed.Profile != Profile8 {
		t.Errorf("got profile %d, want %d", reparsed.Profile, Profile8)
	}
	if len(reparsed.VdrDm.ExtMetadataBlocks) != 1 {
		t.Fatalf("got %d ext blocks, want 1", len(reparsed.VdrDm.ExtMetadataBlocks))
	}

	again, err := reparsed.Serialize()
	if err != nil {
		t.Fatalf("second Serialize: %v", err)
	}
	if !bytes.Equal(out, again) {
		t.Error("unmodified re-serialize did not reproduce the exact input bytes")
	}
}

func TestConvertProfile7To8DropsNlq(t *testing.T) {
	rpu := buildSampleRpu()
	rpu.Profile = Profile7
	rpu.Header.VdrRpuProfile = 1
	rpu.Header.UseNlqFlag = true
	rpu.Header.ElBitDepthMinus8 = 2
	rpu.Nlq = &RpuDataNlq{}

	if err := rpu.ConvertProfile(Profile8); err != nil {
		t.Fatalf("ConvertProfile: %v", err)
	}

	if rpu.Profile != Profile8 {
		t.Errorf("got profile %d, want %d", rpu.Profile, Profile8)
	}
	if rpu.Nlq != nil {
		t.Error("expected Nlq to be dropped")
	}
	if rpu.Header.UseNlqFlag {
		t.Error("expected use_nlq_flag to be cleared")
	}
	if rpu.VdrDm.YccToRgbCoef != dmdata.P81YccToRgbCoef {
		t.Error("expected ycc_to_rgb coefficients to match the P8.1 canonical table")
	}
	if !rpu.Modified {
		t.Error("expected Modified to be set")
	}

	out, err := rpu.Serialize()
	if err != nil {
		t.Fatalf("Serialize after conversion: %v", err)
	}
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse after conversion: %v", err)
	}
	if reparsed.Profile != Profile8 {
		t.Errorf("re-parsed profile = %d, want %d", reparsed.Profile, Profile8)
	}
	if reparsed.Header.NlqPresent() {
		t.Error("re-parsed header still advertises NLQ")
	}
}

func TestCropL5IsIdempotent(t *testing.T) {
	rpu := buildSampleRpu()
	rpu.SetL5Offsets(10, 20, 30, 40)
	rpu.CropL5()
	rpu.CropL5()

	l5 := rpu.VdrDm.Level5Block()
	if l5 == nil {
		t.Fatal("expected a Level5Block to be present")
	}
	if !l5.IsZero() {
		t.Errorf("expected all-zero offsets after CropL5, got %+v", l5)
	}
}
