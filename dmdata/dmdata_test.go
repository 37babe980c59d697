package dmdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/dovi/bits"
)

func sampleData() *VdrDmData {
	d := &VdrDmData{
		AffectedDmMetadataID: 0,
		CurrentDmMetadataID:  0,
		SceneRefreshFlag:      1,
		YccToRgbCoef:          P81YccToRgbCoef,
		YccToRgbOffset:        P81YccToRgbOffset,
		RgbToLmsCoef:          P81RgbToLmsCoef,
		SignalEOTF:            0xFFFF,
		SignalBitDepth:        12,
		SignalColorSpace:      0,
		SignalChromaFormat:    0,
		SignalFullRangeFlag:   1,
		SourceMinPQ:           0,
		SourceMaxPQ:           3079,
		SourceDiagonal:        42,
	}
	d.ExtMetadataBlocks = []ExtensionBlock{
		&Level1Block{Length: Level1Length, MinPQ: 10, MaxPQ: 3079, AvgPQ: 1500},
		&Level2Block{Length: Level2Length, TargetMaxPQ: 2851, TrimSlope: 2048, TrimOffset: 2048, TrimPower: 2048, TrimChromaWeight: 2048, TrimSaturationGain: 2048, MSWeight: 2048},
		&Level5Block{Length: Level5Length, ActiveAreaLeftOffset: 0, ActiveAreaRightOffset: 0, ActiveAreaTopOffset: 278, ActiveAreaBottomOffset: 278},
		&Level6Block{Length: Level6Length, MaxDisplayMasteringLuminance: 1000, MinDisplayMasteringLuminance: 1, MaxContentLightLevel: 1000, MaxFrameAverageLightLevel: 400},
	}
	return d
}

func TestVdrDmDataRoundTrip(t *testing.T) {
	d := sampleData()

	w := bits.NewWriter()
	d.Write(w)
	w.AlignToByte()

	r := bits.NewReader(w.Bytes())
	got, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateEotfRule(t *testing.T) {
	d := sampleData()
	d.SignalEOTF = 0
	d.SignalEOTFParam0, d.SignalEOTFParam1, d.SignalEOTFParam2 = 0, 0, 0
	if err := d.Validate(); err == nil {
		t.Fatal("expected validation error for signal_eotf with zero params")
	}

	d.SignalEOTF = 0xFFFF
	if err := d.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateAffectedDmMetadataIDRange(t *testing.T) {
	d := sampleData()
	d.AffectedDmMetadataID = 16
	if err := d.Validate(); err == nil {
		t.Fatal("expected validation error for affected_dm_metadata_id > 15")
	}
}

func TestSortExtensionBlocksOrdersByLevelThenTargetMaxPQ(t *testing.T) {
	d := &VdrDmData{
		ExtMetadataBlocks: []ExtensionBlock{
			&Level6Block{Length: Level6Length},
			&Level2Block{Length: Level2Length, TargetMaxPQ: 4095},
			&Level1Block{Length: Level1Length},
			&Level2Block{Length: Level2Length, TargetMaxPQ: 2851},
		},
	}
	d.SortExtensionBlocks()

	wantLevels := []Level{Level1, Level2, Level2, Level6}
	for i, b := range d.ExtMetadataBlocks {
		if b.BlockLevel() != wantLevels[i] {
			t.Fatalf("block %d: got level %d, want %d", i, b.BlockLevel(), wantLevels[i])
		}
	}
	first := d.ExtMetadataBlocks[1].(*Level2Block)
	second := d.ExtMetadataBlocks[2].(*Level2Block)
	if first.TargetMaxPQ != 2851 || second.TargetMaxPQ != 4095 {
		t.Errorf("level 2 tiebreak not ascending by target_max_pq: got %d then %d", first.TargetMaxPQ, second.TargetMaxPQ)
	}
}

func TestLevel3CanonicalLengthIsFiveBytes(t *testing.T) {
	w := bits.NewWriter()
	WriteExtensionBlock(w, &Level3Block{Length: Level3Length, MinPQOffset: 1, MaxPQOffset: 2, AvgPQOffset: 3})
	w.AlignToByte()

	r := bits.NewReader(w.Bytes())
	block, err := ParseExtensionBlock(r)
	if err != nil {
		t.Fatalf("ParseExtensionBlock: %v", err)
	}
	l3, ok := block.(*Level3Block)
	if !ok {
		t.Fatalf("got %T, want *Level3Block", block)
	}
	if l3.Length != 5 {
		t.Errorf("got declared length %d, want 5", l3.Length)
	}
	if l3.MinPQOffset != 1 || l3.MaxPQOffset != 2 || l3.AvgPQOffset != 3 {
		t.Errorf("payload mismatch: %+v", l3)
	}
}

func TestParseExtensionBlockRejectsWrongLength(t *testing.T) {
	w := bits.NewWriter()
	w.WriteUE(2) // wrong: Level1 must declare 5.
	w.WriteN(uint64(Level1), 8)
	w.WriteN(10, 12)
	w.WriteN(20, 12)
	w.WriteN(30, 12)
	w.AlignToByte()

	r := bits.NewReader(w.Bytes())
	_, err := ParseExtensionBlock(r)
	if err == nil {
		t.Fatal("expected an UnexpectedExtBlockLengthError")
	}
}

func TestReservedBlockRoundTrip(t *testing.T) {
	w := bits.NewWriter()
	WriteExtensionBlock(w, &ReservedBlock{Length: 3, Lvl: Level(200), Payload: []byte{0xAA, 0xBB, 0xCC}})
	w.AlignToByte()

	r := bits.NewReader(w.Bytes())
	block, err := ParseExtensionBlock(r)
	if err != nil {
		t.Fatalf("ParseExtensionBlock: %v", err)
	}
	rb, ok := block.(*ReservedBlock)
	if !ok {
		t.Fatalf("got %T, want *ReservedBlock", block)
	}
	if rb.Lvl != 200 {
		t.Errorf("got level %d, want 200", rb.Lvl)
	}
	want := []byte{0xAA, 0xBB, 0xCC}
	if !bytesEqual(rb.Payload, want) {
		t.Errorf("got payload %x, want %x", rb.Payload, want)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
