package generator

import (
	"math"
	"testing"

	"github.com/ausocean/dovi/dmdata"
	"github.com/ausocean/dovi/dovi"
)

func TestNitsToPQ600(t *testing.T) {
	got := clampRound4095(nitsToPQ(600) * 4095)
	if got != 2851 {
		t.Errorf("got target_max_pq %d, want 2851", got)
	}
}

func TestAspectRatioLetterbox(t *testing.T) {
	cw, ch := uint16(3840), uint16(2160)
	offsets, err := calculateLevel5Offsets(1.78, 2.39, &cw, &ch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offsets.Top != 278 || offsets.Bottom != 278 || offsets.Left != 0 || offsets.Right != 0 {
		t.Errorf("got %+v, want top=278 bottom=278 left=0 right=0", offsets)
	}
}

func TestAspectRatioEqualIsZero(t *testing.T) {
	cw, ch := uint16(1920), uint16(1080)
	offsets, err := calculateLevel5Offsets(1.78, 1.78, &cw, &ch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offsets != (L5Offsets{}) {
		t.Errorf("got %+v, want all-zero offsets", offsets)
	}
}

func TestAspectRatioMissingCanvas(t *testing.T) {
	_, err := calculateLevel5Offsets(1.78, 2.39, nil, nil)
	if err == nil {
		t.Fatal("expected an error when canvas dimensions are missing")
	}
}

func TestTrimFormulaAllZeroInputsGive2048(t *testing.T) {
	trims := trimFormula(0, 0, 0, 0, 0, 0)
	for name, got := range map[string]uint16{
		"trim_slope":           trims.TrimSlope,
		"trim_offset":          trims.TrimOffset,
		"trim_power":           trims.TrimPower,
		"trim_chroma_weight":   trims.TrimChromaWeight,
		"trim_saturation_gain": trims.TrimSaturationGain,
	} {
		if got != 2048 {
			t.Errorf("%s = %d, want 2048", name, got)
		}
	}
	if trims.MSWeight != 2048 {
		t.Errorf("ms_weight = %d, want 2048", trims.MSWeight)
	}
}

const cmv4Fixture = `<?xml version="1.0"?>
<DolbyLabsMDF>
  <Level254><CMVersion>4.0.2</CMVersion></Level254>
  <Output>
    <CanvasAspectRatio>1.78</CanvasAspectRatio>
    <ImageAspectRatio>2.39</ImageAspectRatio>
    <Video>
      <Level6><MaxFALL>400</MaxFALL><MaxCLL>1000</MaxCLL></Level6>
      <MasteringDisplay><MinimumBrightness>0.0001</MinimumBrightness><PeakBrightness>1000</PeakBrightness></MasteringDisplay>
      <TargetDisplays>
        <TargetDisplay><ID>1</ID><PeakBrightness>600</PeakBrightness></TargetDisplay>
      </TargetDisplays>
      <Shots>
        <Shot>
          <UniqueID>shot0</UniqueID>
          <Record><In>0</In><Duration>24</Duration></Record>
          <DVDynamicData>
            <Level2 level="2"><TID>1</TID><Trim>0 0 0 0 0 0 0 0 0</Trim></Level2>
            <Level8 level="8"><TID>1</TID><L8Trim>0 0 0 0 0 0</L8Trim></Level8>
            <Level9 level="9"><SourceColorModel>0</SourceColorModel></Level9>
          </DVDynamicData>
        </Shot>
        <Shot>
          <UniqueID>shot1</UniqueID>
          <Record><In>24</In><Duration>24</Duration></Record>
          <DVDynamicData>
            <Level2 level="2"><TID>1</TID><Trim>0 0 0 0 0 0 0 0 0</Trim></Level2>
          </DVDynamicData>
        </Shot>
      </Shots>
    </Video>
  </Output>
</DolbyLabsMDF>`

func TestParseConfigCMv4DispatchesL8L9(t *testing.T) {
	cw, ch := uint16(3840), uint16(2160)
	config, err := ParseConfig([]byte(cmv4Fixture), ParserOptions{CanvasWidth: &cw, CanvasHeight: &ch})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if config.CmVersion != CMV40 {
		t.Fatalf("got CmVersion %v, want CMV40", config.CmVersion)
	}
	if len(config.Shots) != 2 {
		t.Fatalf("got %d shots, want 2", len(config.Shots))
	}
	if config.Shots[0].Start != 0 || config.Shots[1].Start != 24 {
		t.Errorf("shots not sorted by start: %+v", config.Shots)
	}
	if config.Length != 48 {
		t.Errorf("got Length %d, want 48", config.Length)
	}

	var haveL8, haveL9 bool
	for _, b := range config.Shots[0].Metadata {
		switch b.BlockLevel() {
		case 8:
			haveL8 = true
		case 9:
			haveL9 = true
		}
	}
	if !haveL8 || !haveL9 {
		t.Errorf("expected shot0 to carry L8 and L9 blocks, got %+v", config.Shots[0].Metadata)
	}
	for _, b := range config.Shots[1].Metadata {
		if b.BlockLevel() == 8 || b.BlockLevel() == 9 {
			t.Errorf("expected shot1 to carry no L8/L9 blocks, got level %d", b.BlockLevel())
		}
	}
}

const cmv29Fixture = `<?xml version="1.0"?>
<DolbyLabsMDF version="2.9">
  <Output>
    <Video>
      <Shots>
        <Shot>
          <UniqueID>shot0</UniqueID>
          <Record><In>0</In><Duration>10</Duration></Record>
          <PluginNode>
            <DolbyEDR level="1"><ImageCharacter>0,0.5,1</ImageCharacter></DolbyEDR>
          </PluginNode>
        </Shot>
      </Shots>
    </Video>
  </Output>
</DolbyLabsMDF>`

func TestParseConfigCMv29UsesCommaSeparatorAndNoL8L9(t *testing.T) {
	config, err := ParseConfig([]byte(cmv29Fixture), ParserOptions{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if config.CmVersion != CMV29 {
		t.Fatalf("got CmVersion %v, want CMV29", config.CmVersion)
	}
	if len(config.Shots) != 1 || len(config.Shots[0].Metadata) != 1 {
		t.Fatalf("got shots %+v", config.Shots)
	}
	if config.Shots[0].Metadata[0].BlockLevel() != 1 {
		t.Errorf("got level %d, want 1", config.Shots[0].Metadata[0].BlockLevel())
	}
}

func TestGenerateRpuBytesSceneRefreshPattern(t *testing.T) {
	cw, ch := uint16(3840), uint16(2160)
	config, err := ParseConfig([]byte(cmv4Fixture), ParserOptions{CanvasWidth: &cw, CanvasHeight: &ch})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	payloads, err := GenerateRpuBytes(config)
	if err != nil {
		t.Fatalf("GenerateRpuBytes: %v", err)
	}
	if len(payloads) != 48 {
		t.Fatalf("got %d payloads, want 48", len(payloads))
	}
	for i, p := range payloads {
		if len(p) == 0 {
			t.Fatalf("payload %d is empty", i)
		}
		frame, err := dovi.Parse(p)
		if err != nil {
			t.Fatalf("Parse payload %d: %v", i, err)
		}
		wantRefresh := uint64(0)
		if i == 0 || i == 24 {
			wantRefresh = 1
		}
		if frame.VdrDm.SceneRefreshFlag != wantRefresh {
			t.Errorf("payload %d: got scene_refresh_flag %d, want %d", i, frame.VdrDm.SceneRefreshFlag, wantRefresh)
		}
	}

	rpu, err := dovi.Parse(payloads[0])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rpu.VdrDm == nil {
		t.Fatal("generated payload carries no VdrDmData")
	}

	var l2 *dmdata.Level2Block
	var l6 *dmdata.Level6Block
	for _, b := range rpu.VdrDm.ExtMetadataBlocks {
		switch block := b.(type) {
		case *dmdata.Level2Block:
			l2 = block
		case *dmdata.Level6Block:
			l6 = block
		}
	}
	if l2 == nil {
		t.Fatal("expected a Level 2 block in the generated payload")
	}
	if l2.TargetMaxPQ != 2851 {
		t.Errorf("got L2 target_max_pq %d, want 2851 (shot0's own TID 1 trim, peak 600 nits)", l2.TargetMaxPQ)
	}
	if l6 == nil {
		t.Fatal("expected the document-wide Level 6 block in the generated payload")
	}
	if l6.MaxContentLightLevel != 1000 || l6.MaxFrameAverageLightLevel != 400 {
		t.Errorf("got L6 %+v, want MaxCLL=1000 MaxFALL=400", l6)
	}
}

const noTrimsFixture = `<?xml version="1.0"?>
<DolbyLabsMDF version="2.9">
  <Output>
    <Video>
      <Shots>
        <Shot>
          <UniqueID>shot0</UniqueID>
          <Record><In>0</In><Duration>4</Duration></Record>
        </Shot>
      </Shots>
    </Video>
  </Output>
</DolbyLabsMDF>`

func TestGenerateRpuBytesSynthesizesTargetLevel2(t *testing.T) {
	config, err := ParseConfig([]byte(noTrimsFixture), ParserOptions{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if config.TargetNits != 100 {
		t.Fatalf("got TargetNits %d, want default 100", config.TargetNits)
	}

	payloads, err := GenerateRpuBytes(config)
	if err != nil {
		t.Fatalf("GenerateRpuBytes: %v", err)
	}
	rpu, err := dovi.Parse(payloads[0])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var l2 *dmdata.Level2Block
	for _, b := range rpu.VdrDm.ExtMetadataBlocks {
		if block, ok := b.(*dmdata.Level2Block); ok {
			l2 = block
		}
	}
	if l2 == nil {
		t.Fatal("expected a target-nits-derived Level 2 block when no shot trim provides one")
	}
	wantPQ := uint16(2081) // clampRound4095(nitsToPQ(100) * 4095)
	if l2.TargetMaxPQ != wantPQ {
		t.Errorf("got L2 target_max_pq %d, want %d", l2.TargetMaxPQ, wantPQ)
	}
	if l2.TrimSlope != 2048 || l2.TrimOffset != 2048 || l2.MSWeight != 2048 {
		t.Errorf("got flat trims %+v, want all 2048", l2)
	}
}

func TestPQMonotonic(t *testing.T) {
	if nitsToPQ(100) >= nitsToPQ(1000) {
		t.Error("expected nits_to_pq to be monotonically increasing in nits")
	}
	if math.IsNaN(nitsToPQ(0)) {
		t.Error("nits_to_pq(0) should not be NaN")
	}
}
