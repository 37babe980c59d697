/*
NAME
  xmlparser.go

DESCRIPTION
  xmlparser.go implements cmXmlParser: it determines a DolbyLabsMDF
  document's CM version, reads the global L5/L6 defaults and target
  display table, and walks every <Shot> (and its <Frame> overrides) into a
  GenerateConfig.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package generator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ausocean/dovi/dmdata"
	"github.com/ausocean/dovi/doverr"
)

// ParserOptions carries the canvas dimensions needed to resolve a global or
// per-shot Level 5 aspect-ratio block; both are required only when the
// document actually asks for one.
type ParserOptions struct {
	CanvasWidth  *uint16
	CanvasHeight *uint16
}

// cmXmlParser walks a parsed DolbyLabsMDF document into a GenerateConfig.
type cmXmlParser struct {
	opts      ParserOptions
	cmVersion string
	separator string

	targetDisplays map[string]targetDisplay
}

// ParseConfig reads a DolbyLabsMDF document and returns the GenerateConfig
// it describes.
func ParseConfig(xmlData []byte, opts ParserOptions) (*GenerateConfig, error) {
	doc, err := parseXMLDocument(xmlData)
	if err != nil {
		return nil, errors.Wrap(err, "parsing xml document")
	}

	p := &cmXmlParser{opts: opts, targetDisplays: map[string]targetDisplay{}}

	p.cmVersion, err = p.parseCmVersion(doc)
	if err != nil {
		return nil, err
	}
	if p.isCMv4() {
		p.separator = " "
	} else {
		p.separator = ","
	}

	config := &GenerateConfig{TargetNits: 100}
	if p.isCMv4() {
		config.CmVersion = CMV40
	} else {
		config.CmVersion = CMV29
	}

	output := doc.descendant("Output")
	if output == nil {
		return nil, &doverr.XmlMissingNodeError{Path: "Output"}
	}

	if l5, err := p.parseGlobalLevel5(output); err != nil {
		return nil, err
	} else if l5 != nil {
		config.Level5 = l5
	}

	video := output.descendant("Video")
	if video == nil {
		return nil, &doverr.XmlMissingNodeError{Path: "Output/Video"}
	}

	config.Level6 = p.parseLevel6(video)
	p.targetDisplays = p.parseTargetDisplays(video)

	shots, err := p.parseShots(video)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(shots, func(i, j int) bool { return shots[i].Start < shots[j].Start })
	config.Shots = shots

	if len(shots) > 0 {
		first, last := shots[0], shots[len(shots)-1]
		config.Length = (last.Start + last.Duration) - first.Start
	}

	return config, nil
}

func (p *cmXmlParser) isCMv4() bool { return p.cmVersion == "4.0.2" }

// parseCmVersion implements the priority order: Level254/CMVersion
// containing a '4' digit wins outright, then the root's <Version> child,
// then its version attribute.
func (p *cmXmlParser) parseCmVersion(doc *xmlNode) (string, error) {
	root := doc.descendant("DolbyLabsMDF")
	if root == nil {
		return "", &doverr.XmlMissingNodeError{Path: "DolbyLabsMDF"}
	}

	versionAttr, hasAttr := root.attr("version")

	var versionNode *string
	if v := root.child("Version"); v != nil {
		text := v.Content
		versionNode = &text
	}

	var versionLevel254 *string
	if level254 := root.descendant("Level254"); level254 != nil {
		if cmVersionNode := level254.child("CMVersion"); cmVersionNode != nil {
			if strings.Contains(cmVersionNode.Content, "4") {
				v := "4.0.2"
				versionLevel254 = &v
			}
		}
	}

	switch {
	case versionLevel254 != nil:
		return *versionLevel254, nil
	case versionNode != nil:
		return *versionNode, nil
	case hasAttr:
		return versionAttr, nil
	default:
		return "", doverr.ErrNoCmVersion
	}
}

// parseLevel6 reads the document's global mastering-display and light-level
// metrics, returning nil if neither a Level6 nor a MasteringDisplay node is
// present, so that newGeneratedRpu knows to omit the L6 block entirely
// rather than emit one of all zeroes.
func (p *cmXmlParser) parseLevel6(video *xmlNode) *dmdata.Level6Block {
	level6Node := video.descendant("Level6")
	masteringNode := video.descendant("MasteringDisplay")
	if level6Node == nil && masteringNode == nil {
		return nil
	}

	block := &dmdata.Level6Block{Length: dmdata.Level6Length}

	if level6Node != nil {
		if fall := level6Node.child("MaxFALL"); fall != nil {
			block.MaxFrameAverageLightLevel = parseU16Default(fall.Content, 0)
		}
		if cll := level6Node.child("MaxCLL"); cll != nil {
			block.MaxContentLightLevel = parseU16Default(cll.Content, 0)
		}
	}

	if masteringNode != nil {
		if min := masteringNode.child("MinimumBrightness"); min != nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(min.Content), 32); err == nil {
				block.MinDisplayMasteringLuminance = uint16(v * 10000)
			}
		}
		if max := masteringNode.child("PeakBrightness"); max != nil {
			block.MaxDisplayMasteringLuminance = parseU16Default(max.Content, 0)
		}
	}

	return block
}

func (p *cmXmlParser) parseTargetDisplays(video *xmlNode) map[string]targetDisplay {
	targets := map[string]targetDisplay{}
	for _, node := range video.descendants("TargetDisplay") {
		idNode := node.child("ID")
		peakNode := node.child("PeakBrightness")
		if idNode == nil || peakNode == nil {
			continue
		}
		id := idNode.Content
		targets[id] = targetDisplay{id: id, peakNits: parseU16Default(peakNode.Content, 0)}
	}
	return targets
}

func (p *cmXmlParser) parseShots(video *xmlNode) ([]VideoShot, error) {
	var shots []VideoShot
	for _, node := range video.descendants("Shot") {
		idNode := node.child("UniqueID")
		if idNode == nil {
			return nil, &doverr.XmlMissingNodeError{Path: "Shot/UniqueID"}
		}
		shot := VideoShot{ID: idNode.Content}

		if record := node.child("Record"); record != nil {
			inNode := record.child("In")
			durNode := record.child("Duration")
			if inNode == nil || durNode == nil {
				return nil, &doverr.XmlMissingNodeError{Path: "Shot/Record"}
			}
			start, err := strconv.Atoi(strings.TrimSpace(inNode.Content))
			if err != nil {
				return nil, &doverr.XmlBadNumberError{Path: "Shot/Record/In", Text: inNode.Content}
			}
			duration, err := strconv.Atoi(strings.TrimSpace(durNode.Content))
			if err != nil {
				return nil, &doverr.XmlBadNumberError{Path: "Shot/Record/Duration", Text: durNode.Content}
			}
			shot.Start, shot.Duration = start, duration
		}

		blocks, err := p.parseShotTrims(node)
		if err != nil {
			return nil, err
		}
		shot.Metadata = blocks

		for _, frame := range node.children("Frame") {
			offsetNode := frame.child("EditOffset")
			if offsetNode == nil {
				return nil, &doverr.XmlMissingNodeError{Path: "Frame/EditOffset"}
			}
			offset, err := strconv.Atoi(strings.TrimSpace(offsetNode.Content))
			if err != nil {
				return nil, &doverr.XmlBadNumberError{Path: "Frame/EditOffset", Text: offsetNode.Content}
			}
			edits, err := p.parseShotTrims(frame)
			if err != nil {
				return nil, err
			}
			shot.FrameEdits = append(shot.FrameEdits, ShotFrameEdit{EditOffset: offset, Metadata: edits})
		}

		shots = append(shots, shot)
	}
	return shots, nil
}

func (p *cmXmlParser) parseShotTrims(node *xmlNode) ([]dmdata.ExtensionBlock, error) {
	var blocks []dmdata.ExtensionBlock

	tag := "PluginNode"
	if p.isCMv4() {
		tag = "DVDynamicData"
	}
	defaults := node.descendant(tag)
	if defaults == nil {
		return blocks, nil
	}

	var levelNodes []*xmlNode
	if p.isCMv4() {
		levelNodes = defaults.childrenWithAttr("level")
	} else {
		for _, e := range defaults.children("DolbyEDR") {
			if _, ok := e.attr("level"); ok {
				levelNodes = append(levelNodes, e)
			}
		}
	}

	for _, node := range levelNodes {
		level, _ := node.attr("level")
		block, err := p.parseTrimLevel(node, level)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

func (p *cmXmlParser) parseTrimLevel(node *xmlNode, level string) (dmdata.ExtensionBlock, error) {
	switch level {
	case "1":
		return p.parseLevel1Trim(node)
	case "2":
		return p.parseLevel2Trim(node)
	case "3":
		return p.parseLevel3Trim(node)
	case "5":
		return p.parseLevel5Trim(node)
	case "8":
		return p.parseLevel8Trim(node)
	case "9":
		return p.parseLevel9Trim(node)
	default:
		return nil, nil
	}
}

func (p *cmXmlParser) parseGlobalLevel5(output *xmlNode) (*L5Offsets, error) {
	canvasNode := output.child("CanvasAspectRatio")
	imageNode := output.child("ImageAspectRatio")
	if canvasNode == nil || imageNode == nil {
		return nil, nil
	}

	canvasAR, err1 := strconv.ParseFloat(strings.TrimSpace(canvasNode.Content), 64)
	imageAR, err2 := strconv.ParseFloat(strings.TrimSpace(imageNode.Content), 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}

	offsets, err := calculateLevel5Offsets(canvasAR, imageAR, p.opts.CanvasWidth, p.opts.CanvasHeight)
	if err != nil {
		return nil, nil // matches the reference's "unwrap_or_default" fallback: a missing canvas just skips global L5.
	}
	return &offsets, nil
}

func (p *cmXmlParser) parseLevel1Trim(node *xmlNode) (*dmdata.Level1Block, error) {
	values, err := p.splitFloats(node, "ImageCharacter", 3)
	if err != nil {
		return nil, err
	}
	return &dmdata.Level1Block{
		Length: dmdata.Level1Length,
		MinPQ:  pqFromUnit(values[0]),
		AvgPQ:  pqFromUnit(values[1]),
		MaxPQ:  pqFromUnit(values[2]),
	}, nil
}

func (p *cmXmlParser) parseLevel2Trim(node *xmlNode) (*dmdata.Level2Block, error) {
	targetIDNode := node.child("TID")
	if targetIDNode == nil {
		return nil, &doverr.XmlMissingNodeError{Path: "Level2/TID"}
	}
	display, ok := p.targetDisplays[targetIDNode.Content]
	if !ok {
		return nil, errors.Errorf("no target display found for L2 trim TID %q", targetIDNode.Content)
	}

	values, err := p.splitFloats(node, "Trim", 9)
	if err != nil {
		return nil, err
	}
	trims := trimFormula(values[3], values[4], values[5], values[6], values[7], values[8])
	trims.TargetMaxPQ = pqFromNits(display.peakNits)
	trims.Length = dmdata.Level2Length
	return trims, nil
}

func (p *cmXmlParser) parseLevel3Trim(node *xmlNode) (*dmdata.Level3Block, error) {
	values, err := p.splitFloats(node, "L1Offset", 3)
	if err != nil {
		return nil, err
	}
	return &dmdata.Level3Block{
		Length:      dmdata.Level3Length,
		MinPQOffset: clampRound4095(values[0]*2048 + 2048),
		MaxPQOffset: clampRound4095(values[1]*2048 + 2048),
		AvgPQOffset: clampRound4095(values[2]*2048 + 2048),
	}, nil
}

func (p *cmXmlParser) parseLevel5Trim(node *xmlNode) (*dmdata.Level5Block, error) {
	values, err := p.splitFloats(node, "AspectRatios", 2)
	if err != nil {
		return nil, err
	}
	offsets, err := calculateLevel5Offsets(values[0], values[1], p.opts.CanvasWidth, p.opts.CanvasHeight)
	if err != nil {
		return &dmdata.Level5Block{Length: dmdata.Level5Length}, nil
	}
	return &dmdata.Level5Block{
		Length:                 dmdata.Level5Length,
		ActiveAreaLeftOffset:   offsets.Left,
		ActiveAreaRightOffset:  offsets.Right,
		ActiveAreaTopOffset:    offsets.Top,
		ActiveAreaBottomOffset: offsets.Bottom,
	}, nil
}

// parseLevel8Trim's wire layout has no authoritative reference to verify
// against (see Level8Block's doc comment); the formulas below match L2's
// exactly, against the 6-value L8Trim tag rather than L2's 9-value Trim.
func (p *cmXmlParser) parseLevel8Trim(node *xmlNode) (*dmdata.Level8Block, error) {
	targetIDNode := node.child("TID")
	if targetIDNode == nil {
		return nil, &doverr.XmlMissingNodeError{Path: "Level8/TID"}
	}
	display, ok := p.targetDisplays[targetIDNode.Content]
	if !ok {
		return nil, errors.Errorf("no target display found for L8 trim TID %q", targetIDNode.Content)
	}
	targetIndex, err := strconv.ParseUint(display.id, 10, 8)
	if err != nil {
		return nil, &doverr.XmlBadNumberError{Path: "TargetDisplay/ID", Text: display.id}
	}

	values, err := p.splitFloats(node, "L8Trim", 6)
	if err != nil {
		return nil, err
	}
	l2 := trimFormula(values[0], values[1], values[2], values[3], values[4], values[5])
	return &dmdata.Level8Block{
		Length:             dmdata.Level8DefaultLength,
		TargetDisplayIndex: uint8(targetIndex),
		TrimSlope:          l2.TrimSlope,
		TrimOffset:         l2.TrimOffset,
		TrimPower:          l2.TrimPower,
		TrimChromaWeight:   l2.TrimChromaWeight,
		TrimSaturationGain: l2.TrimSaturationGain,
		MSWeight:           l2.MSWeight,
	}, nil
}

func (p *cmXmlParser) parseLevel9Trim(node *xmlNode) (*dmdata.Level9Block, error) {
	modelNode := node.child("SourceColorModel")
	if modelNode == nil {
		return nil, &doverr.XmlMissingNodeError{Path: "Level9/SourceColorModel"}
	}
	idx, err := strconv.ParseUint(strings.TrimSpace(modelNode.Content), 10, 8)
	if err != nil {
		return nil, &doverr.XmlBadNumberError{Path: "Level9/SourceColorModel", Text: modelNode.Content}
	}
	return &dmdata.Level9Block{Length: dmdata.Level9Length, SourcePrimaryIndex: uint8(idx)}, nil
}

// splitFloats reads tag's text content, splits it on the document's
// separator, and parses want float values.
func (p *cmXmlParser) splitFloats(node *xmlNode, tag string, want int) ([]float64, error) {
	child := node.child(tag)
	if child == nil {
		return nil, &doverr.XmlMissingNodeError{Path: tag}
	}
	parts := strings.Split(child.Content, p.separator)
	if len(parts) != want {
		return nil, errors.Errorf("invalid %s trim: expected %d values, got %d", tag, want, len(parts))
	}
	values := make([]float64, want)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, &doverr.XmlBadNumberError{Path: tag, Text: part}
		}
		values[i] = v
	}
	return values, nil
}

func parseU16Default(text string, def uint16) uint16 {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 16)
	if err != nil {
		return def
	}
	return uint16(v)
}

func pqFromUnit(v float64) uint16 { return clampRound4095(v * 4095) }

func pqFromNits(nits uint16) uint16 { return clampRound4095(nitsToPQ(float64(nits)) * 4095) }
