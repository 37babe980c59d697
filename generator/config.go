/*
NAME
  config.go

DESCRIPTION
  config.go defines GenerateConfig and the shot-timeline types the XML
  parser populates and the dispatcher consumes: VideoShot, ShotFrameEdit,
  and the global L5/L6 defaults that apply across every shot.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package generator translates a DolbyLabsMDF authoring XML document (CM
// v2.9 or v4.0) into a timeline of RPU payloads, one per frame, via
// GenerateConfig and an xml.Decoder-based parser.
package generator

import "github.com/ausocean/dovi/dmdata"

// CmVersion identifies which Dolby Color Management metadata generation an
// authoring XML document targets.
type CmVersion int

const (
	CMV29 CmVersion = iota
	CMV40
)

// GenerateConfig is the fully parsed input to RPU generation.
type GenerateConfig struct {
	CmVersion    CmVersion
	SourceMinPQ  *uint16
	SourceMaxPQ  *uint16
	Length       int
	TargetNits   uint16 // default 100
	Shots        []VideoShot
	Level5       *L5Offsets
	Level6       *dmdata.Level6Block
}

// VideoShot is one authored shot: a contiguous frame range, its baseline
// extension metadata, and any per-frame overrides within it.
type VideoShot struct {
	ID           string
	Start        int
	Duration     int
	Metadata     []dmdata.ExtensionBlock
	FrameEdits   []ShotFrameEdit
}

// ShotFrameEdit overrides metadata at one frame within its containing
// shot, identified by an offset from the shot's start.
type ShotFrameEdit struct {
	EditOffset int
	Metadata   []dmdata.ExtensionBlock
}

// targetDisplay is a CM display profile referenced by TID from L2/L8 trims.
type targetDisplay struct {
	id       string
	peakNits uint16
}
