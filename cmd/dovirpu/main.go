/*
DESCRIPTION
  dovirpu is a command-line adapter around the dovi RPU codec and XML
  generator: it parses and validates existing RPU payloads, converts their
  profile, edits their Level 5 active area, and generates RPU timelines from
  a DolbyLabsMDF authoring XML document, optionally watching the XML file
  for changes and regenerating on every edit.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements the dovirpu CLI, a boundary adapter around the
// dovi, dmdata and generator packages: file I/O, flag parsing and a file
// watcher live here so that the codec itself stays a pure byte-buffer
// transform, per the core's single-threaded, no-hidden-state design.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/dovi/dovi"
	"github.com/ausocean/dovi/generator"
)

// Logging configuration, following the fixed-rotation policy used by every
// ausocean CLI adapter.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = false
)

const pkg = "dovirpu: "

func main() {
	var (
		mode         = flag.String("mode", "generate", `one of "generate", "parse", "convert" or "crop"`)
		xmlPath      = flag.String("xml", "", "path to a DolbyLabsMDF authoring XML document (generate mode)")
		outDir       = flag.String("out", ".", "directory to write generated per-frame .rpu payloads into (generate mode)")
		rpuPath      = flag.String("rpu", "", "path to an existing RPU payload (parse/convert/crop modes)")
		canvasWidth  = flag.Uint("canvas-width", 0, "canvas width in pixels, required only if the XML needs it for Level 5")
		canvasHeight = flag.Uint("canvas-height", 0, "canvas height in pixels, required only if the XML needs it for Level 5")
		targetProf   = flag.Int("target-profile", 8, "target Dolby Vision profile for -mode=convert")
		watch        = flag.Bool("watch", false, "in generate mode, re-run generation every time the xml file changes")
		logPath      = flag.String("log", "", "file to write logs to; logs go to stderr if unset")
		logLevel     = flag.Int("log-level", int(logging.Info), "logging.Debug(0) .. logging.Fatal(4)")
	)
	flag.Parse()

	log := newLogger(*logPath, int8(*logLevel))

	var err error
	switch *mode {
	case "generate":
		err = runGenerate(log, *xmlPath, *outDir, *canvasWidth, *canvasHeight, *watch)
	case "parse":
		err = runParse(log, *rpuPath)
	case "convert":
		err = runConvert(log, *rpuPath, dovi.Profile(*targetProf))
	case "crop":
		err = runCrop(log, *rpuPath)
	default:
		err = fmt.Errorf("unknown -mode %q", *mode)
	}
	if err != nil {
		log.Error(pkg+"failed", "mode", *mode, "error", err.Error())
		os.Exit(1)
	}
}

func newLogger(path string, level int8) logging.Logger {
	var w io.Writer = os.Stderr
	if path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	return logging.New(int8(level), w, logSuppress)
}

// canvasDims returns nil, nil pointers when either dimension is unset, so
// that calculateLevel5Offsets' "skip global L5" rule can apply.
func canvasDims(width, height uint) (*uint16, *uint16) {
	if width == 0 || height == 0 {
		return nil, nil
	}
	w, h := uint16(width), uint16(height)
	return &w, &h
}

func runGenerate(log logging.Logger, xmlPath, outDir string, width, height uint, watch bool) error {
	if xmlPath == "" {
		return fmt.Errorf("-xml is required in generate mode")
	}

	generateOnce := func() error {
		data, err := os.ReadFile(xmlPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", xmlPath, err)
		}

		cw, ch := canvasDims(width, height)
		config, err := generator.ParseConfig(data, generator.ParserOptions{CanvasWidth: cw, CanvasHeight: ch})
		if err != nil {
			return fmt.Errorf("parsing %s: %w", xmlPath, err)
		}

		payloads, err := generator.GenerateRpuBytes(config)
		if err != nil {
			return fmt.Errorf("generating rpu payloads: %w", err)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		for i, payload := range payloads {
			name := filepath.Join(outDir, fmt.Sprintf("frame_%06d.rpu", i))
			if err := os.WriteFile(name, payload, 0o644); err != nil {
				return err
			}
		}
		log.Info(pkg+"generated rpu timeline", "shots", len(config.Shots), "frames", len(payloads), "out", outDir)
		return nil
	}

	if err := generateOnce(); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return watchAndRegenerate(log, xmlPath, generateOnce)
}

func runParse(log logging.Logger, rpuPath string) error {
	if rpuPath == "" {
		return fmt.Errorf("-rpu is required in parse mode")
	}
	payload, err := os.ReadFile(rpuPath)
	if err != nil {
		return err
	}
	rpu, err := dovi.Parse(payload)
	if err != nil {
		return err
	}
	numBlocks := 0
	if rpu.VdrDm != nil {
		numBlocks = len(rpu.VdrDm.ExtMetadataBlocks)
	}
	log.Info(pkg+"parsed rpu", "profile", rpu.Profile, "ext_blocks", numBlocks, "crc32", rpu.CRC32)
	return nil
}

func runConvert(log logging.Logger, rpuPath string, target dovi.Profile) error {
	if rpuPath == "" {
		return fmt.Errorf("-rpu is required in convert mode")
	}
	payload, err := os.ReadFile(rpuPath)
	if err != nil {
		return err
	}
	rpu, err := dovi.Parse(payload)
	if err != nil {
		return err
	}
	if err := rpu.ConvertProfile(target); err != nil {
		return err
	}
	out, err := rpu.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(rpuPath, out, 0o644); err != nil {
		return err
	}
	log.Info(pkg+"converted profile", "to", target, "path", rpuPath)
	return nil
}

func runCrop(log logging.Logger, rpuPath string) error {
	if rpuPath == "" {
		return fmt.Errorf("-rpu is required in crop mode")
	}
	payload, err := os.ReadFile(rpuPath)
	if err != nil {
		return err
	}
	rpu, err := dovi.Parse(payload)
	if err != nil {
		return err
	}
	rpu.CropL5()
	out, err := rpu.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(rpuPath, out, 0o644); err != nil {
		return err
	}
	log.Info(pkg+"cropped level 5 active area", "path", rpuPath)
	return nil
}
