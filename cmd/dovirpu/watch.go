/*
DESCRIPTION
  watch.go implements -watch mode for dovirpu's generate command: it
  re-invokes the generator every time the authoring XML file is written,
  letting a colourist's tool save the document and see the regenerated RPU
  timeline without restarting the CLI.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/utils/logging"
)

// watchAndRegenerate blocks, calling regenerate whenever xmlPath is written
// to, until the watcher's event or error channel closes. It returns an error
// only if the watcher cannot be set up; watcher errors and regeneration
// failures are logged and watching continues. Many editors replace a file on save rather than writing it in
// place, so the directory containing xmlPath is watched rather than the
// file itself, and every event is filtered down to that one filename.
func watchAndRegenerate(log logging.Logger, xmlPath string, regenerate func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(xmlPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	name := filepath.Base(xmlPath)

	log.Info(pkg+"watching for changes", "path", xmlPath)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := regenerate(); err != nil {
				log.Error(pkg+"regeneration failed", "error", err.Error())
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(pkg+"watcher error", "error", err.Error())
		}
	}
}
