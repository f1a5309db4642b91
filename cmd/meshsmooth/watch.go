// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/meshsmooth"
)

// settle is how long a file must stay quiet before a re-run.
const settle = 200 * time.Millisecond

// watch calls onChange after each burst of writes to path until ctx ends.
// The parent directory is watched so that editors replacing the file are
// seen too.
func watch(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	meshsmooth.Logger().Info("watching", "path", target)

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != target || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			meshsmooth.Logger().Debug("mesh changed", "op", e.Op.String())
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			meshsmooth.Logger().Warn("watch error", "err", err)
		case <-timer.C:
			onChange()
		}
	}
}
