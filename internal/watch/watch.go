// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch re-runs an action whenever a file changes.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
)

// DefaultDebounce is how long the file must be quiet before the action runs again.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatch is returned when the file cannot be watched.
var ErrWatch = errors.New("failed to watch file")

// Watcher runs OnChange once, then again after every write to Path.
type Watcher struct {
	Path     string
	Debounce time.Duration
	OnChange func(ctx context.Context)

	ready chan struct{} // Closed once watching has started, for tests.
}

// Run blocks until ctx is done. The parent directory is watched so that
// editors which replace the file on save are followed.
func (w *Watcher) Run(ctx context.Context) error {
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return errors.Join(ErrWatch, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Join(ErrWatch, err)
	}
	defer fw.Close() //nolint:errcheck

	if err := fw.Add(filepath.Dir(target)); err != nil {
		return errors.Join(ErrWatch, err)
	}

	logger := ctxlog.Logger(ctx).With("path", target)
	logger.Info("watching for changes")

	if w.ready != nil {
		close(w.ready)
	}

	w.OnChange(ctx)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watch stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			logger.Debug("file changed", "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.OnChange(ctx)
		}
	}
}
