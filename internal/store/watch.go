package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events a single atomic save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a state file made by other processes, such as
// the train command writing while the server runs.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

// NewWatcher watches the directory holding path. The directory must exist;
// NewFileStore creates it.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolving state path: %w", err)
	}
	// Saves replace the file by rename, so the directory is watched.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching state directory: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// Run calls onChange after each settled change to the file until ctx is
// done. It closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("op", ev.Op.String()).Msg("state file event")
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("state watcher error")

		case <-timer.C:
			onChange()
		}
	}
}
