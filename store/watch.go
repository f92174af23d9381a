package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the CSV source on disk.
//
// The loaded Dataset is immutable, so a change is only surfaced to the
// operator and to onChange; picking up new data requires a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func(fsnotify.Event)
}

// NewWatcher creates a watcher for path. onChange may be nil.
func NewWatcher(path string, logger *slog.Logger, onChange func(fsnotify.Event)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, watcher: w, logger: logger, onChange: onChange}, nil
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that editors replacing the file via rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	w.logger.Debug("watching data source", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Warn("data source changed on disk; restart to reload",
				"path", event.Name,
				"op", event.Op.String())
			if w.onChange != nil {
				w.onChange(event)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("data source watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Debug("data source watcher stopping")
			return nil
		}
	}
}
