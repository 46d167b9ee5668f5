package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a catalogue file whenever it changes on disk.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Logger   *log.Logger

	// OnChange receives every successfully reloaded catalogue. Invalid
	// edits are logged and skipped, so the last good catalogue stays live.
	OnChange func(*Catalog)
}

// Watch blocks until ctx is done. The parent directory is watched rather
// than the file so that editors replacing the file by rename are seen.
func (w *Watcher) Watch(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = log.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	path, err := filepath.Abs(w.Path)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Info("watching catalogue", "path", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalogue watcher error", "error", err)
		case <-timer.C:
			c, err := Load(path)
			if err != nil {
				logger.Warn("catalogue reload failed, keeping previous", "error", err)
				continue
			}
			logger.Info("reloaded catalogue", "plants", c.Len())
			if w.OnChange != nil {
				w.OnChange(c)
			}
		}
	}
}
