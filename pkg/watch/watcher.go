// Package watch notifies callers when the session registry file changes.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/ark/logging"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce collapses the write+rename pair of an atomic save.
const DefaultDebounce = 100 * time.Millisecond

// RegistryWatcher watches the directory holding the registry file. The
// directory is watched rather than the file because saves replace the file
// by rename.
type RegistryWatcher struct {
	watcher    *fsnotify.Watcher
	file       string
	debounce   time.Duration
	lastChange time.Time
	mu         sync.Mutex
	logger     *logrus.Entry
	onChange   func()
}

// NewRegistryWatcher creates a watcher for file. onChange runs on the
// watcher goroutine after each debounced change.
func NewRegistryWatcher(file string, debounce time.Duration, onChange func()) (*RegistryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(file)); err != nil {
		watcher.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &RegistryWatcher{
		watcher:  watcher,
		file:     filepath.Clean(file),
		debounce: debounce,
		logger:   logging.NewLogger("ark.watch"),
		onChange: onChange,
	}, nil
}

// Start blocks until ctx is cancelled or the watcher is closed.
func (w *RegistryWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.handleChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *RegistryWatcher) handleChange() {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange)
	if elapsed < w.debounce {
		w.mu.Unlock()
		w.logger.Debugf("Debounced registry change (only %v since last)", elapsed)
		return
	}
	w.lastChange = time.Now()
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
}

// Close stops the watcher and releases resources.
func (w *RegistryWatcher) Close() error {
	return w.watcher.Close()
}
