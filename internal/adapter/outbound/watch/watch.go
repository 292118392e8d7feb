// Package watch implements the watcher interface spec.md §6 names: a
// callback fired on external updates to the model/policy files backing
// an enforcer, so a long-running process can pick up out-of-band edits
// without restarting.
package watch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// UpdateFunc is invoked once per write/create/rename event on a watched
// path.
type UpdateFunc func(path string)

// Watcher watches one or more files for writes/creates/renames and
// invokes an UpdateFunc on each such fsnotify event. Events are not
// debounced, so a single save can fire the callback more than once.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	onWrite UpdateFunc

	done chan struct{}
}

// New starts watching paths for changes. The returned Watcher owns a
// background goroutine; callers must call Close to stop it.
func New(logger *slog.Logger, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: watching %s: %w", p, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{fsw: fsw, logger: logger, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

// SetUpdateCallback installs fn as the callback fired on every detected
// change. Replacing the callback while the watcher is running is safe.
func (w *Watcher) SetUpdateCallback(fn UpdateFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onWrite = fn
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			cb := w.onWrite
			w.mu.Unlock()
			if cb != nil {
				cb(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
