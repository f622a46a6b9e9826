// Package background watches the background image file and republishes its
// changes on the event bus, so the view can reload an image edited on disk.
package background

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("background watcher closed")

// Watcher follows one file at a time. It watches the parent directory so that
// editors that replace the file on save are followed too.
type Watcher struct {
	logger *slog.Logger
	bus    ports.EventBus
	fs     *fsnotify.Watcher

	mu     sync.Mutex
	path   string
	dir    string
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts a watcher that follows nothing until Watch is called.
func NewWatcher(logger *slog.Logger, bus ports.EventBus) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		logger: logger.With(slog.String("component", "background-watcher")),
		bus:    bus,
		fs:     fw,
		done:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch switches to path. An empty path stops watching.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	if path != "" {
		path = filepath.Clean(path)
	}
	if path == w.path {
		return nil
	}

	if w.dir != "" {
		if err := w.fs.Remove(w.dir); err != nil {
			w.logger.Debug("failed to remove watch", slog.String("dir", w.dir), slog.Any("error", err))
		}
	}
	w.path, w.dir = "", ""

	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.path, w.dir = path, dir

	w.logger.Debug("watching background", slog.String("path", path))
	return nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Close stops the watcher and waits for its goroutine. It is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	w.mu.Lock()
	path := w.path
	w.mu.Unlock()

	if path == "" || filepath.Clean(event.Name) != path {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.bus.Publish(domain.NewBackgroundChangedEvent(path, true))
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.bus.Publish(domain.NewBackgroundChangedEvent(path, false))
	}
}
