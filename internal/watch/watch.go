// Package watch reports changes to TypeScript files under a directory tree.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"typehide/internal/lang"
)

const DefaultDebounce = 75 * time.Millisecond

var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"coverage":     true,
	".next":        true,
	".turbo":       true,
	".idea":        true,
	".vscode":      true,
}

// Event is one settled change to a file.
type Event struct {
	Path    string
	Removed bool
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

type Watcher struct {
	fw       *fsnotify.Watcher
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// New watches every non-ignored directory under root.
func New(root string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		root:     abs,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(abs); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignoreDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			w.logger.Warn("watch directory", "dir", path, "err", err)
		}
		return nil
	})
}

// Run delivers settled events to onChange until ctx is done. onChange is
// called from timer goroutines, at most once per debounce window per path.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(event, onChange)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch queue overflow, events were dropped")
				continue
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, onChange func(Event)) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !ignoreDirs[info.Name()] {
				_ = w.addTree(path)
			}
			return
		}
	}

	if !Relevant(path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.schedule(path, onChange)
}

// schedule fires onChange once the path has been quiet for the debounce window.
func (w *Watcher) schedule(path string, onChange func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		_, err := os.Stat(path)
		onChange(Event{Path: path, Removed: errors.Is(err, fs.ErrNotExist)})
	})
}

// Close stops the watcher. Pending events are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	return w.fw.Close()
}

// Relevant reports whether a change to path should be reported.
func Relevant(path string) bool {
	if !lang.Detect(path).Analyzable() {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoreDirs[part] {
			return false
		}
	}
	return true
}
