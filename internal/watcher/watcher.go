package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/dshills/doccontext-mcp/internal/indexer"
)

// DefaultDebounce is the quiet period after the last change before re-indexing
const DefaultDebounce = 500 * time.Millisecond

// IndexFunc re-indexes the watched tree
type IndexFunc func(ctx context.Context) error

// Config tunes a Watcher
type Config struct {
	Debounce time.Duration
	Exclude  []string // Doublestar patterns matched against slash-separated relative paths
	Logger   *slog.Logger
}

// Watcher re-indexes a Markdown tree after it changes. Bursts of events are
// coalesced into one run once the tree has been quiet for the debounce
// interval, and at most one run is active at a time.
type Watcher struct {
	root    string
	index   IndexFunc
	cfg     Config
	fsw     *fsnotify.Watcher
	watched map[string]struct{}
	ready   chan struct{}
}

// New creates a Watcher for root. Call Run to start watching.
func New(root string, index IndexFunc, cfg Config) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	if index == nil {
		return nil, errors.New("index function is required")
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		root:    abs,
		index:   index,
		cfg:     cfg,
		watched: make(map[string]struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Root returns the absolute path being watched
func (w *Watcher) Root() string {
	return w.root
}

// Ready is closed once the initial watch set is installed
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the tree until ctx is canceled. It waits for an in-flight
// index run before returning.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	w.fsw = fsw

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.cfg.Logger.Info("watching for changes", "root", w.root, "dirs", len(w.watched), "debounce", w.cfg.Debounce)
	close(w.ready)

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		fire    <-chan time.Time
		done    chan error
		pending bool
	)
	schedule := func() {
		timer.Reset(w.cfg.Debounce)
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.handleEvent(event) {
				continue
			}
			if done != nil {
				pending = true
				continue
			}
			schedule()

		case wErr, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.cfg.Logger.Error("fsnotify error", "error", wErr)

		case <-fire:
			fire = nil
			done = make(chan error, 1)
			go func(done chan<- error) {
				done <- w.index(ctx)
			}(done)

		case err := <-done:
			done = nil
			switch {
			case errors.Is(err, indexer.ErrIndexingInProgress):
				w.cfg.Logger.Debug("index run busy, retrying after debounce")
				pending = true
			case err != nil && ctx.Err() == nil:
				w.cfg.Logger.Error("re-index failed", "root", w.root, "error", err)
			}
			if pending {
				pending = false
				schedule()
			}
		}
	}
}

// handleEvent updates the watch set and reports whether the event should
// trigger a re-index
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return false
	}

	w.cfg.Logger.Debug("event received", "path", rel, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.cfg.Logger.Warn("failed to watch new directory", "path", rel, "error", err)
			}
			// Files may have landed before the watch was added
			return true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, ok := w.watched[event.Name]; ok {
			delete(w.watched, event.Name)
			return true
		}
	}

	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, "_") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addTree adds dir and every eligible directory below it to the watch set
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.cfg.Logger.Warn("failed to read directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, err := filepath.Rel(w.root, path)
			if err == nil && w.ignored(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if _, ok := w.watched[path]; ok {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.watched[path] = struct{}{}
		return nil
	})
}

// ignored reports whether a relative path is hidden or excluded
func (w *Watcher) ignored(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	for _, pattern := range w.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
