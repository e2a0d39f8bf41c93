package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is how long a file must stay quiet before it is parsed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher parses documents as they appear or change in a directory.
// Unchanged content, judged by its hash, is not parsed twice.
type Watcher struct {
	runner   *Runner
	dir      string
	glob     string
	debounce time.Duration

	mu      sync.Mutex
	hashes  map[string]string
	pending map[string]*time.Timer

	// OnEntry, when set, receives the outcome of every parsed document.
	OnEntry func(Entry)
}

// NewWatcher creates a watcher over dir for files matching glob.
func NewWatcher(runner *Runner, dir, glob string) *Watcher {
	if glob == "" {
		glob = "*"
	}
	return &Watcher{
		runner:   runner,
		dir:      dir,
		glob:     glob,
		debounce: DefaultDebounce,
		hashes:   make(map[string]string),
		pending:  make(map[string]*time.Timer),
	}
}

// SetDebounce changes the quiet period. Zero parses on the first event.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Matches reports whether a path is a document the watcher handles.
func (w *Watcher) Matches(path string) bool {
	ok, err := filepath.Match(w.glob, filepath.Base(path))
	return err == nil && ok
}

// Run parses the documents already present, then watches the directory
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	jobs, err := Discover(w.dir, w.glob)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		w.Handle(ctx, job.Path)
	}

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.Matches(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				w.schedule(ctx, event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.forget(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.runner.logger.Warn("directory watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	if w.debounce <= 0 {
		w.Handle(ctx, path)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.Handle(ctx, path)
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.hashes, path)
	w.mu.Unlock()
}

// Handle parses path unless its content was already parsed. It reports
// whether the document was parsed.
func (w *Watcher) Handle(ctx context.Context, path string) bool {
	hash, err := FileHash(path)
	if err != nil {
		w.runner.logger.Warn("cannot hash document", "file", path, "error", err)
		return false
	}

	w.mu.Lock()
	if w.hashes[path] == hash {
		w.mu.Unlock()
		return false
	}
	w.hashes[path] = hash
	w.mu.Unlock()

	entry := w.runner.Process(ctx, path)
	if w.OnEntry != nil {
		w.OnEntry(entry)
	}
	return true
}
