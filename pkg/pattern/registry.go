package pattern

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// Registry manages the vocabularies loaded on top of the built-in one and
// publishes the matcher compiled from them. Documents already being parsed
// keep the matcher they started with; a reload only affects later calls to
// Matcher.
type Registry struct {
	mu           sync.RWMutex
	vocabularies map[string]*Vocabulary
	files        map[string]string
	dir          string
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	onChange     func(event string, matcher *Matcher)
	logger       *slog.Logger

	matcher atomic.Pointer[Matcher]
}

// NewRegistry creates a registry serving the built-in vocabulary.
func NewRegistry() *Registry {
	r := &Registry{
		vocabularies: make(map[string]*Vocabulary),
		files:        make(map[string]string),
		logger:       slog.Default(),
	}
	r.matcher.Store(Default())
	return r
}

// NewRegistryWithDirectory creates a registry and loads the vocabularies in
// dir. A missing directory is not an error.
func NewRegistryWithDirectory(dir string) (*Registry, error) {
	r := NewRegistry()
	r.dir = dir

	if err := r.LoadDirectory(dir); err != nil {
		return nil, err
	}

	return r, nil
}

// SetLogger replaces the registry logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Matcher returns the current matcher.
func (r *Registry) Matcher() *Matcher {
	return r.matcher.Load()
}

// Register adds or replaces a vocabulary and recompiles the matcher.
func (r *Registry) Register(vocabulary *Vocabulary) error {
	if vocabulary == nil {
		return fmt.Errorf("vocabulary cannot be nil")
	}

	if err := vocabulary.Validate(); err != nil {
		return fmt.Errorf("invalid vocabulary: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.vocabularies[vocabulary.Name]; ok {
		r.logger.Debug("replacing vocabulary", "name", vocabulary.Name, "from", existing.Version, "to", vocabulary.Version)
	}

	r.vocabularies[vocabulary.Name] = vocabulary
	r.rebuildLocked()
	return nil
}

// Unregister removes a vocabulary by name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vocabularies[name]; !ok {
		return fmt.Errorf("vocabulary %q not found", name)
	}

	delete(r.vocabularies, name)
	for path, loaded := range r.files {
		if loaded == name {
			delete(r.files, path)
		}
	}
	r.rebuildLocked()
	return nil
}

// Get returns a vocabulary by name.
func (r *Registry) Get(name string) (*Vocabulary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vocabulary, ok := r.vocabularies[name]
	return vocabulary, ok
}

// List returns the registered vocabularies ordered by name.
func (r *Registry) List() []*Vocabulary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedVocabularies(r.vocabularies)
}

// Count returns the number of registered vocabularies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vocabularies)
}

// rebuildLocked compiles a new matcher from the built-in vocabulary merged
// with every registered one. Callers hold r.mu.
func (r *Registry) rebuildLocked() {
	merged := DefaultVocabulary().Merge(sortedVocabularies(r.vocabularies)...)
	r.matcher.Store(NewMatcher(merged))
}

// LoadDirectory loads all YAML vocabulary files from a directory.
func (r *Registry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := r.LoadFile(path); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading vocabularies: %s", strings.Join(loadErrors, "; "))
	}

	return nil
}

// LoadFile loads a single vocabulary file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var vocabulary Vocabulary
	if err := yaml.Unmarshal(data, &vocabulary); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	if err := r.Register(&vocabulary); err != nil {
		return fmt.Errorf("registering vocabulary: %w", err)
	}

	r.mu.Lock()
	r.files[path] = vocabulary.Name
	r.mu.Unlock()
	return nil
}

// Reload drops every vocabulary and loads the configured directory again.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	r.mu.Lock()
	r.vocabularies = make(map[string]*Vocabulary)
	r.files = make(map[string]string)
	r.rebuildLocked()
	r.mu.Unlock()

	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback invoked after the matcher changes.
func (r *Registry) SetOnChange(fn func(event string, matcher *Matcher)) {
	r.onChange = fn
}

// Watch starts watching the vocabulary directory for changes.
func (r *Registry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})

	go r.watchLoop()

	if err := watcher.Add(r.dir); err != nil {
		r.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}

	return nil
}

func (r *Registry) watchLoop() {
	for {
		select {
		case <-r.stopChan:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}

			if !isYAML(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")

			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")

			case event.Op&fsnotify.Remove == fsnotify.Remove:
				r.handleFileRemove(event.Name)

			case event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("vocabulary watcher error", "error", err)
		}
	}
}

func (r *Registry) handleFileChange(path string, eventType string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn("vocabulary reload failed", "path", path, "error", err)
		return
	}

	r.logger.Info("vocabulary loaded", "path", path, "event", eventType)
	if r.onChange != nil {
		r.onChange(eventType, r.Matcher())
	}
}

func (r *Registry) handleFileRemove(path string) {
	r.mu.RLock()
	name, tracked := r.files[path]
	r.mu.RUnlock()

	if tracked {
		if err := r.Unregister(name); err != nil {
			r.logger.Warn("vocabulary removal failed", "path", path, "error", err)
		}
	} else if err := r.Reload(); err != nil {
		r.logger.Warn("vocabulary reload failed", "path", path, "error", err)
	}

	r.logger.Info("vocabulary removed", "path", path)
	if r.onChange != nil {
		r.onChange("remove", r.Matcher())
	}
}

// StopWatch stops watching the vocabulary directory.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}

// Clear removes every registered vocabulary.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vocabularies = make(map[string]*Vocabulary)
	r.files = make(map[string]string)
	r.rebuildLocked()
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
