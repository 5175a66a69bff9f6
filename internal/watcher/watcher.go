// Package watcher reports changes inside watched directories via callbacks.
// Watches are not recursive: a directory is watched only once it is added.
package watcher

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/CageChen/fsclass/internal/logging"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Event represents a file system change event
type Event struct {
	Type EventType
	Path string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// Watcher monitors a set of directories
type Watcher struct {
	watcher   *fsnotify.Watcher
	exclude   func(path string) bool
	log       logging.Logger
	callbacks []Callback
	watched   map[string]bool
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a watcher. Paths for which exclude returns true are ignored;
// exclude may be nil.
func New(exclude func(string) bool, log logging.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if exclude == nil {
		exclude = func(string) bool { return false }
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{
		watcher: w,
		exclude: exclude,
		log:     log,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Add starts watching dir's immediate children. Adding a directory twice is a no-op.
func (w *Watcher) Add(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] || w.exclude(dir) {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	w.log.Debug("watching directory", "path", dir)
	return nil
}

// Watching reports whether dir has been added.
func (w *Watcher) Watching(dir string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watched[filepath.Clean(dir)]
}

// Start begins delivering events
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.exclude(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Remove):
		eventType = EventRemove
		w.forget(event.Name)
	case event.Has(fsnotify.Rename):
		eventType = EventRename
		w.forget(event.Name)
	default:
		return
	}

	e := Event{Type: eventType, Path: event.Name}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// forget drops bookkeeping for a watched directory that went away; fsnotify
// removes the kernel watch on its own.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, filepath.Clean(path))
}
