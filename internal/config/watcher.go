package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// LevelWatcher watches a config file's directory and invokes onLevelChange
// with the freshly re-read loglevel whenever the file is written, matching
// confloader.Watcher's directory-not-file watch (catching editor-style
// atomic renames) but scoped to the one field this repo allows to change
// without a restart. The listening port and AOF path are read once at
// startup and never hot-reloaded.
type LevelWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// NewLevelWatcher opens an fsnotify watch on path's containing directory.
func NewLevelWatcher(path string) (*LevelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &LevelWatcher{watcher: w, path: path, done: make(chan struct{})}, nil
}

// Start blocks, invoking onLevelChange(level) each time path is written
// with a re-readable loglevel value, until Stop is called. Read failures
// and events for unrelated files in the same directory are ignored.
func (w *LevelWatcher) Start(readLevel func(path string) (string, error), onLevelChange func(level string)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			level, err := readLevel(w.path)
			if err != nil {
				continue
			}
			if validLogLevels[level] {
				onLevelChange(level)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Stop closes the underlying fsnotify watcher.
func (w *LevelWatcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
