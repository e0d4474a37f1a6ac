package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the relay YAML config file's directory and debounces
// writes before signalling that a reread is due, so config edits take
// effect without a restart.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	configPath   string
	reread       chan struct{}
	debounce     time.Duration
	mu           sync.Mutex
	pendingSince time.Time
	pending      bool
	stopChan     chan struct{}
}

// NewWatcher creates a Watcher for configPath. reread is signalled
// (non-blocking) once a write settles for debounce.
func NewWatcher(configPath string, reread chan struct{}) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		configPath: configPath,
		reread:     reread,
		debounce:   500 * time.Millisecond,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins watching the config file's parent directory. fsnotify watches
// directories, not individual files, so that editors which replace the file
// via rename are still observed.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.configPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	slog.Info("Config watcher started", "path", w.configPath)

	go w.processEvents()
	go w.processPending()

	return nil
}

func (w *Watcher) Stop() {
	close(w.stopChan)
	w.fsWatcher.Close()
	slog.Info("Config watcher stopped")
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.pendingSince = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkPending()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) checkPending() {
	w.mu.Lock()
	ready := w.pending && time.Since(w.pendingSince) >= w.debounce
	if ready {
		w.pending = false
	}
	w.mu.Unlock()

	if !ready {
		return
	}

	slog.Info("Relay config changed on disk, scheduling reread", "path", w.configPath)
	select {
	case w.reread <- struct{}{}:
	default:
	}
}
