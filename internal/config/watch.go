package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the write bursts editors produce when saving.
const debounceDelay = 200 * time.Millisecond

// Watcher reloads the config file on change and delivers valid configs to
// a callback. Invalid intermediate states are logged and skipped, so the
// running app never observes a half-written file.
type Watcher struct {
	fw     *fsnotify.Watcher
	path   string
	log    *slog.Logger
	onLoad func(Config)

	mu      sync.Mutex
	pending *time.Timer
	done    chan struct{}
}

// Watch starts watching path. onLoad is called with each successfully
// loaded and validated config, never concurrently with itself.
func Watch(path string, log *slog.Logger, onLoad func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors typically replace the
	// file by rename, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw, path: path, log: log, onLoad: onLoad, done: make(chan struct{})}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "err", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := readConfig(w.path)
	if err != nil {
		w.log.Warn("config reload failed", "err", err)
		return
	}
	if err := Validate(cfg); err != nil {
		w.log.Warn("config reload rejected", "err", err)
		return
	}
	w.log.Info("config reloaded", "path", w.path)
	w.onLoad(cfg)
}
