package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads the layered configuration when one of its files changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	startDir string
	debounce time.Duration
	logger   *logrus.Entry
	onReload func(*Config)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches the global config directory and the directories of
// every loaded config file. onReload receives each successfully reloaded
// configuration; reloads that fail to parse or validate are logged and skipped.
func NewWatcher(startDir string, debounce time.Duration, logger *logrus.Entry, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := map[string]bool{}
	if global := GlobalConfigPath(); global != "" {
		dirs[filepath.Dir(global)] = true
	}
	if project, err := FindConfigFile(startDir); err == nil {
		dirs[filepath.Dir(project)] = true
	} else {
		dirs[startDir] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			// The global directory often doesn't exist yet.
			logger.WithError(err).Debugf("Not watching %s", dir)
		}
	}

	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		watcher:  fw,
		startDir: startDir,
		debounce: debounce,
		logger:   logger,
		onReload: onReload,
	}, nil
}

// Start processes file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 && isConfigFile(event.Name) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			w.watcher.Close()
			return
		}
	}
}

// schedule coalesces bursts of events into a single reload.
func (w *Watcher) schedule(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.reload(file) })
}

func (w *Watcher) reload(file string) {
	w.logger.Infof("Config changed: %s", filepath.Base(file))

	silent := logrus.New()
	silent.SetLevel(logrus.WarnLevel)
	silent.SetOutput(w.logger.Logger.Out)

	layered, err := LoadLayeredWithLogger(w.startDir, silent)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring invalid configuration change")
		return
	}
	if w.onReload != nil {
		w.onReload(layered.Final)
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range configNames {
		if base == name {
			return true
		}
	}
	for _, name := range overrideNames {
		if base == name {
			return true
		}
	}
	return false
}
