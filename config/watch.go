package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// coalesceWindow groups the bursts of events editors produce for one save
const coalesceWindow = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk
// A file that fails to load is logged and the previous config stays in effect
type Watcher struct {
	log      *zap.Logger
	path     string
	onChange func(*Config)

	watcher *fsnotify.Watcher
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Watch calls fn with each successfully reloaded config
// The parent directory is watched so rename-on-save editors are seen
func Watch(path string, fn func(*Config), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		log:      log.Named("config"),
		path:     abs,
		onChange: fn,
		watcher:  fw,
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Close stops watching and waits for a reload in progress
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(coalesceWindow)

		case <-settle:
			settle = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous", zap.Error(err))
		return
	}
	w.log.Info("config reloaded", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
