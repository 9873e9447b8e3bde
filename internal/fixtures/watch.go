package fixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a Dataset whenever its backing fixture file is written.
type Watcher struct {
	path    string
	dataset *Dataset
	logger  *zap.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// onReload is called after each successful reload; tests hook it.
	onReload func()
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, ds *Dataset, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: path, dataset: ds, logger: logger}
}

// Start watches the file's directory so editors that replace the file
// (rename over it) are still picked up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("fixture watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Watching fixture file", zap.String("path", w.path))
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Fixture watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	data, err := LoadFile(w.path)
	if err != nil {
		// keep serving the previous dataset
		w.logger.Warn("Fixture reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.dataset.Replace(data)
	w.logger.Info("Fixture dataset reloaded", zap.String("path", w.path))
	if w.onReload != nil {
		w.onReload()
	}
}
