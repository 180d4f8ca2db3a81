package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a reload fires.
const DefaultDebounceInterval = 100 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the file or directory to watch.
	Path string
	// DebounceInterval defaults to DefaultDebounceInterval.
	DebounceInterval time.Duration
	// Extensions default to Extensions.
	Extensions []string
}

// Watcher reports changes to pack files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	config   WatcherConfig
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	stop    sync.Once
}

// NewWatcher creates a watcher. Call Watch to start it.
func NewWatcher(cfg *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("watch path is required")
	}
	c := *cfg
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if len(c.Extensions) == 0 {
		c.Extensions = Extensions
	}
	if logger == nil {
		logger = slog.Default().With("component", "guideline_watcher")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		config:   c,
		debounce: NewDebouncer(c.DebounceInterval),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is done or Stop is called, invoking onChange after
// each settled burst of pack file events. onChange errors are logged and
// watching continues. The watcher cannot be restarted.
func (w *Watcher) Watch(ctx context.Context, onChange func(ctx context.Context) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		_ = w.watcher.Close()
	}()

	if err := w.addPath(w.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}
	w.logger.Info("guideline watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.DebounceInterval.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("guideline watcher stopped")
			return nil

		case <-w.stopCh:
			w.logger.Info("guideline watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				w.watchNewDir(event.Name)
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("guideline file event", "path", event.Name, "op", event.Op.String())

			w.debounce.Trigger(func() {
				if err := onChange(ctx); err != nil {
					w.logger.Error("guideline reload failed", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("guideline watcher error", "error", err)
		}
	}
}

// Stop ends a running Watch.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.stopCh) })
}

func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watch the parent so atomic renames by editors are seen.
		return w.watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(p) && p != path {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || hidden(path) {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if hidden(event.Name) || !hasExtension(event.Name, w.config.Extensions) {
		return false
	}
	info, err := os.Stat(w.config.Path)
	if err == nil && !info.IsDir() {
		return filepath.Clean(event.Name) == filepath.Clean(w.config.Path)
	}
	return true
}

// Debouncer collapses bursts of triggers into one callback fired after a
// quiet interval.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.callback = nil
		d.mu.Unlock()
		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
