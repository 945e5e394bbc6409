// Package watch nudges the scanner when the download directory changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before nudging.
const DefaultDebounce = 2 * time.Second

// Nudger is told that new files may be waiting.
type Nudger interface {
	Nudge()
}

// Watcher observes a directory tree and nudges the scanner. It never
// processes files itself.
type Watcher struct {
	root     string
	target   Nudger
	debounce time.Duration
	log      *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for root. A zero debounce uses DefaultDebounce.
func New(root string, target Nudger, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		target:   target,
		debounce: debounce,
		log:      logger.With("component", "watch"),
	}
}

// Name returns the component name.
func (w *Watcher) Name() string {
	return "watcher"
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	defer w.stopTimer()
	w.log.Info("watching download directory", "dir", w.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.log.Warn("watch directory failed", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	if ignored(filepath.Base(event.Name)) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, event.Name); err != nil {
				w.log.Warn("watch new directory failed", "path", event.Name, "error", err)
			}
		}
	}

	w.log.Debug("change detected", "path", event.Name, "op", event.Op.String())
	w.schedule()
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.target.Nudge)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// ignored skips hidden entries and in-progress downloads.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".!qB")
}
