// Package watch calls a function after any of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Watcher coalesces change events on a set of files into one callback.
type Watcher struct {
	fs       *fsnotify.Watcher
	targets  map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context) error
	logger   logger.Logger
}

// New starts watching paths. Parent directories are watched so that files
// replaced by rename, as most editors save, keep being tracked.
func New(paths []string, debounce time.Duration, onChange func(ctx context.Context) error, log logger.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		targets:  make(map[string]bool, len(paths)),
		debounce: debounce,
		onChange: onChange,
		logger:   log,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, absErr := filepath.Abs(p)
		if absErr != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, absErr)
		}
		w.targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if addErr := fsw.Add(dir); addErr != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, addErr)
		}
		dirs[dir] = true
	}

	return w, nil
}

// Run dispatches change events until ctx is cancelled. Callback errors are
// logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.targets[filepath.Clean(ev.Name)] || !relevant(ev) {
				continue
			}
			w.logger.Debug("File changed",
				logger.String("path", ev.Name),
				logger.String("op", ev.Op.String()),
			)
			fire = time.After(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", logger.Error(err))

		case <-fire:
			fire = nil
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("Reload failed", logger.Error(err))
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
