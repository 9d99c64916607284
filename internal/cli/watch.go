package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports job files that change on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	// files limits events to explicitly watched files; directories
	// match every job file inside them.
	files  map[string]bool
	dirs   map[string]bool
	logger *slog.Logger
}

// NewWatcher starts watching paths, which may be job files or directories.
func NewWatcher(paths []string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		files:   map[string]bool{},
		dirs:    map[string]bool{},
		logger:  logger,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		dir := abs
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
			// Editors replace files on save, so watch the parent.
			dir = filepath.Dir(abs)
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	return w.dirs[filepath.Dir(abs)] && IsJobFile(abs)
}

// Run calls onChange with every changed job file, once per burst of events
// that settles for debounce. It blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func(path string)) error {
	defer w.Close()
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if w.matches(event.Name) {
				w.logger.Debug("Change detected", "path", event.Name, "op", event.Op.String())
				pending[event.Name] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		case now := <-ticker.C:
			var ready []string
			for path, at := range pending {
				if now.Sub(at) >= debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				// Renamed-away files have nothing to compile.
				if _, err := os.Stat(path); err != nil {
					continue
				}
				onChange(path)
			}
		}
	}
}
