package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xhedwig/ofdp-sdg/pkg/logging"
)

// ChangeEvent represents a batch of changes to watched files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a fixed set of files. It watches their directories
// rather than the files themselves so that editors replacing a file by
// rename are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool // absolute, cleaned
	dirs    map[string]bool
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the given files
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}

	fw := &FileWatcher{
		files:  make(map[string]bool, len(paths)),
		dirs:   make(map[string]bool),
		events: make(chan ChangeEvent, 100),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		fw.files[abs] = true
		fw.dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	fw.watcher = watcher
	return fw, nil
}

// Start begins watching. Events stop and the channel is closed when ctx
// is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logging.Info("watching topology files", "files", len(fw.files))

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			logging.Trace("topology file event", "path", event.Name, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
