package testing

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"apiauto/pkg/logging"
)

// DefaultDebounceInterval is the time to wait after the last scenario file
// change before OnChange is called.
const DefaultDebounceInterval = 500 * time.Millisecond

// ScenarioWatcherConfig holds configuration for the scenario watcher.
type ScenarioWatcherConfig struct {
	// Path is a scenario file or a directory of scenario files.
	Path string

	// Debounce collapses bursts of changes into one OnChange call.
	Debounce time.Duration

	// OnChange is called when a scenario file is written, created, removed
	// or renamed.
	OnChange func()
}

// ScenarioWatcher calls OnChange whenever a watched scenario file changes.
// New subdirectories of a watched directory are picked up as they appear.
type ScenarioWatcher struct {
	config ScenarioWatcherConfig

	// file is set when Path names a single file.
	file string

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewScenarioWatcher creates a watcher for config.Path.
func NewScenarioWatcher(config ScenarioWatcherConfig) (*ScenarioWatcher, error) {
	if config.OnChange == nil {
		return nil, fmt.Errorf("OnChange callback is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	info, err := os.Stat(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", config.Path, err)
	}

	w := &ScenarioWatcher{config: config}
	if !info.IsDir() {
		w.file = filepath.Clean(config.Path)
	}
	return w, nil
}

// Run watches until ctx is done.
func (w *ScenarioWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if w.file != "" {
		// Editors replace files on save, so the parent directory is watched.
		if err := watcher.Add(filepath.Dir(w.file)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.file, err)
		}
	} else if err := w.addTree(watcher, w.config.Path); err != nil {
		return err
	}

	logging.Info("ScenarioWatcher", "Watching %s for scenario changes", w.config.Path)
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ScenarioWatcher", err, "fsnotify error")
		}
	}
}

func (w *ScenarioWatcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *ScenarioWatcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if w.file != "" && filepath.Clean(event.Name) != w.file {
		return
	}

	if w.file == "" && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(watcher, event.Name); err != nil {
				logging.Warn("ScenarioWatcher", "Failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !isYAMLFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("ScenarioWatcher", "Scenario file changed: %s", event.Name)
	w.triggerDebounced()
}

func (w *ScenarioWatcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, w.config.OnChange)
}

func (w *ScenarioWatcher) stopTimer() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}
