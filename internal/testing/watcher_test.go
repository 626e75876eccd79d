package testing

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string) *atomic.Int32 {
	t.Helper()

	var changes atomic.Int32
	watcher, err := NewScenarioWatcher(ScenarioWatcherConfig{
		Path:     path,
		Debounce: 20 * time.Millisecond,
		OnChange: func() { changes.Add(1) },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	// Give the watcher time to register its watches.
	time.Sleep(100 * time.Millisecond)
	return &changes
}

func TestScenarioWatcher_Directory(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, changes.Load())

	// A burst of writes collapses into one notification.
	for i := 0; i < 3; i++ {
		writeFile(t, filepath.Join(dir, "a.yaml"), "name: a\n")
	}
	assert.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "nested", "b.yml"), "name: b\n")
	assert.Eventually(t, func() bool { return changes.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScenarioWatcher_File(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.yaml")
	writeFile(t, target, "name: a\n")
	changes := startWatcher(t, target)

	writeFile(t, filepath.Join(dir, "other.yaml"), "name: other\n")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, changes.Load())

	writeFile(t, target, "name: a2\n")
	assert.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewScenarioWatcher_Errors(t *testing.T) {
	_, err := NewScenarioWatcher(ScenarioWatcherConfig{Path: t.TempDir()})
	assert.Error(t, err)

	_, err = NewScenarioWatcher(ScenarioWatcherConfig{Path: filepath.Join(t.TempDir(), "missing"), OnChange: func() {}})
	assert.Error(t, err)
}
