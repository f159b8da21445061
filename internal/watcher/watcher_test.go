package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestYAMLFilter(t *testing.T) {
	assert.True(t, YAMLFilter("configuration.yaml"))
	assert.True(t, YAMLFilter("automations.yml"))
	assert.True(t, YAMLFilter(filepath.Join("config", "sensors", "temp.yaml")))
	assert.False(t, YAMLFilter("core.entity_registry"))
	assert.False(t, YAMLFilter("readme.md"))
	assert.False(t, YAMLFilter("yaml"))
}

func TestNoStorageFilter(t *testing.T) {
	assert.True(t, NoStorageFilter(filepath.Join("config", "configuration.yaml")))
	assert.False(t, NoStorageFilter(filepath.Join("config", ".storage", "core.entity_registry")))
	assert.False(t, NoStorageFilter(filepath.Join("config", ".storage", "nested", "file")))
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter(filepath.Join("config", "configuration.yaml")))
	assert.False(t, NoHiddenFilter(filepath.Join("config", ".hidden.yaml")))
}

func TestAddRecursiveRejectsTraversal(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	err = fw.AddRecursive("../../etc")
	assert.Error(t, err)
}

func TestWatcherDeliversDebouncedBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sensors"), 0o755))

	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(YAMLFilter)

	var mu sync.Mutex
	var batches [][]ChangeEvent
	done := make(chan struct{}, 1)
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}

		return nil
	})

	require.NoError(t, fw.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	path := filepath.Join(dir, "configuration.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)

	// Burst of writes to one file collapses to one event per path, and the
	// non-YAML file never appears.
	for _, batch := range batches {
		seen := make(map[string]int)
		for _, event := range batch {
			seen[event.Path]++
			assert.NotContains(t, event.Path, "notes.txt")
		}
		for path, count := range seen {
			assert.Equal(t, 1, count, path)
		}
	}
}

func TestWatcherStopIsIdempotentSafe(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, fw.Stop())
}
