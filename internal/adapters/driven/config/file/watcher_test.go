package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	reloads atomic.Int32
}

func (s *countingStore) Load(string) (string, error) { return "", nil }

func (s *countingStore) Reload() { s.reloads.Add(1) }

func TestIsPromptChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write prompt", fsnotify.Event{Name: "/p/system.txt", Op: fsnotify.Write}, true},
		{"create prompt", fsnotify.Event{Name: "/p/cve_analysis.txt", Op: fsnotify.Create}, true},
		{"remove prompt", fsnotify.Event{Name: "/p/system.txt", Op: fsnotify.Remove}, true},
		{"rename prompt", fsnotify.Event{Name: "/p/system.txt", Op: fsnotify.Rename}, true},
		{"chmod prompt", fsnotify.Event{Name: "/p/system.txt", Op: fsnotify.Chmod}, false},
		{"readme", fsnotify.Event{Name: "/p/README.md", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPromptChange(tt.event))
		})
	}
}

func TestWatchPrompts_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	store := &countingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- WatchPrompts(ctx, dir, store) }()

	// Keep writing until the watcher is registered and sees a change.
	path := filepath.Join(dir, "system.txt")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("You are terse."), 0600)
		return store.reloads.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchPrompts_MissingDir(t *testing.T) {
	err := WatchPrompts(context.Background(), filepath.Join(t.TempDir(), "missing"), &countingStore{})
	require.Error(t, err)
}
