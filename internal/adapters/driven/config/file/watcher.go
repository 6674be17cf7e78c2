package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// WatchPrompts reloads store whenever a prompt file in dir changes.
// It blocks until ctx is cancelled.
func WatchPrompts(ctx context.Context, dir string, store driven.PromptStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isPromptChange(event) {
				logger.Debug("prompt changed: %s", filepath.Base(event.Name))
				store.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

func isPromptChange(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".txt") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
