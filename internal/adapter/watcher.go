package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// Watcher reports batches of changed Java and XML files.
type Watcher interface {
	// Watch blocks until ctx is done, calling onChange once per debounced batch.
	Watch(ctx context.Context, roots []m.Path, debounce time.Duration, onChange func([]m.Path)) error
}

// FSWatcher implements Watcher with fsnotify.
type FSWatcher struct{}

// NewFSWatcher constructs an FSWatcher.
func NewFSWatcher() *FSWatcher {
	return &FSWatcher{}
}

// Watch subscribes to every directory below roots and forwards changes.
func (w *FSWatcher) Watch(ctx context.Context, roots []m.Path, debounce time.Duration, onChange func([]m.Path)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	for _, root := range roots {
		dir, _ := splitRecursive(string(root))
		if err := addWatchDirs(watcher, dir); err != nil {
			return err
		}
	}

	pending := map[m.Path]bool{}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchDirs(watcher, event.Name); err != nil {
						slog.Warn("watch new directory", "path", event.Name, "error", err)
					}

					continue
				}
			}

			if _, ok := fileKind(event.Name); !ok || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
			pending[m.Path(event.Name)] = true
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			batch := make([]m.Path, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}

			clear(pending)
			onChange(batch)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watcher error", "error", err)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && skippedDirs[info.Name()] {
			return filepath.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}
