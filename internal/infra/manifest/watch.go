package manifest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultWatchDebounce = 250 * time.Millisecond

// Watch logs build output changes until ctx ends. Manifest edits need a
// restart; bundle edits are picked up on the next resource read.
func Watch(ctx context.Context, manifestPath, bundleDir string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("widget_watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range watchPaths(manifestPath, bundleDir) {
		if err := watcher.Add(path); err != nil {
			logger.Warn("widget watcher add failed", zap.String("path", path), zap.Error(err))
		}
	}

	var timer *time.Timer
	pending := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err := <-watcher.Errors:
			if err != nil {
				logger.Warn("widget watcher error", zap.Error(err))
			}
		case event := <-watcher.Events:
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(defaultWatchDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(defaultWatchDebounce)
		case <-timerChan(timer):
			timer = nil
			for path := range pending {
				switch {
				case isSamePath(path, manifestPath):
					logger.Warn("widget manifest changed on disk; restart to pick up new widget uris", zap.String("path", path))
				case isWithin(path, bundleDir):
					logger.Info("widget bundle updated", zap.String("path", path))
				}
			}
			pending = map[string]bool{}
		}
	}
}

func watchPaths(manifestPath, bundleDir string) []string {
	seen := map[string]bool{}
	var out []string
	for _, path := range []string{filepath.Dir(manifestPath), bundleDir} {
		if strings.TrimSpace(path) == "" {
			continue
		}
		clean := filepath.Clean(path)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

func isSamePath(path, target string) bool {
	if path == "" || target == "" {
		return false
	}
	return filepath.Clean(path) == filepath.Clean(target)
}

func isWithin(path, dir string) bool {
	if path == "" || dir == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
