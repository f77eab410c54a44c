package devserver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/navrouter/internal/config"
)

// reloadDebounce coalesces the bursts of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads routes from path whenever it changes, until ctx is done.
// The parent directory is watched so that editors which replace the file
// on save are still seen. A file that fails to load is logged and the
// previous routes stay in effect.
func (s *Server) Watch(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	s.logger.Info("watching routes", "path", path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			s.reloadFrom(ctx, path)
		}
	}
}

func (s *Server) reloadFrom(ctx context.Context, path string) {
	routes, err := config.LoadRoutes(path)
	if err != nil {
		s.logger.Error("load routes", "path", path, "error", err)
		return
	}
	if err := s.Reload(ctx, routes); err != nil {
		s.logger.Error("reload routes", "path", path, "error", err)
	}
}
