package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/giraffenet/webdesk/internal/logger"
)

// Watch reloads the configuration whenever the file is written and sends
// the fresh copy on the returned channel. The channel is closed when ctx is
// done or the watcher fails. Editors that replace the file atomically are
// handled by watching the parent directory.
func (m *Manager) Watch(ctx context.Context) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				logger.WithComponent("config").Warn().Err(err).Msg("watcher close")
			}
		})
	}

	dir := filepath.Dir(m.configPath)
	if err := watcher.Add(dir); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	updates := make(chan *Config, 4)
	target := filepath.Clean(m.configPath)

	go func() {
		defer close(updates)
		defer closeWatcher()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := m.Reload(); err != nil {
					logger.WithComponent("config").Warn().Err(err).Msg("Ignoring unreadable config change")
					continue
				}
				select {
				case updates <- m.Get():
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("config").Warn().Err(err).Msg("watcher error")
			}
		}
	}()

	return updates, nil
}
