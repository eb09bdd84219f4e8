package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file at path on every write event and invokes
// onReload with the freshly-parsed Config. Which fields take effect is up
// to the caller: tensd stores the new Config for its GC loop, which re-reads
// store.gc_interval_seconds; logging settings and store.root are read once
// at startup and do not change on reload.
//
// Grounded on axonops's config.Load validate-then-apply discipline: a
// reload that fails to parse or validate is logged and discarded, never
// applied partially.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload func(*Config)) error {
	if path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watching %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload failed, keeping previous configuration", "path", path, "error", err)
					continue
				}
				logger.Info("configuration reloaded", "path", path)
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
