package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hoplab/panelhop/pkg/log"
)

// DefaultDebounce coalesces editor write bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the registry after each settled change to the backing
// file and hands the fresh snapshot to onReload. It blocks until ctx
// ends. Snapshots that fail to parse are logged and skipped, so a
// half-saved edit never tears down the running configuration.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration, onReload func(Snapshot)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: saves replace the file by rename, which would
	// detach a watch on the file itself.
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	base := filepath.Base(r.path)

	var (
		mu      sync.Mutex
		pending *time.Timer
	)
	defer func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
	}()

	reload := func() {
		snap, err := r.Snapshot(ctx)
		if err != nil {
			r.logger.Warn("registry reload failed", log.Err(err))
			return
		}
		r.logger.Info("registry reloaded", log.Int("panels", len(snap.Profiles)))
		onReload(snap)
	}

	r.logger.Debug("registry watch started", log.String("path", r.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, reload)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("registry watcher error", log.Err(err))
		}
	}
}
