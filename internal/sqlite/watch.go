package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// watchDebounce groups bursts of file events (a commit touches the WAL and
// its index several times) into one refresh.
const watchDebounce = 100 * time.Millisecond

// WatchExternalChanges watches the database files for writes made by other
// processes and refreshes every live query when they change. Writes made
// through this backend also trigger a refresh, which is harmless. It blocks
// until ctx is done or the watcher fails. Returns ErrDetached if the
// backend is not attached.
func (b *Backend) WatchExternalChanges(ctx context.Context) error {
	b.mu.RLock()
	attached, dbPath := b.attached, b.dbPath
	b.mu.RUnlock()
	if !attached {
		return types.ErrDetached
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// The directory is watched rather than the file so the WAL and journal
	// files are seen when SQLite creates them.
	dir := filepath.Dir(dbPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	base := filepath.Base(dbPath)
	b.logger.Debug("watching database for external changes", "dir", dir)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		case <-timer.C:
			b.logger.Debug("database changed on disk, refreshing live queries")
			b.tracker.notifyAll()
		}
	}
}
