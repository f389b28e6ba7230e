package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the key whose backing file changed on disk.
type ChangeCallback func(key string)

// watchDebounce coalesces bursts of events (editors and atomic renames
// produce several per save).
var watchDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on dir and reports changed keys until ctx
// is cancelled. Events are debounced: a burst of writes to one or more keys
// produces one callback per key after the directory has been quiet for
// watchDebounce. Temp files from atomic writes are ignored.
func Watch(ctx context.Context, dir string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			clear(pending)
			for _, k := range keys {
				logger.Debug("watcher: changed", slog.String("key", k))
				if cb != nil {
					cb(k)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := keyFromFile(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
