// internal/form/watch.go
//
// Complaintdesk – Forms subsystem: definition hot-reload.
//
// Context
//   Operators edit the YAML variants in the configured forms directory while
//   the frontend is running.  Watch follows that directory with fsnotify and
//   re-runs LoadDir after a short debounce, so a burst of editor writes
//   triggers one reload.  A file that fails to parse leaves the previous
//   definitions in place and is reported through onErr.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is the quiet period before a reload.
const WatchDebounce = 300 * time.Millisecond

// Watch reloads dir into r whenever a YAML file changes.  It blocks until
// ctx is cancelled.  onReload and onErr may be nil.
func Watch(ctx context.Context, dir string, r *Registry, onReload func(), onErr func(error)) error {
	if onErr == nil {
		onErr = func(error) {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timer   *time.Timer
		reloadC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isYAML(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(WatchDebounce)
			reloadC = timer.C

		case <-reloadC:
			reloadC = nil
			if err := r.LoadDir(dir); err != nil {
				onErr(err)
				continue
			}
			if onReload != nil {
				onReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onErr(err)
		}
	}
}
