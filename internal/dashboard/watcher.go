package dashboard

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watcher watches the results tree and emits one debounced signal per burst
// of filesystem events. Result files land in per-component subdirectories,
// so newly created directories are added to the watch as they appear.
type watcher struct {
	fsw     *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

func newWatcher(dir string, debounce time.Duration, logger *zap.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	addTree := func(root string) {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error { //nolint:errcheck
			if err != nil || !d.IsDir() {
				return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
			}
			if err := fsw.Add(path); err != nil {
				logger.Warn("watch add failed", zap.String("path", path), zap.Error(err))
			}
			return nil
		})
	}
	addTree(dir)

	w := &watcher{
		fsw:     fsw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Create) {
					// May be a new component directory.
					addTree(ev.Name)
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					fire = timer.C
				} else {
					timer.Reset(debounce)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", zap.Error(err))
			case <-fire:
				timer = nil
				fire = nil
				select {
				case w.changes <- struct{}{}:
				default: // a refresh is already pending
				}
			}
		}
	}()

	return w, nil
}

// Changes emits one value per debounced burst of events.
func (w *watcher) Changes() <-chan struct{} { return w.changes }

func (w *watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
