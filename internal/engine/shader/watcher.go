package shader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/glsandbox/internal/logger"
)

// Watcher reports edits to a set of shader source files. It never touches
// the GPU: the render loop receives changed paths from Changed and builds
// a replacement Program itself.
type Watcher struct {
	fs      *fsnotify.Watcher
	files   map[string]bool
	changed chan string
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching paths. Parent directories are watched so that
// editors which save by rename are still seen.
func Watch(paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}

	w := &Watcher{
		fs:      fsw,
		files:   make(map[string]bool),
		changed: make(chan string, 1),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go w.run()
	return w, nil
}

// Changed delivers the path of a modified source. Bursts of writes are
// coalesced into a single pending notification.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			logger.Named("shader").Debug("shader source changed", zap.String("path", abs), zap.Stringer("op", ev.Op))
			select {
			case w.changed <- abs:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Named("shader").Warn("shader watcher error", zap.Error(err))
		}
	}
}
