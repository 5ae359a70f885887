package templates

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// Watch loads the templates from dir, laid out like the embedded ones, and
// reloads them whenever a file in fragments/ or pages/ changes. A reload
// that fails to parse keeps the previous templates. Call stop to end it.
func (r *Renderer) Watch(dir string, logger *logpkg.Logger) (stop func(), err error) {
	if logger == nil {
		logger = logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	}
	fsys := os.DirFS(dir)
	if err := r.Reload(fsys); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	for _, sub := range []string{"fragments", "pages"} {
		if err := watcher.Add(filepath.Join(dir, sub)); err != nil {
			watcher.Close()
			return nil, errorsx.Wrap(err, "dir", dir)
		}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
					continue
				}
				if err := r.Reload(fsys); err != nil {
					logger.Warn("templates: reload after %s: %s", ev.Name, err)
					continue
				}
				logger.Debug("templates: reloaded after %s", ev.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("templates: watch %s: %s", dir, err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			watcher.Close()
		})
	}, nil
}
