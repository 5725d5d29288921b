package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/logger"
)

// watcher reports shader source changes from the override directory.
// Events only mark pipelines dirty; compilation stays on the render thread.
type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

func newWatcher(dir string, onChange func(file string)) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &watcher{fs: fw, done: make(chan struct{})}

	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				name := filepath.Base(event.Name)
				ext := strings.ToLower(filepath.Ext(name))
				if ext != ".vert" && ext != ".frag" {
					continue
				}
				logger.Debug("shader source changed", zap.String("file", name))
				onChange(name)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("shader watcher error", zap.Error(err))
			}
		}
	}()

	return w, nil
}

func (w *watcher) close() {
	close(w.done)
	w.fs.Close()
}
