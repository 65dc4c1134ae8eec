package definitions

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloadFunc receives each successfully loaded manifest. Implementations
// typically Build a fresh registry, re-register their derived statistics and
// swap the serving evaluator.
type ReloadFunc func(*Manifest)

// Watcher reloads a manifest file whenever it changes on disk. A manifest
// that fails to load or validate is logged and skipped; the previous state
// stays in effect.
type Watcher struct {
	path    string
	onLoad  ReloadFunc
	log     *logrus.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}

	// debounce coalesces the event bursts editors produce on save.
	debounce time.Duration
}

// NewWatcher watches the manifest at path. The containing directory is
// watched rather than the file itself, so atomic rename-into-place saves are
// picked up too.
func NewWatcher(path string, onLoad ReloadFunc, log *logrus.Logger) (*Watcher, error) {
	if log == nil {
		log = logrus.New()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onLoad:   onLoad,
		log:      log,
		watcher:  fw,
		done:     make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}
	go w.run()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("Manifest watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	manifest, err := Load(w.path)
	if err != nil {
		w.log.Warnf("Failed to reload manifest %s: %v", w.path, err)
		return
	}
	w.log.Infof("Reloaded manifest %s with %d statistics", w.path, len(manifest.Statistics))
	w.onLoad(manifest)
}
