package assets

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher drops cache entries when files under the root change.
type Watcher struct {
	m        *Manager
	fs       *fsnotify.Watcher
	onChange func(name string)

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Watch starts watching the root directory and its subdirectories. Changed
// files are invalidated right away; onChange, if set, receives each
// root-relative name once the debounce period passes without new events.
// Watching stops when ctx is done or Close is called.
func (m *Manager) Watch(ctx context.Context, onChange func(name string)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		m:        m,
		fs:       fsWatch,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(m.root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and waits for it to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}

// addRecursive adds all directories under path to the watch list.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(walkPath)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if w.onChange == nil {
			clear(pending)
			return
		}
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		clear(pending)
		slices.Sort(names)
		for _, name := range names {
			w.onChange(name)
		}
	}

	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			name, changed := w.handle(e)
			if !changed {
				continue
			}
			pending[name] = struct{}{}
			if w.m.debounce <= 0 {
				flush()
				continue
			}
			timer.Reset(w.m.debounce)

		case <-timer.C:
			flush()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.m.log.Error("watch error", zap.Error(err))

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// handle invalidates the file behind an event and returns its root-relative
// name.
func (w *Watcher) handle(e fsnotify.Event) (string, bool) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.addRecursive(e.Name); err != nil {
				w.m.log.Warn("watch add failed", zap.String("dir", e.Name), zap.Error(err))
			}
			return "", false
		}
	}
	if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	rel, err := filepath.Rel(w.m.root, e.Name)
	if err != nil {
		return "", false
	}
	name := key(rel)
	if w.m.Invalidate(name) {
		w.m.log.Debug("cache entry invalidated", zap.String("file", name), zap.Stringer("op", e.Op))
	}
	return name, true
}
