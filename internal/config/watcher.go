package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Manager when its config file changes on disk
type Watcher struct {
	watcher  *fsnotify.Watcher
	manager  *Manager
	file     string
	onChange func(Config)
	debounce time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWatcher watches the directory holding m's config file
// Editors replace files by rename, so the directory is watched rather than the file
func NewWatcher(m *Manager, debounce time.Duration, onChange func(Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	file := filepath.Clean(m.Path())
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{
		watcher:  w,
		manager:  m,
		file:     file,
		onChange: onChange,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	debug.Log(debug.CONFIG, "watching %s", file)
	return cw, nil
}

// run processes filesystem events with debouncing
func (cw *Watcher) run() {
	defer cw.wg.Done()

	var lastEvent time.Time
	pending := false
	ticker := time.NewTicker(cw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-cw.done:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.file {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				lastEvent = time.Now()
				pending = true
				debug.Log(debug.CONFIG, "FSNotify event: %s on %s", event.Op, event.Name)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.CONFIG, "FSNotify error: %v", err)

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < cw.debounce {
				continue
			}
			pending = false
			if err := cw.manager.Load(); err != nil {
				continue
			}
			if cw.onChange != nil {
				cw.onChange(cw.manager.Get())
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit
func (cw *Watcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}
