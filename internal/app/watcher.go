package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/orbit/internal/debug"
)

// DirectoryWatcher watches the open directory and reports, debounced, when
// its listing should be refetched.
type DirectoryWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watching string
	notify   chan string
	done     chan struct{}
	once     sync.Once
	debounce time.Duration
}

// NewDirectoryWatcher creates a watcher; debounceMs <= 0 means 200ms.
func NewDirectoryWatcher(debounceMs int) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 200
	}

	dw := &DirectoryWatcher{
		watcher:  w,
		notify:   make(chan string, 1),
		done:     make(chan struct{}),
		debounce: time.Duration(debounceMs) * time.Millisecond,
	}
	go dw.run()
	return dw, nil
}

func (dw *DirectoryWatcher) run() {
	var (
		pending   bool
		lastEvent time.Time
	)
	ticker := time.NewTicker(dw.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			dw.mu.Lock()
			dir := dw.watching
			dw.mu.Unlock()
			if filepath.Dir(event.Name) == dir || event.Name == dir {
				pending, lastEvent = true, time.Now()
				debug.Log(debug.APP, "fsnotify: %s on %s", event.Op, event.Name)
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.APP, "fsnotify error: %v", err)

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < dw.debounce {
				continue
			}
			pending = false
			dw.mu.Lock()
			dir := dw.watching
			dw.mu.Unlock()
			// A notification is already queued when the channel is full
			select {
			case dw.notify <- dir:
			default:
			}
		}
	}
}

// Follow makes dir the only watched directory. An empty dir stops watching.
func (dw *DirectoryWatcher) Follow(dir string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dir == dw.watching {
		return nil
	}
	if dw.watching != "" {
		// The directory may already be gone
		if err := dw.watcher.Remove(dw.watching); err != nil {
			debug.Log(debug.APP, "unwatch %s: %v", dw.watching, err)
		}
		dw.watching = ""
	}
	if dir == "" {
		return nil
	}
	if err := dw.watcher.Add(dir); err != nil {
		return err
	}
	dw.watching = dir
	debug.Log(debug.APP, "watching %s", dir)
	return nil
}

// Notify receives the watched directory after it changed.
func (dw *DirectoryWatcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts down the watcher. Idempotent.
func (dw *DirectoryWatcher) Close() error {
	var err error
	dw.once.Do(func() {
		close(dw.done)
		err = dw.watcher.Close()
	})
	return err
}
