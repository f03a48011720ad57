// Package watcher turns filesystem changes under the serving root into
// reload signals.
//
// FileWatcher wraps fsnotify with recursive directory registration and a
// debouncer that coalesces event bursts (editor save-as writes several raw
// events) into a single flush. Pipeline owns the one active FileWatcher and
// rebinds it whenever the serving root changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches one directory tree and flushes coalesced change
// notifications.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	ignore    []string
	root      string

	mu      sync.Mutex
	handler func()
}

// NewFileWatcher creates a watcher bound to root, registering root and every
// subdirectory not matched by an ignore name. The returned watcher is
// inactive until Start is called.
func NewFileWatcher(root string, debounce time.Duration, ignore []string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:   w,
		debouncer: newDebouncer(debounce),
		ignore:    ignore,
		root:      root,
	}

	if err := fw.addRecursive(root); err != nil {
		w.Close()
		return nil, err
	}

	return fw, nil
}

// Root returns the directory this watcher is bound to.
func (fw *FileWatcher) Root() string {
	return fw.root
}

// SetHandler sets the function invoked once per debounce flush.
func (fw *FileWatcher) SetHandler(handler func()) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.handler = handler
}

// Start runs the watch loop until ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.run(ctx, fw.flush)
	go fw.watchLoop(ctx)
}

// Stop releases the underlying fsnotify watcher.
func (fw *FileWatcher) Stop() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// A subdirectory that vanished or is unreadable should
			// not abort the whole bind.
			if path == root {
				return err
			}
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if fw.ignored(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

func (fw *FileWatcher) ignored(name string) bool {
	for _, ig := range fw.ignore {
		if name == ig {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Errors degrade live reload only; keep watching.
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	// Events directly under the root are never ignored, even when the
	// root itself carries an ignored name.
	if dir := filepath.Dir(event.Name); dir != fw.root && fw.ignored(filepath.Base(dir)) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0,
		event.Op&fsnotify.Write != 0,
		event.Op&fsnotify.Remove != 0,
		event.Op&fsnotify.Rename != 0:
	default:
		// Chmod-only events are noise.
		return
	}

	// New subdirectories must join the watch for recursion to hold.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !fw.ignored(filepath.Base(event.Name)) {
				_ = fw.addRecursive(event.Name)
			}
		}
	}

	fw.debouncer.add()
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	handler := fw.handler
	fw.mu.Unlock()

	if handler != nil {
		handler()
	}
}

// debouncer coalesces rapid events into one flush per quiet window.
type debouncer struct {
	delay  time.Duration
	events chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		events: make(chan struct{}, 128),
	}
}

func (d *debouncer) run(ctx context.Context, flush func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.events:
			d.arm(flush)
		}
	}
}

func (d *debouncer) add() {
	select {
	case d.events <- struct{}{}:
	default:
		// Intake full; a flush is already pending.
	}
}

func (d *debouncer) arm(flush func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, flush)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
