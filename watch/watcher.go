package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher owns one OS watch subscription and fans its events out to a
// set of listeners from a dedicated dispatch goroutine. Watchers are
// created by a Registry, never directly.
type Watcher struct {
	registered *RegisteredPath
	recursive  bool
	doc        Document
	registry   *Registry
	fw         *fsnotify.Watcher
	zlog       *zap.Logger

	// dirs holds every directory registered with the watch facility:
	// the root plus, for recursive watches, the subdirectories found by
	// the construction-time walk. Immutable after construction.
	dirs []string

	mu        sync.Mutex
	listeners []Listener
	state     State
	err       error

	done      chan struct{}
	closeOnce sync.Once
}

// newWatcher registers the target directory (and, for recursive
// watches, every subdirectory existing at this moment) with the watch
// facility. The registry mutex must be held: conflict checks against
// other active watchers are part of the atomic get-or-create sequence.
func newWatcher(r *Registry, rp *RegisteredPath, recursive bool, doc Document) (*Watcher, error) {
	dir := rp.Dir()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, &NotFoundError{Path: dir}
	}
	if other := r.conflictLocked(dir); other != nil {
		return nil, &ConflictError{Path: dir}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		registered: rp,
		recursive:  recursive,
		doc:        doc,
		registry:   r,
		fw:         fw,
		zlog:       r.zlog,
		done:       make(chan struct{}),
	}
	if err := w.addDir(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if recursive {
		if err := w.walkSubdirs(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addDir(dir string) error {
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	w.dirs = append(w.dirs, dir)
	return nil
}

// walkSubdirs registers every subdirectory below root. This is a
// one-time snapshot: directories created after the watch starts are not
// picked up.
func (w *Watcher) walkSubdirs(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() || path == root {
			return nil
		}
		if other := w.registry.conflictLocked(path); other != nil {
			return &ConflictError{Path: path}
		}
		return w.addDir(path)
	})
}

// start launches the dispatch loop. Called once by the registry.
func (w *Watcher) start() {
	w.mu.Lock()
	w.state = StateRunning
	w.mu.Unlock()
	go w.run()
}

// run is the dispatch loop. It blocks on the watch facility and, per
// event, invokes every registered listener in registration order. The
// loop exits when the watcher is closed or when dispatch fails.
func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			kind := kindOf(ev.Op)
			if kind == 0 {
				continue
			}
			if !w.deliver(Event{Registered: w.registered, Kind: kind, Path: ev.Name}) {
				return
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				if !w.deliver(Event{Registered: w.registered, Kind: Overflowed}) {
					return
				}
				continue
			}
			w.fail(err)
			return
		case <-w.done:
			return
		}
	}
}

func kindOf(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Deleted
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return Modified
	}
	return 0
}

// deliver invokes every listener synchronously and sequentially. A
// panicking listener moves the watcher to StateFailed and deregisters
// it; deliver reports whether the loop should keep running.
func (w *Watcher) deliver(e Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.fail(fmt.Errorf("listener panic: %v", r))
			ok = false
		}
	}()
	w.mu.Lock()
	listeners := make([]Listener, len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()
	for _, l := range listeners {
		l.OnFileEvent(e)
	}
	return true
}

// fail moves the watcher to the terminal Failed state, releases the OS
// handle and deregisters, so callers can detect the dead watcher and
// recreate it.
func (w *Watcher) fail(err error) {
	w.mu.Lock()
	if w.state.terminal() {
		w.mu.Unlock()
		return
	}
	w.state = StateFailed
	w.err = err
	w.mu.Unlock()

	w.zlog.Error("watcher dispatch failed",
		zap.String("dir", w.registered.Dir()),
		zap.Error(err))
	w.closeOnce.Do(func() { close(w.done) })
	_ = w.fw.Close()
	w.registry.remove(w)
}

// Close cancels the OS watch subscription, releases the handle,
// deregisters the watcher and moves it to StateClosed. It unblocks the
// dispatch loop and is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.state.terminal() {
		w.mu.Unlock()
		return nil
	}
	w.state = StateClosed
	w.mu.Unlock()

	w.closeOnce.Do(func() { close(w.done) })
	err := w.fw.Close()
	w.registry.remove(w)
	w.zlog.Debug("watcher closed", zap.String("dir", w.registered.Dir()))
	return err
}

// SetListeners replaces the listener set.
func (w *Watcher) SetListeners(listeners []Listener) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.terminal() {
		return ErrClosed
	}
	w.listeners = append([]Listener(nil), listeners...)
	return nil
}

// AddListeners appends listeners in order. Duplicates are permitted.
func (w *Watcher) AddListeners(listeners []Listener) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.terminal() {
		return ErrClosed
	}
	w.listeners = append(w.listeners, listeners...)
	return nil
}

// RemoveListeners removes every occurrence of each given listener,
// compared by identity. If the set becomes empty the watcher closes
// itself.
func (w *Watcher) RemoveListeners(listeners []Listener) error {
	w.mu.Lock()
	if w.state.terminal() {
		w.mu.Unlock()
		return ErrClosed
	}
	kept := w.listeners[:0]
	for _, cur := range w.listeners {
		remove := false
		for _, l := range listeners {
			if cur == l {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, cur)
		}
	}
	w.listeners = kept
	empty := len(kept) == 0
	w.mu.Unlock()

	if empty {
		return w.Close()
	}
	return nil
}

// Listeners returns a snapshot of the current listener set.
func (w *Watcher) Listeners() []Listener {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Listener, len(w.listeners))
	copy(out, w.listeners)
	return out
}

// Registered returns the path this watcher was created for.
func (w *Watcher) Registered() *RegisteredPath {
	return w.registered
}

// Recursive reports whether subdirectories were registered at
// construction time.
func (w *Watcher) Recursive() bool {
	return w.recursive
}

// Document returns the document handle attached at construction, if the
// registered path was recognized as a document file.
func (w *Watcher) Document() Document {
	return w.doc
}

// Handle exposes the underlying watch subscription.
func (w *Watcher) Handle() *fsnotify.Watcher {
	return w.fw
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the dispatch error that moved the watcher to
// StateFailed, if any.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Details returns a printable description of the watcher.
func (w *Watcher) Details() string {
	w.mu.Lock()
	state := w.state
	n := len(w.listeners)
	w.mu.Unlock()
	target := "dir"
	if !w.registered.IsDir() {
		target = "file"
	}
	return fmt.Sprintf("watcher %s=%s state=%v recursive=%v listeners=%d\n",
		target, w.registered.Path(), state, w.recursive, n)
}
