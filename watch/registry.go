package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry is the only supported way to obtain a Watcher. It maps each
// watched directory to its single active Watcher and guards the whole
// lookup-and-create sequence with one mutex, so get-or-create is atomic
// with respect to concurrent callers.
type Registry struct {
	mu       sync.Mutex
	watchers []*Watcher

	resolve DocumentResolver
	zlog    *zap.Logger
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger is used for registry and watcher diagnostics.
	// Defaults to zap.L().
	Logger *zap.Logger

	// ResolveDocument, when set, is consulted for file paths so that a
	// recognized document handle can be attached to the Watcher.
	ResolveDocument DocumentResolver
}

// NewRegistry creates a Registry with default options.
func NewRegistry() *Registry {
	return NewRegistryWithOptions(RegistryOptions{})
}

// NewRegistryWithOptions creates a Registry with custom options.
func NewRegistryWithOptions(options RegistryOptions) *Registry {
	zlog := options.Logger
	if zlog == nil {
		zlog = zap.L()
	}
	return &Registry{
		resolve: options.ResolveDocument,
		zlog:    zlog.Named("watch"),
	}
}

// ForFile returns the shared Watcher for the directory containing file,
// creating a non-recursive one if none exists. See ForPath.
func (r *Registry) ForFile(file string) (*Watcher, error) {
	return r.ForPath(file)
}

// ForPath returns the active Watcher for path, creating a non-recursive
// one if none exists. If path is not a directory it resolves to the
// containing directory first.
func (r *Registry) ForPath(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	isDir := false
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		isDir = true
	}
	dir := abs
	if !isDir {
		dir = filepath.Dir(abs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.watcherForLocked(dir); w != nil {
		return w, nil
	}
	return r.createLocked(abs, isDir, false)
}

// Watch constructs a new Watcher rooted at path, which must be an
// existing directory or a file in one. Unlike ForPath it never returns
// an existing Watcher: if the target directory (or, for recursive
// watches, any pre-existing subdirectory) is already watched, it fails
// with a ConflictError.
func (r *Registry) Watch(path string, recursive bool) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	isDir := false
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		isDir = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(abs, isDir, recursive)
}

// createLocked constructs, starts and registers a Watcher.
// r.mu must be held.
func (r *Registry) createLocked(abs string, isDir, recursive bool) (*Watcher, error) {
	rp := &RegisteredPath{path: abs, isDir: isDir}
	var doc Document
	if !isDir && r.resolve != nil {
		doc = r.resolve(abs)
	}

	w, err := newWatcher(r, rp, recursive, doc)
	if err != nil {
		return nil, err
	}
	w.start()
	r.watchers = append(r.watchers, w)
	r.zlog.Debug("watcher registered",
		zap.String("dir", rp.Dir()),
		zap.Bool("recursive", recursive),
		zap.Int("active", len(r.watchers)))
	return w, nil
}

// watcherForLocked returns the active Watcher registered for exactly
// dir, or nil. r.mu must be held.
func (r *Registry) watcherForLocked(dir string) *Watcher {
	for _, w := range r.watchers {
		if w.State().terminal() {
			continue
		}
		if w.registered.Dir() == dir {
			return w
		}
	}
	return nil
}

// conflictLocked returns the active Watcher that already registered dir
// with the watch facility, directly or through a recursive walk.
// r.mu must be held.
func (r *Registry) conflictLocked(dir string) *Watcher {
	for _, w := range r.watchers {
		if w.State().terminal() {
			continue
		}
		for _, d := range w.dirs {
			if d == dir {
				return w
			}
		}
	}
	return nil
}

// remove deregisters w. Called from Watcher.Close and from the
// dispatch loop on failure.
func (r *Registry) remove(w *Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.watchers {
		if cur == w {
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
	r.zlog.Debug("watcher deregistered",
		zap.String("dir", w.registered.Dir()),
		zap.Int("active", len(r.watchers)))
}

// Watchers returns a snapshot of the active watchers.
func (r *Registry) Watchers() []*Watcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Watcher, len(r.watchers))
	copy(out, r.watchers)
	return out
}

// CloseAll closes every active watcher. Used at daemon shutdown.
func (r *Registry) CloseAll() {
	for _, w := range r.Watchers() {
		_ = w.Close()
	}
}

// Details returns a human-readable description of the registry state.
func (r *Registry) Details() string {
	var sb strings.Builder
	ws := r.Watchers()
	fmt.Fprintf(&sb, "%d active watcher(s)\n", len(ws))
	for _, w := range ws {
		sb.WriteString(w.Details())
	}
	return sb.String()
}
