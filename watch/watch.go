// Package watch provides a process-wide manager for filesystem change
// notifications. A Registry hands out at most one Watcher per watched
// directory; each Watcher owns one OS watch subscription and a dispatch
// goroutine that fans events out to its listeners.
package watch

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Kind identifies the category of a filesystem change.
type Kind int

const (
	Created Kind = iota + 1
	Deleted
	Modified
	// Overflowed signals that the OS watch queue dropped events. The
	// event stream must not be assumed complete after receiving one.
	Overflowed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Deleted:
		return "DELETED"
	case Modified:
		return "MODIFIED"
	case Overflowed:
		return "OVERFLOWED"
	}
	return "UNKNOWN"
}

// RegisteredPath describes the file or directory a Watcher is
// responsible for. It is created once at Watcher construction and
// never mutated.
type RegisteredPath struct {
	path  string
	isDir bool
}

// Path returns the absolute registered path.
func (rp *RegisteredPath) Path() string {
	return rp.path
}

// IsDir reports whether the registered path is a directory.
func (rp *RegisteredPath) IsDir() bool {
	return rp.isDir
}

// Dir returns the directory registered with the watch facility: the
// path itself for directories, the containing directory otherwise.
func (rp *RegisteredPath) Dir() string {
	if rp.isDir {
		return rp.path
	}
	return filepath.Dir(rp.path)
}

func (rp *RegisteredPath) String() string {
	return rp.path
}

// Event is delivered to listeners once per OS notification.
type Event struct {
	// Registered refers to the path the owning Watcher was created for.
	Registered *RegisteredPath
	Kind       Kind
	// Path is the concrete path the change concerns. Empty for
	// Overflowed events.
	Path string
}

func (e Event) String() string {
	return fmt.Sprintf("%v %q", e.Kind, e.Path)
}

// Listener is a callback invoked once per delivered Event. Listeners
// are removed by interface identity, so implementations passed to
// RemoveListeners must be comparable (pointer implementations are).
type Listener interface {
	OnFileEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface. Each call
// returns a distinct value, so two adapters around the same function
// are independent for removal purposes.
func ListenerFunc(f func(Event)) Listener {
	return &listenerFunc{f: f}
}

type listenerFunc struct {
	f func(Event)
}

func (l *listenerFunc) OnFileEvent(e Event) {
	l.f(e)
}

// Document is an optional handle associated with a Watcher whose
// registered path is recognized as a structured document. The
// association is informational only; reloading on change is the
// listener's responsibility.
type Document interface {
	DocumentPath() string
}

// DocumentResolver recognizes document files by path and returns a
// handle for them, or nil.
type DocumentResolver func(path string) Document

// ErrClosed is returned when operating on a Watcher that has reached a
// terminal state.
var ErrClosed = errors.New("watcher is closed")

// NotFoundError is returned when the target path of a Watcher does not
// exist at construction.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("path %q does not exist", e.Path)
}

// ConflictError is returned when the target directory, or a
// subdirectory of a recursive watch, is already watched by another
// active Watcher.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("directory %q is already watched", e.Path)
}

// State describes the lifecycle of a Watcher.
type State int

const (
	StateCreated State = iota
	StateRunning
	// StateClosed is terminal; entered via Close.
	StateClosed
	// StateFailed is terminal; entered when the dispatch loop dies.
	// The Watcher deregisters itself so a replacement can be created.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

func (s State) terminal() bool {
	return s == StateClosed || s == StateFailed
}
