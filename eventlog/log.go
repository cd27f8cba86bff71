// Package eventlog records delivered file events per watch, keeping a
// bounded backlog and fanning lines out to attached writers so clients
// can tail a live event stream.
package eventlog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dirwatch/dirwatch/watch"
)

// DefaultBacklogSize is used when a watch does not set one.
const DefaultBacklogSize = 16384

// Log is a watch.Listener that formats events into lines.
type Log struct {
	name string

	mu      sync.Mutex
	backlog *RingBuffer
	writers []io.Writer

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a Log for the named watch.
func New(name string, backlogSize int) *Log {
	if backlogSize <= 0 {
		backlogSize = DefaultBacklogSize
	}
	return &Log{
		name:    name,
		backlog: NewRingBuffer(backlogSize),
		now:     time.Now,
	}
}

// Name returns the watch name this log belongs to.
func (l *Log) Name() string {
	return l.name
}

// OnFileEvent implements watch.Listener.
func (l *Log) OnFileEvent(e watch.Event) {
	var line string
	ts := l.now().Format(time.RFC3339)
	if e.Kind == watch.Overflowed {
		line = fmt.Sprintf("%s %v\n", ts, e.Kind)
	} else {
		line = fmt.Sprintf("%s %v %s\n", ts, e.Kind, e.Path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.backlog.Write([]byte(line))
	kept := l.writers[:0]
	for _, w := range l.writers {
		if _, err := w.Write([]byte(line)); err == nil {
			kept = append(kept, w)
		}
	}
	l.writers = kept
}

// AddWriter writes the current backlog to w and, when follow is true,
// keeps w attached so future events are written to it as they arrive.
func (l *Log) AddWriter(w io.Writer, follow bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := w.Write(l.backlog.Bytes()); err != nil {
		return err
	}
	if follow {
		l.writers = append(l.writers, w)
	}
	return nil
}

// RemoveWriter detaches w. It is a no-op when w is not attached.
func (l *Log) RemoveWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, cur := range l.writers {
		if cur == w {
			l.writers = append(l.writers[:i], l.writers[i+1:]...)
			return
		}
	}
}

// Backlog returns the buffered event lines.
func (l *Log) Backlog() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backlog.Bytes()
}
