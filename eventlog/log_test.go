package eventlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/dirwatch/dirwatch/watch"
)

func newTestLog(name string) *Log {
	l := New(name, 1024)
	l.now = func() time.Time {
		return time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	return l
}

func TestLogBacklog(t *testing.T) {
	c := qt.New(t)
	l := newTestLog("configs")

	l.OnFileEvent(watch.Event{Kind: watch.Created, Path: "/etc/app/a.yml"})
	l.OnFileEvent(watch.Event{Kind: watch.Overflowed})

	c.Assert(string(l.Backlog()), qt.Equals,
		"2022-03-01T10:00:00Z CREATED /etc/app/a.yml\n"+
			"2022-03-01T10:00:00Z OVERFLOWED\n")
}

func TestLogFollow(t *testing.T) {
	c := qt.New(t)
	l := newTestLog("configs")

	l.OnFileEvent(watch.Event{Kind: watch.Created, Path: "/etc/app/a.yml"})

	var buf bytes.Buffer
	c.Assert(l.AddWriter(&buf, true), qt.IsNil)
	// Backlog is written on attach.
	c.Assert(strings.Count(buf.String(), "\n"), qt.Equals, 1)

	l.OnFileEvent(watch.Event{Kind: watch.Modified, Path: "/etc/app/a.yml"})
	c.Assert(strings.Count(buf.String(), "\n"), qt.Equals, 2)
	c.Assert(buf.String(), qt.Contains, "MODIFIED /etc/app/a.yml")

	l.RemoveWriter(&buf)
	l.OnFileEvent(watch.Event{Kind: watch.Deleted, Path: "/etc/app/a.yml"})
	c.Assert(strings.Count(buf.String(), "\n"), qt.Equals, 2)
}

func TestLogNoFollow(t *testing.T) {
	c := qt.New(t)
	l := newTestLog("docs")

	l.OnFileEvent(watch.Event{Kind: watch.Created, Path: "/srv/docs/d.yaml"})

	var buf bytes.Buffer
	c.Assert(l.AddWriter(&buf, false), qt.IsNil)
	l.OnFileEvent(watch.Event{Kind: watch.Modified, Path: "/srv/docs/d.yaml"})
	// Writer was not kept attached.
	c.Assert(strings.Count(buf.String(), "\n"), qt.Equals, 1)
}
