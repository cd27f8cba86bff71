package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirwatch/dirwatch/eventlog"
	"github.com/dirwatch/dirwatch/watch"
)

type fakeBackend struct {
	statuses []WatchStatus
	logs     map[string]*eventlog.Log
	added    []AddWatchRequest
	removed  []string
	addErr   error
	reloaded bool
	shutdown bool
}

func (b *fakeBackend) Status() Status {
	return Status{Version: "test", ActiveWatches: len(b.statuses)}
}

func (b *fakeBackend) Statuses() []WatchStatus { return b.statuses }

func (b *fakeBackend) AddWatch(name, path string, recursive bool) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.added = append(b.added, AddWatchRequest{Name: name, Path: path, Recursive: recursive})
	return nil
}

func (b *fakeBackend) RemoveWatch(name string) error {
	for _, s := range b.statuses {
		if s.Name == name {
			b.removed = append(b.removed, name)
			return nil
		}
	}
	return ErrNoSuchWatch
}

func (b *fakeBackend) EventLog(name string) (*eventlog.Log, bool) {
	l, ok := b.logs[name]
	return l, ok
}

func (b *fakeBackend) Reload() error    { b.reloaded = true; return nil }
func (b *fakeBackend) RequestShutdown() { b.shutdown = true }

func newTestServer(b *fakeBackend) *httptest.Server {
	return httptest.NewServer(NewHandler(b))
}

func TestStatus(t *testing.T) {
	b := &fakeBackend{statuses: []WatchStatus{{Name: "configs"}}}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, 1, st.ActiveWatches)
}

func TestListWatches(t *testing.T) {
	b := &fakeBackend{statuses: []WatchStatus{
		{Name: "configs", Path: "/etc/app", State: "RUNNING"},
	}}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/watches")
	require.NoError(t, err)
	defer resp.Body.Close()

	var statuses []WatchStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "configs", statuses[0].Name)
	assert.Equal(t, "RUNNING", statuses[0].State)
}

func TestAddWatch(t *testing.T) {
	b := &fakeBackend{}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/watches", "application/json",
		strings.NewReader(`{"name":"docs","path":"/srv/docs","recursive":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, b.added, 1)
	assert.True(t, b.added[0].Recursive)
}

func TestAddWatchConflict(t *testing.T) {
	b := &fakeBackend{addErr: &watch.ConflictError{Path: "/srv/docs"}}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/watches", "application/json",
		strings.NewReader(`{"name":"docs","path":"/srv/docs"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRemoveWatch(t *testing.T) {
	b := &fakeBackend{statuses: []WatchStatus{{Name: "configs"}}}
	srv := newTestServer(b)
	defer srv.Close()

	req, _ := http.NewRequest("DELETE", srv.URL+"/api/watches/configs", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, _ = http.NewRequest("DELETE", srv.URL+"/api/watches/unknown", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventsBacklog(t *testing.T) {
	log := eventlog.New("configs", 1024)
	log.OnFileEvent(watch.Event{Kind: watch.Created, Path: "/etc/app/a.yml"})

	b := &fakeBackend{logs: map[string]*eventlog.Log{"configs": log}}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/watches/configs/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	assert.Contains(t, string(buf[:n]), "CREATED /etc/app/a.yml")
}

func TestReloadAndShutdown(t *testing.T) {
	b := &fakeBackend{}
	srv := newTestServer(b)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, b.reloaded)

	resp, err = http.Post(srv.URL+"/api/shutdown", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, b.shutdown)
}
