// Package httpapi exposes the daemon control plane as a JSON API. It
// declares the Backend interface the daemon implements so the handler
// can be tested without a running daemon.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dirwatch/dirwatch/eventlog"
	"github.com/dirwatch/dirwatch/watch"
)

// ErrNoSuchWatch is returned by Backend implementations when a watch
// name is unknown.
var ErrNoSuchWatch = errors.New("no such watch")

// WatchStatus describes one configured watch.
type WatchStatus struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	State     string `json:"state"`
	Listeners int    `json:"listeners"`
	Document  string `json:"document,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Status describes the daemon.
type Status struct {
	Version       string `json:"version"`
	ActiveWatches int    `json:"active_watches"`
}

// AddWatchRequest is the body of POST /api/watches.
type AddWatchRequest struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// Backend is the daemon surface the API serves.
type Backend interface {
	Status() Status
	Statuses() []WatchStatus
	AddWatch(name, path string, recursive bool) error
	RemoveWatch(name string) error
	EventLog(name string) (*eventlog.Log, bool)
	Reload() error
	RequestShutdown()
}

// NewHandler builds the API router for the given backend.
func NewHandler(backend Backend) http.Handler {
	s := &server{backend: backend}
	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.status).Methods("GET")
	r.HandleFunc("/api/watches", s.listWatches).Methods("GET")
	r.HandleFunc("/api/watches", s.addWatch).Methods("POST")
	r.HandleFunc("/api/watches/{name}", s.removeWatch).Methods("DELETE")
	r.HandleFunc("/api/watches/{name}/events", s.events).Methods("GET")
	r.HandleFunc("/api/reload", s.reload).Methods("POST")
	r.HandleFunc("/api/shutdown", s.shutdown).Methods("POST")
	return r
}

type server struct {
	backend Backend
}

func (s *server) status(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *server) listWatches(w http.ResponseWriter, req *http.Request) {
	statuses := s.backend.Statuses()
	if statuses == nil {
		statuses = []WatchStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *server) addWatch(w http.ResponseWriter, req *http.Request) {
	var body AddWatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Name == "" || body.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("name and path are required"))
		return
	}
	if err := s.backend.AddWatch(body.Name, body.Path, body.Recursive); err != nil {
		writeError(w, statusForWatchError(err), err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *server) removeWatch(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if err := s.backend.RemoveWatch(name); err != nil {
		writeError(w, statusForWatchError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// events streams the backlog of a watch and, with follow=true, keeps
// the response open and appends events until the client goes away.
func (s *server) events(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	log, ok := s.backend.EventLog(name)
	if !ok {
		writeError(w, http.StatusNotFound, ErrNoSuchWatch)
		return
	}
	follow, _ := strconv.ParseBool(req.URL.Query().Get("follow"))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fw := &flushWriter{w: w}
	if err := log.AddWriter(fw, follow); err != nil {
		return
	}
	if !follow {
		return
	}
	defer log.RemoveWriter(fw)
	<-req.Context().Done()
}

func (s *server) reload(w http.ResponseWriter, req *http.Request) {
	if err := s.backend.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) shutdown(w http.ResponseWriter, req *http.Request) {
	s.backend.RequestShutdown()
	w.WriteHeader(http.StatusAccepted)
}

func statusForWatchError(err error) int {
	var conflict *watch.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict
	}
	var notFound *watch.NotFoundError
	if errors.As(err, &notFound) || errors.Is(err, ErrNoSuchWatch) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// flushWriter flushes after every write so followed event streams are
// delivered promptly.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw *flushWriter) Write(b []byte) (int, error) {
	n, err := fw.w.Write(b)
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}
