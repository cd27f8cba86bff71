// Package dirwatch ties the watch registry, the configuration store
// and the control plane together into a long-running daemon.
package dirwatch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/hashicorp/go-memdb"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dirwatch/dirwatch/config"
	"github.com/dirwatch/dirwatch/document"
	"github.com/dirwatch/dirwatch/eventlog"
	"github.com/dirwatch/dirwatch/httpapi"
	"github.com/dirwatch/dirwatch/watch"
)

const (
	// Version the version of dirwatch
	Version = "1.0"
)

// Daemon watches the locations named in the configuration file and
// serves the control plane. All public daemon behavior is defined on
// this type.
type Daemon struct {
	configFile string
	config     *config.Config
	registry   *watch.Registry

	mu         sync.Mutex
	watches    map[string]*watchEntry
	httpServer *http.Server
	cron       *cron.Cron
	reportID   cron.EntryID

	shutdownc    chan struct{}
	shutdownOnce sync.Once
}

// watchEntry pairs one configured watch with the watcher and event log
// serving it.
type watchEntry struct {
	cfg     *config.Watch
	watcher *watch.Watcher
	log     *eventlog.Log
}

// NewDaemon creates a Daemon for the given configuration file.
func NewDaemon(configFile string) *Daemon {
	d := &Daemon{
		configFile: configFile,
		config:     config.NewConfig(),
		registry: watch.NewRegistryWithOptions(watch.RegistryOptions{
			ResolveDocument: document.Resolver,
		}),
		watches:   map[string]*watchEntry{},
		cron:      cron.New(),
		shutdownc: make(chan struct{}),
	}
	d.cron.Start()
	return d
}

// Registry returns the watch registry owned by the daemon.
func (d *Daemon) Registry() *watch.Registry {
	return d.registry
}

// Reload reloads the daemon configuration and applies whatever changed:
// new or updated watch rows get watchers, deleted rows lose theirs, and
// the control server restarts when its row changes.
func (d *Daemon) Reload() error {
	changes, err := d.config.LoadPath(d.configFile)
	if err != nil {
		zap.L().Error("Error loading configuration", zap.Error(err))
		return DaemonConfigError{Err: err}
	}

	d.applyWatches(changes)
	d.startHTTPServer(changes)
	d.scheduleReport()
	return nil
}

func (d *Daemon) applyWatches(changes memdb.Changes) {
	for _, ch := range changes {
		if ch.Table != "watch" {
			continue
		}

		switch {
		case ch.Created(), ch.Updated():
			d.createOrUpdateWatch(ch.After.(*config.Watch))

		case ch.Deleted():
			_ = d.RemoveWatch(ch.Before.(*config.Watch).Name)
		}
	}
}

// createOrUpdateWatch replaces any watcher already serving the named
// watch. Registration failures are logged, not fatal: the rest of the
// configuration still applies.
func (d *Daemon) createOrUpdateWatch(cw *config.Watch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.watches[cw.Name]; ok {
		_ = e.watcher.Close()
		delete(d.watches, cw.Name)
	}

	if err := d.addWatchLocked(cw); err != nil {
		zap.L().Error("Unable to register watch",
			zap.String("watch", cw.Name),
			zap.String("path", cw.Path),
			zap.Error(err))
	}
}

// addWatchLocked creates the watcher and attaches its listeners: the
// event log first, then the diagnostic logger, in that order.
func (d *Daemon) addWatchLocked(cw *config.Watch) error {
	w, err := d.registry.Watch(cw.Path, cw.Recursive)
	if err != nil {
		return err
	}

	log := eventlog.New(cw.Name, cw.BacklogSize)
	name := cw.Name
	logged := watch.ListenerFunc(func(e watch.Event) {
		zap.L().Info("file event",
			zap.String("watch", name),
			zap.Stringer("kind", e.Kind),
			zap.String("path", e.Path))
	})
	if err := w.SetListeners([]watch.Listener{log, logged}); err != nil {
		return err
	}

	d.watches[cw.Name] = &watchEntry{cfg: cw, watcher: w, log: log}
	return nil
}

// AddWatch registers an ad-hoc watch, as driven by the control plane.
func (d *Daemon) AddWatch(name, path string, recursive bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.watches[name]; ok {
		return errors.New("watch name already in use")
	}
	return d.addWatchLocked(&config.Watch{
		Name:        name,
		Path:        path,
		Recursive:   recursive,
		BacklogSize: eventlog.DefaultBacklogSize,
	})
}

// RemoveWatch closes and forgets the named watch.
func (d *Daemon) RemoveWatch(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.watches[name]
	if !ok {
		return httpapi.ErrNoSuchWatch
	}
	_ = e.watcher.Close()
	delete(d.watches, name)
	return nil
}

// EventLog returns the event log of the named watch.
func (d *Daemon) EventLog(name string) (*eventlog.Log, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.watches[name]
	if !ok {
		return nil, false
	}
	return e.log, true
}

// Status implements httpapi.Backend.
func (d *Daemon) Status() httpapi.Status {
	return httpapi.Status{
		Version:       Version,
		ActiveWatches: len(d.registry.Watchers()),
	}
}

// Statuses implements httpapi.Backend.
func (d *Daemon) Statuses() []httpapi.WatchStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	statuses := make([]httpapi.WatchStatus, 0, len(d.watches))
	for _, e := range d.watches {
		st := httpapi.WatchStatus{
			Name:      e.cfg.Name,
			Path:      e.cfg.Path,
			Recursive: e.cfg.Recursive,
			State:     e.watcher.State().String(),
			Listeners: len(e.watcher.Listeners()),
		}
		if doc := e.watcher.Document(); doc != nil {
			st.Document = doc.DocumentPath()
		}
		if err := e.watcher.Err(); err != nil {
			st.Error = err.Error()
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

// RequestShutdown asks the daemon to exit. It is safe to call more
// than once.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownc) })
}

// ShutdownRequested is closed when a shutdown has been requested via
// the control plane.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownc
}

// Stop tears the daemon down: the report schedule, the control server
// and every active watcher.
func (d *Daemon) Stop() {
	d.cron.Stop()

	d.mu.Lock()
	srv := d.httpServer
	d.httpServer = nil
	d.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			zap.L().Error("Unable to shutdown HTTP server", zap.Error(err))
		} else {
			zap.L().Info("Stopped HTTP server")
		}
	}

	d.registry.CloseAll()
}

func (d *Daemon) findServerChange(name string, changes memdb.Changes) *memdb.Change {
	for i := range changes {
		ch := &changes[i]
		if ch.Table != "server" {
			continue
		}

		var id string
		if ch.Deleted() {
			id = ch.Before.(*config.Server).Name
		} else {
			id = ch.After.(*config.Server).Name
		}
		if id == name {
			return ch
		}
	}
	return nil
}

func (d *Daemon) startHTTPServer(changes memdb.Changes) {
	found := d.findServerChange("http", changes)
	if found == nil {
		return
	}

	var cfg *config.Server
	if found.Updated() || found.Created() {
		cfg = found.After.(*config.Server)
	}

	go func() {
		d.mu.Lock()
		srv := d.httpServer
		d.httpServer = nil
		d.mu.Unlock()
		if srv != nil {
			err := srv.Shutdown(context.Background())
			if err != nil {
				zap.L().Error("Unable to shutdown HTTP server", zap.Error(err))
			} else {
				zap.L().Info("Stopped HTTP server")
			}
		}

		if cfg == nil {
			return
		}

		ln, err := net.Listen(cfg.Network, cfg.Address)
		if err != nil {
			zap.L().Error("Unable to start HTTP server", zap.Error(err), zap.String("addr", cfg.Address))
			return
		}

		zap.L().Info("Starting HTTP server", zap.String("addr", cfg.Address))
		newSrv := &http.Server{
			Handler: httpapi.NewHandler(d),
			Addr:    cfg.Address,
		}
		d.mu.Lock()
		d.httpServer = newSrv
		d.mu.Unlock()

		err = newSrv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && err != io.EOF {
			zap.L().Error("Unable to start HTTP server", zap.Error(err))
		}
	}()
}

// scheduleReport replaces the periodic registry report job according
// to the current configuration.
func (d *Daemon) scheduleReport() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reportID != 0 {
		d.cron.Remove(d.reportID)
		d.reportID = 0
	}
	sched := d.config.ReportSchedule()
	if sched == nil {
		return
	}
	d.reportID = d.cron.Schedule(sched, cron.FuncJob(d.report))
}

func (d *Daemon) report() {
	zap.L().Info("watch registry report", zap.String("details", d.registry.Details()))
}

// DaemonConfigError is returned when there was a problem loading the
// daemon configuration file.
type DaemonConfigError struct {
	Err error
}

func (dc DaemonConfigError) Error() string {
	return dc.Err.Error()
}

func (dc DaemonConfigError) Unwrap() error {
	return dc.Err
}
