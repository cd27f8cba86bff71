// Package config holds the daemon configuration in a change-tracked
// in-memory store, so a reload can report exactly which watches and
// servers were created, updated or deleted.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-memdb"

	"github.com/dirwatch/dirwatch/model"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"watch": {
			Name: "watch",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
		"server": {
			Name: "server",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
	},
}

// Config is the current daemon configuration.
type Config struct {
	db *memdb.MemDB

	// ReportCron is the schedule for periodic registry reports, empty
	// when disabled. Replaced wholesale on each load.
	ReportCron string
}

func NewConfig() *Config {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}
	return &Config{db: db}
}

// LoadPath reads the configuration file at path, validates it and
// applies it to the store. It returns the set of row changes relative
// to the previous configuration.
func (c *Config) LoadPath(path string) (memdb.Changes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := model.ParseRoot(f)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", path, err)
	}
	if err := validate(m); err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %w", path, err)
	}

	txn := c.db.Txn(true)
	txn.TrackChanges()
	if err := ApplyUpdates(txn, m); err != nil {
		txn.Abort()
		return nil, err
	}
	changes := txn.Changes()
	txn.Commit()

	c.ReportCron = m.ReportCron
	return changes, nil
}

func validate(m *model.Root) error {
	seen := map[string]bool{}
	for _, w := range m.Watches {
		if w.Name == "" {
			return fmt.Errorf("watch with path %q has no name", w.Path)
		}
		if w.Path == "" {
			return fmt.Errorf("watch %q has no path", w.Name)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate watch name %q", w.Name)
		}
		seen[w.Name] = true
	}
	if m.ReportCron != "" {
		if _, err := cronParser.Parse(m.ReportCron); err != nil {
			return fmt.Errorf("bad report_cron: %w", err)
		}
	}
	return nil
}

// Watches returns the configured watches, in no particular order.
func (c *Config) Watches() []*Watch {
	txn := c.db.Txn(false)
	defer txn.Abort()
	iter, err := txn.Get("watch", "id")
	if err != nil {
		return nil
	}
	var out []*Watch
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		out = append(out, raw.(*Watch))
	}
	return out
}

// Watch returns the configured watch with the given name, or nil.
func (c *Config) Watch(name string) *Watch {
	txn := c.db.Txn(false)
	defer txn.Abort()
	raw, _ := txn.First("watch", "id", name)
	if w, ok := raw.(*Watch); ok {
		return w
	}
	return nil
}

// Server returns the HTTP control server row, or nil when disabled.
func (c *Config) Server() *Server {
	txn := c.db.Txn(false)
	defer txn.Abort()
	raw, _ := txn.First("server", "id", "http")
	if s, ok := raw.(*Server); ok {
		return s
	}
	return nil
}
