package config

import (
	"github.com/hashicorp/go-memdb"
	"github.com/r3labs/diff"
	"github.com/scylladb/go-set/strset"

	"github.com/dirwatch/dirwatch/model"
)

// ApplyUpdates writes the parsed model into the store. Rows that did
// not change are left alone so they do not show up in the transaction
// change set.
func ApplyUpdates(txn *memdb.Txn, m *model.Root) error {
	var u updater
	return u.update(txn, m)
}

type updater struct{}

func (u *updater) update(txn *memdb.Txn, m *model.Root) error {
	u.applyHTTPServer(txn, m)
	return u.applyWatches(txn, m)
}

func (u *updater) applyWatches(txn *memdb.Txn, m *model.Root) error {
	iter, err := txn.Get("watch", "id")
	if err != nil {
		return err
	}

	prev := strset.New()
	for {
		raw := iter.Next()
		if orig, ok := raw.(*Watch); ok {
			prev.Add(orig.Name)
			continue
		}
		break
	}

	next := strset.New()
	for _, mw := range m.Watches {
		next.Add(mw.Name)
		w := &Watch{
			Name:        mw.Name,
			Path:        mw.Path,
			Recursive:   mw.Recursive,
			BacklogSize: mw.BacklogSize,
		}

		raw, _ := txn.First("watch", "id", mw.Name)
		if orig, ok := raw.(*Watch); ok && !diff.Changed(orig, w) {
			continue
		}
		if err := txn.Insert("watch", w); err != nil {
			return err
		}
	}

	deleted := strset.Difference(prev, next)
	for _, name := range deleted.List() {
		if _, err := txn.DeleteAll("watch", "id", name); err != nil {
			return err
		}
	}
	return nil
}

func (u *updater) applyHTTPServer(txn *memdb.Txn, m *model.Root) {
	if m.HTTPServer == nil || m.HTTPServer.Address == "" {
		_, _ = txn.DeleteAll("server", "id", "http")
		return
	}

	server := &Server{
		Name:    "http",
		Network: m.HTTPServer.Network,
		Address: m.HTTPServer.Address,
	}

	raw, _ := txn.First("server", "id", "http")
	if orig, ok := raw.(*Server); ok && !diff.Changed(orig, server) {
		return
	}
	_ = txn.Insert("server", server)
}
