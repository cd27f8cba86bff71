// Package document carries the collaborator surface for structured
// documents kept on disk. The data model itself lives elsewhere; a
// Handle only identifies the backing file so that listeners can decide
// to reload it when the watch manager reports a change.
package document

import (
	"path/filepath"
	"strings"

	"github.com/dirwatch/dirwatch/watch"
)

// Suffixes recognized as document files.
var suffixes = []string{".yml", ".yaml"}

// Recognized reports whether path names a document file.
func Recognized(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range suffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// Handle identifies one document file.
type Handle struct {
	path string
}

// NewHandle creates a handle for path.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// DocumentPath implements watch.Document.
func (h *Handle) DocumentPath() string {
	return h.path
}

// Resolver is a watch.DocumentResolver that attaches a Handle to
// watchers created for recognized document files.
func Resolver(path string) watch.Document {
	if !Recognized(path) {
		return nil
	}
	return NewHandle(path)
}
