package document

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRecognized(t *testing.T) {
	c := qt.New(t)
	c.Assert(Recognized("/etc/app/config.yml"), qt.IsTrue)
	c.Assert(Recognized("config.YAML"), qt.IsTrue)
	c.Assert(Recognized("notes.txt"), qt.IsFalse)
	c.Assert(Recognized("yaml"), qt.IsFalse)
}

func TestResolver(t *testing.T) {
	c := qt.New(t)
	doc := Resolver("/data/doc.yaml")
	c.Assert(doc, qt.Not(qt.IsNil))
	c.Assert(doc.DocumentPath(), qt.Equals, "/data/doc.yaml")
	c.Assert(Resolver("/data/doc.json"), qt.IsNil)
}
