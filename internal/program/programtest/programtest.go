// Package programtest builds projects from inline sources for tests.
package programtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/adapter"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Source is one inline file.
type Source struct {
	Path string
	Text string
}

// Load parses the sources into a project backed by the tree-sitter parser.
func Load(t testing.TB, java []Source, xml ...Source) *program.Project {
	t.Helper()

	parser := adapter.NewTreeSitterJavaParser(0)
	xmlAdapter := adapter.NewRawXMLAdapter()

	units := make([]*m.Unit, 0, len(java))

	for _, s := range java {
		u, err := parser.ParseUnit(context.Background(), m.Path(s.Path), []byte(s.Text))
		require.NoError(t, err, s.Path)

		units = append(units, u)
	}

	docs := make([]*m.XMLDocument, 0, len(xml))

	for _, s := range xml {
		d, err := xmlAdapter.ParseDocument(m.Path(s.Path), []byte(s.Text))
		require.NoError(t, err, s.Path)

		docs = append(docs, d)
	}

	return program.NewProject(units, docs, parser)
}

// Class looks up a class by qualified name and fails the test when it is missing.
func Class(t testing.TB, ix *program.Index, fqn string) *m.Class {
	t.Helper()

	c := ix.ClassByFQN(fqn)
	require.NotNil(t, c, fqn)

	return c
}

// Method returns the first method or constructor of c named name.
func Method(t testing.TB, c *m.Class, name string) *m.Method {
	t.Helper()

	for _, member := range c.Members {
		if meth, ok := member.(*m.Method); ok && meth.Name == name {
			return meth
		}
	}

	require.Failf(t, "method not found", "%s.%s", c.Name, name)

	return nil
}

// Unit returns the unit parsed from path.
func Unit(t testing.TB, p *program.Project, path string) *m.Unit {
	t.Helper()

	for _, u := range p.Units() {
		if string(u.Path) == path {
			return u
		}
	}

	require.Failf(t, "unit not found", "%s", path)

	return nil
}

// Render prints a unit the way it would be written back.
func Render(u *m.Unit) string {
	return string(adapter.NewSourcePrinter().PrintUnit(u))
}

// RenderXML prints a document the way it would be written back.
func RenderXML(d *m.XMLDocument) string {
	return string(adapter.NewRawXMLAdapter().PrintDocument(d))
}
