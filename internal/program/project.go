// Package program owns the parsed Java/XML tree of a project and provides the
// reference index and the transactional mutation API used by the rewriters.
package program

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// ErrTransactionPanic wraps a panic recovered inside a write transaction.
var ErrTransactionPanic = errors.New("write transaction panicked")

// Templates turns source text into detached syntax.
type Templates interface {
	ParseStatement(text string) (m.Stmt, error)
	ParseExpression(text string) (m.Expr, error)
	ParseMember(text string) (m.Member, error)
}

// Project is the shared, mutable program tree.
type Project struct {
	mu        sync.RWMutex
	units     []*m.Unit
	docs      []*m.XMLDocument
	version   uint64
	templates Templates

	idxMu sync.Mutex
	index *Index
}

// NewProject links the trees and wraps them in a Project.
func NewProject(units []*m.Unit, docs []*m.XMLDocument, templates Templates) *Project {
	for _, u := range units {
		m.Link(u)
	}

	for _, d := range docs {
		m.Link(d)
	}

	return &Project{units: units, docs: docs, templates: templates}
}

// Read runs fn against a consistent index. Several readers may run at once.
func (p *Project) Read(fn func(ix *Index) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return fn(p.currentIndex())
}

// Write runs fn in an exclusive transaction. When fn fails or panics every
// mutation made through the Tx is undone before Write returns.
func (p *Project) Write(fn func(tx *Tx) error) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx := &Tx{project: p, touched: map[m.Node]bool{}}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransactionPanic, r)
		}

		if err != nil {
			slog.Warn("aborting write transaction", "mutations", len(tx.undo), "error", err)
			tx.rollback()

			return
		}

		slog.Debug("committed write transaction", "mutations", len(tx.undo), "version", p.version)
	}()

	return fn(tx)
}

// Units returns the compilation units. Callers must not mutate them outside Write.
func (p *Project) Units() []*m.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.units
}

// Documents returns the XML documents.
func (p *Project) Documents() []*m.XMLDocument {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.docs
}

// Version increases with every mutation and every rollback.
func (p *Project) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.version
}

func (p *Project) currentIndex() *Index {
	p.idxMu.Lock()
	defer p.idxMu.Unlock()

	if p.index == nil || p.index.version != p.version {
		p.index = newIndex(p.units, p.docs, p.version)
	}

	return p.index
}
