package program

import (
	"strings"
	"sync"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// Index answers structural queries over one version of the tree. It is
// safe for concurrent readers; lazily resolved symbols are memoized.
type Index struct {
	version uint64
	units   []*m.Unit
	docs    []*m.XMLDocument

	classes  []*m.Class
	bySimple map[string][]*m.Class
	byFQN    map[string]*m.Class
	fqn      map[*m.Class]string
	supers   map[*m.Class]*m.Class
	subs     map[*m.Class][]*m.Class

	mu   sync.Mutex
	memo map[m.Node]m.Node
}

func newIndex(units []*m.Unit, docs []*m.XMLDocument, version uint64) *Index {
	ix := &Index{
		version:  version,
		units:    units,
		docs:     docs,
		bySimple: map[string][]*m.Class{},
		byFQN:    map[string]*m.Class{},
		fqn:      map[*m.Class]string{},
		supers:   map[*m.Class]*m.Class{},
		subs:     map[*m.Class][]*m.Class{},
		memo:     map[m.Node]m.Node{},
	}

	for _, u := range units {
		m.Walk(u, func(n m.Node) bool {
			c, ok := n.(*m.Class)
			if !ok {
				return true
			}

			ix.classes = append(ix.classes, c)

			if c.Sort != m.ClassKindAnonymous {
				name := qualifiedName(u.Package, c)
				ix.fqn[c] = name
				ix.byFQN[name] = c
				ix.bySimple[c.Name] = append(ix.bySimple[c.Name], c)
			}

			return true
		})
	}

	for _, c := range ix.classes {
		var super *m.Class

		if c.Sort == m.ClassKindAnonymous {
			if n, ok := c.Parent().(*m.New); ok {
				super = ix.ResolveType(n.Type)
			}
		} else if c.Extends != nil {
			super = ix.ResolveType(c.Extends)
		}

		if super != nil && super != c {
			ix.supers[c] = super
			ix.subs[super] = append(ix.subs[super], c)
		}
	}

	return ix
}

func qualifiedName(pkg string, c *m.Class) string {
	parts := []string{c.Name}

	for outer := m.EnclosingClass(c); outer != nil; outer = m.EnclosingClass(outer) {
		if outer.Sort == m.ClassKindAnonymous {
			break
		}

		parts = append([]string{outer.Name}, parts...)
	}

	if pkg != "" {
		parts = append([]string{pkg}, parts...)
	}

	return strings.Join(parts, ".")
}

// Version is the project version the index was built from.
func (ix *Index) Version() uint64 { return ix.version }

// Units returns the compilation units.
func (ix *Index) Units() []*m.Unit { return ix.units }

// Documents returns the XML documents.
func (ix *Index) Documents() []*m.XMLDocument { return ix.docs }

// Classes returns every class, including nested and anonymous ones, in document order.
func (ix *Index) Classes() []*m.Class { return ix.classes }

// FQN returns the qualified name of a named class.
func (ix *Index) FQN(c *m.Class) string { return ix.fqn[c] }

// ClassByFQN looks a class up by qualified name; '$' separators are accepted.
func (ix *Index) ClassByFQN(name string) *m.Class {
	return ix.byFQN[strings.ReplaceAll(strings.TrimSpace(name), "$", ".")]
}

// SuperClass returns the resolved superclass of c, or nil when it is outside the project.
func (ix *Index) SuperClass(c *m.Class) *m.Class { return ix.supers[c] }

// Subclasses returns the direct subclasses of c, anonymous ones included.
func (ix *Index) Subclasses(c *m.Class) []*m.Class { return ix.subs[c] }

// Ancestors returns the superclass chain of c, nearest first.
func (ix *Index) Ancestors(c *m.Class) []*m.Class {
	var out []*m.Class

	seen := map[*m.Class]bool{c: true}
	for s := ix.supers[c]; s != nil && !seen[s]; s = ix.supers[s] {
		seen[s] = true
		out = append(out, s)
	}

	return out
}

// Descendants returns every transitive subclass of c.
func (ix *Index) Descendants(c *m.Class) []*m.Class {
	var out []*m.Class

	seen := map[*m.Class]bool{c: true}
	queue := []*m.Class{c}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, s := range ix.subs[cur] {
			if seen[s] {
				continue
			}

			seen[s] = true
			out = append(out, s)
			queue = append(queue, s)
		}
	}

	return out
}

// FindField looks name up in c and its superclasses.
func (ix *Index) FindField(c *m.Class, name string) *m.Field {
	if c == nil {
		return nil
	}

	if f := c.Field(name); f != nil {
		return f
	}

	for _, a := range ix.Ancestors(c) {
		if f := a.Field(name); f != nil {
			return f
		}
	}

	return nil
}

// FindMethod looks up a non-constructor method by name and argument count in
// c and its superclasses.
func (ix *Index) FindMethod(c *m.Class, name string, argc int) *m.Method {
	if c == nil {
		return nil
	}

	for _, k := range append([]*m.Class{c}, ix.Ancestors(c)...) {
		for _, meth := range k.Methods() {
			if meth.Name == name && arityMatches(meth, argc) {
				return meth
			}
		}
	}

	return nil
}

// ConstructorFor picks the constructor of c that accepts argc arguments.
// It returns c itself when the class only has the implicit default constructor.
func (ix *Index) ConstructorFor(c *m.Class, argc int) m.Node {
	ctors := c.Constructors()
	if len(ctors) == 0 {
		if argc == 0 {
			return c
		}

		return nil
	}

	for _, ctor := range ctors {
		if arityMatches(ctor, argc) {
			return ctor
		}
	}

	return nil
}

// OverriddenMethods returns same-name, same-arity methods declared in ancestors of the owner of meth.
func (ix *Index) OverriddenMethods(meth *m.Method) []*m.Method {
	owner := m.EnclosingClass(meth)
	if owner == nil || meth.Ctor {
		return nil
	}

	var out []*m.Method

	for _, a := range ix.Ancestors(owner) {
		for _, other := range a.Methods() {
			if other.Name == meth.Name && len(other.Params) == len(meth.Params) {
				out = append(out, other)
			}
		}
	}

	return out
}

func arityMatches(meth *m.Method, argc int) bool {
	n := len(meth.Params)
	if n > 0 && meth.Params[n-1].VarArgs {
		return argc >= n-1
	}

	return argc == n
}

// TypeOf returns the project class a variable, parameter, field or method result is typed with.
func (ix *Index) TypeOf(decl m.Node) *m.Class {
	switch d := decl.(type) {
	case *m.LocalVar:
		if d.Type != nil && d.Type.Text == "var" {
			if n, ok := d.Init.(*m.New); ok {
				return ix.ResolveType(n.Type)
			}

			return nil
		}

		return ix.ResolveType(d.Type)
	case *m.Param:
		return ix.ResolveType(d.Type)
	case *m.Field:
		return ix.ResolveType(d.Type)
	case *m.Method:
		return ix.ResolveType(d.ReturnType)
	}

	return nil
}

// ResolveType resolves a type use to a project class.
func (ix *Index) ResolveType(t *m.TypeRef) *m.Class {
	if t == nil {
		return nil
	}

	c, _ := ix.memoized(t, func() m.Node {
		if c := ix.ResolveTypeName(t, t.Text); c != nil {
			return c
		}

		return nil
	}).(*m.Class)

	return c
}

// ResolveTypeName resolves type text as seen from ctx.
func (ix *Index) ResolveTypeName(ctx m.Node, text string) *m.Class {
	raw := m.RawTypeName(text)
	if raw == "" {
		return nil
	}

	if strings.Contains(raw, ".") {
		if c := ix.byFQN[raw]; c != nil {
			return c
		}

		parts := strings.Split(raw, ".")

		outer := ix.resolveSimple(ctx, parts[0])
		for _, part := range parts[1:] {
			if outer == nil {
				return nil
			}

			outer = memberClass(outer, part)
		}

		return outer
	}

	return ix.resolveSimple(ctx, raw)
}

func memberClass(c *m.Class, name string) *m.Class {
	for _, member := range c.Members {
		if inner, ok := member.(*m.Class); ok && inner.Name == name {
			return inner
		}
	}

	return nil
}

func (ix *Index) resolveSimple(ctx m.Node, name string) *m.Class {
	for c := enclosingOrSelf(ctx); c != nil; c = m.EnclosingClass(c) {
		if c.Sort != m.ClassKindAnonymous && c.Name == name {
			return c
		}

		if inner := memberClass(c, name); inner != nil {
			return inner
		}
	}

	u := m.EnclosingUnit(ctx)
	if u != nil {
		for _, c := range u.Classes() {
			if c.Name == name {
				return c
			}
		}

		for _, imp := range u.Imports() {
			if !imp.Wildcard && !imp.Static && m.SimpleTypeName(imp.Name) == name {
				return ix.byFQN[imp.Name]
			}
		}

		if c := ix.byFQN[joinName(u.Package, name)]; c != nil {
			return c
		}

		for _, imp := range u.Imports() {
			if imp.Wildcard && !imp.Static {
				if c := ix.byFQN[imp.Name+"."+name]; c != nil {
					return c
				}
			}
		}
	}

	if candidates := ix.bySimple[name]; len(candidates) == 1 {
		return candidates[0]
	}

	return nil
}

func enclosingOrSelf(n m.Node) *m.Class {
	if c, ok := n.(*m.Class); ok {
		return c
	}

	return m.EnclosingClass(n)
}

func joinName(pkg, name string) string {
	if pkg == "" {
		return name
	}

	return pkg + "." + name
}

func (ix *Index) memoized(key m.Node, compute func() m.Node) m.Node {
	ix.mu.Lock()
	v, ok := ix.memo[key]
	ix.mu.Unlock()

	if ok {
		return v
	}

	v = compute()

	ix.mu.Lock()
	ix.memo[key] = v
	ix.mu.Unlock()

	return v
}
