package program

import (
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// RefKind classifies a use site.
type RefKind int

// Reference kinds.
const (
	RefName RefKind = iota
	RefFieldAccess
	RefCall
	RefNew
	RefCtorCall
	RefImplicitSuperClass
	RefImplicitSuperCtor
	RefExtends
	RefImplements
	RefClassLiteral
	RefTypeUse
	RefXMLBeanClass
	RefXMLProperty
	RefXMLServletClass
)

var refKindNames = map[RefKind]string{
	RefName:               "name",
	RefFieldAccess:        "field-access",
	RefCall:               "call",
	RefNew:                "new",
	RefCtorCall:           "ctor-call",
	RefImplicitSuperClass: "implicit-super-class",
	RefImplicitSuperCtor:  "implicit-super-ctor",
	RefExtends:            "extends",
	RefImplements:         "implements",
	RefClassLiteral:       "class-literal",
	RefTypeUse:            "type-use",
	RefXMLBeanClass:       "xml-bean-class",
	RefXMLProperty:        "xml-property",
	RefXMLServletClass:    "xml-servlet-class",
}

func (k RefKind) String() string {
	if name, ok := refKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// Reference is one use of a declaration.
//
// For RefImplicitSuperClass, Element is the subclass that has no constructor;
// for RefImplicitSuperCtor, it is the subclass constructor lacking an explicit
// super(...) call. Every other kind points at the use node itself.
type Reference struct {
	Kind    RefKind
	Element m.Node
}

// References returns every use of decl across the project in document order.
// The result is a materialized slice: callers that mutate the tree must take
// it before the first mutation.
func (ix *Index) References(decl m.Node) []Reference {
	switch d := decl.(type) {
	case *m.Field:
		return ix.variableRefs(d, d.Name, ix.allUnits())
	case *m.Param:
		return ix.variableRefs(d, d.Name, scopeOf(d))
	case *m.LocalVar:
		return ix.variableRefs(d, d.Name, scopeOf(d))
	case *m.Method:
		if d.Ctor {
			return ix.constructorRefs(d, m.EnclosingClass(d))
		}

		return ix.methodRefs(d)
	case *m.Class:
		return ix.classRefs(d)
	}

	return nil
}

func (ix *Index) allUnits() []m.Node {
	out := make([]m.Node, len(ix.units))
	for i, u := range ix.units {
		out[i] = u
	}

	return out
}

func scopeOf(n m.Node) []m.Node {
	if meth := m.EnclosingMethod(n); meth != nil {
		return []m.Node{meth}
	}

	if c := m.EnclosingClass(n); c != nil {
		return []m.Node{c}
	}

	return nil
}

func (ix *Index) variableRefs(decl m.Node, name string, roots []m.Node) []Reference {
	var out []Reference

	for _, root := range roots {
		m.Walk(root, func(n m.Node) bool {
			switch x := n.(type) {
			case *m.Name:
				if x.Ident == name && ix.Resolve(x) == decl {
					out = append(out, Reference{Kind: RefName, Element: x})
				}
			case *m.FieldAccess:
				if x.Field == name && ix.Resolve(x) == decl {
					out = append(out, Reference{Kind: RefFieldAccess, Element: x})
				}
			}

			return true
		})
	}

	return out
}

func (ix *Index) methodRefs(meth *m.Method) []Reference {
	var out []Reference

	for _, u := range ix.units {
		m.Walk(u, func(n m.Node) bool {
			if call, ok := n.(*m.Call); ok && call.Name == meth.Name && ix.Resolve(call) == m.Node(meth) {
				out = append(out, Reference{Kind: RefCall, Element: call})
			}

			return true
		})
	}

	if len(meth.Params) == 1 {
		ix.walkTags(func(t *m.XMLTag) {
			if t.LocalName() == "property" && ix.Resolve(t) == m.Node(meth) {
				out = append(out, Reference{Kind: RefXMLProperty, Element: t})
			}
		})
	}

	return out
}

// constructorRefs finds explicit instantiations and constructor calls that
// resolve to target (a constructor, or the class itself when it only has the
// implicit default constructor), plus subclasses relying on the implicit
// super() call. Anonymous subclasses are reported through their body.
func (ix *Index) constructorRefs(target m.Node, owner *m.Class) []Reference {
	var out []Reference

	for _, u := range ix.units {
		m.Walk(u, func(n m.Node) bool {
			switch x := n.(type) {
			case *m.New:
				if ix.Resolve(x) != target {
					return true
				}

				if x.Body != nil {
					out = append(out, Reference{Kind: RefImplicitSuperClass, Element: x.Body})
				} else {
					out = append(out, Reference{Kind: RefNew, Element: x})
				}
			case *m.CtorCall:
				if ix.Resolve(x) == target {
					out = append(out, Reference{Kind: RefCtorCall, Element: x})
				}
			}

			return true
		})
	}

	if owner == nil || ix.ConstructorFor(owner, 0) != target {
		return out
	}

	for _, sub := range ix.Subclasses(owner) {
		if sub.Sort == m.ClassKindAnonymous {
			continue
		}

		ctors := sub.Constructors()
		if len(ctors) == 0 {
			out = append(out, Reference{Kind: RefImplicitSuperClass, Element: sub})
			continue
		}

		for _, ctor := range ctors {
			if _, explicit := LeadingCtorCall(ctor); !explicit {
				out = append(out, Reference{Kind: RefImplicitSuperCtor, Element: ctor})
			}
		}
	}

	return out
}

func (ix *Index) classRefs(c *m.Class) []Reference {
	var out []Reference

	if len(c.Constructors()) == 0 {
		out = append(out, ix.constructorRefs(c, c)...)
	} else {
		for _, u := range ix.units {
			m.Walk(u, func(n m.Node) bool {
				if x, ok := n.(*m.New); ok && x.Body == nil && ix.ResolveType(x.Type) == c {
					out = append(out, Reference{Kind: RefNew, Element: x})
				}

				return true
			})
		}
	}

	for _, u := range ix.units {
		m.Walk(u, func(n m.Node) bool {
			t, ok := n.(*m.TypeRef)
			if !ok || m.SimpleTypeName(t.Text) != c.Name || ix.ResolveType(t) != c {
				return true
			}

			out = append(out, Reference{Kind: typeRefKind(t), Element: t})

			return true
		})
	}

	ix.walkTags(func(t *m.XMLTag) {
		switch t.LocalName() {
		case "bean":
			if ix.Resolve(t) == m.Node(c) {
				out = append(out, Reference{Kind: RefXMLBeanClass, Element: t})
			}
		case "servlet-class":
			if ix.Resolve(t) == m.Node(c) {
				out = append(out, Reference{Kind: RefXMLServletClass, Element: t})
			}
		}
	})

	return out
}

func typeRefKind(t *m.TypeRef) RefKind {
	switch p := t.Parent().(type) {
	case *m.Class:
		if p.Extends == t {
			return RefExtends
		}

		return RefImplements
	case *m.ClassLit:
		return RefClassLiteral
	}

	return RefTypeUse
}

func (ix *Index) walkTags(fn func(*m.XMLTag)) {
	for _, d := range ix.docs {
		m.Walk(d, func(n m.Node) bool {
			if t, ok := n.(*m.XMLTag); ok {
				fn(t)
			}

			return true
		})
	}
}

// LeadingCtorCall returns the explicit super(...) or this(...) call that
// opens a constructor body.
func LeadingCtorCall(ctor *m.Method) (*m.CtorCall, bool) {
	if ctor.Body == nil || len(ctor.Body.Stmts) == 0 {
		return nil, false
	}

	cc, ok := ctor.Body.Stmts[0].(*m.CtorCall)

	return cc, ok
}
