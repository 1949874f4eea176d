package program

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// Resolve maps a use to its declaration:
//   - Name and FieldAccess resolve to a *Field, *Param, *LocalVar, or the *Opaque
//     construct that declares a loop, lambda or catch variable;
//   - Call resolves to a *Method;
//   - New and CtorCall resolve to a constructor, or to the *Class when only the
//     implicit default constructor exists;
//   - TypeRef and ClassLit resolve to a *Class;
//   - XML bean and servlet-class tags resolve to a *Class, property tags to the setter.
//
// It returns nil when the declaration is outside the project.
func (ix *Index) Resolve(n m.Node) m.Node {
	switch x := n.(type) {
	case *m.Name:
		return ix.memoized(x, func() m.Node { return ix.resolveName(x) })
	case *m.FieldAccess:
		return ix.memoized(x, func() m.Node { return fieldNode(ix.resolveFieldAccess(x)) })
	case *m.Call:
		return ix.memoized(x, func() m.Node { return methodNode(ix.resolveCall(x)) })
	case *m.New:
		return ix.memoized(x, func() m.Node { return ix.resolveNew(x) })
	case *m.CtorCall:
		return ix.memoized(x, func() m.Node { return ix.resolveCtorCall(x) })
	case *m.TypeRef:
		return classNode(ix.ResolveType(x))
	case *m.ClassLit:
		return classNode(ix.ResolveType(x.Type))
	case *m.XMLTag:
		return ix.memoized(x, func() m.Node { return ix.resolveTag(x) })
	}

	return nil
}

// The helpers below keep typed nil pointers out of interfaces.

func fieldNode(f *m.Field) m.Node {
	if f == nil {
		return nil
	}

	return f
}

func methodNode(meth *m.Method) m.Node {
	if meth == nil {
		return nil
	}

	return meth
}

func classNode(c *m.Class) m.Node {
	if c == nil {
		return nil
	}

	return c
}

func (ix *Index) resolveName(n *m.Name) m.Node {
	name := n.Ident

	var prev m.Node = n

	for cur := n.Parent(); cur != nil; prev, cur = cur, cur.Parent() {
		switch c := cur.(type) {
		case *m.Block:
			if d := declaredBefore(c.Stmts, prev, name); d != nil {
				return d
			}
		case *m.Opaque:
			if slices.Contains(c.Declares, name) {
				return c
			}

			for _, f := range c.Frags {
				if f.Node == prev {
					break
				}

				if lv, ok := f.Node.(*m.LocalVar); ok && lv.Name == name {
					return lv
				}
			}
		case *m.Method:
			if p := c.Param(name); p != nil {
				return p
			}
		case *m.Class:
			if f := ix.FindField(c, name); f != nil {
				return f
			}
		case *m.Unit:
			return nil
		}
	}

	return nil
}

func declaredBefore(stmts []m.Stmt, stop m.Node, name string) m.Node {
	for _, s := range stmts {
		if m.Node(s) == stop {
			return nil
		}

		switch d := s.(type) {
		case *m.LocalVar:
			if d.Name == name {
				return d
			}
		case *m.Opaque:
			if slices.Contains(d.Declares, name) {
				return d
			}
		}
	}

	return nil
}

func (ix *Index) resolveFieldAccess(fa *m.FieldAccess) *m.Field {
	if this, ok := fa.X.(*m.This); ok {
		c := m.EnclosingClass(fa)
		if this.Keyword == "super" {
			c = ix.SuperClass(c)
		}

		return ix.FindField(c, fa.Field)
	}

	return ix.FindField(ix.receiverClass(fa.X), fa.Field)
}

func (ix *Index) resolveCall(call *m.Call) *m.Method {
	argc := len(call.Args)

	if call.Recv == nil {
		for c := m.EnclosingClass(call); c != nil; c = m.EnclosingClass(c) {
			if meth := ix.FindMethod(c, call.Name, argc); meth != nil {
				return meth
			}
		}

		return nil
	}

	return ix.FindMethod(ix.receiverClass(call.Recv), call.Name, argc)
}

func (ix *Index) receiverClass(recv m.Expr) *m.Class {
	switch r := recv.(type) {
	case *m.This:
		c := m.EnclosingClass(r)
		if r.Keyword == "super" {
			return ix.SuperClass(c)
		}

		return c
	case *m.Name:
		if d := ix.Resolve(r); d != nil {
			return ix.TypeOf(d)
		}

		return ix.ResolveTypeName(r, r.Ident)
	case *m.FieldAccess:
		if d := ix.Resolve(r); d != nil {
			return ix.TypeOf(d)
		}
	case *m.New:
		if r.Body != nil {
			return r.Body
		}

		return ix.ResolveType(r.Type)
	case *m.Call:
		if meth, ok := ix.Resolve(r).(*m.Method); ok {
			return ix.TypeOf(meth)
		}
	}

	return nil
}

func (ix *Index) resolveNew(n *m.New) m.Node {
	c := ix.ResolveType(n.Type)
	if c == nil {
		return nil
	}

	return ix.ConstructorFor(c, len(n.Args))
}

func (ix *Index) resolveCtorCall(cc *m.CtorCall) m.Node {
	c := m.EnclosingClass(cc)
	if c == nil {
		return nil
	}

	if cc.IsSuper() {
		c = ix.SuperClass(c)
		if c == nil {
			return nil
		}
	}

	return ix.ConstructorFor(c, len(cc.Args))
}

func (ix *Index) resolveTag(t *m.XMLTag) m.Node {
	switch t.LocalName() {
	case "bean":
		if class, ok := t.Attr("class"); ok {
			return classNode(ix.ClassByFQN(class))
		}
	case "servlet-class":
		return classNode(ix.ClassByFQN(t.Text))
	case "property":
		bean := t.ParentTag()
		name, ok := t.Attr("name")

		if bean == nil || !ok || bean.LocalName() != "bean" {
			return nil
		}

		c, _ := ix.Resolve(bean).(*m.Class)

		return methodNode(ix.FindMethod(c, SetterName(name), 1))
	}

	return nil
}

// SetterName returns the setter name for a bean property.
func SetterName(property string) string {
	if property == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(property)

	return "set" + string(unicode.ToUpper(r)) + property[size:]
}

// Uncapitalize lowers the first letter of a Java identifier.
func Uncapitalize(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)

	return string(unicode.ToLower(r)) + s[size:]
}

// PropertyName returns the bean property a setter name writes, e.g. "url" for "setUrl".
func PropertyName(setter string) string {
	return Uncapitalize(strings.TrimPrefix(setter, "set"))
}
