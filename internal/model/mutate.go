package model

import "slices"

// Snapshot captures the own state of n (fields, slices and flags, not
// descendants) and returns a function that restores it and re-links the
// restored children.
func Snapshot(n Node) func() {
	var restore func()

	switch x := n.(type) {
	case *Unit:
		saved := *x
		saved.Items = slices.Clone(x.Items)
		restore = func() { *x = saved }
	case *Import:
		saved := *x
		restore = func() { *x = saved }
	case *Class:
		saved := *x
		saved.Implements = slices.Clone(x.Implements)
		saved.Members = slices.Clone(x.Members)
		restore = func() { *x = saved }
	case *Modifiers:
		saved := *x
		saved.Annotations = slices.Clone(x.Annotations)
		saved.Keywords = slices.Clone(x.Keywords)
		restore = func() { *x = saved }
	case *Annotation:
		saved := *x
		saved.Args = slices.Clone(x.Args)
		restore = func() { *x = saved }
	case *AnnotationArg:
		saved := *x
		restore = func() { *x = saved }
	case *Field:
		saved := *x
		restore = func() { *x = saved }
	case *Method:
		saved := *x
		saved.Params = slices.Clone(x.Params)
		saved.ParamsFormat.Seps = slices.Clone(x.ParamsFormat.Seps)
		restore = func() { *x = saved }
	case *Param:
		saved := *x
		restore = func() { *x = saved }
	case *TypeRef:
		saved := *x
		restore = func() { *x = saved }
	case *Block:
		saved := *x
		saved.Stmts = slices.Clone(x.Stmts)
		restore = func() { *x = saved }
	case *ExprStmt:
		saved := *x
		restore = func() { *x = saved }
	case *LocalVar:
		saved := *x
		restore = func() { *x = saved }
	case *Return:
		saved := *x
		restore = func() { *x = saved }
	case *CtorCall:
		saved := *x
		saved.Args = slices.Clone(x.Args)
		saved.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)
		restore = func() { *x = saved }
	case *Opaque:
		saved := *x
		saved.Frags = slices.Clone(x.Frags)
		restore = func() { *x = saved }
	case *Name:
		saved := *x
		restore = func() { *x = saved }
	case *This:
		saved := *x
		restore = func() { *x = saved }
	case *FieldAccess:
		saved := *x
		restore = func() { *x = saved }
	case *Call:
		saved := *x
		saved.Args = slices.Clone(x.Args)
		saved.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)
		restore = func() { *x = saved }
	case *New:
		saved := *x
		saved.Args = slices.Clone(x.Args)
		saved.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)
		restore = func() { *x = saved }
	case *Assign:
		saved := *x
		restore = func() { *x = saved }
	case *Literal:
		saved := *x
		restore = func() { *x = saved }
	case *ClassLit:
		saved := *x
		restore = func() { *x = saved }
	case *ArrayInit:
		saved := *x
		saved.Elems = slices.Clone(x.Elems)
		saved.ElemsFormat.Seps = slices.Clone(x.ElemsFormat.Seps)
		restore = func() { *x = saved }
	case *XMLDocument:
		saved := *x
		restore = func() { *x = saved }
	case *XMLTag:
		saved := *x
		saved.Children = slices.Clone(x.Children)
		restore = func() { *x = saved }
	default:
		panic("model: unhandled node type in Snapshot")
	}

	return func() {
		restore()

		for _, c := range Children(n) {
			c.Meta().parent = n
		}
	}
}

// ReplaceChild swaps old for repl in parent's single-node slots and lists.
// It reports whether old was found.
func ReplaceChild(parent, old, repl Node) bool {
	found := false

	swap := func(slot Node) bool {
		if slot == old {
			found = true
			return true
		}

		return false
	}

	switch x := parent.(type) {
	case *Unit:
		for i, item := range x.Items {
			if swap(item) {
				x.Items[i] = repl
			}
		}
	case *Class:
		for i, m := range x.Members {
			if swap(m) {
				x.Members[i] = repl.(Member)
			}
		}
	case *AnnotationArg:
		if swap(x.Value) {
			x.Value = repl.(Expr)
		}
	case *Field:
		if x.Init != nil && swap(x.Init) {
			x.Init = repl.(Expr)
		}
	case *Method:
		if x.Body != nil && swap(x.Body) {
			x.Body = repl.(*Block)
		}
	case *Block:
		for i, s := range x.Stmts {
			if swap(s) {
				x.Stmts[i] = repl.(Stmt)
			}
		}
	case *ExprStmt:
		if swap(x.X) {
			x.X = repl.(Expr)
		}
	case *LocalVar:
		if x.Init != nil && swap(x.Init) {
			x.Init = repl.(Expr)
		}
	case *Return:
		if x.X != nil && swap(x.X) {
			x.X = repl.(Expr)
		}
	case *CtorCall:
		replaceIn(x.Args, old, repl, &found)
	case *Opaque:
		for i, f := range x.Frags {
			if f.Node != nil && swap(f.Node) {
				x.Frags[i].Node = repl
			}
		}
	case *FieldAccess:
		if swap(x.X) {
			x.X = repl.(Expr)
		}
	case *Call:
		if x.Recv != nil && swap(x.Recv) {
			x.Recv = repl.(Expr)
		}

		replaceIn(x.Args, old, repl, &found)
	case *New:
		replaceIn(x.Args, old, repl, &found)
	case *Assign:
		if swap(x.LHS) {
			x.LHS = repl.(Expr)
		}

		if swap(x.RHS) {
			x.RHS = repl.(Expr)
		}
	case *ArrayInit:
		replaceIn(x.Elems, old, repl, &found)
	}

	if found {
		SetParent(repl, parent)
	}

	return found
}

func replaceIn(list []Expr, old, repl Node, found *bool) {
	for i, e := range list {
		if Node(e) == old {
			list[i] = repl.(Expr)
			*found = true
		}
	}
}

// RemoveChild deletes child from a list slot of parent.
func RemoveChild(parent, child Node) bool {
	switch x := parent.(type) {
	case *Unit:
		if i := slices.Index(x.Items, child); i >= 0 {
			x.Items = slices.Delete(x.Items, i, i+1)
			return true
		}
	case *Class:
		for i, m := range x.Members {
			if Node(m) == child {
				x.Members = slices.Delete(x.Members, i, i+1)
				return true
			}
		}
	case *Modifiers:
		for i, a := range x.Annotations {
			if Node(a) == child {
				x.Annotations = slices.Delete(x.Annotations, i, i+1)
				return true
			}
		}
	case *Block:
		for i, s := range x.Stmts {
			if Node(s) == child {
				x.Stmts = slices.Delete(x.Stmts, i, i+1)
				return true
			}
		}
	case *Method:
		for i, p := range x.Params {
			if Node(p) == child {
				x.Params = slices.Delete(x.Params, i, i+1)
				x.ParamsFormat.Seps = dropSep(x.ParamsFormat.Seps, i)

				return true
			}
		}
	case *Call:
		if i := exprIndex(x.Args, child); i >= 0 {
			x.Args = slices.Delete(x.Args, i, i+1)
			x.ArgsFormat.Seps = dropSep(x.ArgsFormat.Seps, i)

			return true
		}
	case *New:
		if i := exprIndex(x.Args, child); i >= 0 {
			x.Args = slices.Delete(x.Args, i, i+1)
			x.ArgsFormat.Seps = dropSep(x.ArgsFormat.Seps, i)

			return true
		}
	case *CtorCall:
		if i := exprIndex(x.Args, child); i >= 0 {
			x.Args = slices.Delete(x.Args, i, i+1)
			x.ArgsFormat.Seps = dropSep(x.ArgsFormat.Seps, i)

			return true
		}
	case *ArrayInit:
		if i := exprIndex(x.Elems, child); i >= 0 {
			x.Elems = slices.Delete(x.Elems, i, i+1)
			x.ElemsFormat.Seps = dropSep(x.ElemsFormat.Seps, i)

			return true
		}
	}

	return false
}

func exprIndex(list []Expr, n Node) int {
	for i, e := range list {
		if Node(e) == n {
			return i
		}
	}

	return -1
}

func dropSep(seps []string, i int) []string {
	if len(seps) == 0 {
		return seps
	}

	if i > 0 {
		i--
	}

	if i >= len(seps) {
		return seps
	}

	return slices.Delete(slices.Clone(seps), i, i+1)
}

// Strip drops the origin of n and every descendant so the printer renders
// them from structure. Used for nodes parsed from templates.
func Strip(n Node) {
	Walk(n, func(x Node) bool {
		x.Meta().Origin = Origin{}
		return true
	})
	n.Meta().parent = nil
}

// Clone deep-copies n. The copy is detached and keeps the original text of
// every node.
func Clone[T Node](n T) T {
	c := cloneNode(n)
	Link(c)
	c.Meta().parent = nil
	c.Meta().dirty = n.Meta().dirty

	return c.(T)
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}

	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = cloneNode(e).(Expr)
	}

	return out
}

func cloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}

	return cloneNode(e).(Expr)
}

func cloneMods(m *Modifiers) *Modifiers {
	if m == nil {
		return nil
	}

	return cloneNode(m).(*Modifiers)
}

func cloneType(t *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}

	return cloneNode(t).(*TypeRef)
}

//nolint:gocyclo // one case per node kind
func cloneNode(n Node) Node {
	switch x := n.(type) {
	case *Unit:
		c := *x
		c.Items = make([]Node, len(x.Items))
		for i, item := range x.Items {
			c.Items[i] = cloneNode(item)
		}

		return &c
	case *Import:
		c := *x
		return &c
	case *Class:
		c := *x
		c.Mods = cloneMods(x.Mods)
		c.Extends = cloneType(x.Extends)
		c.Implements = make([]*TypeRef, len(x.Implements))
		for i, t := range x.Implements {
			c.Implements[i] = cloneType(t)
		}
		c.Members = make([]Member, len(x.Members))
		for i, m := range x.Members {
			c.Members[i] = cloneNode(m).(Member)
		}

		return &c
	case *Modifiers:
		c := *x
		c.Keywords = slices.Clone(x.Keywords)
		c.Annotations = make([]*Annotation, len(x.Annotations))
		for i, a := range x.Annotations {
			c.Annotations[i] = cloneNode(a).(*Annotation)
		}

		return &c
	case *Annotation:
		c := *x
		c.Args = make([]*AnnotationArg, len(x.Args))
		for i, a := range x.Args {
			c.Args[i] = cloneNode(a).(*AnnotationArg)
		}

		return &c
	case *AnnotationArg:
		c := *x
		c.Value = cloneExpr(x.Value)

		return &c
	case *Field:
		c := *x
		c.Mods = cloneMods(x.Mods)
		c.Type = cloneType(x.Type)
		c.Init = cloneExpr(x.Init)

		return &c
	case *Method:
		c := *x
		c.Mods = cloneMods(x.Mods)
		c.ReturnType = cloneType(x.ReturnType)
		c.ParamsFormat.Seps = slices.Clone(x.ParamsFormat.Seps)
		c.Params = make([]*Param, len(x.Params))
		for i, p := range x.Params {
			c.Params[i] = cloneNode(p).(*Param)
		}
		if x.Body != nil {
			c.Body = cloneNode(x.Body).(*Block)
		}

		return &c
	case *Param:
		c := *x
		c.Mods = cloneMods(x.Mods)
		c.Type = cloneType(x.Type)

		return &c
	case *TypeRef:
		c := *x
		return &c
	case *Block:
		c := *x
		c.Stmts = make([]Stmt, len(x.Stmts))
		for i, s := range x.Stmts {
			c.Stmts[i] = cloneNode(s).(Stmt)
		}

		return &c
	case *ExprStmt:
		c := *x
		c.X = cloneExpr(x.X)

		return &c
	case *LocalVar:
		c := *x
		c.Mods = cloneMods(x.Mods)
		c.Type = cloneType(x.Type)
		c.Init = cloneExpr(x.Init)

		return &c
	case *Return:
		c := *x
		c.X = cloneExpr(x.X)

		return &c
	case *CtorCall:
		c := *x
		c.Args = cloneExprs(x.Args)
		c.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)

		return &c
	case *Opaque:
		c := *x
		c.Declares = slices.Clone(x.Declares)
		c.Frags = make([]Fragment, len(x.Frags))
		for i, f := range x.Frags {
			c.Frags[i] = f
			if f.Node != nil {
				c.Frags[i].Node = cloneNode(f.Node)
			}
		}

		return &c
	case *Name:
		c := *x
		return &c
	case *This:
		c := *x
		return &c
	case *FieldAccess:
		c := *x
		c.X = cloneExpr(x.X)

		return &c
	case *Call:
		c := *x
		c.Recv = cloneExpr(x.Recv)
		c.Args = cloneExprs(x.Args)
		c.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)

		return &c
	case *New:
		c := *x
		c.Type = cloneType(x.Type)
		c.Args = cloneExprs(x.Args)
		c.ArgsFormat.Seps = slices.Clone(x.ArgsFormat.Seps)
		if x.Body != nil {
			c.Body = cloneNode(x.Body).(*Class)
		}

		return &c
	case *Assign:
		c := *x
		c.LHS = cloneExpr(x.LHS)
		c.RHS = cloneExpr(x.RHS)

		return &c
	case *Literal:
		c := *x
		return &c
	case *ClassLit:
		c := *x
		c.Type = cloneType(x.Type)

		return &c
	case *ArrayInit:
		c := *x
		c.Elems = cloneExprs(x.Elems)
		c.ElemsFormat.Seps = slices.Clone(x.ElemsFormat.Seps)

		return &c
	case *XMLDocument:
		c := *x
		c.Raw = slices.Clone(x.Raw)
		if x.Root != nil {
			c.Root = cloneNode(x.Root).(*XMLTag)
		}

		return &c
	case *XMLTag:
		c := *x
		c.Attrs = slices.Clone(x.Attrs)
		c.Children = make([]*XMLTag, len(x.Children))
		for i, t := range x.Children {
			c.Children[i] = cloneNode(t).(*XMLTag)
		}

		return &c
	}

	panic("model: unhandled node type in Clone")
}
