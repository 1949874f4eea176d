package model

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node

	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}

	switch x := n.(type) {
	case *Unit:
		for _, item := range x.Items {
			add(item)
		}
	case *Import, *TypeRef, *Name, *This, *Literal:
	case *Class:
		add(x.Mods)
		add(x.Extends)
		for _, t := range x.Implements {
			add(t)
		}
		for _, m := range x.Members {
			add(m)
		}
	case *Modifiers:
		for _, a := range x.Annotations {
			add(a)
		}
	case *Annotation:
		for _, a := range x.Args {
			add(a)
		}
	case *AnnotationArg:
		add(x.Value)
	case *Field:
		add(x.Mods)
		add(x.Type)
		add(x.Init)
	case *Method:
		add(x.Mods)
		add(x.ReturnType)
		for _, p := range x.Params {
			add(p)
		}
		add(x.Body)
	case *Param:
		add(x.Mods)
		add(x.Type)
	case *Block:
		for _, s := range x.Stmts {
			add(s)
		}
	case *ExprStmt:
		add(x.X)
	case *LocalVar:
		add(x.Mods)
		add(x.Type)
		add(x.Init)
	case *Return:
		add(x.X)
	case *CtorCall:
		for _, a := range x.Args {
			add(a)
		}
	case *Opaque:
		for _, f := range x.Frags {
			add(f.Node)
		}
	case *FieldAccess:
		add(x.X)
	case *Call:
		add(x.Recv)
		for _, a := range x.Args {
			add(a)
		}
	case *New:
		add(x.Type)
		for _, a := range x.Args {
			add(a)
		}
		add(x.Body)
	case *Assign:
		add(x.LHS)
		add(x.RHS)
	case *ClassLit:
		add(x.Type)
	case *ArrayInit:
		for _, e := range x.Elems {
			add(e)
		}
	case *XMLDocument:
		add(x.Root)
	case *XMLTag:
		for _, c := range x.Children {
			add(c)
		}
	default:
		panic("model: unhandled node type in Children")
	}

	return out
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch x := n.(type) {
	case *Modifiers:
		return x == nil
	case *TypeRef:
		return x == nil
	case *Block:
		return x == nil
	case *Class:
		return x == nil
	case *XMLTag:
		return x == nil
	}

	return false
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}

	if !fn(n) {
		return
	}

	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Link sets parent pointers below n.
func Link(n Node) {
	for _, c := range Children(n) {
		c.Meta().parent = n
		Link(c)
	}
}

// SetParent attaches n under parent without touching descendants.
func SetParent(n, parent Node) {
	if n != nil && !isNilNode(n) {
		n.Meta().parent = parent
	}
}

// Ancestor returns the closest strict ancestor of n accepted by match.
func Ancestor(n Node, match func(Node) bool) Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if match(cur) {
			return cur
		}
	}

	return nil
}

// EnclosingClass returns the closest class around n.
func EnclosingClass(n Node) *Class {
	c, _ := Ancestor(n, func(x Node) bool { _, ok := x.(*Class); return ok }).(*Class)
	return c
}

// EnclosingMethod returns the closest method or constructor around n.
func EnclosingMethod(n Node) *Method {
	m, _ := Ancestor(n, func(x Node) bool { _, ok := x.(*Method); return ok }).(*Method)
	return m
}

// EnclosingUnit returns the compilation unit holding n.
func EnclosingUnit(n Node) *Unit {
	if u, ok := n.(*Unit); ok {
		return u
	}

	u, _ := Ancestor(n, func(x Node) bool { _, ok := x.(*Unit); return ok }).(*Unit)

	return u
}

// EnclosingStatement returns the statement (n itself or an ancestor) that
// sits directly in a block, together with that block.
func EnclosingStatement(n Node) (Stmt, *Block) {
	var prev Node = n

	for cur := n.Parent(); cur != nil; prev, cur = cur, cur.Parent() {
		switch c := cur.(type) {
		case *Block:
			if s, ok := prev.(Stmt); ok {
				return s, c
			}

			return nil, nil
		case *Method, *Class, *Unit:
			return nil, nil
		}
	}

	return nil, nil
}

// TopStatementIn returns the statement of block that contains n.
func TopStatementIn(n Node, block *Block) Stmt {
	var prev Node = n

	for cur := n.Parent(); cur != nil; prev, cur = cur, cur.Parent() {
		if cur == Node(block) {
			s, _ := prev.(Stmt)
			return s
		}
	}

	return nil
}

// Contains reports whether inner is outer or one of its descendants.
func Contains(outer, inner Node) bool {
	for cur := inner; cur != nil; cur = cur.Parent() {
		if cur == outer {
			return true
		}
	}

	return false
}
