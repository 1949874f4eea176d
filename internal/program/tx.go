package program

import (
	"errors"
	"fmt"
	"slices"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

var (
	// ErrNotFound is returned when a node is not where a primitive expects it.
	ErrNotFound = errors.New("node not found in parent")

	// ErrNoTemplates is returned when the project was built without a template parser.
	ErrNoTemplates = errors.New("no template parser configured")

	// ErrNotInBlock is returned when a statement-level rewrite targets an
	// expression that does not sit in a block.
	ErrNotInBlock = errors.New("expression is not inside a block statement")
)

// modifierRank is the conventional Java modifier order.
var modifierRank = map[string]int{
	"public": 0, "protected": 0, "private": 0,
	"abstract": 1, "static": 2, "final": 3, "transient": 4,
	"volatile": 5, "synchronized": 6, "native": 7, "strictfp": 8,
}

// Tx is a write transaction. Every primitive records how to undo itself.
type Tx struct {
	project *Project
	undo    []func()
	touched map[m.Node]bool
	files   []m.Path
}

// Index returns an index of the current (possibly already mutated) tree.
func (tx *Tx) Index() *Index {
	return tx.project.currentIndex()
}

// Mutations reports how many undo records the transaction holds.
func (tx *Tx) Mutations() int {
	return len(tx.undo)
}

func (tx *Tx) touch(n m.Node) {
	if !tx.touched[n] {
		tx.touched[n] = true
		tx.undo = append(tx.undo, m.Snapshot(n))
	}

	for x := n; x != nil; x = x.Parent() {
		tx.noteFile(x)

		b := x.Meta()
		if b.Dirty() {
			continue
		}

		b.SetDirty(true)
		tx.undo = append(tx.undo, func() { b.SetDirty(false) })
	}

	tx.project.version++
}

func (tx *Tx) noteFile(n m.Node) {
	var path m.Path

	switch x := n.(type) {
	case *m.Unit:
		path = x.Path
	case *m.XMLDocument:
		path = x.Path
	default:
		return
	}

	if !slices.Contains(tx.files, path) {
		tx.files = append(tx.files, path)
	}
}

// Files lists the files the transaction changed, in the order they were first touched.
func (tx *Tx) Files() []m.Path {
	return slices.Clone(tx.files)
}

// relayout changes how n is separated from its previous sibling. The node
// itself stays pristine; only its container is re-rendered.
func (tx *Tx) relayout(n m.Node, blank, sameLine bool) {
	b := n.Meta()
	prev := b.Origin
	tx.undo = append(tx.undo, func() { b.Origin = prev })
	b.BlankBefore, b.SameLine = blank, sameLine
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}

	tx.undo = nil
	tx.project.version++
}

// InsertStmt inserts s at position i of b.
func (tx *Tx) InsertStmt(b *m.Block, i int, s m.Stmt) {
	tx.touch(b)
	b.Stmts = slices.Insert(b.Stmts, i, s)
	m.SetParent(s, b)
}

// AppendStmt adds s at the end of b.
func (tx *Tx) AppendStmt(b *m.Block, s m.Stmt) {
	tx.InsertStmt(b, len(b.Stmts), s)
}

// Remove detaches n from its parent list.
func (tx *Tx) Remove(n m.Node) error {
	parent := n.Parent()
	if parent == nil {
		return fmt.Errorf("remove %T: %w", n, ErrNotFound)
	}

	tx.touch(parent)

	at, next := siblingAfter(parent, n)

	if !m.RemoveChild(parent, n) {
		return fmt.Errorf("remove %T from %T: %w", n, parent, ErrNotFound)
	}

	// The separator before n now belongs to the element that moves up.
	if next != nil {
		gone, kept := n.Meta().Origin, next.Meta().Origin
		if at == 0 {
			tx.relayout(next, gone.BlankBefore, gone.SameLine)
		} else if gone.BlankBefore && !kept.BlankBefore {
			tx.relayout(next, true, kept.SameLine)
		}
	}

	m.SetParent(n, nil)

	return nil
}

// siblingAfter returns the position of n in a line-separated list of parent
// and the element following it.
func siblingAfter(parent, n m.Node) (int, m.Node) {
	var list []m.Node

	switch x := parent.(type) {
	case *m.Unit:
		list = x.Items
	case *m.Class:
		for _, mem := range x.Members {
			list = append(list, mem)
		}
	case *m.Block:
		for _, st := range x.Stmts {
			list = append(list, st)
		}
	default:
		return -1, nil
	}

	i := slices.Index(list, n)
	if i < 0 || i+1 >= len(list) {
		return i, nil
	}

	return i, list[i+1]
}

// Replace puts repl where old is. Statements keep the layout of the one they replace.
func (tx *Tx) Replace(old, repl m.Node) error {
	parent := old.Parent()
	if parent == nil {
		return fmt.Errorf("replace %T: %w", old, ErrNotFound)
	}

	tx.touch(parent)

	if _, ok := old.(m.Stmt); ok {
		o := old.Meta()
		tx.relayout(repl, o.BlankBefore, o.SameLine)
	}

	if !m.ReplaceChild(parent, old, repl) {
		return fmt.Errorf("replace %T in %T: %w", old, parent, ErrNotFound)
	}

	m.SetParent(old, nil)

	return nil
}

// AppendArg adds an argument to a new expression, call or constructor call.
func (tx *Tx) AppendArg(target m.Node, arg m.Expr) error {
	switch x := target.(type) {
	case *m.New:
		tx.touch(x)
		x.Args = append(x.Args, arg)
	case *m.Call:
		tx.touch(x)
		x.Args = append(x.Args, arg)
	case *m.CtorCall:
		tx.touch(x)
		x.Args = append(x.Args, arg)
	default:
		return fmt.Errorf("append argument to %T: %w", target, ErrNotFound)
	}

	m.SetParent(arg, target)

	return nil
}

// AppendParam adds p at the end of the parameter list of meth.
func (tx *Tx) AppendParam(meth *m.Method, p *m.Param) {
	tx.touch(meth)
	meth.Params = append(meth.Params, p)
	m.SetParent(p, meth)
}

// InsertMember inserts mem at position i of the class body.
func (tx *Tx) InsertMember(c *m.Class, i int, mem m.Member) {
	tx.touch(c)
	c.Members = slices.Insert(c.Members, i, mem)
	m.SetParent(mem, c)
}

// Modifiers returns the modifier list of a declaration, creating an empty one if needed.
func (tx *Tx) Modifiers(decl m.Node) *m.Modifiers {
	slot := modifierSlot(decl)
	if slot == nil {
		return nil
	}

	if *slot == nil {
		tx.touch(decl)
		*slot = &m.Modifiers{}
		m.SetParent(*slot, decl)
	}

	return *slot
}

func modifierSlot(decl m.Node) **m.Modifiers {
	switch x := decl.(type) {
	case *m.Class:
		return &x.Mods
	case *m.Field:
		return &x.Mods
	case *m.Method:
		return &x.Mods
	case *m.Param:
		return &x.Mods
	case *m.LocalVar:
		return &x.Mods
	}

	return nil
}

// AddAnnotation appends a to the modifiers of decl.
func (tx *Tx) AddAnnotation(decl m.Node, a *m.Annotation) {
	mods := tx.Modifiers(decl)
	tx.touch(mods)
	mods.Annotations = append(mods.Annotations, a)
	m.SetParent(a, mods)
}

// RemoveAnnotation drops every annotation of decl with one of the given simple names.
// It reports how many were removed.
func (tx *Tx) RemoveAnnotation(decl m.Node, names ...string) int {
	slot := modifierSlot(decl)
	if slot == nil || *slot == nil {
		return 0
	}

	removed := 0

	for _, a := range slices.Clone((*slot).Annotations) {
		if slices.Contains(names, a.SimpleName()) {
			tx.touch(*slot)
			m.RemoveChild(*slot, a)
			m.SetParent(a, nil)

			removed++
		}
	}

	return removed
}

// SetKeyword adds or removes a modifier keyword, keeping the conventional order.
func (tx *Tx) SetKeyword(decl m.Node, keyword string, present bool) {
	if slot := modifierSlot(decl); !present && (slot == nil || *slot == nil) {
		return
	}

	mods := tx.Modifiers(decl)
	if mods == nil || mods.Has(keyword) == present {
		return
	}

	tx.touch(mods)

	if !present {
		mods.Keywords = slices.DeleteFunc(mods.Keywords, func(k string) bool { return k == keyword })
		return
	}

	at := len(mods.Keywords)

	for i, k := range mods.Keywords {
		if rank, ok := modifierRank[k]; ok && rank > modifierRank[keyword] {
			at = i
			break
		}
	}

	mods.Keywords = slices.Insert(mods.Keywords, at, keyword)
}

// SetFieldInit replaces or (with nil) deletes the initializer of f.
func (tx *Tx) SetFieldInit(f *m.Field, init m.Expr) {
	tx.touch(f)
	f.Init = init

	if init != nil {
		m.SetParent(init, f)
	}
}

// SetAnnotationValue sets the argument stored under key.
func (tx *Tx) SetAnnotationValue(a *m.Annotation, key string, value m.Expr) {
	tx.touch(a)
	a.Parens = true

	if arg, ok := a.Value(key); ok {
		tx.touch(arg)
		arg.Value = value
		m.SetParent(value, arg)

		return
	}

	k := key
	if key == "value" && len(a.Args) == 0 {
		k = ""
	}

	arg := &m.AnnotationArg{Key: k, Value: value}
	m.SetParent(value, arg)
	a.Args = append(a.Args, arg)
	m.SetParent(arg, a)
}

// AppendElement adds e to an annotation array value.
func (tx *Tx) AppendElement(arr *m.ArrayInit, e m.Expr) {
	tx.touch(arr)
	arr.Elems = append(arr.Elems, e)
	m.SetParent(e, arr)
}

// AddImport adds a single-type import unless the unit already has it.
func (tx *Tx) AddImport(u *m.Unit, name string) {
	at := -1
	afterPackage := -1

	for i, item := range u.Items {
		switch x := item.(type) {
		case *m.Import:
			if x.Name == name && !x.Static {
				return
			}

			at = i + 1
		case *m.Opaque:
			if afterPackage < 0 && u.Package != "" && opaqueStartsWith(x, "package") {
				afterPackage = i + 1
			}
		}
	}

	imp := &m.Import{Name: name}

	if at < 0 {
		at = max(afterPackage, 0)
		imp.BlankBefore = afterPackage >= 0
	}

	tx.touch(u)
	u.Items = slices.Insert(u.Items, at, m.Node(imp))
	m.SetParent(imp, u)

	if at+1 < len(u.Items) && (imp.BlankBefore || at == 0) {
		tx.relayout(u.Items[at+1], true, false)
	}
}

func opaqueStartsWith(o *m.Opaque, prefix string) bool {
	if len(o.Frags) == 0 {
		return false
	}

	text := o.Frags[0].Text

	return len(text) >= len(prefix) && text[:len(prefix)] == prefix
}

// RemoveImport deletes an import declaration.
func (tx *Tx) RemoveImport(imp *m.Import) error {
	return tx.Remove(imp)
}

// RenameTag renames an XML element.
func (tx *Tx) RenameTag(tag *m.XMLTag, name string) {
	tx.touch(tag)
	tag.Name = name
}

// Statement parses text into a detached statement.
func (tx *Tx) Statement(text string) (m.Stmt, error) {
	if tx.project.templates == nil {
		return nil, ErrNoTemplates
	}

	s, err := tx.project.templates.ParseStatement(text)
	if err != nil {
		return nil, fmt.Errorf("statement template %q: %w", text, err)
	}

	m.Strip(s)

	return s, nil
}

// Expression parses text into a detached expression.
func (tx *Tx) Expression(text string) (m.Expr, error) {
	if tx.project.templates == nil {
		return nil, ErrNoTemplates
	}

	e, err := tx.project.templates.ParseExpression(text)
	if err != nil {
		return nil, fmt.Errorf("expression template %q: %w", text, err)
	}

	m.Strip(e)

	return e, nil
}

// Member parses text into a detached class member.
func (tx *Tx) Member(text string) (m.Member, error) {
	if tx.project.templates == nil {
		return nil, ErrNoTemplates
	}

	mem, err := tx.project.templates.ParseMember(text)
	if err != nil {
		return nil, fmt.Errorf("member template %q: %w", text, err)
	}

	m.Strip(mem)

	return mem, nil
}
