package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// ErrSyntax is returned when a Java source does not parse cleanly.
var ErrSyntax = errors.New("java syntax error")

const defaultParseCacheSize = 512

// JavaParser turns Java sources and snippets into syntax trees.
type JavaParser interface {
	// ParseUnit parses a compilation unit. The returned tree is owned by the caller.
	ParseUnit(ctx context.Context, path m.Path, src []byte) (*m.Unit, error)

	// ParseStatement parses a single statement.
	ParseStatement(text string) (m.Stmt, error)

	// ParseExpression parses a single expression.
	ParseExpression(text string) (m.Expr, error)

	// ParseMember parses a single class member.
	ParseMember(text string) (m.Member, error)
}

// TreeSitterJavaParser is a JavaParser backed by tree-sitter. Parsed units are
// cached by path and content hash, and every hit hands out a deep copy.
type TreeSitterJavaParser struct {
	cache *lru.Cache[string, *m.Unit]
}

// NewTreeSitterJavaParser constructs a parser with an LRU cache of the given
// size. A non-positive size selects the default.
func NewTreeSitterJavaParser(cacheSize int) *TreeSitterJavaParser {
	if cacheSize <= 0 {
		cacheSize = defaultParseCacheSize
	}

	cache, err := lru.New[string, *m.Unit](cacheSize)
	if err != nil {
		slog.Warn("parse cache disabled", "error", err)
	}

	return &TreeSitterJavaParser{cache: cache}
}

// ParseUnit parses src as the compilation unit stored at path.
func (p *TreeSitterJavaParser) ParseUnit(ctx context.Context, path m.Path, src []byte) (*m.Unit, error) {
	sum := sha256.Sum256(src)
	key := string(path) + "@" + hex.EncodeToString(sum[:])

	if p.cache != nil {
		if u, ok := p.cache.Get(key); ok {
			slog.Debug("parse cache hit", "path", path)
			return m.Clone(u), nil
		}
	}

	u, err := parseUnit(ctx, path, src)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Add(key, m.Clone(u))
	}

	return u, nil
}

// ParseStatement parses text as a statement inside a method body.
func (p *TreeSitterJavaParser) ParseStatement(text string) (m.Stmt, error) {
	body, err := templateBody(text)
	if err != nil {
		return nil, err
	}

	if len(body.Stmts) != 1 {
		return nil, fmt.Errorf("statement template %q: got %d statements: %w", text, len(body.Stmts), ErrSyntax)
	}

	s := body.Stmts[0]
	m.SetParent(s, nil)

	return s, nil
}

// ParseExpression parses text as an expression.
func (p *TreeSitterJavaParser) ParseExpression(text string) (m.Expr, error) {
	body, err := templateBody("Object __value = " + text + ";")
	if err != nil {
		return nil, err
	}

	lv, ok := body.Stmts[0].(*m.LocalVar)
	if !ok || lv.Init == nil {
		return nil, fmt.Errorf("expression template %q: %w", text, ErrSyntax)
	}

	m.SetParent(lv.Init, nil)

	return lv.Init, nil
}

// ParseMember parses text as a class member.
func (p *TreeSitterJavaParser) ParseMember(text string) (m.Member, error) {
	u, err := parseUnit(context.Background(), "template.java", []byte("class __Template {\n"+text+"\n}\n"))
	if err != nil {
		return nil, err
	}

	classes := u.Classes()
	if len(classes) != 1 || len(classes[0].Members) != 1 {
		return nil, fmt.Errorf("member template %q: %w", text, ErrSyntax)
	}

	mem := classes[0].Members[0]
	m.SetParent(mem, nil)

	return mem, nil
}

// templateBody wraps stmt in a constructor so super(...) and this(...) parse too.
func templateBody(stmt string) (*m.Block, error) {
	u, err := parseUnit(context.Background(), "template.java", []byte("class __Template {\n__Template() {\n"+stmt+"\n}\n}\n"))
	if err != nil {
		return nil, err
	}

	classes := u.Classes()
	if len(classes) != 1 || len(classes[0].Constructors()) != 1 {
		return nil, fmt.Errorf("template %q: %w", stmt, ErrSyntax)
	}

	body := classes[0].Constructors()[0].Body
	if body == nil || len(body.Stmts) == 0 {
		return nil, fmt.Errorf("template %q: empty body: %w", stmt, ErrSyntax)
	}

	return body, nil
}

func parseUnit(ctx context.Context, path m.Path, src []byte) (*m.Unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstError(root); bad != nil {
		pt := bad.StartPoint()
		return nil, fmt.Errorf("%s:%d:%d: %w", path, pt.Row+1, pt.Column+1, ErrSyntax)
	}

	c := &converter{src: src}
	u := c.unit(root)
	u.Path = path
	m.Link(u)

	return u, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if !n.HasError() {
		return nil
	}

	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}

	return n
}

// converter builds the model tree from a tree-sitter syntax tree.
type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) slice(from, to uint32) string {
	if to <= from {
		return ""
	}

	return string(c.src[from:to])
}

func (c *converter) origin(n m.Node, sn *sitter.Node) {
	b := n.Meta()
	b.Src = c.text(sn)
	pt := sn.StartPoint()
	b.Pos = m.Pos{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
	b.Indent = c.lineIndent(sn.StartByte())
}

// lineIndent returns the leading whitespace of the line holding offset.
func (c *converter) lineIndent(offset uint32) string {
	start := int(offset)
	for start > 0 && c.src[start-1] != '\n' {
		start--
	}

	end := start
	for end < len(c.src) && (c.src[end] == ' ' || c.src[end] == '\t') {
		end++
	}

	return string(c.src[start:end])
}

// place records how a list element was separated from what precedes it.
func (c *converter) place(n m.Node, prevEnd, start uint32) {
	gap := c.slice(prevEnd, start)
	b := n.Meta()
	b.SameLine = !strings.Contains(gap, "\n")
	b.BlankBefore = strings.Count(gap, "\n") >= 2
}

func (c *converter) braces(closing *sitter.Node, lastEnd uint32, children int) m.Braces {
	return m.Braces{
		CloseIndent: c.lineIndent(closing.StartByte()),
		CloseInline: !strings.Contains(c.slice(lastEnd, closing.StartByte()), "\n"),
		HadChildren: children > 0,
	}
}

func isComment(n *sitter.Node) bool {
	return n.Type() == "line_comment" || n.Type() == "block_comment"
}

func (c *converter) isDoc(n *sitter.Node) bool {
	return n.Type() == "block_comment" && strings.HasPrefix(c.text(n), "/**")
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		for _, t := range types {
			if ch.Type() == t {
				return ch
			}
		}
	}

	return nil
}

func (c *converter) unit(root *sitter.Node) *m.Unit {
	u := &m.Unit{}
	c.origin(u, root)
	u.Src = string(c.src)

	items := c.members(root, 0, func(ch *sitter.Node) m.Node {
		switch ch.Type() {
		case "package_declaration":
			if name := childOfType(ch, "scoped_identifier", "identifier"); name != nil {
				u.Package = c.text(name)
			}

			return c.opaque(ch)
		case "import_declaration":
			return c.importDecl(ch)
		}

		return c.member(ch)
	})

	for _, it := range items {
		u.Items = append(u.Items, it.node)
	}

	if len(items) == 0 {
		u.Lead = string(c.src)
		return u
	}

	u.Lead = c.slice(0, items[0].start)
	u.Trail = string(c.src[items[len(items)-1].end:])

	return u
}

type listed struct {
	node  m.Node
	start uint32
	end   uint32
}

// members converts the named children of a body, attaching javadoc comments
// to the declaration that follows them.
func (c *converter) members(body *sitter.Node, prevEnd uint32, convert func(*sitter.Node) m.Node) []listed {
	var out []listed

	count := int(body.NamedChildCount())

	for i := 0; i < count; i++ {
		ch := body.NamedChild(i)
		start := ch.StartByte()
		doc := ""

		if c.isDoc(ch) && i+1 < count {
			next := body.NamedChild(i + 1)
			if isDeclaration(next) && strings.TrimSpace(c.slice(ch.EndByte(), next.StartByte())) == "" {
				doc = c.text(ch)
				ch = next
				i++
			}
		}

		var n m.Node
		if isComment(ch) {
			n = c.opaque(ch)
		} else {
			n = convert(ch)
		}

		setDoc(n, doc)
		c.place(n, prevEnd, start)
		out = append(out, listed{node: n, start: start, end: ch.EndByte()})
		prevEnd = ch.EndByte()
	}

	return out
}

func isDeclaration(n *sitter.Node) bool {
	switch n.Type() {
	case "field_declaration", "constant_declaration", "method_declaration", "constructor_declaration",
		"class_declaration", "interface_declaration":
		return true
	}

	return false
}

func setDoc(n m.Node, doc string) {
	switch x := n.(type) {
	case *m.Field:
		x.Doc = doc
	case *m.Method:
		x.Doc = doc
	case *m.Class:
		x.Doc = doc
	}
}

func (c *converter) importDecl(n *sitter.Node) m.Node {
	imp := &m.Import{
		Static:   childOfType(n, "static") != nil,
		Wildcard: childOfType(n, "asterisk") != nil,
	}
	c.origin(imp, n)

	if name := childOfType(n, "scoped_identifier", "identifier"); name != nil {
		imp.Name = c.text(name)
	}

	return imp
}

func (c *converter) member(n *sitter.Node) m.Member {
	switch n.Type() {
	case "class_declaration", "interface_declaration":
		return c.class(n)
	case "field_declaration", "constant_declaration":
		if f := c.field(n); f != nil {
			return f
		}
	case "method_declaration", "constructor_declaration":
		return c.method(n)
	}

	return c.opaque(n)
}

func (c *converter) modifiers(owner *sitter.Node) (*m.Modifiers, uint32, bool) {
	mn := childOfType(owner, "modifiers")
	if mn == nil {
		return nil, owner.StartByte(), false
	}

	mods := &m.Modifiers{}
	c.origin(mods, mn)

	var lastAnnotationEnd uint32

	for i := 0; i < int(mn.ChildCount()); i++ {
		ch := mn.Child(i)

		switch {
		case ch.Type() == "annotation" || ch.Type() == "marker_annotation":
			mods.Annotations = append(mods.Annotations, c.annotation(ch))
			lastAnnotationEnd = ch.EndByte()
		case !ch.IsNamed():
			mods.Keywords = append(mods.Keywords, c.text(ch))
		}
	}

	next := mn.EndByte()
	for i := 0; i < int(owner.ChildCount()); i++ {
		if ch := owner.Child(i); ch.StartByte() >= mn.EndByte() && !isComment(ch) {
			next = ch.StartByte()
			break
		}
	}

	mods.Trail = c.slice(mn.EndByte(), next)

	if lastAnnotationEnd > 0 {
		after := next
		for i := 0; i < int(mn.ChildCount()); i++ {
			if ch := mn.Child(i); ch.StartByte() >= lastAnnotationEnd {
				after = ch.StartByte()
				break
			}
		}

		mods.Multiline = strings.Contains(c.slice(lastAnnotationEnd, after), "\n")
	}

	return mods, next, true
}

func (c *converter) annotation(n *sitter.Node) *m.Annotation {
	a := &m.Annotation{}
	c.origin(a, n)

	if name := n.ChildByFieldName("name"); name != nil {
		a.Name = c.text(name)
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a
	}

	a.Parens = true

	for i := 0; i < int(args.NamedChildCount()); i++ {
		ch := args.NamedChild(i)
		if isComment(ch) {
			continue
		}

		arg := &m.AnnotationArg{}
		c.origin(arg, ch)

		if ch.Type() == "element_value_pair" {
			if key := ch.ChildByFieldName("key"); key != nil {
				arg.Key = c.text(key)
			}

			if v := ch.ChildByFieldName("value"); v != nil {
				arg.Value = c.elementValue(v)
			}
		} else {
			arg.Value = c.elementValue(ch)
		}

		a.Args = append(a.Args, arg)
	}

	return a
}

func (c *converter) elementValue(n *sitter.Node) m.Expr {
	if n.Type() != "element_value_array_initializer" && n.Type() != "array_initializer" {
		return c.expr(n)
	}

	arr := &m.ArrayInit{}
	c.origin(arr, n)

	var elems []*sitter.Node

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); !isComment(ch) {
			elems = append(elems, ch)
			arr.Elems = append(arr.Elems, c.elementValue(ch))
		}
	}

	arr.ElemsFormat = c.listFormat(n, elems)

	return arr
}

// listFormat records the delimiters and separators of a parenthesized or braced list.
func (c *converter) listFormat(list *sitter.Node, items []*sitter.Node) m.ListFormat {
	if len(items) == 0 {
		text := c.text(list)
		if len(text) < 2 {
			return m.ListFormat{}
		}

		return m.ListFormat{Open: text[:len(text)-1], Close: text[len(text)-1:]}
	}

	f := m.ListFormat{
		Open:  c.slice(list.StartByte(), items[0].StartByte()),
		Close: c.slice(items[len(items)-1].EndByte(), list.EndByte()),
	}

	for i := 1; i < len(items); i++ {
		f.Seps = append(f.Seps, c.slice(items[i-1].EndByte(), items[i].StartByte()))
	}

	return f
}

func (c *converter) typeRef(n *sitter.Node) *m.TypeRef {
	if n == nil {
		return nil
	}

	t := &m.TypeRef{Text: c.text(n)}
	c.origin(t, n)

	return t
}

func (c *converter) class(n *sitter.Node) *m.Class {
	cl := &m.Class{Sort: m.ClassKindClass}
	if n.Type() == "interface_declaration" {
		cl.Sort = m.ClassKindInterface
	}

	c.origin(cl, n)

	mods, headStart, _ := c.modifiers(n)
	cl.Mods = mods

	if name := n.ChildByFieldName("name"); name != nil {
		cl.Name = c.text(name)
	}

	if sup := n.ChildByFieldName("superclass"); sup != nil && sup.NamedChildCount() > 0 {
		cl.Extends = c.typeRef(sup.NamedChild(0))
	}

	ifaces := n.ChildByFieldName("interfaces")
	if ifaces == nil {
		ifaces = childOfType(n, "extends_interfaces")
	}

	if ifaces != nil {
		if list := childOfType(ifaces, "type_list"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				cl.Implements = append(cl.Implements, c.typeRef(list.NamedChild(i)))
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return cl
	}

	cl.Header = c.slice(headStart, body.StartByte())
	c.classBody(cl, body)

	return cl
}

func (c *converter) anonymousClass(body *sitter.Node) *m.Class {
	cl := &m.Class{Sort: m.ClassKindAnonymous}
	c.origin(cl, body)
	c.classBody(cl, body)

	return cl
}

func (c *converter) classBody(cl *m.Class, body *sitter.Node) {
	open := body.Child(0)
	closing := body.Child(int(body.ChildCount()) - 1)

	items := c.members(body, open.EndByte(), func(ch *sitter.Node) m.Node { return c.member(ch) })

	lastEnd := open.EndByte()
	for _, it := range items {
		cl.Members = append(cl.Members, it.node.(m.Member))
		lastEnd = it.end
	}

	cl.Braces = c.braces(closing, lastEnd, len(items))
}

func (c *converter) field(n *sitter.Node) *m.Field {
	decls := declarators(n)
	if len(decls) != 1 || decls[0].ChildByFieldName("dimensions") != nil {
		return nil
	}

	f := &m.Field{}
	c.origin(f, n)
	f.Mods, _, _ = c.modifiers(n)
	f.Type = c.typeRef(n.ChildByFieldName("type"))

	if name := decls[0].ChildByFieldName("name"); name != nil {
		f.Name = c.text(name)
	}

	if v := decls[0].ChildByFieldName("value"); v != nil {
		f.Init = c.expr(v)
	}

	return f
}

func declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch.Type() == "variable_declarator" {
			out = append(out, ch)
		}
	}

	return out
}

func (c *converter) method(n *sitter.Node) *m.Method {
	meth := &m.Method{Ctor: n.Type() == "constructor_declaration"}
	c.origin(meth, n)

	mods, headStart, _ := c.modifiers(n)
	meth.Mods = mods

	if name := n.ChildByFieldName("name"); name != nil {
		meth.Name = c.text(name)
	}

	if !meth.Ctor {
		meth.ReturnType = c.typeRef(n.ChildByFieldName("type"))
	}

	params := n.ChildByFieldName("parameters")
	meth.Head = c.slice(headStart, params.StartByte())

	var items []*sitter.Node

	for i := 0; i < int(params.NamedChildCount()); i++ {
		ch := params.NamedChild(i)
		if ch.Type() != "formal_parameter" && ch.Type() != "spread_parameter" {
			continue
		}

		items = append(items, ch)
		meth.Params = append(meth.Params, c.param(ch))
	}

	meth.ParamsFormat = c.listFormat(params, items)

	body := n.ChildByFieldName("body")
	if body == nil {
		meth.Tail = c.slice(params.EndByte(), n.EndByte())
		return meth
	}

	meth.Tail = c.slice(params.EndByte(), body.StartByte())
	meth.Body = c.block(body)

	return meth
}

func (c *converter) param(n *sitter.Node) *m.Param {
	p := &m.Param{VarArgs: n.Type() == "spread_parameter"}
	c.origin(p, n)
	p.Mods, _, _ = c.modifiers(n)

	if t := n.ChildByFieldName("type"); t != nil {
		p.Type = c.typeRef(t)
	}

	if name := n.ChildByFieldName("name"); name != nil {
		p.Name = c.text(name)
	}

	if !p.VarArgs {
		return p
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)

		switch {
		case ch.Type() == "modifiers":
		case ch.Type() == "variable_declarator":
			if name := ch.ChildByFieldName("name"); name != nil {
				p.Name = c.text(name)
			}
		case p.Type == nil:
			p.Type = c.typeRef(ch)
		}
	}

	return p
}

func (c *converter) block(n *sitter.Node) *m.Block {
	b := &m.Block{}
	c.origin(b, n)

	open := n.Child(0)
	closing := n.Child(int(n.ChildCount()) - 1)
	prevEnd := open.EndByte()

	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)

		s := c.stmt(ch)
		c.place(s, prevEnd, ch.StartByte())
		b.Stmts = append(b.Stmts, s)
		prevEnd = ch.EndByte()
	}

	b.Braces = c.braces(closing, prevEnd, len(b.Stmts))

	return b
}

func (c *converter) stmt(n *sitter.Node) m.Stmt {
	switch n.Type() {
	case "block", "constructor_body":
		return c.block(n)
	case "expression_statement":
		if n.NamedChildCount() == 1 {
			s := &m.ExprStmt{X: c.expr(n.NamedChild(0))}
			c.origin(s, n)

			return s
		}
	case "local_variable_declaration":
		if lv := c.localVar(n); lv != nil {
			return lv
		}
	case "return_statement":
		r := &m.Return{}
		c.origin(r, n)

		if n.NamedChildCount() > 0 {
			r.X = c.expr(n.NamedChild(0))
		}

		return r
	case "explicit_constructor_invocation":
		return c.ctorCall(n)
	case "class_declaration", "interface_declaration":
		o := &m.Opaque{Frags: []m.Fragment{{Node: c.class(n)}}}
		c.origin(o, n)

		return o
	}

	return c.opaque(n)
}

func (c *converter) localVar(n *sitter.Node) *m.LocalVar {
	decls := declarators(n)
	if len(decls) != 1 || decls[0].ChildByFieldName("dimensions") != nil {
		return nil
	}

	lv := &m.LocalVar{}
	c.origin(lv, n)
	lv.Mods, _, _ = c.modifiers(n)
	lv.Type = c.typeRef(n.ChildByFieldName("type"))

	if name := decls[0].ChildByFieldName("name"); name != nil {
		lv.Name = c.text(name)
	}

	if v := decls[0].ChildByFieldName("value"); v != nil {
		lv.Init = c.expr(v)
	}

	return lv
}

func (c *converter) ctorCall(n *sitter.Node) m.Stmt {
	if n.ChildByFieldName("type_arguments") != nil {
		return c.opaque(n)
	}

	cc := &m.CtorCall{}
	c.origin(cc, n)

	if kw := n.ChildByFieldName("constructor"); kw != nil {
		cc.Keyword = c.text(kw)
	}

	if obj := n.ChildByFieldName("object"); obj != nil {
		cc.Qualifier = c.text(obj)
	}

	cc.Args, cc.ArgsFormat = c.arguments(n.ChildByFieldName("arguments"))

	return cc
}

func (c *converter) arguments(list *sitter.Node) ([]m.Expr, m.ListFormat) {
	if list == nil {
		return nil, m.ListFormat{Open: "(", Close: ")"}
	}

	var (
		args  []m.Expr
		items []*sitter.Node
	)

	for i := 0; i < int(list.NamedChildCount()); i++ {
		ch := list.NamedChild(i)
		if isComment(ch) {
			continue
		}

		items = append(items, ch)
		args = append(args, c.expr(ch))
	}

	return args, c.listFormat(list, items)
}

var literalTypes = map[string]bool{
	"decimal_integer_literal":        true,
	"hex_integer_literal":            true,
	"octal_integer_literal":          true,
	"binary_integer_literal":         true,
	"decimal_floating_point_literal": true,
	"hex_floating_point_literal":     true,
	"true":                           true,
	"false":                          true,
	"character_literal":              true,
	"string_literal":                 true,
	"text_block":                     true,
	"null_literal":                   true,
}

func (c *converter) expr(n *sitter.Node) m.Expr {
	switch t := n.Type(); {
	case t == "identifier":
		x := &m.Name{Ident: c.text(n)}
		c.origin(x, n)

		return x
	case t == "this" || t == "super":
		x := &m.This{Keyword: t}
		c.origin(x, n)

		return x
	case literalTypes[t]:
		x := &m.Literal{Text: c.text(n)}
		c.origin(x, n)

		return x
	case t == "field_access":
		if x := c.fieldAccess(n); x != nil {
			return x
		}
	case t == "method_invocation":
		if x := c.call(n); x != nil {
			return x
		}
	case t == "object_creation_expression":
		if x := c.newExpr(n); x != nil {
			return x
		}
	case t == "assignment_expression":
		x := &m.Assign{
			LHS: c.expr(n.ChildByFieldName("left")),
			Op:  c.text(n.ChildByFieldName("operator")),
			RHS: c.expr(n.ChildByFieldName("right")),
		}
		c.origin(x, n)

		return x
	case t == "class_literal":
		if n.NamedChildCount() > 0 {
			x := &m.ClassLit{Type: c.typeRef(n.NamedChild(0))}
			c.origin(x, n)

			return x
		}
	case t == "element_value_array_initializer":
		return c.elementValue(n)
	case n.NamedChildCount() == 0:
		x := &m.Literal{Text: c.text(n)}
		c.origin(x, n)

		return x
	}

	return c.opaque(n)
}

func (c *converter) fieldAccess(n *sitter.Node) m.Expr {
	field := n.ChildByFieldName("field")
	obj := n.ChildByFieldName("object")

	if field == nil || obj == nil || field.Type() != "identifier" || countType(n, "super") > boolInt(obj.Type() == "super") {
		return nil
	}

	x := &m.FieldAccess{X: c.expr(obj), Field: c.text(field)}
	c.origin(x, n)

	return x
}

func (c *converter) call(n *sitter.Node) m.Expr {
	obj := n.ChildByFieldName("object")
	if n.ChildByFieldName("type_arguments") != nil || countType(n, "super") > boolInt(obj != nil && obj.Type() == "super") {
		return nil
	}

	x := &m.Call{Name: c.text(n.ChildByFieldName("name"))}
	c.origin(x, n)

	if obj != nil {
		x.Recv = c.expr(obj)
	}

	x.Args, x.ArgsFormat = c.arguments(n.ChildByFieldName("arguments"))

	return x
}

func (c *converter) newExpr(n *sitter.Node) m.Expr {
	if n.Child(0).Type() != "new" || n.ChildByFieldName("type_arguments") != nil {
		return nil
	}

	x := &m.New{Type: c.typeRef(n.ChildByFieldName("type"))}
	c.origin(x, n)
	x.Args, x.ArgsFormat = c.arguments(n.ChildByFieldName("arguments"))

	if body := childOfType(n, "class_body"); body != nil {
		x.Body = c.anonymousClass(body)
	}

	return x
}

func countType(n *sitter.Node, t string) int {
	count := 0

	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == t {
			count++
		}
	}

	return count
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// opaque keeps n as text with its modelled descendants spliced in.
func (c *converter) opaque(n *sitter.Node) *m.Opaque {
	o := &m.Opaque{Declares: c.declares(n)}
	c.origin(o, n)

	cursor := n.StartByte()

	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)

		node := c.fragment(ch)
		if node == nil {
			continue
		}

		if ch.StartByte() > cursor {
			o.Frags = append(o.Frags, m.Fragment{Text: c.slice(cursor, ch.StartByte())})
		}

		o.Frags = append(o.Frags, m.Fragment{Node: node})
		cursor = ch.EndByte()
	}

	if n.EndByte() > cursor {
		o.Frags = append(o.Frags, m.Fragment{Text: c.slice(cursor, n.EndByte())})
	}

	return o
}

var statementTypes = map[string]bool{
	"block":                           true,
	"expression_statement":            true,
	"local_variable_declaration":      true,
	"return_statement":                true,
	"explicit_constructor_invocation": true,
	"if_statement":                    true,
	"for_statement":                   true,
	"enhanced_for_statement":          true,
	"while_statement":                 true,
	"do_statement":                    true,
	"try_statement":                   true,
	"try_with_resources_statement":    true,
	"switch_expression":               true,
	"synchronized_statement":          true,
	"throw_statement":                 true,
	"labeled_statement":               true,
}

func (c *converter) fragment(n *sitter.Node) m.Node {
	if !n.IsNamed() || isComment(n) {
		return nil
	}

	switch t := n.Type(); {
	case t == "block":
		return c.block(n)
	case t == "local_variable_declaration":
		return c.stmt(n)
	case statementTypes[t] && t != "switch_expression":
		return c.stmt(n)
	case t == "type_identifier" || t == "scoped_type_identifier" || t == "generic_type":
		return c.typeRef(n)
	case t == "class_body" || t == "modifiers":
		return nil
	case t == "identifier" || t == "this" || literalTypes[t]:
		return c.expr(n)
	case isExpression(t):
		return c.expr(n)
	case n.NamedChildCount() > 0:
		return c.opaque(n)
	}

	return nil
}

func isExpression(t string) bool {
	switch t {
	case "field_access", "method_invocation", "object_creation_expression", "assignment_expression",
		"class_literal", "binary_expression", "unary_expression", "update_expression", "cast_expression",
		"parenthesized_expression", "ternary_expression", "lambda_expression", "method_reference",
		"instanceof_expression", "array_access", "array_creation_expression", "switch_expression":
		return true
	}

	return false
}

// declares lists the local names a construct introduces for its body.
func (c *converter) declares(n *sitter.Node) []string {
	var out []string

	add := func(name *sitter.Node) {
		if name != nil {
			out = append(out, c.text(name))
		}
	}

	switch n.Type() {
	case "enhanced_for_statement":
		add(n.ChildByFieldName("name"))
	case "catch_clause":
		if p := childOfType(n, "catch_formal_parameter"); p != nil {
			add(p.ChildByFieldName("name"))
		}
	case "try_with_resources_statement":
		if spec := n.ChildByFieldName("resources"); spec != nil {
			for i := 0; i < int(spec.NamedChildCount()); i++ {
				add(spec.NamedChild(i).ChildByFieldName("name"))
			}
		}
	case "lambda_expression":
		params := n.ChildByFieldName("parameters")
		if params == nil {
			break
		}

		if params.Type() == "identifier" {
			add(params)
			break
		}

		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() == "identifier" {
				add(p)
			} else {
				add(p.ChildByFieldName("name"))
			}
		}
	}

	return out
}
