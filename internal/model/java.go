package model

import "strings"

// ClassKind distinguishes class-like declarations.
type ClassKind int

// Class kinds.
const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindAnonymous
)

// Unit is a parsed Java compilation unit.
type Unit struct {
	Base

	Path    Path
	Package string
	Items   []Node
	Lead    string
	Trail   string
}

// Import is a single import declaration.
type Import struct {
	Base

	Name     string
	Static   bool
	Wildcard bool
}

// Class is a class, interface or anonymous class body.
type Class struct {
	Base
	Braces

	Sort       ClassKind
	Name       string
	Doc        string
	Mods       *Modifiers
	Header     string
	Extends    *TypeRef
	Implements []*TypeRef
	Members    []Member
}

// Modifiers holds the annotations and keywords of a declaration.
type Modifiers struct {
	Base

	Annotations []*Annotation
	Keywords    []string
	Trail       string
	Multiline   bool
}

// Annotation is a single annotation use such as @Qualifier("x").
type Annotation struct {
	Base

	Name   string
	Args   []*AnnotationArg
	Parens bool
}

// AnnotationArg is one element of an annotation argument list. Key is empty
// for the single-value shorthand.
type AnnotationArg struct {
	Base

	Key   string
	Value Expr
}

// Field is a single-variable field declaration.
type Field struct {
	Base

	Doc  string
	Mods *Modifiers
	Type *TypeRef
	Name string
	Init Expr
}

// Method is a method or constructor declaration. Head is the text between
// the modifiers and the parameter list, Tail the text between the parameter
// list and the body.
type Method struct {
	Base

	Doc          string
	Mods         *Modifiers
	Ctor         bool
	Name         string
	ReturnType   *TypeRef
	Head         string
	Params       []*Param
	ParamsFormat ListFormat
	Tail         string
	Body         *Block
}

// Param is a formal parameter.
type Param struct {
	Base

	Mods    *Modifiers
	Type    *TypeRef
	Name    string
	VarArgs bool
}

// TypeRef is a type use, kept as text.
type TypeRef struct {
	Base

	Text string
}

// SimpleName strips generics, array brackets and qualifiers.
func (t *TypeRef) SimpleName() string {
	if t == nil {
		return ""
	}

	return SimpleTypeName(t.Text)
}

// SimpleTypeName strips generics, array brackets and qualifiers from a type text.
func SimpleTypeName(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "...")
	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}

	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimSpace(s)
}

// RawTypeName strips generics and array brackets but keeps qualifiers.
func RawTypeName(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}

	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}

	return strings.ReplaceAll(s, " ", "")
}

// SimpleName returns the annotation name without its package qualifier.
func (a *Annotation) SimpleName() string {
	if i := strings.LastIndexByte(a.Name, '.'); i >= 0 {
		return a.Name[i+1:]
	}

	return a.Name
}

// Find returns the first annotation with the given simple name.
func (m *Modifiers) Find(name string) *Annotation {
	if m == nil {
		return nil
	}

	for _, a := range m.Annotations {
		if a.SimpleName() == name {
			return a
		}
	}

	return nil
}

// Has reports whether a keyword such as "final" is present.
func (m *Modifiers) Has(keyword string) bool {
	if m == nil {
		return false
	}

	for _, k := range m.Keywords {
		if k == keyword {
			return true
		}
	}

	return false
}

// Value returns the argument stored under key; "value" also matches the shorthand form.
func (a *Annotation) Value(key string) (*AnnotationArg, bool) {
	for _, arg := range a.Args {
		if arg.Key == key || (arg.Key == "" && key == "value") {
			return arg, true
		}
	}

	return nil, false
}

// Constructors returns the declared constructors of c.
func (c *Class) Constructors() []*Method {
	var out []*Method

	for _, member := range c.Members {
		if m, ok := member.(*Method); ok && m.Ctor {
			out = append(out, m)
		}
	}

	return out
}

// Methods returns the non-constructor methods declared by c.
func (c *Class) Methods() []*Method {
	var out []*Method

	for _, member := range c.Members {
		if m, ok := member.(*Method); ok && !m.Ctor {
			out = append(out, m)
		}
	}

	return out
}

// Field returns the field declared by c under name.
func (c *Class) Field(name string) *Field {
	for _, member := range c.Members {
		if f, ok := member.(*Field); ok && f.Name == name {
			return f
		}
	}

	return nil
}

// Fields returns the fields declared by c.
func (c *Class) Fields() []*Field {
	var out []*Field

	for _, member := range c.Members {
		if f, ok := member.(*Field); ok {
			out = append(out, f)
		}
	}

	return out
}

// Param returns the parameter named name.
func (m *Method) Param(name string) *Param {
	for _, p := range m.Params {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// IsVoid reports whether the method returns void.
func (m *Method) IsVoid() bool {
	return m.ReturnType != nil && strings.TrimSpace(m.ReturnType.Text) == "void"
}

// Imports returns the import declarations of u in order.
func (u *Unit) Imports() []*Import {
	var out []*Import

	for _, item := range u.Items {
		if imp, ok := item.(*Import); ok {
			out = append(out, imp)
		}
	}

	return out
}

// Classes returns the top-level classes of u.
func (u *Unit) Classes() []*Class {
	var out []*Class

	for _, item := range u.Items {
		if c, ok := item.(*Class); ok {
			out = append(out, c)
		}
	}

	return out
}

func (*Unit) Kind() Kind          { return KindUnit }
func (*Import) Kind() Kind        { return KindImport }
func (*Class) Kind() Kind         { return KindClass }
func (*Modifiers) Kind() Kind     { return KindModifiers }
func (*Annotation) Kind() Kind    { return KindAnnotation }
func (*AnnotationArg) Kind() Kind { return KindAnnotationArg }
func (*Field) Kind() Kind         { return KindField }
func (*Method) Kind() Kind        { return KindMethod }
func (*Param) Kind() Kind         { return KindParam }
func (*TypeRef) Kind() Kind       { return KindTypeRef }

func (*Class) memberNode()  {}
func (*Field) memberNode()  {}
func (*Method) memberNode() {}
