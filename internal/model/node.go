// Package model holds the syntax tree and the reporting types shared by cleanspring packages.
package model

// Kind tags every syntax node so callers can dispatch without reflection.
type Kind int

// Node kinds.
const (
	KindUnit Kind = iota
	KindImport
	KindClass
	KindModifiers
	KindAnnotation
	KindAnnotationArg
	KindField
	KindMethod
	KindParam
	KindTypeRef
	KindBlock
	KindExprStmt
	KindLocalVar
	KindReturn
	KindCtorCall
	KindOpaque
	KindName
	KindThis
	KindFieldAccess
	KindCall
	KindNew
	KindAssign
	KindLiteral
	KindClassLit
	KindArrayInit
	KindXMLDocument
	KindXMLTag
)

// Pos is a 1-based line/column position in a source file.
type Pos struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Origin records the source text a parsed node was built from.
// Synthesized nodes carry a zero Origin and are always rendered from structure.
type Origin struct {
	Src         string
	Indent      string
	Pos         Pos
	BlankBefore bool
	SameLine    bool
}

// Base is embedded by every node.
type Base struct {
	Origin

	parent Node
	dirty  bool
}

// Meta exposes the embedded Base.
func (b *Base) Meta() *Base { return b }

// Parent returns the enclosing node, or nil for a root.
func (b *Base) Parent() Node { return b.parent }

// Dirty reports whether the node or one of its descendants changed since parsing.
func (b *Base) Dirty() bool { return b.dirty }

// SetDirty sets the dirty flag of this node only.
func (b *Base) SetDirty(v bool) { b.dirty = v }

// Pristine reports whether the node can be printed from its original text.
func (b *Base) Pristine() bool { return !b.dirty && b.Src != "" }

// Node is implemented by every syntax tree variant.
type Node interface {
	Meta() *Base
	Parent() Node
	Kind() Kind
}

// Stmt is a statement variant.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression variant.
type Expr interface {
	Node
	exprNode()
}

// Member is a class body member variant.
type Member interface {
	Node
	memberNode()
}

// ListFormat keeps the original punctuation of a delimited list so an
// untouched list prints byte-for-byte and an extended one keeps its style.
type ListFormat struct {
	Open  string
	Close string
	Seps  []string
}

// Join renders items with the stored separators. Items beyond the recorded
// separators reuse the last one, or ", " when none was recorded.
func (f ListFormat) Join(items []string, open, closing string) string {
	if f.Open != "" {
		open = f.Open
	}

	if f.Close != "" {
		closing = f.Close
	}

	out := open

	for i, item := range items {
		if i > 0 {
			switch {
			case i-1 < len(f.Seps):
				out += f.Seps[i-1]
			case len(f.Seps) > 0:
				out += f.Seps[len(f.Seps)-1]
			default:
				out += ", "
			}
		}

		out += item
	}

	return out + closing
}

// Braces records how a braced body was closed in the original text.
type Braces struct {
	CloseIndent string
	CloseInline bool
	HadChildren bool
}
