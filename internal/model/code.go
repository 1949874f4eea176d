package model

// Block is a braced statement list.
type Block struct {
	Base
	Braces

	Stmts []Stmt
}

// ExprStmt is an expression followed by a semicolon.
type ExprStmt struct {
	Base

	X Expr
}

// LocalVar declares a single local variable.
type LocalVar struct {
	Base

	Mods *Modifiers
	Type *TypeRef
	Name string
	Init Expr
}

// Return is a return statement with an optional value.
type Return struct {
	Base

	X Expr
}

// CtorCall is an explicit super(...) or this(...) invocation.
type CtorCall struct {
	Base

	Qualifier  string
	Keyword    string
	Args       []Expr
	ArgsFormat ListFormat
}

// IsSuper reports whether the call targets the superclass constructor.
func (c *CtorCall) IsSuper() bool { return c.Keyword == "super" }

// Fragment is either raw text or a modelled child node.
type Fragment struct {
	Text string
	Node Node
}

// Opaque is syntax the tree does not model. Modelled children stay
// reachable through its fragments. Declares lists the local names it
// introduces (loop variables, lambda and catch parameters).
type Opaque struct {
	Base

	Frags    []Fragment
	Declares []string
}

// Name is a bare identifier use.
type Name struct {
	Base

	Ident string
}

// This is the this or super keyword used as an expression.
type This struct {
	Base

	Keyword string
}

// FieldAccess is X.Field.
type FieldAccess struct {
	Base

	X     Expr
	Field string
}

// Call is a method invocation with an optional receiver.
type Call struct {
	Base

	Recv       Expr
	Name       string
	Args       []Expr
	ArgsFormat ListFormat
}

// New is an instance creation expression; Body is set for anonymous classes.
type New struct {
	Base

	Type       *TypeRef
	Args       []Expr
	ArgsFormat ListFormat
	Body       *Class
}

// Assign covers simple and compound assignment.
type Assign struct {
	Base

	LHS Expr
	Op  string
	RHS Expr
}

// Literal is any literal, kept as text.
type Literal struct {
	Base

	Text string
}

// ClassLit is Type.class.
type ClassLit struct {
	Base

	Type *TypeRef
}

// ArrayInit is a braced element list as used in annotation values.
type ArrayInit struct {
	Base

	Elems       []Expr
	ElemsFormat ListFormat
}

func (*Block) Kind() Kind       { return KindBlock }
func (*ExprStmt) Kind() Kind    { return KindExprStmt }
func (*LocalVar) Kind() Kind    { return KindLocalVar }
func (*Return) Kind() Kind      { return KindReturn }
func (*CtorCall) Kind() Kind    { return KindCtorCall }
func (*Opaque) Kind() Kind      { return KindOpaque }
func (*Name) Kind() Kind        { return KindName }
func (*This) Kind() Kind        { return KindThis }
func (*FieldAccess) Kind() Kind { return KindFieldAccess }
func (*Call) Kind() Kind        { return KindCall }
func (*New) Kind() Kind         { return KindNew }
func (*Assign) Kind() Kind      { return KindAssign }
func (*Literal) Kind() Kind     { return KindLiteral }
func (*ClassLit) Kind() Kind    { return KindClassLit }
func (*ArrayInit) Kind() Kind   { return KindArrayInit }

func (*Block) stmtNode()    {}
func (*ExprStmt) stmtNode() {}
func (*LocalVar) stmtNode() {}
func (*Return) stmtNode()   {}
func (*CtorCall) stmtNode() {}
func (*Opaque) stmtNode()   {}

func (*Opaque) exprNode()      {}
func (*Name) exprNode()        {}
func (*This) exprNode()        {}
func (*FieldAccess) exprNode() {}
func (*Call) exprNode()        {}
func (*New) exprNode()         {}
func (*Assign) exprNode()      {}
func (*Literal) exprNode()     {}
func (*ClassLit) exprNode()    {}
func (*ArrayInit) exprNode()   {}

func (*Opaque) memberNode() {}
