package preconditions

import (
	"slices"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Construction describes the statement that built the receiver of a setter call.
type Construction struct {
	// Receiver is the *m.LocalVar or *m.Field the call is made on.
	Receiver m.Node
	// New is the instance creation expression assigned to the receiver.
	New *m.New
	// Stmt is the declaration or assignment statement holding New.
	Stmt m.Stmt
	// Call is the setter call and CallStmt its expression statement.
	Call     *m.Call
	CallStmt *m.ExprStmt
	// Block contains both statements.
	Block *m.Block
}

func setterCallsOrdered(ix *program.Index, setter *m.Method, allowSole bool) bool {
	for _, ref := range ix.References(setter) {
		switch ref.Kind {
		case program.RefXMLProperty:
		case program.RefCall:
			if _, ok := FindConstruction(ix, setter, ref.Element.(*m.Call), allowSole); !ok {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// FindConstruction matches a call of setter made right after its receiver
// was built with new. The receiver is a local variable initialized by new, or
// a field whose sole assignment is new in the same block; with allowSole a
// local assigned exactly once from new also qualifies. Within the block, the
// first statement referencing the receiver apart from the construction must
// be the setter call itself.
func FindConstruction(ix *program.Index, setter *m.Method, call *m.Call, allowSole bool) (Construction, bool) {
	stmt, block := m.EnclosingStatement(call)

	callStmt, ok := stmt.(*m.ExprStmt)
	if !ok || callStmt.X != m.Expr(call) {
		return Construction{}, false
	}

	var c Construction

	switch d := receiverDecl(ix, call).(type) {
	case *m.LocalVar:
		c, ok = localConstruction(ix, d, allowSole)
	case *m.Field:
		c, ok = assignedConstruction(ix, d)
	default:
		return Construction{}, false
	}

	if !ok || c.Block != block {
		return Construction{}, false
	}

	c.Call, c.CallStmt = call, callStmt

	if !constructsOwner(ix, c.New, m.EnclosingClass(setter)) {
		return Construction{}, false
	}

	built := slices.Index(block.Stmts, c.Stmt)
	if built < 0 || built >= slices.Index(block.Stmts, m.Stmt(callStmt)) {
		return Construction{}, false
	}

	if firstReference(ix, c.Receiver, block, c.Stmt) != m.Stmt(callStmt) {
		return Construction{}, false
	}

	return c, true
}

func receiverDecl(ix *program.Index, call *m.Call) m.Node {
	switch r := call.Recv.(type) {
	case *m.Name:
		return ix.Resolve(r)
	case *m.FieldAccess:
		if this, ok := r.X.(*m.This); ok && this.Keyword == "this" {
			return ix.Resolve(r)
		}
	}

	return nil
}

func localConstruction(ix *program.Index, lv *m.LocalVar, allowSole bool) (Construction, bool) {
	if n, ok := lv.Init.(*m.New); ok {
		block, ok := lv.Parent().(*m.Block)
		return Construction{Receiver: lv, New: n, Stmt: lv, Block: block}, ok
	}

	if lv.Init != nil || !allowSole {
		return Construction{}, false
	}

	return assignedConstruction(ix, lv)
}

func assignedConstruction(ix *program.Index, decl m.Node) (Construction, bool) {
	a, ok := ix.SoleAssignment(decl)
	if !ok || a.Op != "=" {
		return Construction{}, false
	}

	n, ok := a.RHS.(*m.New)
	if !ok {
		return Construction{}, false
	}

	stmt, ok := a.Parent().(*m.ExprStmt)
	if !ok {
		return Construction{}, false
	}

	block, ok := stmt.Parent().(*m.Block)

	return Construction{Receiver: decl, New: n, Stmt: stmt, Block: block}, ok
}

func constructsOwner(ix *program.Index, n *m.New, owner *m.Class) bool {
	built := ix.ResolveType(n.Type)
	if built == nil || owner == nil {
		return false
	}

	return built == owner || slices.Contains(ix.Ancestors(built), owner)
}

// firstReference returns the first statement of block, other than skip, that
// references decl.
func firstReference(ix *program.Index, decl m.Node, block *m.Block, skip m.Stmt) m.Stmt {
	referencing := map[m.Stmt]bool{}

	for _, ref := range ix.References(decl) {
		if s := m.TopStatementIn(ref.Element, block); s != nil && s != skip {
			referencing[s] = true
		}
	}

	for _, s := range block.Stmts {
		if referencing[s] {
			return s
		}
	}

	return nil
}
