package domain

import (
	"fmt"
	"log/slog"
	"strings"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// beanShape is a @Bean method that only forwards its parameters to a constructor.
type beanShape struct {
	New   *m.New
	Class *m.Class
}

func simpleBeanShape(ix *program.Index, meth *m.Method) (beanShape, bool) {
	if meth.Mods == nil || len(meth.Mods.Annotations) != 1 {
		return beanShape{}, false
	}

	if a := meth.Mods.Annotations[0]; a.SimpleName() != program.AnnotationBean || len(a.Args) > 0 {
		return beanShape{}, false
	}

	n := returnedNew(meth)
	if n == nil || n.Body != nil || len(n.Args) != len(meth.Params) {
		return beanShape{}, false
	}

	for _, arg := range n.Args {
		if _, ok := arg.(*m.Name); !ok {
			return beanShape{}, false
		}
	}

	c := ix.ResolveType(n.Type)
	if c == nil || c.Sort != m.ClassKindClass || len(c.Constructors()) > 1 {
		return beanShape{}, false
	}

	return beanShape{New: n, Class: c}, true
}

// returnedNew matches `return new X(...);` and `X x = new X(...); return x;`.
func returnedNew(meth *m.Method) *m.New {
	if meth.Body == nil {
		return nil
	}

	switch stmts := meth.Body.Stmts; len(stmts) {
	case 1:
		if ret, ok := stmts[0].(*m.Return); ok {
			n, _ := ret.X.(*m.New)
			return n
		}
	case 2:
		lv, ok := stmts[0].(*m.LocalVar)
		if !ok {
			return nil
		}

		ret, ok := stmts[1].(*m.Return)
		if !ok {
			return nil
		}

		if name, ok := ret.X.(*m.Name); ok && name.Ident == lv.Name {
			n, _ := lv.Init.(*m.New)
			return n
		}
	}

	return nil
}

// simplifyBeanFix registers the bean class through @Import and deletes the
// factory method, turning its calls into method parameters.
type simplifyBeanFix struct {
	method *m.Method
}

func (simplifyBeanFix) Name() string { return "Replace @Bean method with @Import" }

func (f simplifyBeanFix) Apply(tx *program.Tx) (Outcome, error) {
	outcome := newOutcome()
	ix := tx.Index()
	meth := f.method

	shape, ok := simpleBeanShape(ix, meth)
	if !ok {
		return *outcome, fmt.Errorf("@Bean method %s changed shape: %w", meth.Name, ErrContractViolation)
	}

	config := m.EnclosingClass(meth)
	refs := ix.References(meth)

	if shape.Class.Mods.Has("private") && m.EnclosingClass(shape.Class) == config {
		tx.SetKeyword(shape.Class, "private", false)
	}

	importClass(tx, ix, config, shape.Class)

	spec := Property{
		Name: program.Uncapitalize(meth.ReturnType.SimpleName()),
		Type: meth.ReturnType,
	}
	params := newThreader(tx, spec, meth, outcome)

	for _, ref := range refs {
		if err := replaceCall(tx, params, ref); err != nil {
			return *outcome, err
		}
	}

	if err := tx.Remove(meth); err != nil {
		return *outcome, contract(err)
	}

	slog.Info("replaced @Bean method with @Import", "method", meth.Name, "class", shape.Class.Name)

	return *outcome, nil
}

func replaceCall(tx *program.Tx, params *threader, ref program.Reference) error {
	call, ok := ref.Element.(*m.Call)
	if !ok || ref.Kind != program.RefCall {
		return fmt.Errorf("%s reference at %s: %w", ref.Kind, describe(ref.Element), ErrContractViolation)
	}

	caller := m.EnclosingMethod(call)
	if caller == nil || caller.Ctor {
		return fmt.Errorf("call at %s outside a method: %w", describe(call), ErrContractViolation)
	}

	name, err := params.require(caller)
	if err != nil {
		return err
	}

	if stmt, ok := call.Parent().(*m.ExprStmt); ok {
		return contract(tx.Remove(stmt))
	}

	return contract(tx.Replace(call, &m.Name{Ident: name}))
}

// importClass adds X.class to the @Import of config, creating the
// annotation or turning a single value into an array as needed.
func importClass(tx *program.Tx, ix *program.Index, config, c *m.Class) {
	lit := &m.ClassLit{Type: &m.TypeRef{Text: nestedName(c)}}
	m.Link(lit)

	u := m.EnclosingUnit(config)

	existing := config.Mods.Find(program.AnnotationImport)
	if existing == nil {
		a := &m.Annotation{Name: program.AnnotationImport}
		tx.SetAnnotationValue(a, "value", lit)

		fresh := config.Mods == nil
		tx.AddAnnotation(config, a)

		if fresh || len(config.Mods.Annotations) > 1 {
			config.Mods.Multiline = true
		}

		tx.AddImport(u, program.FQNImport)
	} else {
		arg, ok := existing.Value("value")

		switch v := valueOf(arg, ok).(type) {
		case nil:
			tx.SetAnnotationValue(existing, "value", lit)
		case *m.ArrayInit:
			tx.AppendElement(v, lit)
		default:
			arr := &m.ArrayInit{Elems: []m.Expr{m.Clone(v), lit}}
			m.Link(arr)
			tx.SetAnnotationValue(existing, "value", arr)
		}
	}

	top := c
	for outer := m.EnclosingClass(top); outer != nil; outer = m.EnclosingClass(outer) {
		top = outer
	}

	if fqn := ix.FQN(top); u != nil && fqn != "" && packageOf(fqn, top.Name) != u.Package {
		tx.AddImport(u, fqn)
	}
}

func valueOf(arg *m.AnnotationArg, ok bool) m.Expr {
	if !ok {
		return nil
	}

	return arg.Value
}

// nestedName qualifies a nested class by its enclosing classes, e.g. Outer.Inner.
func nestedName(c *m.Class) string {
	parts := []string{c.Name}
	for outer := m.EnclosingClass(c); outer != nil; outer = m.EnclosingClass(outer) {
		parts = append([]string{outer.Name}, parts...)
	}

	return strings.Join(parts, ".")
}
