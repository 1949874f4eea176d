package domain

import (
	"log/slog"

	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// rewriteNew makes one instantiation supply the new argument.
func (mg *migration) rewriteNew(n *m.New) error {
	if c, ok := mg.setterSites[n]; ok {
		return mg.mergeSetterCall(c)
	}

	if bean := program.EnclosingBeanMethod(n); bean != nil {
		name, err := mg.params.require(bean)
		if err != nil {
			return err
		}

		return contract(mg.tx.AppendArg(n, &m.Name{Ident: name}))
	}

	lit := defaultArg(mg.prop)
	mg.outcome.warn("%s: new %s receives %s for %s", describe(n), n.Type.Text, lit.Text, mg.prop.Name)

	return contract(mg.tx.AppendArg(n, lit))
}

// mergeSetterCall passes the setter argument to the constructor and moves
// the construction to where the setter call was.
func (mg *migration) mergeSetterCall(c preconditions.Construction) error {
	delete(mg.setterSites, c.New)

	if len(c.Call.Args) != 1 {
		return contract(program.ErrNotFound)
	}

	if err := mg.tx.AppendArg(c.New, m.Clone(c.Call.Args[0])); err != nil {
		return contract(err)
	}

	if err := mg.tx.Remove(c.Stmt); err != nil {
		return contract(err)
	}

	return contract(mg.tx.Replace(c.CallStmt, c.Stmt))
}

// capstone removes the injection: the field loses its markers and
// initializer and becomes final, and a migrated setter is deleted.
func (mg *migration) capstone() error {
	f := mg.prop.Field

	if mg.prop.Setter != nil {
		if err := mg.tx.Remove(mg.prop.Setter); err != nil {
			return contract(err)
		}
	}

	mg.tx.RemoveAnnotation(f, program.InjectionAnnotations...)

	if f.Init != nil {
		mg.tx.SetFieldInit(f, nil)
	}

	mg.tx.SetKeyword(f, "final", true)

	return pruneImports(mg.tx, m.EnclosingUnit(f), springImports...)
}

// threader adds a parameter to methods and makes their callers pass it:
// callers inside @Bean methods get the parameter themselves, any other
// caller passes the default value.
type threader struct {
	tx      *program.Tx
	spec    Property
	origin  m.Node
	outcome *Outcome
	names   map[*m.Method]string
}

func newThreader(tx *program.Tx, spec Property, origin m.Node, outcome *Outcome) *threader {
	return &threader{tx: tx, spec: spec, origin: origin, outcome: outcome, names: map[*m.Method]string{}}
}

// require returns the name under which meth receives the value.
func (t *threader) require(meth *m.Method) (string, error) {
	if name, ok := t.names[meth]; ok {
		return name, nil
	}

	if p := meth.Param(t.spec.Name); p != nil {
		t.names[meth] = p.Name
		return p.Name, nil
	}

	ix := t.tx.Index()
	methods := append([]*m.Method{meth}, ix.OverriddenMethods(meth)...)

	var refs []program.Reference
	for _, x := range methods {
		refs = append(refs, ix.References(x)...)
	}

	name := freeName(meth, t.spec.Name)

	for _, x := range methods {
		t.names[x] = name
		t.tx.AppendParam(x, t.spec.param(name))
		copyImports(t.tx, t.origin, t.spec, x)
	}

	slog.Debug("added method parameter", "method", meth.Name, "parameter", name, "callers", len(refs))

	for _, ref := range refs {
		call, ok := ref.Element.(*m.Call)
		if !ok || ref.Kind != program.RefCall {
			slog.Debug("skipping method reference", "kind", ref.Kind.String(), "at", describe(ref.Element))
			continue
		}

		var arg m.Expr

		if caller := program.EnclosingBeanMethod(call); caller != nil {
			argName, err := t.require(caller)
			if err != nil {
				return "", err
			}

			arg = &m.Name{Ident: argName}
		} else {
			lit := defaultArg(t.spec)
			t.outcome.warn("%s: call of %s receives %s for %s", describe(call), meth.Name, lit.Text, t.spec.Name)
			arg = lit
		}

		if err := t.tx.AppendArg(call, arg); err != nil {
			return "", contract(err)
		}
	}

	return name, nil
}
