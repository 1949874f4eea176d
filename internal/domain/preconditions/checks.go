package preconditions

import (
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

const testNGContextBase = "AbstractTestNGSpringContextTests"

func setterNameCheck(_ *program.Index, t Target) bool {
	return program.IsSetterName(t.Setter.Name)
}

func setterSignature(_ *program.Index, t Target) bool {
	s := t.Setter
	return len(s.Params) == 1 && !s.Params[0].VarArgs && s.IsVoid()
}

func setterAutowired(_ *program.Index, t Target) bool {
	return t.Setter.Mods.Find(program.AnnotationAutowired) != nil
}

func setterAssignsField(_ *program.Index, t Target) bool {
	return t.Field != nil
}

func fieldInjected(_ *program.Index, t Target) bool {
	return program.IsInjected(t.Field.Mods)
}

func notAnonymous(_ *program.Index, t Target) bool {
	return t.Class.Sort != m.ClassKindAnonymous
}

func singleConstructor(_ *program.Index, t Target) bool {
	ctors := t.Class.Constructors()

	switch len(ctors) {
	case 0:
		return true
	case 1:
		params := ctors[0].Params
		return len(params) == 0 || !params[len(params)-1].VarArgs
	}

	return false
}

func lineage(ix *program.Index, c *m.Class) []*m.Class {
	return append([]*m.Class{c}, ix.Ancestors(c)...)
}

func notTestContext(ix *program.Index, t Target) bool {
	for _, c := range lineage(ix, t.Class) {
		if c.Mods.Find(program.AnnotationContextConfiguration) != nil {
			return false
		}
	}

	return true
}

// The TestNG base class lives outside the project, so only the extends
// clauses along the resolved chain can name it.
func notTestNGContext(ix *program.Index, t Target) bool {
	for _, c := range lineage(ix, t.Class) {
		if c.Extends != nil && c.Extends.SimpleName() == testNGContextBase {
			return false
		}
	}

	return true
}

func noAssignments(ix *program.Index, t Target) bool {
	return len(ix.Assignments(t.Field)) == 0
}

func soleAssignment(ix *program.Index, t Target) bool {
	if t.Field == nil {
		return false
	}

	_, ok := ix.SoleAssignment(t.Field)

	return ok
}

func noShadowing(ix *program.Index, t Target) bool {
	if t.Field == nil {
		return false
	}

	owner := m.EnclosingClass(t.Field)

	for _, c := range append(ix.Ancestors(owner), ix.Descendants(owner)...) {
		if c.Field(t.Field.Name) != nil {
			return false
		}
	}

	return true
}

func notEntityListener(ix *program.Index, t Target) bool {
	listed := false

	for _, u := range ix.Units() {
		m.Walk(u, func(n m.Node) bool {
			if listed {
				return false
			}

			a, ok := n.(*m.Annotation)
			if !ok {
				return true
			}

			if a.SimpleName() == program.AnnotationEntityListeners {
				m.Walk(a, func(x m.Node) bool {
					if lit, ok := x.(*m.ClassLit); ok && ix.ResolveType(lit.Type) == t.Class {
						listed = true
					}

					return !listed
				})
			}

			return false
		})
	}

	return !listed
}

func notServlet(ix *program.Index, t Target) bool {
	for _, d := range ix.Documents() {
		servlet := false

		m.Walk(d, func(n m.Node) bool {
			if tag, ok := n.(*m.XMLTag); ok && tag.LocalName() == "servlet-class" && ix.Resolve(tag) == m.Node(t.Class) {
				servlet = true
			}

			return !servlet
		})

		if servlet {
			return false
		}
	}

	return true
}

func noXMLUsage(ix *program.Index, t Target) bool {
	for _, ref := range ix.References(t.Setter) {
		if ref.Kind == program.RefXMLProperty {
			return false
		}
	}

	return true
}

func callsAfterConstruction(ix *program.Index, t Target) bool {
	return setterCallsOrdered(ix, t.Setter, false)
}

func callsAfterConstructionOrSole(ix *program.Index, t Target) bool {
	return setterCallsOrdered(ix, t.Setter, true)
}

// noCalledBeanUsage rejects classes instantiated inside a @Bean method that
// other code calls directly: such instances bypass the container.
func noCalledBeanUsage(ix *program.Index, t Target) bool {
	var target m.Node = t.Class
	if ctors := t.Class.Constructors(); len(ctors) == 1 {
		target = ctors[0]
	}

	for _, ref := range ix.References(target) {
		if ref.Kind != program.RefNew {
			continue
		}

		if bean := program.EnclosingBeanMethod(ref.Element); bean != nil && IsCalled(ix, bean) {
			return false
		}
	}

	return true
}

// IsCalled reports whether some code invokes meth directly.
func IsCalled(ix *program.Index, meth *m.Method) bool {
	for _, ref := range ix.References(meth) {
		if ref.Kind == program.RefCall {
			return true
		}
	}

	return false
}
