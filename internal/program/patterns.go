package program

import (
	"strings"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// Spring and Jakarta annotation simple names the rewriters understand.
const (
	AnnotationAutowired            = "Autowired"
	AnnotationValue                = "Value"
	AnnotationQualifier            = "Qualifier"
	AnnotationBean                 = "Bean"
	AnnotationImport               = "Import"
	AnnotationContextConfiguration = "ContextConfiguration"
	AnnotationEntityListeners      = "EntityListeners"
)

// Fully qualified names used when imports have to be added or pruned.
const (
	FQNAutowired = "org.springframework.beans.factory.annotation.Autowired"
	FQNValue     = "org.springframework.beans.factory.annotation.Value"
	FQNQualifier = "org.springframework.beans.factory.annotation.Qualifier"
	FQNImport    = "org.springframework.context.annotation.Import"
)

// InjectionAnnotations are the markers removed from a migrated declaration.
var InjectionAnnotations = []string{AnnotationAutowired, AnnotationValue, AnnotationQualifier}

// IsInjected reports whether the modifiers carry @Autowired or @Value.
func IsInjected(mods *m.Modifiers) bool {
	return mods.Find(AnnotationAutowired) != nil || mods.Find(AnnotationValue) != nil
}

// IsBeanMethod reports whether meth is a @Bean factory method.
func IsBeanMethod(meth *m.Method) bool {
	return meth != nil && !meth.Ctor && meth.Mods.Find(AnnotationBean) != nil
}

// EnclosingBeanMethod returns the @Bean method around n, if any.
func EnclosingBeanMethod(n m.Node) *m.Method {
	meth := m.EnclosingMethod(n)
	if IsBeanMethod(meth) {
		return meth
	}

	return nil
}

// ForwardedAnnotations returns clones of the annotations that qualify an
// injected value (@Qualifier and @Value), ready to be put on a parameter.
func ForwardedAnnotations(mods *m.Modifiers) []*m.Annotation {
	var out []*m.Annotation

	for _, name := range []string{AnnotationQualifier, AnnotationValue} {
		if a := mods.Find(name); a != nil {
			out = append(out, m.Clone(a))
		}
	}

	return out
}

// IsAssignmentTarget reports whether the use is the left side of an assignment.
func IsAssignmentTarget(use m.Node) bool {
	a, ok := use.Parent().(*m.Assign)
	return ok && a.LHS == use
}

// Assignments returns the assignment expressions writing decl.
func (ix *Index) Assignments(decl m.Node) []*m.Assign {
	var out []*m.Assign

	for _, ref := range ix.References(decl) {
		if IsAssignmentTarget(ref.Element) {
			out = append(out, ref.Element.Parent().(*m.Assign))
		}
	}

	return out
}

// SoleAssignment returns the only assignment of decl, if there is exactly one.
func (ix *Index) SoleAssignment(decl m.Node) (*m.Assign, bool) {
	as := ix.Assignments(decl)
	if len(as) != 1 {
		return nil, false
	}

	return as[0], true
}

// IsSetterName reports whether name looks like set<Something>.
func IsSetterName(name string) bool {
	return strings.HasPrefix(name, "set") && len(name) > len("set") && !strings.ContainsAny(name, " \t\n")
}

// SetterAssignment matches a setter body made of the single statement
// `this.f = param;` (or `f = param;`) and returns the assigned field.
func (ix *Index) SetterAssignment(setter *m.Method) (*m.Field, *m.ExprStmt, bool) {
	if setter.Body == nil || len(setter.Body.Stmts) != 1 || len(setter.Params) != 1 {
		return nil, nil, false
	}

	stmt, ok := setter.Body.Stmts[0].(*m.ExprStmt)
	if !ok {
		return nil, nil, false
	}

	a, ok := stmt.X.(*m.Assign)
	if !ok || a.Op != "=" {
		return nil, nil, false
	}

	if rhs, ok := a.RHS.(*m.Name); !ok || ix.Resolve(rhs) != m.Node(setter.Params[0]) {
		return nil, nil, false
	}

	f, ok := ix.Resolve(a.LHS).(*m.Field)
	if !ok || m.EnclosingClass(f) != m.EnclosingClass(setter) {
		return nil, nil, false
	}

	return f, stmt, true
}

// SetterFor returns the setter of c writing field f, if there is one.
func (ix *Index) SetterFor(c *m.Class, f *m.Field) *m.Method {
	meth := ix.FindMethod(c, SetterName(f.Name), 1)
	if meth == nil {
		return nil
	}

	if assigned, _, ok := ix.SetterAssignment(meth); ok && assigned == f {
		return meth
	}

	return nil
}
