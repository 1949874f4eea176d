package domain

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"unicode"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

// Property is an injection target: an injected field, or the sole parameter
// of an injected setter together with the field it assigns.
type Property struct {
	Field  *m.Field
	Setter *m.Method
	// Name is the preferred parameter name.
	Name string
	Type *m.TypeRef
	// Annotations are detached copies of the qualifying annotations that
	// follow the value onto every new parameter.
	Annotations []*m.Annotation
}

// FieldProperty describes the migration of an injected field.
func FieldProperty(f *m.Field) Property {
	return Property{
		Field:       f,
		Name:        f.Name,
		Type:        f.Type,
		Annotations: program.ForwardedAnnotations(f.Mods),
	}
}

// SetterProperty describes the migration of an injected setter. It fails
// when the setter body is not a plain field assignment.
func SetterProperty(ix *program.Index, setter *m.Method) (Property, error) {
	f, _, ok := ix.SetterAssignment(setter)
	if !ok {
		return Property{}, fmt.Errorf("setter %s does not assign a field: %w", setter.Name, ErrContractViolation)
	}

	param := setter.Params[0]
	annotations := program.ForwardedAnnotations(param.Mods)

	for _, a := range program.ForwardedAnnotations(setter.Mods) {
		if !slices.ContainsFunc(annotations, func(b *m.Annotation) bool { return b.SimpleName() == a.SimpleName() }) {
			annotations = append(annotations, a)
		}
	}

	return Property{
		Field:       f,
		Setter:      setter,
		Name:        param.Name,
		Type:        param.Type,
		Annotations: annotations,
	}, nil
}

// Class returns the class declaring the property.
func (p Property) Class() *m.Class {
	if p.Setter != nil {
		return m.EnclosingClass(p.Setter)
	}

	return m.EnclosingClass(p.Field)
}

func (p Property) param(name string) *m.Param {
	param := &m.Param{Type: &m.TypeRef{Text: p.Type.Text}, Name: name}

	if len(p.Annotations) > 0 {
		mods := &m.Modifiers{}
		for _, a := range p.Annotations {
			c := m.Clone(a)
			mods.Annotations = append(mods.Annotations, c)
			m.SetParent(c, mods)
		}

		param.Mods = mods
		m.SetParent(mods, param)
	}

	m.SetParent(param.Type, param)

	return param
}

// Outcome is what an applied fix reports besides success.
type Outcome struct {
	Confidence m.Confidence
	Warnings   []string
}

func newOutcome() *Outcome {
	return &Outcome{Confidence: m.ConfidenceHigh}
}

func (o *Outcome) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.Confidence = m.ConfidenceLow
	o.Warnings = append(o.Warnings, msg)
	slog.Warn("lower-confidence rewrite", "detail", msg)
}

// contract marks err as a structural violation unless it already is one.
func contract(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrContractViolation, err)
}

var defaultLiterals = map[string]string{
	"byte":    "(byte) 0",
	"short":   "(short) 0",
	"int":     "0",
	"long":    "0L",
	"float":   "0F",
	"double":  "0D",
	"char":    `'\0'`,
	"boolean": "false",
}

// DefaultLiteral returns the placeholder value for a type.
func DefaultLiteral(typ string) string {
	if lit, ok := defaultLiterals[strings.TrimSpace(typ)]; ok {
		return lit
	}

	return "null"
}

func defaultArg(p Property) *m.Literal {
	return &m.Literal{Text: DefaultLiteral(p.Type.Text)}
}

// Locate returns the file position of n.
func Locate(n m.Node) m.Location {
	loc := m.Location{Pos: n.Meta().Pos}

	if u := m.EnclosingUnit(n); u != nil {
		loc.Path = u.Path
	} else if t, ok := n.(*m.XMLTag); ok {
		loc.Path = documentPath(t)
	}

	return loc
}

func documentPath(n m.Node) m.Path {
	for cur := n; cur != nil; cur = cur.Parent() {
		if d, ok := cur.(*m.XMLDocument); ok {
			return d.Path
		}
	}

	return ""
}

func describe(n m.Node) string {
	loc := Locate(n)
	return fmt.Sprintf("%s:%d", loc.Path, loc.Pos.Line)
}

// freeName returns name, or name with a numeric suffix when a parameter or
// local variable of meth already uses it.
func freeName(meth *m.Method, name string) string {
	taken := map[string]bool{}

	for _, p := range meth.Params {
		taken[p.Name] = true
	}

	if meth.Body != nil {
		m.Walk(meth.Body, func(n m.Node) bool {
			switch x := n.(type) {
			case *m.LocalVar:
				taken[x.Name] = true
			case *m.Opaque:
				for _, d := range x.Declares {
					taken[d] = true
				}
			case *m.Class:
				return false
			}

			return true
		})
	}

	if !taken[name] {
		return name
	}

	for i := 1; ; i++ {
		if candidate := name + strconv.Itoa(i); !taken[candidate] {
			return candidate
		}
	}
}

var javaKeywords = map[string]bool{
	"extends": true, "super": true,
	"byte": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "char": true, "boolean": true, "void": true,
}

// typeIdents lists the type names mentioned in a type expression, such as
// Map, String and Repo for "Map<String, Repo>".
func typeIdents(text string) []string {
	var out []string

	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' && r != '.'
	}) {
		first := strings.SplitN(word, ".", 2)[0]
		if first == "" || javaKeywords[first] || slices.Contains(out, first) {
			continue
		}

		out = append(out, first)
	}

	return out
}

// copyImports makes the simple names used by p resolvable in the unit of
// target, borrowing the imports of the unit holding origin or importing
// project classes by qualified name.
func copyImports(tx *program.Tx, origin m.Node, p Property, target m.Node) {
	to := m.EnclosingUnit(target)
	from := m.EnclosingUnit(origin)

	if to == nil || from == nil || to == from {
		return
	}

	names := typeIdents(p.Type.Text)
	for _, a := range p.Annotations {
		names = append(names, strings.SplitN(a.Name, ".", 2)[0])
	}

	ix := tx.Index()

	for _, name := range names {
		if imported(to, name) {
			continue
		}

		if imp := findImport(from, name); imp != nil {
			tx.AddImport(to, imp.Name)
			continue
		}

		c := ix.ResolveTypeName(origin, name)
		if c == nil {
			continue
		}

		if fqn := ix.FQN(c); fqn != "" && packageOf(fqn, c.Name) != to.Package {
			tx.AddImport(to, fqn)
		}
	}
}

func packageOf(fqn, name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(fqn, name), ".")
}

func findImport(u *m.Unit, name string) *m.Import {
	for _, imp := range u.Imports() {
		if !imp.Static && !imp.Wildcard && m.SimpleTypeName(imp.Name) == name {
			return imp
		}
	}

	return nil
}

func imported(u *m.Unit, name string) bool {
	return findImport(u, name) != nil
}

// pruneImports removes Spring annotation imports the unit no longer uses.
func pruneImports(tx *program.Tx, u *m.Unit, fqns ...string) error {
	if u == nil {
		return nil
	}

	for _, fqn := range fqns {
		simple := m.SimpleTypeName(fqn)

		var imp *m.Import

		for _, candidate := range u.Imports() {
			if candidate.Name == fqn && !candidate.Static && !candidate.Wildcard {
				imp = candidate
			}
		}

		if imp == nil || usesAnnotation(u, simple) {
			continue
		}

		if err := tx.RemoveImport(imp); err != nil {
			return contract(err)
		}
	}

	return nil
}

func usesAnnotation(u *m.Unit, simple string) bool {
	used := false

	m.Walk(u, func(n m.Node) bool {
		if a, ok := n.(*m.Annotation); ok && a.SimpleName() == simple {
			used = true
		}

		return !used
	})

	return used
}

var springImports = []string{program.FQNAutowired, program.FQNValue, program.FQNQualifier}
