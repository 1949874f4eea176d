package adapter

import (
	"strings"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

const indentUnit = "    "

// JavaPrinter renders syntax trees back to Java source.
type JavaPrinter interface {
	// PrintUnit renders a compilation unit. Untouched subtrees are emitted
	// byte-for-byte from their original text.
	PrintUnit(u *m.Unit) []byte

	// PrintNode renders a single node as it would appear at the given indentation.
	PrintNode(n m.Node, indent string) string
}

// SourcePrinter is the JavaPrinter used by the CLI.
type SourcePrinter struct{}

// NewSourcePrinter constructs a SourcePrinter.
func NewSourcePrinter() *SourcePrinter {
	return &SourcePrinter{}
}

// PrintUnit renders u.
func (p *SourcePrinter) PrintUnit(u *m.Unit) []byte {
	return []byte(p.PrintNode(u, ""))
}

// PrintNode renders n.
//
//nolint:gocyclo // one case per node kind
func (p *SourcePrinter) PrintNode(n m.Node, indent string) string {
	b := n.Meta()
	if b.Pristine() {
		return b.Src
	}

	switch x := n.(type) {
	case *m.Unit:
		return p.unit(x)
	case *m.Import:
		return importText(x)
	case *m.Class:
		return p.modifierPrefix(x.Mods, indent) + x.Header + p.body(b, x.Braces, members(x.Members), indent)
	case *m.Modifiers:
		return p.modifiers(x, indent)
	case *m.Annotation:
		return p.annotation(x, indent)
	case *m.AnnotationArg:
		if x.Key == "" {
			return p.PrintNode(x.Value, indent)
		}

		return x.Key + " = " + p.PrintNode(x.Value, indent)
	case *m.Field:
		return p.modifierPrefix(x.Mods, indent) + x.Type.Text + " " + x.Name + p.initializer(x.Init, indent) + ";"
	case *m.Method:
		return p.method(x, indent)
	case *m.Param:
		typ := x.Type.Text
		if x.VarArgs {
			typ += "..."
		}

		return p.modifierPrefix(x.Mods, indent) + typ + " " + x.Name
	case *m.TypeRef:
		return x.Text
	case *m.Block:
		return p.body(b, x.Braces, statements(x.Stmts), indent)
	case *m.ExprStmt:
		return p.PrintNode(x.X, indent) + ";"
	case *m.LocalVar:
		return p.modifierPrefix(x.Mods, indent) + x.Type.Text + " " + x.Name + p.initializer(x.Init, indent) + ";"
	case *m.Return:
		if x.X == nil {
			return "return;"
		}

		return "return " + p.PrintNode(x.X, indent) + ";"
	case *m.CtorCall:
		out := x.Keyword
		if x.Qualifier != "" {
			out = x.Qualifier + "." + out
		}

		return out + p.args(x.Args, x.ArgsFormat, indent) + ";"
	case *m.Opaque:
		var sb strings.Builder

		for _, f := range x.Frags {
			if f.Node != nil {
				sb.WriteString(p.PrintNode(f.Node, indent))
			} else {
				sb.WriteString(f.Text)
			}
		}

		return sb.String()
	case *m.Name:
		return x.Ident
	case *m.This:
		return x.Keyword
	case *m.FieldAccess:
		return p.PrintNode(x.X, indent) + "." + x.Field
	case *m.Call:
		out := x.Name + p.args(x.Args, x.ArgsFormat, indent)
		if x.Recv != nil {
			out = p.PrintNode(x.Recv, indent) + "." + out
		}

		return out
	case *m.New:
		out := "new " + x.Type.Text + p.args(x.Args, x.ArgsFormat, indent)
		if x.Body != nil {
			out += " " + p.PrintNode(x.Body, indent)
		}

		return out
	case *m.Assign:
		return p.PrintNode(x.LHS, indent) + " " + x.Op + " " + p.PrintNode(x.RHS, indent)
	case *m.Literal:
		return x.Text
	case *m.ClassLit:
		return x.Type.Text + ".class"
	case *m.ArrayInit:
		return x.ElemsFormat.Join(p.all(x.Elems, indent), "{", "}")
	}

	return b.Src
}

func (p *SourcePrinter) unit(u *m.Unit) string {
	var sb strings.Builder

	sb.WriteString(u.Lead)

	for i, item := range u.Items {
		if i > 0 {
			sb.WriteString(gap(item, ""))
		}

		sb.WriteString(docPrefix(item, ""))
		sb.WriteString(p.PrintNode(item, ""))
	}

	if u.Trail == "" && u.Src == "" {
		sb.WriteString("\n")
	} else {
		sb.WriteString(u.Trail)
	}

	return sb.String()
}

func importText(imp *m.Import) string {
	out := "import "
	if imp.Static {
		out += "static "
	}

	out += imp.Name
	if imp.Wildcard {
		out += ".*"
	}

	return out + ";"
}

func (p *SourcePrinter) method(meth *m.Method, indent string) string {
	params := make([]string, len(meth.Params))
	for i, param := range meth.Params {
		params[i] = p.PrintNode(param, indent)
	}

	out := p.modifierPrefix(meth.Mods, indent) + meth.Head + meth.ParamsFormat.Join(params, "(", ")") + meth.Tail
	if meth.Body != nil {
		out += p.PrintNode(meth.Body, indent)
	}

	return out
}

func (p *SourcePrinter) initializer(init m.Expr, indent string) string {
	if init == nil {
		return ""
	}

	return " = " + p.PrintNode(init, indent)
}

func (p *SourcePrinter) args(args []m.Expr, f m.ListFormat, indent string) string {
	return f.Join(p.all(args, indent), "(", ")")
}

func (p *SourcePrinter) all(list []m.Expr, indent string) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = p.PrintNode(e, indent)
	}

	return out
}

func (p *SourcePrinter) annotation(a *m.Annotation, indent string) string {
	out := "@" + a.Name
	if !a.Parens {
		return out
	}

	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = p.PrintNode(arg, indent)
	}

	return out + "(" + strings.Join(args, ", ") + ")"
}

func (p *SourcePrinter) modifiers(mods *m.Modifiers, indent string) string {
	sep := " "
	if mods.Multiline {
		sep = "\n" + indent
	}

	parts := make([]string, 0, len(mods.Annotations)+1)
	for _, a := range mods.Annotations {
		parts = append(parts, p.PrintNode(a, indent))
	}

	if len(mods.Keywords) > 0 {
		parts = append(parts, strings.Join(mods.Keywords, " "))
	}

	return strings.Join(parts, sep)
}

// modifierPrefix renders the modifiers of a declaration followed by the
// whitespace that separates them from the rest of it.
func (p *SourcePrinter) modifierPrefix(mods *m.Modifiers, indent string) string {
	if mods == nil {
		return ""
	}

	text := p.PrintNode(mods, indent)
	if text == "" {
		return ""
	}

	switch {
	case mods.Multiline && len(mods.Keywords) == 0:
		return text + "\n" + indent
	case mods.Trail != "" && !strings.Contains(mods.Trail, "\n"):
		return text + mods.Trail
	}

	return text + " "
}

// body renders a braced list of members or statements.
func (p *SourcePrinter) body(owner *m.Base, braces m.Braces, children []m.Node, indent string) string {
	parsed := owner.Src != ""
	child := childIndent(children, indent)
	inline := parsed && braces.CloseInline && braces.HadChildren && parsedOnSameLine(children)

	var sb strings.Builder

	sb.WriteString("{")

	for _, ch := range children {
		if inline && ch.Meta().Src == "" {
			sb.WriteString(" ")
		} else {
			sb.WriteString(gap(ch, child))
		}

		eff := effectiveIndent(ch, child)
		sb.WriteString(docPrefix(ch, eff))
		sb.WriteString(p.PrintNode(ch, eff))
	}

	switch {
	case len(children) == 0 && !parsed:
		sb.WriteString("\n" + indent + "}")
	case len(children) == 0 && braces.CloseInline:
		sb.WriteString("}")
	case len(children) == 0:
		sb.WriteString("\n" + braces.CloseIndent + "}")
	case inline:
		sb.WriteString(" }")
	case parsed && !braces.CloseInline:
		sb.WriteString("\n" + braces.CloseIndent + "}")
	default:
		sb.WriteString("\n" + indent + "}")
	}

	return sb.String()
}

func members(list []m.Member) []m.Node {
	out := make([]m.Node, len(list))
	for i, n := range list {
		out[i] = n
	}

	return out
}

func statements(list []m.Stmt) []m.Node {
	out := make([]m.Node, len(list))
	for i, n := range list {
		out[i] = n
	}

	return out
}

func childIndent(children []m.Node, indent string) string {
	for _, ch := range children {
		if b := ch.Meta(); b.Src != "" && !b.SameLine {
			return b.Indent
		}
	}

	return indent + indentUnit
}

func parsedOnSameLine(children []m.Node) bool {
	seen := false

	for _, ch := range children {
		b := ch.Meta()
		if b.Src == "" {
			continue
		}

		if !b.SameLine {
			return false
		}

		seen = true
	}

	return seen
}

func effectiveIndent(n m.Node, child string) string {
	if b := n.Meta(); b.Src != "" {
		return b.Indent
	}

	return child
}

// gap is the whitespace printed before a list element.
func gap(n m.Node, child string) string {
	b := n.Meta()
	if b.SameLine {
		return " "
	}

	out := "\n"
	if b.BlankBefore {
		out += "\n"
	}

	return out + effectiveIndent(n, child)
}

func docPrefix(n m.Node, indent string) string {
	var doc string

	switch x := n.(type) {
	case *m.Field:
		doc = x.Doc
	case *m.Method:
		doc = x.Doc
	case *m.Class:
		doc = x.Doc
	}

	if doc == "" {
		return ""
	}

	return doc + "\n" + indent
}
