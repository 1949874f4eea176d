package program_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/adapter"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
)

type source struct {
	path string
	text string
}

func load(t *testing.T, java []source, xml ...source) *program.Project {
	t.Helper()

	parser := adapter.NewTreeSitterJavaParser(0)
	xmlAdapter := adapter.NewRawXMLAdapter()

	var units []*m.Unit

	for _, s := range java {
		u, err := parser.ParseUnit(context.Background(), m.Path(s.path), []byte(s.text))
		require.NoError(t, err)

		units = append(units, u)
	}

	var docs []*m.XMLDocument

	for _, s := range xml {
		d, err := xmlAdapter.ParseDocument(m.Path(s.path), []byte(s.text))
		require.NoError(t, err)

		docs = append(docs, d)
	}

	return program.NewProject(units, docs, parser)
}

func class(t *testing.T, ix *program.Index, fqn string) *m.Class {
	t.Helper()

	c := ix.ClassByFQN(fqn)
	require.NotNil(t, c, fqn)

	return c
}

func render(u *m.Unit) string {
	return string(adapter.NewSourcePrinter().PrintUnit(u))
}

const hierarchy = `package app;

class A {
    A() {}
}

class B extends A {
}

class C extends A {
    C() {
        init();
    }

    void init() {}
}

class D extends A {
    D() {
        super();
    }
}

class Main {
    void run() {
        A a = new A();
        A anon = new A() {
        };
    }
}
`

func TestIndex_ConstructorReferences(t *testing.T) {
	p := load(t, []source{{"app/A.java", hierarchy}})

	err := p.Read(func(ix *program.Index) error {
		a := class(t, ix, "app.A")
		ctor := a.Constructors()[0]

		kinds := map[program.RefKind][]m.Node{}
		for _, ref := range ix.References(ctor) {
			kinds[ref.Kind] = append(kinds[ref.Kind], ref.Element)
		}

		require.Len(t, kinds[program.RefNew], 1)
		require.Len(t, kinds[program.RefCtorCall], 1)
		require.Len(t, kinds[program.RefImplicitSuperCtor], 1)
		require.Len(t, kinds[program.RefImplicitSuperClass], 2)

		assert.Same(t, class(t, ix, "app.C").Constructors()[0], kinds[program.RefImplicitSuperCtor][0])
		assert.Contains(t, kinds[program.RefImplicitSuperClass], m.Node(class(t, ix, "app.B")))

		return nil
	})
	require.NoError(t, err)
}

func TestIndex_Hierarchy(t *testing.T) {
	p := load(t, []source{
		{"app/Base.java", "package app;\n\npublic class Base {\n    protected String name;\n}\n"},
		{"app/Mid.java", "package app;\n\npublic class Mid extends Base {\n}\n"},
		{"app/Leaf.java", "package app;\n\nimport app.Mid;\n\npublic class Leaf extends Mid {\n    String show() {\n        return name;\n    }\n}\n"},
	})

	err := p.Read(func(ix *program.Index) error {
		base := class(t, ix, "app.Base")
		leaf := class(t, ix, "app.Leaf")

		assert.Equal(t, []*m.Class{class(t, ix, "app.Mid"), base}, ix.Ancestors(leaf))
		assert.ElementsMatch(t, []*m.Class{class(t, ix, "app.Mid"), leaf}, ix.Descendants(base))
		assert.Same(t, base.Field("name"), ix.FindField(leaf, "name"))

		refs := ix.References(base.Field("name"))
		require.Len(t, refs, 1)
		assert.Equal(t, program.RefName, refs[0].Kind)
		assert.Same(t, leaf, m.EnclosingClass(refs[0].Element))

		return nil
	})
	require.NoError(t, err)
}

func TestIndex_Resolve(t *testing.T) {
	const src = `package app;

class Service {
    private Repo repo;

    void setRepo(Repo repo) {
        this.repo = repo;
    }

    void use() {
        repo.save();
        Repo repo = new Repo();
        repo.save();
        for (Repo r : all()) {
            r.save();
        }
    }
}

class Repo {
    void save() {}
}
`
	const beans = `<beans>
    <bean class="app.Service">
        <property name="repo" ref="repo"/>
    </bean>
</beans>
`

	p := load(t, []source{{"app/Service.java", src}}, source{"beans.xml", beans})

	err := p.Read(func(ix *program.Index) error {
		service := class(t, ix, "app.Service")
		field := service.Field("repo")
		setter := service.Methods()[0]
		use := service.Methods()[1]

		stmts := use.Body.Stmts
		first := stmts[0].(*m.ExprStmt).X.(*m.Call)
		assert.Same(t, field, ix.Resolve(first.Recv))
		assert.Same(t, class(t, ix, "app.Repo").Methods()[0], ix.Resolve(first))

		local := stmts[1].(*m.LocalVar)
		second := stmts[2].(*m.ExprStmt).X.(*m.Call)
		assert.Same(t, local, ix.Resolve(second.Recv))

		assign := setter.Body.Stmts[0].(*m.ExprStmt).X.(*m.Assign)
		assert.Same(t, field, ix.Resolve(assign.LHS))
		assert.Same(t, setter.Params[0], ix.Resolve(assign.RHS))

		f, stmt, ok := ix.SetterAssignment(setter)
		require.True(t, ok)
		assert.Same(t, field, f)
		assert.Same(t, setter.Body.Stmts[0], m.Stmt(stmt))
		assert.Same(t, setter, ix.SetterFor(service, field))

		refs := ix.References(setter)
		require.Len(t, refs, 1)
		assert.Equal(t, program.RefXMLProperty, refs[0].Kind)

		assigns := ix.Assignments(field)
		require.Len(t, assigns, 1)
		assert.Same(t, assign, assigns[0])

		var loopVar m.Node
		m.Walk(use, func(n m.Node) bool {
			if c, ok := n.(*m.Call); ok && c.Recv != nil {
				if name, ok := c.Recv.(*m.Name); ok && name.Ident == "r" {
					loopVar = ix.Resolve(name)
				}
			}
			return true
		})
		assert.IsType(t, &m.Opaque{}, loopVar)

		return nil
	})
	require.NoError(t, err)
}

func TestTx_Rollback(t *testing.T) {
	const src = "package app;\n\nclass A {\n    @Deprecated\n    private int x = 1;\n\n    void f() {\n        g();\n    }\n}\n"

	tests := []struct {
		name string
		fail func() error
		want error
	}{
		{name: "error", fail: func() error { return errors.New("boom") }},
		{name: "panic", fail: func() error { panic("boom") }, want: program.ErrTransactionPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := load(t, []source{{"app/A.java", src}})
			u := p.Units()[0]
			before := p.Version()

			err := p.Write(func(tx *program.Tx) error {
				c := u.Classes()[0]
				f := c.Field("x")

				tx.RemoveAnnotation(f, "Deprecated")
				tx.SetKeyword(f, "final", true)
				tx.SetFieldInit(f, nil)
				tx.AddImport(u, "java.util.List")

				s, err := tx.Statement("h();")
				require.NoError(t, err)
				tx.AppendStmt(c.Methods()[0].Body, s)
				require.NoError(t, tx.Remove(c.Methods()[0]))

				return tt.fail()
			})

			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}

			assert.Equal(t, src, render(u))
			assert.False(t, u.Dirty())
			assert.Greater(t, p.Version(), before)

			f := u.Classes()[0].Field("x")
			require.NotNil(t, f)
			assert.Same(t, u.Classes()[0], f.Parent())
		})
	}
}

func TestTx_PrintsRewrites(t *testing.T) {
	const src = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class Service {
    @Autowired
    private Repo repo;

    public void run() {
        repo.go();
    }
}
`
	const want = `package app;

public class Service {
    private final Repo repo;

    public Service(Repo repo) {
        this.repo = repo;
    }

    public void run() {
        repo.go();
    }
}
`

	p := load(t, []source{{"app/Service.java", src}})
	u := p.Units()[0]

	err := p.Write(func(tx *program.Tx) error {
		c := u.Classes()[0]
		f := c.Field("repo")

		assert.Equal(t, 1, tx.RemoveAnnotation(f, "Autowired"))
		tx.SetKeyword(f, "final", true)

		mem, err := tx.Member("public Service() {\n}")
		if err != nil {
			return err
		}

		ctor := mem.(*m.Method)
		ctor.BlankBefore = true
		tx.InsertMember(c, 1, ctor)

		param := &m.Param{Type: &m.TypeRef{Text: "Repo"}, Name: "repo"}
		tx.AppendParam(ctor, param)

		s, err := tx.Statement("this.repo = repo;")
		if err != nil {
			return err
		}

		tx.AppendStmt(ctor.Body, s)

		return tx.RemoveImport(u.Imports()[0])
	})
	require.NoError(t, err)

	assert.Equal(t, want, render(u))
	assert.True(t, u.Dirty())
}

func TestTx_RemoveKeepsSeparators(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		remove func(u *m.Unit) m.Node
		want   string
	}{
		{
			name:   "first import keeps blank after package",
			src:    "package app;\n\nimport a.B;\nimport a.C;\n\nclass A {\n}\n",
			remove: func(u *m.Unit) m.Node { return u.Imports()[0] },
			want:   "package app;\n\nimport a.C;\n\nclass A {\n}\n",
		},
		{
			name:   "first member leaves no blank after brace",
			src:    "package app;\n\nclass A {\n    int x;\n\n    void f() {\n    }\n}\n",
			remove: func(u *m.Unit) m.Node { return u.Classes()[0].Field("x") },
			want:   "package app;\n\nclass A {\n    void f() {\n    }\n}\n",
		},
		{
			name: "statement before a group keeps the group apart",
			src:  "package app;\n\nclass A {\n    void f() {\n        a();\n\n        b();\n        c();\n    }\n}\n",
			remove: func(u *m.Unit) m.Node {
				return u.Classes()[0].Methods()[0].Body.Stmts[1]
			},
			want: "package app;\n\nclass A {\n    void f() {\n        a();\n\n        c();\n    }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := load(t, []source{{"app/A.java", tt.src}})
			u := p.Units()[0]

			require.NoError(t, p.Write(func(tx *program.Tx) error {
				return tx.Remove(tt.remove(u))
			}))

			assert.Equal(t, tt.want, render(u))
		})
	}
}

func TestTx_AddImport(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "after package",
			src:  "package app;\n\nclass A {}\n",
			want: "package app;\n\nimport x.Y;\n\nclass A {}\n",
		},
		{
			name: "after last import",
			src:  "package app;\n\nimport a.B;\n\nclass A {}\n",
			want: "package app;\n\nimport a.B;\nimport x.Y;\n\nclass A {}\n",
		},
		{
			name: "already imported",
			src:  "package app;\n\nimport x.Y;\n\nclass A {}\n",
			want: "package app;\n\nimport x.Y;\n\nclass A {}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := load(t, []source{{"app/A.java", tt.src}})
			u := p.Units()[0]

			require.NoError(t, p.Write(func(tx *program.Tx) error {
				tx.AddImport(u, "x.Y")
				return nil
			}))

			assert.Equal(t, tt.want, render(u))
		})
	}
}

func TestTx_AnnotationValues(t *testing.T) {
	const src = "package app;\n\n@Import(A.class)\nclass Config {\n}\n"

	p := load(t, []source{{"app/Config.java", src}})
	u := p.Units()[0]

	require.NoError(t, p.Write(func(tx *program.Tx) error {
		a := u.Classes()[0].Mods.Find("Import")
		arg, ok := a.Value("value")
		require.True(t, ok)

		arr := &m.ArrayInit{Elems: []m.Expr{arg.Value}}
		m.Link(arr)
		tx.SetAnnotationValue(a, "value", arr)

		lit, err := tx.Expression("B.class")
		require.NoError(t, err)
		tx.AppendElement(arr, lit)

		return nil
	}))

	assert.Equal(t, "package app;\n\n@Import({A.class, B.class})\nclass Config {\n}\n", render(u))
}
