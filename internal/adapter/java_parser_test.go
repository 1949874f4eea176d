package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

const serviceJava = `package com.acme;

import org.springframework.beans.factory.annotation.Autowired;
import org.springframework.beans.factory.annotation.Qualifier;

/** Orders. */
public class OrderService extends BaseService implements Runnable {
    @Autowired
    @Qualifier("primary")
    private OrderRepository repo;

    private int retries = 3;

    public OrderService(String name, Object... extra) {
        super(name);
        this.retries = 4;
    }

    @Override
    public void run() {
        for (String s : names()) {
            repo.save(s, new Order(s) {
                int size() { return 1; }
            });
        }
    }
}
`

func TestTreeSitterJavaParser_ParseUnit(t *testing.T) {
	p := NewTreeSitterJavaParser(0)

	u, err := p.ParseUnit(context.Background(), "OrderService.java", []byte(serviceJava))
	require.NoError(t, err)

	assert.Equal(t, "com.acme", u.Package)
	require.Len(t, u.Imports(), 2)
	assert.Equal(t, "org.springframework.beans.factory.annotation.Autowired", u.Imports()[0].Name)

	require.Len(t, u.Classes(), 1)
	c := u.Classes()[0]
	assert.Equal(t, "OrderService", c.Name)
	assert.Equal(t, "/** Orders. */", c.Doc)
	require.NotNil(t, c.Extends)
	assert.Equal(t, "BaseService", c.Extends.Text)
	require.Len(t, c.Implements, 1)

	repo := c.Field("repo")
	require.NotNil(t, repo)
	assert.NotNil(t, repo.Mods.Find("Autowired"))
	assert.True(t, repo.Mods.Multiline)
	assert.Equal(t, []string{"private"}, repo.Mods.Keywords)
	assert.Equal(t, "OrderRepository", repo.Type.Text)

	retries := c.Field("retries")
	require.NotNil(t, retries)
	require.IsType(t, &m.Literal{}, retries.Init)
	assert.True(t, retries.BlankBefore)

	ctors := c.Constructors()
	require.Len(t, ctors, 1)
	require.Len(t, ctors[0].Params, 2)
	assert.True(t, ctors[0].Params[1].VarArgs)
	assert.Equal(t, "extra", ctors[0].Params[1].Name)

	call, ok := ctors[0].Body.Stmts[0].(*m.CtorCall)
	require.True(t, ok)
	assert.True(t, call.IsSuper())
	require.Len(t, call.Args, 1)

	run := c.Methods()[0]
	assert.False(t, run.Ctor)
	assert.True(t, run.IsVoid())

	loop, ok := run.Body.Stmts[0].(*m.Opaque)
	require.True(t, ok)
	assert.Equal(t, []string{"s"}, loop.Declares)

	var anonymous *m.Class
	m.Walk(u, func(n m.Node) bool {
		if x, ok := n.(*m.Class); ok && x.Sort == m.ClassKindAnonymous {
			anonymous = x
		}
		return true
	})
	require.NotNil(t, anonymous)
	assert.IsType(t, &m.New{}, anonymous.Parent())
}

func TestTreeSitterJavaParser_RoundTrip(t *testing.T) {
	sources := map[string]string{
		"service": serviceJava,
		"no package": "class A {}\n",
		"trailing comments": "class A {\n    int x; // x\n}\n// end\n",
		"interface": "public interface Repo<T> extends Base<T> {\n    void save(T t);\n}\n",
		"crlf": "class A {\r\n    void f() {\r\n    }\r\n}\r\n",
		"annotated config": "@Configuration\n@Import({A.class, B.class})\nclass Config {\n    @Bean A a() { return new A(); }\n}\n",
	}

	p := NewTreeSitterJavaParser(0)
	printer := NewSourcePrinter()

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			u, err := p.ParseUnit(context.Background(), m.Path(name+".java"), []byte(src))
			require.NoError(t, err)
			assert.Equal(t, src, string(printer.PrintUnit(u)))
		})
	}
}

func TestTreeSitterJavaParser_SyntaxError(t *testing.T) {
	_, err := NewTreeSitterJavaParser(0).ParseUnit(context.Background(), "Broken.java", []byte("class Broken {\n    void f( {\n}\n"))
	require.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "Broken.java:")
}

func TestTreeSitterJavaParser_CacheHandsOutCopies(t *testing.T) {
	p := NewTreeSitterJavaParser(4)
	src := []byte("class A {\n    int x;\n}\n")

	first, err := p.ParseUnit(context.Background(), "A.java", src)
	require.NoError(t, err)

	first.Classes()[0].Name = "Changed"

	second, err := p.ParseUnit(context.Background(), "A.java", src)
	require.NoError(t, err)
	assert.Equal(t, "A", second.Classes()[0].Name)
	assert.NotSame(t, first, second)

	field := second.Classes()[0].Field("x")
	require.NotNil(t, field)
	assert.Same(t, second.Classes()[0], field.Parent())
}

func TestTreeSitterJavaParser_Templates(t *testing.T) {
	p := NewTreeSitterJavaParser(0)

	t.Run("statement", func(t *testing.T) {
		s, err := p.ParseStatement("this.repo = repo;")
		require.NoError(t, err)

		stmt, ok := s.(*m.ExprStmt)
		require.True(t, ok)
		assign, ok := stmt.X.(*m.Assign)
		require.True(t, ok)
		assert.Equal(t, "=", assign.Op)
		assert.IsType(t, &m.FieldAccess{}, assign.LHS)
		assert.Nil(t, s.Parent())
	})

	t.Run("super call", func(t *testing.T) {
		s, err := p.ParseStatement("super();")
		require.NoError(t, err)
		assert.IsType(t, &m.CtorCall{}, s)
	})

	t.Run("expression", func(t *testing.T) {
		e, err := p.ParseExpression("0L")
		require.NoError(t, err)
		lit, ok := e.(*m.Literal)
		require.True(t, ok)
		assert.Equal(t, "0L", lit.Text)
	})

	t.Run("member", func(t *testing.T) {
		mem, err := p.ParseMember("public A(Repo repo) {\n}")
		require.NoError(t, err)

		ctor, ok := mem.(*m.Method)
		require.True(t, ok)
		assert.True(t, ctor.Ctor)
		assert.Equal(t, "A", ctor.Name)
		require.Len(t, ctor.Params, 1)
	})

	t.Run("two statements", func(t *testing.T) {
		_, err := p.ParseStatement("a(); b();")
		require.ErrorIs(t, err, ErrSyntax)
	})
}
