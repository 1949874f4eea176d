package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
	pt "cleanspring.dev/pkg/cleanspring/internal/program/programtest"
)

func migrateField(t *testing.T, p *program.Project, fqn, field string) domain.Outcome {
	t.Helper()

	var outcome domain.Outcome

	require.NoError(t, p.Write(func(tx *program.Tx) error {
		f := pt.Class(t, tx.Index(), fqn).Field(field)
		require.NotNil(t, f, field)

		var err error
		outcome, err = domain.Migrate(tx, domain.FieldProperty(f))

		return err
	}))

	return outcome
}

func migrateSetter(t *testing.T, p *program.Project, fqn, setter string) domain.Outcome {
	t.Helper()

	var outcome domain.Outcome

	require.NoError(t, p.Write(func(tx *program.Tx) error {
		meth := pt.Method(t, pt.Class(t, tx.Index(), fqn), setter)

		prop, err := domain.SetterProperty(tx.Index(), meth)
		if err != nil {
			return err
		}

		outcome, err = domain.Migrate(tx, prop)

		return err
	}))

	return outcome
}

func assertContainsAll(t *testing.T, text string, want ...string) {
	t.Helper()

	for _, w := range want {
		assert.Contains(t, text, w)
	}
}

func assertContainsNone(t *testing.T, text string, unwanted ...string) {
	t.Helper()

	for _, w := range unwanted {
		assert.NotContains(t, text, w)
	}
}

func TestMigrate_FieldOnlyOwner(t *testing.T) {
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

	p := pt.Load(t, []pt.Source{{Path: "app/Service.java", Text: src}})

	outcome := migrateField(t, p, "app.Service", "repo")

	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)
	assert.Empty(t, outcome.Warnings)
	assert.Equal(t, want, pt.Render(pt.Unit(t, p, "app/Service.java")))
}

func TestMigrate_SetterCallMergedIntoConstruction(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    private Value x;

    @Autowired
    public void setX(Value x) {
        this.x = x;
    }
}
`
	const main = `package app;

public class Main {
    public A make(Value value) {
        A a = new A();
        a.setX(value);
        return a;
    }
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: a}, {Path: "app/Main.java", Text: main}})

	outcome := migrateSetter(t, p, "app.A", "setX")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)

	gotA := pt.Render(pt.Unit(t, p, "app/A.java"))
	assertContainsAll(t, gotA, "private final Value x;", "public A(Value x) {", "this.x = x;")
	assertContainsNone(t, gotA, "setX", "@Autowired", "import org.springframework")

	gotMain := pt.Render(pt.Unit(t, p, "app/Main.java"))
	assertContainsAll(t, gotMain, "A a = new A(value);", "return a;")
	assert.NotContains(t, gotMain, "setX")
}

func TestMigrate_SubclassWithoutSupplierPassesDefault(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    @Autowired
    private Value x;

    public Value get() {
        return x;
    }
}
`
	const b = `package app;

public class B extends A {
}
`
	const main = `package app;

public class Main {
    public A make() {
        return new B();
    }
}
`

	p := pt.Load(t, []pt.Source{
		{Path: "app/A.java", Text: a},
		{Path: "app/B.java", Text: b},
		{Path: "app/Main.java", Text: main},
	})

	outcome := migrateField(t, p, "app.A", "x")

	assert.Equal(t, m.ConfidenceLow, outcome.Confidence)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "passes null for x")

	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/A.java")),
		"private final Value x;", "public A(Value x) {", "this.x = x;")
	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/B.java")), "public B() {", "super(null);")
	assert.Contains(t, pt.Render(pt.Unit(t, p, "app/Main.java")), "return new B();")
}

func TestMigrate_BeanMethodGainsParameter(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    @Autowired
    private Value x;

    private String y;

    public void setY(String y) {
        this.y = y;
    }
}
`
	const b = `package app;

public class B {
    public B(A a) {
    }
}
`
	const config = `package app;

import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;

@Configuration
public class Config {
    @Bean
    public A a() {
        A a = new A();
        a.setY("y");
        return a;
    }

    @Bean
    public B b() {
        return new B(a());
    }
}
`

	p := pt.Load(t, []pt.Source{
		{Path: "app/A.java", Text: a},
		{Path: "app/B.java", Text: b},
		{Path: "app/Config.java", Text: config},
	})

	outcome := migrateField(t, p, "app.A", "x")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)

	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/Config.java")),
		"public A a(Value x) {",
		"A a = new A(x);",
		`a.setY("y");`,
		"public B b(Value x) {",
		"return new B(a(x));",
	)
}

func TestMigrate_ThreadsThroughHierarchy(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    @Autowired
    private Value x;
}
`
	const b = `package app;

public class B extends A {
    public B() {
        super();
    }
}
`
	const c = `package app;

public class C extends B {
}
`
	const config = `package app;

import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;

@Configuration
public class Config {
    @Bean
    public C c() {
        return new C();
    }
}
`

	p := pt.Load(t, []pt.Source{
		{Path: "app/A.java", Text: a},
		{Path: "app/B.java", Text: b},
		{Path: "app/C.java", Text: c},
		{Path: "app/Config.java", Text: config},
	})

	outcome := migrateField(t, p, "app.A", "x")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)
	assert.Empty(t, outcome.Warnings)

	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/A.java")), "public A(Value x) {", "this.x = x;")
	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/B.java")), "public B(Value x) {", "super(x);")
	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/C.java")), "public C(Value x) {", "super(x);")
	assertContainsAll(t, pt.Render(pt.Unit(t, p, "app/Config.java")), "public C c(Value x) {", "return new C(x);")
}

func TestMigrate_DefaultsByType(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{typ: "int", want: "new A(0)"},
		{typ: "long", want: "new A(0L)"},
		{typ: "boolean", want: "new A(false)"},
		{typ: "double", want: "new A(0D)"},
		{typ: "String", want: "new A(null)"},
		{typ: "List<String>", want: "new A(null)"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			a := "package app;\n\nimport org.springframework.beans.factory.annotation.Autowired;\n\n" +
				"public class A {\n    @Autowired\n    private " + tt.typ + " v;\n}\n"
			main := "package app;\n\npublic class Main {\n    public A make() {\n        return new A();\n    }\n}\n"

			p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: a}, {Path: "app/Main.java", Text: main}})

			outcome := migrateField(t, p, "app.A", "v")

			assert.Equal(t, m.ConfidenceLow, outcome.Confidence)
			assert.Len(t, outcome.Warnings, 1)
			assert.Contains(t, pt.Render(pt.Unit(t, p, "app/Main.java")), tt.want)
		})
	}
}

func TestDefaultLiteral(t *testing.T) {
	tests := map[string]string{
		"byte":    "(byte) 0",
		"short":   "(short) 0",
		"int":     "0",
		" int ":   "0",
		"float":   "0F",
		"char":    `'\0'`,
		"Integer": "null",
		"int[]":   "null",
	}

	for typ, want := range tests {
		assert.Equal(t, want, domain.DefaultLiteral(typ), typ)
	}
}

func TestMigrate_ForwardsQualifyingAnnotations(t *testing.T) {
	const src = `package app;

import org.springframework.beans.factory.annotation.Autowired;
import org.springframework.beans.factory.annotation.Value;

public class Server {
    @Value("${port}")
    private int port;

    @Autowired
    private Handler handler;
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/Server.java", Text: src}})

	migrateField(t, p, "app.Server", "port")

	got := pt.Render(pt.Unit(t, p, "app/Server.java"))
	assertContainsAll(t, got,
		"private final int port;",
		`@Value("${port}") int port`,
		"this.port = port;",
		"import org.springframework.beans.factory.annotation.Value;",
		"import org.springframework.beans.factory.annotation.Autowired;",
		"@Autowired\n    private Handler handler;",
	)
}

func TestMigrate_XMLPropertyBecomesConstructorArg(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    private Value x;

    @Autowired
    public void setX(Value x) {
        this.x = x;
    }
}
`
	const beans = `<?xml version="1.0" encoding="UTF-8"?>
<beans>
    <bean id="a" class="app.A">
        <property name="x" ref="value"/>
    </bean>
</beans>
`

	p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: a}}, pt.Source{Path: "beans.xml", Text: beans})

	migrateSetter(t, p, "app.A", "setX")

	got := pt.RenderXML(p.Documents()[0])
	assert.Contains(t, got, `<constructor-arg name="x" ref="value"/>`)
	assert.NotContains(t, got, "<property")
}

func TestMigrate_RejectsUnmergeableSetterCall(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    private Value x;

    @Autowired
    public void setX(Value x) {
        this.x = x;
    }
}
`
	const main = `package app;

public class Main {
    public void reset(A a, Value value) {
        a.setX(value);
    }
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: a}, {Path: "app/Main.java", Text: main}})
	before := pt.Render(pt.Unit(t, p, "app/A.java"))

	err := p.Write(func(tx *program.Tx) error {
		prop, err := domain.SetterProperty(tx.Index(), pt.Method(t, pt.Class(t, tx.Index(), "app.A"), "setX"))
		require.NoError(t, err)

		_, err = domain.Migrate(tx, prop)

		return err
	})

	require.ErrorIs(t, err, domain.ErrContractViolation)
	assert.Equal(t, before, pt.Render(pt.Unit(t, p, "app/A.java")))
}

func TestMigrate_RollsBackWithTransaction(t *testing.T) {
	const a = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class A {
    @Autowired
    private Value x;
}
`
	const main = `package app;

public class Main {
    public A make() {
        return new A();
    }
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: a}, {Path: "app/Main.java", Text: main}})
	abort := errors.New("abort")

	err := p.Write(func(tx *program.Tx) error {
		_, err := domain.Migrate(tx, domain.FieldProperty(pt.Class(t, tx.Index(), "app.A").Field("x")))
		require.NoError(t, err)
		assert.NotEmpty(t, tx.Files())

		return abort
	})

	require.ErrorIs(t, err, abort)
	assert.Equal(t, a, pt.Render(pt.Unit(t, p, "app/A.java")))
	assert.Equal(t, main, pt.Render(pt.Unit(t, p, "app/Main.java")))
}

func TestSetterProperty_RequiresFieldAssignment(t *testing.T) {
	const src = `package app;

public class A {
    public void setX(Value x) {
        System.out.println(x);
    }
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/A.java", Text: src}})

	require.NoError(t, p.Read(func(ix *program.Index) error {
		_, err := domain.SetterProperty(ix, pt.Method(t, pt.Class(t, ix, "app.A"), "setX"))
		assert.ErrorIs(t, err, domain.ErrContractViolation)

		return nil
	}))
}
