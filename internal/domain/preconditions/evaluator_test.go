package preconditions_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
	pt "cleanspring.dev/pkg/cleanspring/internal/program/programtest"
)

func TestNewEvaluator(t *testing.T) {
	t.Run("default profile", func(t *testing.T) {
		e, err := preconditions.NewEvaluator("", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, preconditions.DefaultProfile, e.RuleSet().Name)
		assert.True(t, e.RuleSet().Has(preconditions.SetterCallsAfterCtorOrSole))
		assert.False(t, e.RuleSet().Has(preconditions.SetterCallsAfterCtor))
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := preconditions.NewEvaluator("relaxed", nil, nil)
		require.ErrorIs(t, err, preconditions.ErrUnknownProfile)
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, err := preconditions.NewEvaluator("clean", []string{"field.whatever"}, nil)
		require.ErrorIs(t, err, preconditions.ErrUnknownRule)

		_, err = preconditions.NewEvaluator("clean", nil, []string{"nope"})
		require.ErrorIs(t, err, preconditions.ErrUnknownRule)
	})

	t.Run("toggles", func(t *testing.T) {
		e, err := preconditions.NewEvaluator("inject",
			[]string{string(preconditions.SetterNoXMLUsage)},
			[]string{string(preconditions.ClassNotTestContext)})
		require.NoError(t, err)
		assert.True(t, e.RuleSet().Has(preconditions.SetterNoXMLUsage))
		assert.False(t, e.RuleSet().Has(preconditions.ClassNotTestContext))
	})

	t.Run("profiles", func(t *testing.T) {
		tests := []struct {
			profile string
			has     []preconditions.RuleID
			lacks   []preconditions.RuleID
		}{
			{
				profile: "inject",
				has:     []preconditions.RuleID{preconditions.SetterCallsAfterCtor, preconditions.ClassNoCalledBeanUsage},
				lacks:   []preconditions.RuleID{preconditions.ClassNotServlet, preconditions.ClassNotTestNGContext},
			},
			{
				profile: "strict",
				has:     []preconditions.RuleID{preconditions.SetterNoXMLUsage, preconditions.SetterCallsAfterCtor},
				lacks:   []preconditions.RuleID{preconditions.SetterCallsAfterCtorOrSole},
			},
			{
				profile: "lenient",
				has:     []preconditions.RuleID{preconditions.ClassNotEntityListener, preconditions.SetterCallsAfterCtorOrSole},
				lacks:   []preconditions.RuleID{preconditions.ClassNoCalledBeanUsage},
			},
		}

		for _, tt := range tests {
			t.Run(tt.profile, func(t *testing.T) {
				set, err := preconditions.Profile(tt.profile)
				require.NoError(t, err)

				for _, id := range tt.has {
					assert.True(t, set.Has(id), id)
				}

				for _, id := range tt.lacks {
					assert.False(t, set.Has(id), id)
				}
			})
		}
	})
}

const repoJava = "package app;\n\npublic class Repo {\n    public void save() {}\n}\n"

func TestEvaluator_EvaluateField(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		java    []pt.Source
		xml     []pt.Source
		want    preconditions.RuleID
	}{
		{
			name: "eligible",
			java: []pt.Source{{Path: "app/Service.java", Text: `package app;

public class Service {
    @Autowired
    private Repo repo;
}
`}},
		},
		{
			name: "not injected",
			java: []pt.Source{{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    private Repo repo;\n}\n"}},
			want: preconditions.FieldInjected,
		},
		{
			name: "assigned elsewhere",
			java: []pt.Source{{Path: "app/Service.java", Text: `package app;

public class Service {
    @Autowired
    private Repo repo;

    void reset() {
        repo = null;
    }
}
`}},
			want: preconditions.FieldNoAssignments,
		},
		{
			name: "varargs constructor",
			java: []pt.Source{{Path: "app/Service.java", Text: `package app;

public class Service {
    @Autowired
    private Repo repo;

    public Service(String... names) {
    }
}
`}},
			want: preconditions.ClassSingleConstructor,
		},
		{
			name: "two constructors",
			java: []pt.Source{{Path: "app/Service.java", Text: `package app;

public class Service {
    @Value("${url}")
    private String url;

    public Service() {
    }

    public Service(int n) {
    }
}
`}},
			want: preconditions.ClassSingleConstructor,
		},
		{
			name: "test context on ancestor",
			java: []pt.Source{
				{Path: "app/BaseTest.java", Text: "package app;\n\n@ContextConfiguration(classes = Config.class)\npublic class BaseTest {\n}\n"},
				{Path: "app/Service.java", Text: "package app;\n\npublic class Service extends BaseTest {\n    @Autowired\n    private Repo repo;\n}\n"},
			},
			want: preconditions.ClassNotTestContext,
		},
		{
			name: "testng context",
			java: []pt.Source{{Path: "app/Service.java", Text: "package app;\n\npublic class Service extends AbstractTestNGSpringContextTests {\n    @Autowired\n    private Repo repo;\n}\n"}},
			want: preconditions.ClassNotTestNGContext,
		},
		{
			name:    "testng context outside the inject profile",
			profile: "inject",
			java:    []pt.Source{{Path: "app/Service.java", Text: "package app;\n\npublic class Service extends AbstractTestNGSpringContextTests {\n    @Autowired\n    private Repo repo;\n}\n"}},
		},
		{
			name: "shadowed in subclass",
			java: []pt.Source{
				{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    @Autowired\n    private Repo repo;\n}\n"},
				{Path: "app/Special.java", Text: "package app;\n\npublic class Special extends Service {\n    private Repo repo;\n}\n"},
			},
			want: preconditions.FieldNoShadowing,
		},
		{
			name: "entity listener",
			java: []pt.Source{
				{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    @Autowired\n    private Repo repo;\n}\n"},
				{Path: "app/Order.java", Text: "package app;\n\n@Entity\n@EntityListeners({Service.class})\npublic class Order {\n}\n"},
			},
			want: preconditions.ClassNotEntityListener,
		},
		{
			name: "servlet",
			java: []pt.Source{{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    @Autowired\n    private Repo repo;\n}\n"}},
			xml: []pt.Source{{Path: "WEB-INF/web.xml", Text: `<web-app>
    <servlet>
        <servlet-name>service</servlet-name>
        <servlet-class>app.Service</servlet-class>
    </servlet>
</web-app>
`}},
			want: preconditions.ClassNotServlet,
		},
		{
			name: "instantiated in a called bean method",
			java: []pt.Source{
				{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    @Autowired\n    private Repo repo;\n}\n"},
				{Path: "app/Config.java", Text: calledBeanConfig},
			},
			want: preconditions.ClassNoCalledBeanUsage,
		},
		{
			name:    "called bean method allowed when lenient",
			profile: "lenient",
			java: []pt.Source{
				{Path: "app/Service.java", Text: "package app;\n\npublic class Service {\n    @Autowired\n    private Repo repo;\n}\n"},
				{Path: "app/Config.java", Text: calledBeanConfig},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := preconditions.NewEvaluator(tt.profile, nil, nil)
			require.NoError(t, err)

			p := pt.Load(t, append(tt.java, pt.Source{Path: "app/Repo.java", Text: repoJava}), tt.xml...)

			require.NoError(t, p.Read(func(ix *program.Index) error {
				service := pt.Class(t, ix, "app.Service")
				fields := service.Fields()
				require.Len(t, fields, 1)

				assertVerdict(t, tt.want, e.EvaluateField(ix, fields[0]))

				return nil
			}))
		})
	}
}

const calledBeanConfig = `package app;

@Configuration
public class Config {
    @Bean
    public Service service() {
        return new Service();
    }

    @Bean
    public Client client() {
        return new Client(service());
    }
}
`

const setterService = `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class Service {
    private Repo repo;

    @Autowired
    public void setRepo(Repo repo) {
        this.repo = repo;
    }

    public void run() {
        repo.save();
    }
}
`

func mainWith(body string) pt.Source {
	return pt.Source{Path: "app/Main.java", Text: fmt.Sprintf(`package app;

public class Main {
    private Service held;

    void main(Repo r) {
%s
    }
}
`, body)}
}

func TestEvaluator_EvaluateSetter(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		service string
		body    string
		xml     []pt.Source
		want    preconditions.RuleID
	}{
		{
			name: "local constructed then set",
			body: "        Service s = new Service();\n        s.setRepo(r);\n        s.run();",
		},
		{
			name: "receiver used before the setter",
			body: "        Service s = new Service();\n        s.run();\n        s.setRepo(r);",
			want: preconditions.SetterCallsAfterCtorOrSole,
		},
		{
			name: "local assigned once from new",
			body: "        Service s;\n        s = new Service();\n        s.setRepo(r);",
		},
		{
			name:    "local assigned once from new with strict ordering",
			profile: "inject",
			body:    "        Service s;\n        s = new Service();\n        s.setRepo(r);",
			want:    preconditions.SetterCallsAfterCtor,
		},
		{
			name: "field receiver",
			body: "        held = new Service();\n        held.setRepo(r);",
		},
		{
			name: "setter call nested in a branch",
			body: "        Service s = new Service();\n        if (r != null) {\n            s.setRepo(r);\n        }",
			want: preconditions.SetterCallsAfterCtorOrSole,
		},
		{
			name: "receiver not built here",
			body: "        held.setRepo(r);",
			want: preconditions.SetterCallsAfterCtorOrSole,
		},
		{
			name:    "not autowired",
			service: strings.Replace(setterService, "    @Autowired\n", "", 1),
			body:    "        Service s = new Service();\n        s.setRepo(r);",
			want:    preconditions.SetterAutowired,
		},
		{
			name:    "body does more than assign",
			service: strings.Replace(setterService, "        this.repo = repo;\n", "        this.repo = repo;\n        run();\n", 1),
			body:    "        Service s = new Service();\n        s.setRepo(r);",
			want:    preconditions.SetterAssignsField,
		},
		{
			name: "xml property",
			body: "",
			xml:  []pt.Source{{Path: "beans.xml", Text: "<beans>\n    <bean class=\"app.Service\">\n        <property name=\"repo\" ref=\"repo\"/>\n    </bean>\n</beans>\n"}},
		},
		{
			name:    "xml property with the strict profile",
			profile: "strict",
			body:    "",
			xml:     []pt.Source{{Path: "beans.xml", Text: "<beans>\n    <bean class=\"app.Service\">\n        <property name=\"repo\" ref=\"repo\"/>\n    </bean>\n</beans>\n"}},
			want:    preconditions.SetterNoXMLUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := tt.service
			if service == "" {
				service = setterService
			}

			e, err := preconditions.NewEvaluator(tt.profile, nil, nil)
			require.NoError(t, err)

			p := pt.Load(t, []pt.Source{
				{Path: "app/Service.java", Text: service},
				{Path: "app/Repo.java", Text: repoJava},
				mainWith(tt.body),
			}, tt.xml...)

			require.NoError(t, p.Read(func(ix *program.Index) error {
				setter := pt.Method(t, pt.Class(t, ix, "app.Service"), "setRepo")
				assertVerdict(t, tt.want, e.EvaluateSetter(ix, setter))

				return nil
			}))
		})
	}
}

func assertVerdict(t *testing.T, want preconditions.RuleID, got preconditions.Verdict) {
	t.Helper()

	if want == "" {
		assert.True(t, got.Eligible, "failed: %v", got.Failed)
		assert.Empty(t, got.Failed)

		return
	}

	assert.False(t, got.Eligible)
	assert.Equal(t, []preconditions.RuleID{want}, got.Failed)
}

// TestFindConstruction_GeneratedSequences builds every short statement
// sequence around one setter call and checks that the call is accepted
// exactly when no statement touching the receiver runs between the
// construction and the call.
func TestFindConstruction_GeneratedSequences(t *testing.T) {
	const (
		other = "        log();"
		use   = "        s.run();"
		set   = "        s.setRepo(r);"
	)

	var sequences [][]string

	var grow func(prefix []string, n int)
	grow = func(prefix []string, n int) {
		sequences = append(sequences, prefix)
		if n == 0 {
			return
		}

		for _, s := range []string{other, use} {
			grow(append(append([]string(nil), prefix...), s), n-1)
		}
	}
	grow(nil, 3)

	e, err := preconditions.NewEvaluator("inject", nil, nil)
	require.NoError(t, err)

	for _, seq := range sequences {
		for at := 0; at <= len(seq); at++ {
			lines := append([]string{"        Service s = new Service();"}, seq[:at]...)
			lines = append(lines, set)
			lines = append(lines, seq[at:]...)

			want := true
			for _, s := range seq[:at] {
				if s == use {
					want = false
				}
			}

			body := strings.Join(lines, "\n")

			t.Run(fmt.Sprintf("%d/%s", at, strings.Join(strings.Fields(strings.Join(seq, "")), "")), func(t *testing.T) {
				p := pt.Load(t, []pt.Source{
					{Path: "app/Service.java", Text: setterService},
					{Path: "app/Repo.java", Text: repoJava},
					mainWith(body),
				})

				require.NoError(t, p.Read(func(ix *program.Index) error {
					setter := pt.Method(t, pt.Class(t, ix, "app.Service"), "setRepo")
					verdict := e.EvaluateSetter(ix, setter)
					assert.Equal(t, want, verdict.Eligible, "body:\n%s", body)

					refs := ix.References(setter)
					require.Len(t, refs, 1)

					c, ok := preconditions.FindConstruction(ix, setter, refs[0].Element.(*m.Call), false)
					assert.Equal(t, want, ok)

					if ok {
						assert.IsType(t, &m.LocalVar{}, c.Stmt)
						assert.Equal(t, "s", c.Receiver.(*m.LocalVar).Name)
					}

					return nil
				}))
			})
		}
	}
}
