package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
	"cleanspring.dev/pkg/cleanspring/internal/program"
	pt "cleanspring.dev/pkg/cleanspring/internal/program/programtest"
)

var inspectionFixture = []pt.Source{
	{Path: "app/OrderService.java", Text: `package app;

import org.springframework.beans.factory.annotation.Autowired;
import org.springframework.stereotype.Service;

@Service
public class OrderService {
    @Autowired
    private Repo repo;

    @Autowired
    private Audit audit;

    public void run() {
        repo.go();
    }
}
`},
	{Path: "app/Client.java", Text: `package app;

import org.springframework.beans.factory.annotation.Autowired;

public class Client {
    private Repo repo;

    @Autowired
    public void setRepo(Repo repo) {
        this.repo = repo;
    }
}
`},
	{Path: "app/Config.java", Text: `package app;

import org.springframework.beans.factory.annotation.Autowired;
import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;

@Configuration
public class Config {
    @Autowired
    private DataSource ds;

    @Bean
    public Repo repo() {
        return new Repo(ds);
    }
}
`},
	{Path: "app/Engine.java", Text: `package app;

public class Engine {
    private final Fuel fuel;

    public Engine(Fuel fuel) {
        this.fuel = fuel;
    }
}
`},
	{Path: "app/Wiring.java", Text: `package app;

import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;

@Configuration
public class Wiring {
    @Bean
    public Engine engine(Fuel fuel) {
        return new Engine(fuel);
    }

    @Bean
    public Car car(Fuel fuel) {
        return new Car(engine(fuel));
    }
}
`},
}

func newDetector(t *testing.T, ids ...m.InspectionID) domain.Detector {
	t.Helper()

	ev, err := preconditions.NewEvaluator(preconditions.DefaultProfile, nil, nil)
	require.NoError(t, err)

	inspections, err := domain.SelectInspections(domain.Inspections(ev), ids)
	require.NoError(t, err)

	return domain.NewDetector(inspections...)
}

func findingsBySymbol(t *testing.T, p *program.Project, d domain.Detector) map[string]domain.Finding {
	t.Helper()

	findings, err := d.Detect(context.Background(), p)
	require.NoError(t, err)

	out := map[string]domain.Finding{}
	for _, fd := range findings {
		out[fd.Problem.Symbol] = fd
	}

	return out
}

func TestDetector_Detect(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	got := findingsBySymbol(t, p, newDetector(t))

	tests := []struct {
		symbol     string
		inspection m.InspectionID
		severity   m.Severity
		fix        string
	}{
		{"OrderService.repo", m.InspectionFieldInjection, m.SeverityWarning, "Convert field injection to constructor injection"},
		{"OrderService.audit", m.InspectionUnusedInjectedField, m.SeverityUnused, "Remove unused injected field"},
		{"Client.setRepo()", m.InspectionSetterInjection, m.SeverityWarning, "Convert setter injection to constructor injection"},
		{"Config.ds", m.InspectionFieldAsBeanParameter, m.SeverityWarning, "Inject as @Bean method parameter"},
		{"Wiring.engine()", m.InspectionUnnecessaryBean, m.SeverityWarning, "Replace @Bean method with @Import"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			fd, ok := got[tt.symbol]
			require.True(t, ok, "missing finding for %s", tt.symbol)

			assert.Equal(t, tt.inspection, fd.Problem.Inspection)
			assert.Equal(t, tt.severity, fd.Problem.Severity)
			assert.Equal(t, tt.fix, fd.Problem.FixName)
			require.NotNil(t, fd.Fix)
			assert.Equal(t, tt.fix, fd.Fix.Name())
			assert.NotEmpty(t, fd.Problem.Location.Path)
		})
	}

	assert.Len(t, got, len(tests))
}

func TestDetector_OrdersByLocation(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	findings, err := newDetector(t).Detect(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, findings)

	for i := 1; i < len(findings); i++ {
		prev, cur := findings[i-1].Problem.Location, findings[i].Problem.Location
		if prev.Path == cur.Path {
			assert.LessOrEqual(t, prev.Pos.Line, cur.Pos.Line)
		} else {
			assert.Less(t, prev.Path, cur.Path)
		}
	}
}

func TestDetector_CanceledContext(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDetector(t).Detect(ctx, p)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSelectInspections(t *testing.T) {
	ev, err := preconditions.NewEvaluator("", nil, nil)
	require.NoError(t, err)

	all := domain.Inspections(ev)

	got, err := domain.SelectInspections(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, len(all))

	got, err = domain.SelectInspections(all, []m.InspectionID{m.InspectionSetterInjection, m.InspectionFieldInjection})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, m.InspectionSetterInjection, got[0].ID())
	assert.Equal(t, m.InspectionFieldInjection, got[1].ID())

	_, err = domain.SelectInspections(all, []m.InspectionID{"autowire-everything"})
	require.ErrorIs(t, err, domain.ErrUnknownInspection)
}

func TestInspections_FilteredDetection(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	got := findingsBySymbol(t, p, newDetector(t, m.InspectionUnusedInjectedField))

	require.Len(t, got, 1)
	assert.Contains(t, got, "OrderService.audit")
}

func applyFinding(t *testing.T, p *program.Project, d domain.Detector, symbol string) domain.Outcome {
	t.Helper()

	fd, ok := findingsBySymbol(t, p, d)[symbol]
	require.True(t, ok, symbol)

	var outcome domain.Outcome

	require.NoError(t, p.Write(func(tx *program.Tx) error {
		var err error
		outcome, err = fd.Fix.Apply(tx)

		return err
	}))

	return outcome
}

func TestFix_RemoveUnusedField(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	outcome := applyFinding(t, p, newDetector(t), "OrderService.audit")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)

	got := pt.Render(pt.Unit(t, p, "app/OrderService.java"))
	assert.NotContains(t, got, "audit")
	assertContainsAll(t, got, "import org.springframework.beans.factory.annotation.Autowired;", "private Repo repo;")
}

func TestFix_BeanParameter(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	outcome := applyFinding(t, p, newDetector(t), "Config.ds")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)

	got := pt.Render(pt.Unit(t, p, "app/Config.java"))
	assertContainsAll(t, got, "public Repo repo(DataSource ds) {", "return new Repo(ds);")
	assertContainsNone(t, got, "private DataSource ds;", "@Autowired", "annotation.Autowired;")
}

func TestFix_SimplifyBeanMethod(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	outcome := applyFinding(t, p, newDetector(t), "Wiring.engine()")
	assert.Equal(t, m.ConfidenceHigh, outcome.Confidence)

	got := pt.Render(pt.Unit(t, p, "app/Wiring.java"))
	assertContainsAll(t, got,
		"@Import(Engine.class)",
		"import org.springframework.context.annotation.Import;",
		"public Car car(Fuel fuel, Engine engine) {",
		"return new Car(engine);",
	)
	assert.NotContains(t, got, "public Engine engine(")
	assert.NotContains(t, got, "{\n\n    @Bean", "removed first member must not leave a blank line")
}

func TestFix_MigrateSetterFromFinding(t *testing.T) {
	p := pt.Load(t, inspectionFixture)

	applyFinding(t, p, newDetector(t), "Client.setRepo()")

	got := pt.Render(pt.Unit(t, p, "app/Client.java"))
	assertContainsAll(t, got, "private final Repo repo;", "public Client(Repo repo) {", "this.repo = repo;")
	assertContainsNone(t, got, "setRepo", "@Autowired")
}

func TestPossiblyUnnecessaryBean(t *testing.T) {
	const src = `package app;

import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;

@Configuration
public class Wiring {
    @Bean
    public Engine engine(Fuel fuel) {
        return new Engine(fuel);
    }

    public void start(Fuel fuel) {
        engine(fuel).run();
    }
}
`
	const engine = `package app;

public class Engine {
    public Engine(Fuel fuel) {
    }
}
`

	p := pt.Load(t, []pt.Source{{Path: "app/Wiring.java", Text: src}, {Path: "app/Engine.java", Text: engine}})

	got := findingsBySymbol(t, p, newDetector(t, m.InspectionPossiblyUnnecessary, m.InspectionUnnecessaryBean))

	fd, ok := got["Wiring.engine()"]
	require.True(t, ok)
	assert.Equal(t, m.InspectionPossiblyUnnecessary, fd.Problem.Inspection)
	assert.Equal(t, m.SeverityWeakWarning, fd.Problem.Severity)
}
