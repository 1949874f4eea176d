package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
	domainmocks "cleanspring.dev/pkg/cleanspring/internal/domain/mocks"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

func withMockWorkflow(t *testing.T) *domainmocks.MockWorkflow {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow

	t.Cleanup(func() { workflow = originalWorkflow })

	return mockWorkflow
}

func executeWith(t *testing.T, sub func() *cobra.Command, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(sub())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	return cmd.Execute()
}

func TestInspectCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		match func(domain.InspectArgs) bool
	}{
		{
			name: "defaults",
			args: []string{"inspect"},
			match: func(a domain.InspectArgs) bool {
				return len(a.Paths) == 0 &&
					a.Reports == m.Path(defaultReportsDir) &&
					a.Profile == defaultProfile &&
					a.Parallel == defaultRunParallel &&
					len(a.Inspections) == 0
			},
		},
		{
			name: "paths and filters",
			args: []string{"inspect", "--inspection", "field-injection,setter-injection", "-x", "Test", "./src/...", "./lib"},
			match: func(a domain.InspectArgs) bool {
				return assert.ObjectsAreEqual([]m.Path{"./src/...", "./lib"}, a.Paths) &&
					assert.ObjectsAreEqual([]m.InspectionID{m.InspectionFieldInjection, m.InspectionSetterInjection}, a.Inspections) &&
					assert.ObjectsAreEqual([]string{"Test"}, a.Exclude)
			},
		},
		{
			name: "rules",
			args: []string{"inspect", "--profile", "strict", "--disable-rule", "setter.no-xml-usage", "--parallel", "8", "-o", "out"},
			match: func(a domain.InspectArgs) bool {
				return a.Profile == "strict" &&
					assert.ObjectsAreEqual([]string{"setter.no-xml-usage"}, a.DisableRules) &&
					a.Parallel == 8 &&
					a.Reports == m.Path("out")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow := withMockWorkflow(t)
			mockWorkflow.On("Inspect", mock.Anything, mock.MatchedBy(tt.match)).Return(nil).Once()

			require.NoError(t, executeWith(t, newInspectCmd, tt.args...))
		})
	}
}

func TestInspectCmd_Watch(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.On("Watch", mock.Anything, mock.MatchedBy(func(a domain.WatchArgs) bool {
		return a.Debounce == defaultWatchDebounce && assert.ObjectsAreEqual([]m.Path{"./..."}, a.Paths)
	})).Return(nil).Once()

	require.NoError(t, executeWith(t, newInspectCmd, "inspect", "--watch", "./..."))
}

func TestInspectCmd_WatchDebounceFromEnv(t *testing.T) {
	t.Setenv("CLEANSPRING_WATCH_DEBOUNCE", "2s")

	mockWorkflow := withMockWorkflow(t)
	mockWorkflow.On("Watch", mock.Anything, mock.MatchedBy(func(a domain.WatchArgs) bool {
		return a.Debounce == 2*time.Second
	})).Return(nil).Once()

	require.NoError(t, executeWith(t, newInspectCmd, "inspect", "-w"))
}

func TestParseInspections(t *testing.T) {
	assert.Empty(t, parseInspections(nil))
	assert.Equal(t,
		[]m.InspectionID{m.InspectionUnusedInjectedField},
		parseInspections([]string{"unused-injected-field"}))
}
