// Package mocks holds testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cleanspring.dev/pkg/cleanspring/internal/controller"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// MockUI is a mock type for the UI type.
type MockUI struct {
	mock.Mock
}

// Start provides a mock function with given fields: ctx, options.
func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	args := []interface{}{ctx}
	for _, o := range options {
		args = append(args, o)
	}

	ret := _m.Called(args...)

	if len(ret) == 0 {
		panic("no return value specified for Start")
	}

	return ret.Error(0)
}

// Close provides a mock function with given fields: ctx.
func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// Wait provides a mock function with given fields: ctx.
func (_m *MockUI) Wait(ctx context.Context) {
	_m.Called(ctx)
}

// Closed provides a mock function with no fields.
func (_m *MockUI) Closed() <-chan struct{} {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Closed")
	}

	ch, _ := ret.Get(0).(<-chan struct{})

	return ch
}

// DisplayProblems provides a mock function with given fields: ctx, problems, warnings.
func (_m *MockUI) DisplayProblems(ctx context.Context, problems []m.Problem, warnings []string) error {
	ret := _m.Called(ctx, problems, warnings)

	if len(ret) == 0 {
		panic("no return value specified for DisplayProblems")
	}

	return ret.Error(0)
}

// DisplayFixResult provides a mock function with given fields: ctx, result.
func (_m *MockUI) DisplayFixResult(ctx context.Context, result m.FixResult) {
	_m.Called(ctx, result)
}

// DisplayDiff provides a mock function with given fields: ctx, path, diff.
func (_m *MockUI) DisplayDiff(ctx context.Context, path m.Path, diff string) {
	_m.Called(ctx, path, diff)
}

// DisplayReport provides a mock function with given fields: ctx, report.
func (_m *MockUI) DisplayReport(ctx context.Context, report m.Report) error {
	ret := _m.Called(ctx, report)

	if len(ret) == 0 {
		panic("no return value specified for DisplayReport")
	}

	return ret.Error(0)
}

// NewMockUI creates a new instance of MockUI. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

var _ controller.UI = (*MockUI)(nil)
