// Package mocks holds testify mocks of the adapter interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"cleanspring.dev/pkg/cleanspring/internal/adapter"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockGitAdapter is a mock type for the GitAdapter type.
type MockGitAdapter struct {
	mock.Mock
}

// Dirty provides a mock function with given fields: root.
func (_m *MockGitAdapter) Dirty(root m.Path) ([]string, error) {
	ret := _m.Called(root)

	if len(ret) == 0 {
		panic("no return value specified for Dirty")
	}

	paths, _ := ret.Get(0).([]string)

	return paths, ret.Error(1)
}

// NewMockGitAdapter creates a new instance of MockGitAdapter.
func NewMockGitAdapter(t testingT) *MockGitAdapter {
	g := &MockGitAdapter{}
	g.Mock.Test(t)

	t.Cleanup(func() { g.AssertExpectations(t) })

	return g
}

// MockWatcher is a mock type for the Watcher type.
type MockWatcher struct {
	mock.Mock
}

// Watch provides a mock function with given fields: ctx, roots, debounce, onChange.
func (_m *MockWatcher) Watch(ctx context.Context, roots []m.Path, debounce time.Duration, onChange func([]m.Path)) error {
	ret := _m.Called(ctx, roots, debounce, onChange)

	if len(ret) == 0 {
		panic("no return value specified for Watch")
	}

	if rf, ok := ret.Get(0).(func(context.Context, []m.Path, time.Duration, func([]m.Path)) error); ok {
		return rf(ctx, roots, debounce, onChange)
	}

	return ret.Error(0)
}

// NewMockWatcher creates a new instance of MockWatcher.
func NewMockWatcher(t testingT) *MockWatcher {
	w := &MockWatcher{}
	w.Mock.Test(t)

	t.Cleanup(func() { w.AssertExpectations(t) })

	return w
}

// MockReportStore is a mock type for the ReportStore type.
type MockReportStore struct {
	mock.Mock
}

// NewRunID provides a mock function with no fields.
func (_m *MockReportStore) NewRunID() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for NewRunID")
	}

	return ret.String(0)
}

// SaveReport provides a mock function with given fields: dir, report.
func (_m *MockReportStore) SaveReport(dir m.Path, report m.Report) (m.Path, error) {
	ret := _m.Called(dir, report)

	if len(ret) == 0 {
		panic("no return value specified for SaveReport")
	}

	path, _ := ret.Get(0).(m.Path)

	return path, ret.Error(1)
}

// LoadReport provides a mock function with given fields: path.
func (_m *MockReportStore) LoadReport(path m.Path) (m.Report, error) {
	ret := _m.Called(path)

	if len(ret) == 0 {
		panic("no return value specified for LoadReport")
	}

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

// LatestReport provides a mock function with given fields: dir.
func (_m *MockReportStore) LatestReport(dir m.Path) (m.Report, error) {
	ret := _m.Called(dir)

	if len(ret) == 0 {
		panic("no return value specified for LatestReport")
	}

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

// NewMockReportStore creates a new instance of MockReportStore.
func NewMockReportStore(t testingT) *MockReportStore {
	s := &MockReportStore{}
	s.Mock.Test(t)

	t.Cleanup(func() { s.AssertExpectations(t) })

	return s
}

var (
	_ adapter.GitAdapter  = (*MockGitAdapter)(nil)
	_ adapter.Watcher     = (*MockWatcher)(nil)
	_ adapter.ReportStore = (*MockReportStore)(nil)
)
