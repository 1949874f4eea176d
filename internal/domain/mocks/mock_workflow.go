// Package mocks holds testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
)

// MockWorkflow is a mock type for the Workflow type.
type MockWorkflow struct {
	mock.Mock
}

// Inspect provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Inspect(ctx context.Context, args domain.InspectArgs) error {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for Inspect")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.InspectArgs) error); ok {
		return rf(ctx, args)
	}

	return ret.Error(0)
}

// Watch provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Watch(ctx context.Context, args domain.WatchArgs) error {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for Watch")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.WatchArgs) error); ok {
		return rf(ctx, args)
	}

	return ret.Error(0)
}

// Fix provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) Fix(ctx context.Context, args domain.FixArgs) error {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for Fix")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.FixArgs) error); ok {
		return rf(ctx, args)
	}

	return ret.Error(0)
}

// View provides a mock function with given fields: ctx, args.
func (_m *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for View")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.ViewArgs) error); ok {
		return rf(ctx, args)
	}

	return ret.Error(0)
}

// NewMockWorkflow creates a new instance of MockWorkflow. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	m := &MockWorkflow{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ domain.Workflow = (*MockWorkflow)(nil)
