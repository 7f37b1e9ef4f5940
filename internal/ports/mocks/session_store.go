package mocks

import (
	"context"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSessionStore struct {
	mock.Mock
}

func NewMockSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionStore) Get(ctx context.Context) (domain.SessionToken, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SessionToken), args.Error(1)
}

func (m *MockSessionStore) Set(ctx context.Context, token domain.SessionToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionStore) GetProfile(ctx context.Context) (*domain.Profile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*domain.Profile)
	return profile, args.Error(1)
}

func (m *MockSessionStore) SetProfile(ctx context.Context, profile domain.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockSessionStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
