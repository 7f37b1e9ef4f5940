package mocks

import (
	"context"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCredentialBroker struct {
	mock.Mock
}

func NewMockCredentialBroker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialBroker {
	m := &MockCredentialBroker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialBroker) Prompt(ctx context.Context) domain.ConsentResult {
	args := m.Called(ctx)
	return args.Get(0).(domain.ConsentResult)
}

type MockProfileFetcher struct {
	mock.Mock
}

func NewMockProfileFetcher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProfileFetcher {
	m := &MockProfileFetcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProfileFetcher) FetchProfile(ctx context.Context, accessToken string) *domain.Profile {
	args := m.Called(ctx, accessToken)
	profile, _ := args.Get(0).(*domain.Profile)
	return profile
}
