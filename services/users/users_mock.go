package users

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mmjira/models"
)

type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) ResolveAccountID(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockUsersService) FindUsers(ctx context.Context, identifier string) (*models.UserMatches, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserMatches), args.Error(1)
}
