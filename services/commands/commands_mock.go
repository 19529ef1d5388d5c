package commands

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mmjira/models"
)

type MockCommandsService struct {
	mock.Mock
}

func (m *MockCommandsService) ProcessCommand(
	ctx context.Context,
	request models.SlashCommandRequest,
) *models.CommandResponse {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.CommandResponse)
}
