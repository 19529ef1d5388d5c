package invocationlogs

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"mmjira/models"
	"mmjira/services"
)

type MockInvocationLogsService struct {
	mock.Mock
}

func (m *MockInvocationLogsService) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockInvocationLogsService) LogCommand(ctx context.Context, invocation services.CommandInvocation) {
	m.Called(ctx, invocation)
}

func (m *MockInvocationLogsService) RecordTrackerCall(ctx context.Context, call models.TrackerCall) {
	m.Called(ctx, call)
}

func (m *MockInvocationLogsService) QueryLogs(
	ctx context.Context,
	filters models.LogFilters,
	page, pageSize int,
) (*models.LogPage, error) {
	args := m.Called(ctx, filters, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LogPage), args.Error(1)
}

func (m *MockInvocationLogsService) GetLogByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.InvocationLogEntry], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.InvocationLogEntry](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.InvocationLogEntry]), args.Error(1)
}

func (m *MockInvocationLogsService) ClearLogs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvocationLogsService) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvocationLogsService) GetStatistics(ctx context.Context) (*models.LogStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LogStatistics), args.Error(1)
}

func (m *MockInvocationLogsService) GetChannelActivity(
	ctx context.Context,
	channelID string,
) (*models.ChannelActivity, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelActivity), args.Error(1)
}
