package mappings

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"mmjira/models"
)

type MockMappingsService struct {
	mock.Mock
}

func (m *MockMappingsService) GetMapping(
	ctx context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return mo.None[*models.ChannelProjectMapping](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.ChannelProjectMapping]), args.Error(1)
}

func (m *MockMappingsService) BindChannel(
	ctx context.Context,
	channelID, channelName, projectKey string,
) (*models.ChannelProjectMapping, mo.Option[*models.ChannelProjectMapping], error) {
	args := m.Called(ctx, channelID, channelName, projectKey)
	previous := mo.None[*models.ChannelProjectMapping]()
	if args.Get(1) != nil {
		previous = args.Get(1).(mo.Option[*models.ChannelProjectMapping])
	}
	if args.Get(0) == nil {
		return nil, previous, args.Error(2)
	}
	return args.Get(0).(*models.ChannelProjectMapping), previous, args.Error(2)
}

func (m *MockMappingsService) UnbindChannel(
	ctx context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return mo.None[*models.ChannelProjectMapping](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.ChannelProjectMapping]), args.Error(1)
}

func (m *MockMappingsService) ListMappings(ctx context.Context) ([]*models.ChannelProjectMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChannelProjectMapping), args.Error(1)
}

func (m *MockMappingsService) CreateMapping(
	ctx context.Context,
	channelID, channelName, projectKey string,
) (*models.ChannelProjectMapping, error) {
	args := m.Called(ctx, channelID, channelName, projectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelProjectMapping), args.Error(1)
}

func (m *MockMappingsService) GetMappingByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.ChannelProjectMapping](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.ChannelProjectMapping]), args.Error(1)
}

func (m *MockMappingsService) DeleteMappingByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
