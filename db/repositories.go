package db

import (
	"context"

	"github.com/samber/mo"

	"mmjira/models"
)

// MappingsRepository stores channel to project bindings keyed by channel id
type MappingsRepository interface {
	UpsertMapping(ctx context.Context, mapping *models.ChannelProjectMapping) error
	CreateMapping(ctx context.Context, mapping *models.ChannelProjectMapping) (bool, error)
	GetMappingByChannelID(ctx context.Context, channelID string) (mo.Option[*models.ChannelProjectMapping], error)
	GetMappingByID(ctx context.Context, id string) (mo.Option[*models.ChannelProjectMapping], error)
	ListMappings(ctx context.Context) ([]*models.ChannelProjectMapping, error)
	DeleteMappingByChannelID(ctx context.Context, channelID string) (bool, error)
	DeleteMappingByID(ctx context.Context, id string) (bool, error)
}

// InvocationLogsRepository is the append-only command and tracker call log
type InvocationLogsRepository interface {
	AppendLog(ctx context.Context, entry *models.InvocationLogEntry) error
	GetLogByID(ctx context.Context, id string) (mo.Option[*models.InvocationLogEntry], error)
	QueryLogs(ctx context.Context, filters models.LogFilters, page, pageSize int) (*models.LogPage, error)
	DeleteAllLogs(ctx context.Context) (int64, error)
	DeleteLogsOlderThan(ctx context.Context, days int) (int64, error)
	GetStatistics(ctx context.Context) (*models.LogStatistics, error)
	GetChannelActivity(ctx context.Context, channelID string) (*models.ChannelActivity, error)
}

var (
	_ MappingsRepository       = (*PostgresMappingsRepository)(nil)
	_ InvocationLogsRepository = (*PostgresInvocationLogsRepository)(nil)
)
