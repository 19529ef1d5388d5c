package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"mmjira/models"
)

// CommandsService answers slash commands. It never returns an error: every
// failure is rendered as a private reply.
type CommandsService interface {
	ProcessCommand(ctx context.Context, request models.SlashCommandRequest) *models.CommandResponse
}

// MappingsService manages channel to project bindings
type MappingsService interface {
	GetMapping(ctx context.Context, channelID string) (mo.Option[*models.ChannelProjectMapping], error)
	// BindChannel upserts the binding and also returns the one it replaced, if any
	BindChannel(
		ctx context.Context,
		channelID, channelName, projectKey string,
	) (*models.ChannelProjectMapping, mo.Option[*models.ChannelProjectMapping], error)
	// UnbindChannel returns the removed binding, or None when the channel was not bound
	UnbindChannel(ctx context.Context, channelID string) (mo.Option[*models.ChannelProjectMapping], error)
	ListMappings(ctx context.Context) ([]*models.ChannelProjectMapping, error)
	CreateMapping(ctx context.Context, channelID, channelName, projectKey string) (*models.ChannelProjectMapping, error)
	GetMappingByID(ctx context.Context, id string) (mo.Option[*models.ChannelProjectMapping], error)
	DeleteMappingByID(ctx context.Context, id string) error
}

// CommandInvocation is one processed slash command as handed to the logger
type CommandInvocation struct {
	Request  models.SlashCommandRequest
	Response *models.CommandResponse
	Duration time.Duration
	Err      error
}

// InvocationLogsService records inbound commands and outbound tracker calls
type InvocationLogsService interface {
	IsEnabled() bool
	LogCommand(ctx context.Context, invocation CommandInvocation)
	RecordTrackerCall(ctx context.Context, call models.TrackerCall)
	QueryLogs(ctx context.Context, filters models.LogFilters, page, pageSize int) (*models.LogPage, error)
	GetLogByID(ctx context.Context, id string) (mo.Option[*models.InvocationLogEntry], error)
	ClearLogs(ctx context.Context) (int64, error)
	CleanupOldLogs(ctx context.Context, days int) (int64, error)
	GetStatistics(ctx context.Context) (*models.LogStatistics, error)
	GetChannelActivity(ctx context.Context, channelID string) (*models.ChannelActivity, error)
}

// UsersService resolves chat identities to tracker accounts
type UsersService interface {
	ResolveAccountID(ctx context.Context, identifier string) (string, error)
	FindUsers(ctx context.Context, identifier string) (*models.UserMatches, error)
}

// ReportsService files public reports as tracker issues
type ReportsService interface {
	SubmitReport(ctx context.Context, report models.Report) (*models.ReportResult, error)
	AttachFiles(ctx context.Context, issueKey string, paths []string) ([]models.AttachmentResponse, []string, error)
}

// TransactionManager handles database transactions via context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
