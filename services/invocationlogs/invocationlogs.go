package invocationlogs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"mmjira/clients"
	"mmjira/config"
	"mmjira/core"
	"mmjira/db"
	"mmjira/models"
	"mmjira/services"
	"mmjira/utils"
)

var (
	_ services.InvocationLogsService = (*InvocationLogsService)(nil)
	_ clients.CallRecorder           = (*InvocationLogsService)(nil)
)

// executionTimePlaces matches the NUMERIC(10,4) execution_time column
const executionTimePlaces = 4

type InvocationLogsService struct {
	logsRepo db.InvocationLogsRepository
	config   config.LoggingConfig
	now      func() time.Time
}

func NewInvocationLogsService(repo db.InvocationLogsRepository, cfg config.LoggingConfig) *InvocationLogsService {
	return &InvocationLogsService{
		logsRepo: repo,
		config:   cfg,
		now:      time.Now,
	}
}

func (s *InvocationLogsService) IsEnabled() bool {
	return s.config.Enabled
}

type commandRequestPayload struct {
	Token       string `json:"token"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UserName    string `json:"user_name"`
	Command     string `json:"command"`
	Text        string `json:"text"`
}

type commandResponsePayload struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// LogCommand appends one entry per slash command. Storage failures are logged
// and never surface to the caller.
func (s *InvocationLogsService) LogCommand(ctx context.Context, invocation services.CommandInvocation) {
	if !s.IsEnabled() {
		return
	}

	request := invocation.Request
	entry := &models.InvocationLogEntry{
		ID:          core.NewID("log"),
		Timestamp:   s.now(),
		ChannelID:   request.ChannelID,
		ChannelName: request.ChannelName,
		UserName:    request.UserName,
		CommandText: request.Text,
		RequestPayload: mustJSON(commandRequestPayload{
			Token:       utils.RedactSecret(request.Token),
			ChannelID:   request.ChannelID,
			ChannelName: request.ChannelName,
			UserName:    request.UserName,
			Command:     request.Command,
			Text:        request.Text,
		}),
		ResponseCode:  200,
		ExecutionTime: durationSeconds(invocation.Duration),
		Status:        models.InvocationStatusSuccess,
	}
	if invocation.Response != nil {
		entry.ResponsePayload = mustJSON(commandResponsePayload{
			ResponseType: invocation.Response.ResponseType(),
			Text:         invocation.Response.Text,
		})
	}
	if invocation.Err != nil {
		message := invocation.Err.Error()
		entry.Status = models.InvocationStatusError
		entry.ErrorMessage = &message
	}

	s.append(ctx, entry)
}

type trackerCallPayload struct {
	Method        string                  `json:"method"`
	URL           string                  `json:"url"`
	Request       trackerCallMessage      `json:"request"`
	Response      trackerCallMessage      `json:"response"`
	ExecutionTime decimal.Decimal         `json:"execution_time"`
	Status        models.InvocationStatus `json:"status"`
	ErrorMessage  *string                 `json:"error_message"`
}

type trackerCallMessage struct {
	Code    int               `json:"code,omitempty"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// RecordTrackerCall stores an outbound tracker request under the tracker-api
// sentinel channel. Every call is recorded, whatever its outcome.
func (s *InvocationLogsService) RecordTrackerCall(ctx context.Context, call models.TrackerCall) {
	if !s.IsEnabled() {
		return
	}

	status := models.InvocationStatusSuccess
	var errorMessage *string
	if call.Err != nil {
		message := call.Err.Error()
		status = models.InvocationStatusError
		errorMessage = &message
	} else if call.ResponseCode >= 400 {
		status = models.InvocationStatusError
	}

	executionTime := durationSeconds(call.Duration)
	payload := trackerCallPayload{
		Method:        call.Method,
		URL:           call.URL,
		Request:       trackerCallMessage{Headers: call.RequestHeaders, Body: call.RequestBody},
		Response:      trackerCallMessage{Code: call.ResponseCode, Headers: call.ResponseHeaders, Body: call.ResponseBody},
		ExecutionTime: executionTime,
		Status:        status,
		ErrorMessage:  errorMessage,
	}

	s.append(ctx, &models.InvocationLogEntry{
		ID:             core.NewID("log"),
		Timestamp:      s.now(),
		ChannelID:      models.TrackerAPIChannelID,
		ChannelName:    models.TrackerAPIChannelName,
		UserName:       models.TrackerAPIUserName,
		CommandText:    fmt.Sprintf("Jira %s Request", call.Method),
		RequestPayload: mustJSONIndent(payload),
		ResponseCode:   call.ResponseCode,
		ExecutionTime:  executionTime,
		Status:         status,
		ErrorMessage:   errorMessage,
	})
}

func (s *InvocationLogsService) append(ctx context.Context, entry *models.InvocationLogEntry) {
	// the caller's request may already be finished when the log is written
	if err := s.logsRepo.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("❌ Failed to write invocation log for %s: %v", entry.CommandText, err)
	}
}

func (s *InvocationLogsService) QueryLogs(
	ctx context.Context,
	filters models.LogFilters,
	page, pageSize int,
) (*models.LogPage, error) {
	result, err := s.logsRepo.QueryLogs(ctx, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	return result, nil
}

func (s *InvocationLogsService) GetLogByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.InvocationLogEntry], error) {
	if !core.IsValidID(id, "log") {
		return mo.None[*models.InvocationLogEntry](), nil
	}
	entry, err := s.logsRepo.GetLogByID(ctx, id)
	if err != nil {
		return mo.None[*models.InvocationLogEntry](), fmt.Errorf("failed to get log %s: %w", id, err)
	}
	return entry, nil
}

func (s *InvocationLogsService) ClearLogs(ctx context.Context) (int64, error) {
	log.Printf("📋 Starting to clear all invocation logs")
	deleted, err := s.logsRepo.DeleteAllLogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear logs: %w", err)
	}
	log.Printf("📋 Completed successfully - cleared %d invocation logs", deleted)
	return deleted, nil
}

// CleanupOldLogs deletes entries older than days. A non-positive value falls
// back to the configured retention.
func (s *InvocationLogsService) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = s.config.RetentionDays
	}
	if days <= 0 {
		return 0, core.NewValidationError("Retention days must be a positive number")
	}

	log.Printf("📋 Starting to clean up invocation logs older than %d days", days)
	deleted, err := s.logsRepo.DeleteLogsOlderThan(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up logs: %w", err)
	}
	log.Printf("📋 Completed successfully - removed %d invocation logs", deleted)
	return deleted, nil
}

func (s *InvocationLogsService) GetStatistics(ctx context.Context) (*models.LogStatistics, error) {
	stats, err := s.logsRepo.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get log statistics: %w", err)
	}
	return stats, nil
}

func (s *InvocationLogsService) GetChannelActivity(
	ctx context.Context,
	channelID string,
) (*models.ChannelActivity, error) {
	activity, err := s.logsRepo.GetChannelActivity(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel activity: %w", err)
	}
	return activity, nil
}

func durationSeconds(d time.Duration) decimal.Decimal {
	return decimal.NewFromFloat(d.Seconds()).Round(executionTimePlaces)
}

func mustJSON(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(encoded)
}

func mustJSONIndent(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(encoded)
}
