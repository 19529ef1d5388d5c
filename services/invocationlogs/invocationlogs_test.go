package invocationlogs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
	"mmjira/services"
	"mmjira/services/invocationlogs"
	"mmjira/testutils"
)

func enabled() config.LoggingConfig {
	return config.LoggingConfig{Enabled: true, RetentionDays: 30}
}

func TestInvocationLogsService_LogCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())

		service.LogCommand(ctx, services.CommandInvocation{
			Request: models.SlashCommandRequest{
				Token:       "super-secret-token",
				ChannelID:   "ch1",
				ChannelName: "town-square",
				UserName:    "alice",
				Command:     "/jira",
				Text:        "create Fix login",
			},
			Response: models.ChannelResponse("✅ Created PROJ-1"),
			Duration: 1234567 * time.Microsecond,
		})

		entries := repo.Entries()
		require.Len(t, entries, 1)
		entry := entries[0]
		assert.True(t, core.IsValidID(entry.ID, "log"))
		assert.Equal(t, "ch1", entry.ChannelID)
		assert.Equal(t, "alice", entry.UserName)
		assert.Equal(t, "create Fix login", entry.CommandText)
		assert.Equal(t, models.InvocationStatusSuccess, entry.Status)
		assert.Nil(t, entry.ErrorMessage)
		assert.Equal(t, 200, entry.ResponseCode)
		assert.Equal(t, "1.2346", entry.ExecutionTime.String())

		assert.NotContains(t, entry.RequestPayload, "super-secret-token")
		assert.Contains(t, entry.RequestPayload, "****oken")

		var response map[string]string
		require.NoError(t, json.Unmarshal([]byte(entry.ResponsePayload), &response))
		assert.Equal(t, "in_channel", response["response_type"])
	})

	t.Run("failed command records the error", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())

		service.LogCommand(ctx, services.CommandInvocation{
			Request:  models.SlashCommandRequest{ChannelID: "ch1", Text: "view nope"},
			Response: models.PrivateResponse("❌ oops"),
			Err:      errors.New("boom"),
		})

		entries := repo.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, models.InvocationStatusError, entries[0].Status)
		require.NotNil(t, entries[0].ErrorMessage)
		assert.Equal(t, "boom", *entries[0].ErrorMessage)
	})

	t.Run("disabled logging writes nothing", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, config.LoggingConfig{Enabled: false})

		service.LogCommand(ctx, services.CommandInvocation{Request: models.SlashCommandRequest{Text: "help"}})
		service.RecordTrackerCall(ctx, models.TrackerCall{Method: "GET", URL: "https://x.atlassian.net"})

		assert.Empty(t, repo.Entries())
		assert.False(t, service.IsEnabled())
	})
}

func TestInvocationLogsService_RecordTrackerCall(t *testing.T) {
	ctx := context.Background()

	t.Run("every call carries method url status and duration", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())

		service.RecordTrackerCall(ctx, models.TrackerCall{
			Method:         "POST",
			URL:            "https://acme.atlassian.net/rest/api/2/issue",
			RequestHeaders: map[string]string{"Authorization": "Basic [REDACTED]"},
			RequestBody:    `{"fields":{}}`,
			ResponseCode:   201,
			ResponseBody:   `{"key":"PROJ-1"}`,
			Duration:       250 * time.Millisecond,
		})
		service.RecordTrackerCall(ctx, models.TrackerCall{
			Method:       "GET",
			URL:          "https://acme.atlassian.net/rest/api/2/user/search",
			ResponseCode: 404,
		})
		service.RecordTrackerCall(ctx, models.TrackerCall{
			Method: "GET",
			URL:    "https://acme.atlassian.net/rest/api/2/project",
			Err:    errors.New("dial tcp: timeout"),
		})

		entries := repo.Entries()
		require.Len(t, entries, 3)
		for _, entry := range entries {
			assert.Equal(t, models.TrackerAPIChannelID, entry.ChannelID)
			assert.Equal(t, models.TrackerAPIUserName, entry.UserName)

			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(entry.RequestPayload), &payload))
			assert.NotEmpty(t, payload["method"])
			assert.NotEmpty(t, payload["url"])
			assert.Contains(t, payload, "execution_time")
		}

		assert.Equal(t, "Jira POST Request", entries[0].CommandText)
		assert.Equal(t, models.InvocationStatusSuccess, entries[0].Status)
		assert.Equal(t, 201, entries[0].ResponseCode)
		assert.Equal(t, "0.25", entries[0].ExecutionTime.String())

		assert.Equal(t, models.InvocationStatusError, entries[1].Status)
		assert.Nil(t, entries[1].ErrorMessage)

		assert.Equal(t, models.InvocationStatusError, entries[2].Status)
		require.NotNil(t, entries[2].ErrorMessage)
		assert.Contains(t, *entries[2].ErrorMessage, "timeout")
	})
}

func TestInvocationLogsService_Maintenance(t *testing.T) {
	ctx := context.Background()

	t.Run("cleanup falls back to configured retention", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())

		require.NoError(t, repo.AppendLog(ctx, &models.InvocationLogEntry{
			ID:        core.NewID("log"),
			Timestamp: time.Now().AddDate(0, 0, -45),
		}))
		require.NoError(t, repo.AppendLog(ctx, &models.InvocationLogEntry{
			ID:        core.NewID("log"),
			Timestamp: time.Now(),
		}))

		deleted, err := service.CleanupOldLogs(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		assert.Len(t, repo.Entries(), 1)
	})

	t.Run("cleanup without any retention is rejected", func(t *testing.T) {
		service := invocationlogs.NewInvocationLogsService(
			testutils.NewMemoryInvocationLogsRepository(),
			config.LoggingConfig{Enabled: true},
		)

		_, err := service.CleanupOldLogs(ctx, 0)
		var validationErr *core.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())
		service.LogCommand(ctx, services.CommandInvocation{Request: models.SlashCommandRequest{Text: "help"}})
		service.LogCommand(ctx, services.CommandInvocation{Request: models.SlashCommandRequest{Text: "status"}})

		deleted, err := service.ClearLogs(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.Empty(t, repo.Entries())
	})

	t.Run("get by id ignores malformed ids", func(t *testing.T) {
		repo := testutils.NewMemoryInvocationLogsRepository()
		service := invocationlogs.NewInvocationLogsService(repo, enabled())
		service.LogCommand(ctx, services.CommandInvocation{Request: models.SlashCommandRequest{Text: "help"}})
		stored := repo.Entries()[0]

		found, err := service.GetLogByID(ctx, stored.ID)
		require.NoError(t, err)
		assert.True(t, found.IsPresent())

		missing, err := service.GetLogByID(ctx, "42")
		require.NoError(t, err)
		assert.True(t, missing.IsAbsent())
	})
}
