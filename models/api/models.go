package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MappingModel represents a channel binding returned by the admin API
type MappingModel struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	ProjectKey  string    `json:"project_key"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateMappingRequest struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	ProjectKey  string `json:"project_key"`
}

// LogSummaryModel is a log row without payloads, used in listings
type LogSummaryModel struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	ChannelID     string          `json:"channel_id"`
	ChannelName   string          `json:"channel_name"`
	UserName      string          `json:"user_name"`
	CommandText   string          `json:"command_text"`
	ResponseCode  int             `json:"response_code"`
	ExecutionTime decimal.Decimal `json:"execution_time"`
	Status        string          `json:"status"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
}

// LogDetailModel carries the stored payloads. Payloads that are valid JSON
// are embedded as objects, anything else as a string.
type LogDetailModel struct {
	LogSummaryModel
	RequestPayload  json.RawMessage `json:"request_payload"`
	ResponsePayload json.RawMessage `json:"response_payload"`
}

type LogPageModel struct {
	Logs        []*LogSummaryModel `json:"logs"`
	Total       int                `json:"total"`
	Pages       int                `json:"pages"`
	CurrentPage int                `json:"current_page"`
}

type DeletedModel struct {
	Deleted int64 `json:"deleted"`
}
