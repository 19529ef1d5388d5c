package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvocationStatus string

const (
	InvocationStatusSuccess InvocationStatus = "success"
	InvocationStatusError   InvocationStatus = "error"
)

// TrackerAPIChannelID marks log entries produced by outbound tracker calls
// rather than by an inbound slash command.
const (
	TrackerAPIChannelID   = "tracker-api"
	TrackerAPIChannelName = "Jira API"
	TrackerAPIUserName    = "system"
)

type InvocationLogEntry struct {
	ID              string           `json:"id"               db:"id"`
	Timestamp       time.Time        `json:"timestamp"        db:"timestamp"`
	ChannelID       string           `json:"channel_id"       db:"channel_id"`
	ChannelName     string           `json:"channel_name"     db:"channel_name"`
	UserName        string           `json:"user_name"        db:"user_name"`
	CommandText     string           `json:"command_text"     db:"command_text"`
	RequestPayload  string           `json:"request_payload"  db:"request_payload"`
	ResponsePayload string           `json:"response_payload" db:"response_payload"`
	ResponseCode    int              `json:"response_code"    db:"response_code"`
	ExecutionTime   decimal.Decimal  `json:"execution_time"   db:"execution_time"`
	Status          InvocationStatus `json:"status"           db:"status"`
	ErrorMessage    *string          `json:"error_message"    db:"error_message"`
}

// LogFilters narrows InvocationLogEntry queries. Empty fields are ignored.
type LogFilters struct {
	ChannelID string
	UserName  string // substring match
	Status    InvocationStatus
}

type LogPage struct {
	Logs        []*InvocationLogEntry `json:"logs"`
	Total       int                   `json:"total"`
	Pages       int                   `json:"pages"`
	CurrentPage int                   `json:"current_page"`
}

type CountByKey struct {
	Key   string `json:"key"   db:"key"`
	Count int    `json:"count" db:"count"`
}

type LogStatistics struct {
	Total     int          `json:"total"`
	ByStatus  []CountByKey `json:"by_status"`
	ByChannel []CountByKey `json:"by_channel"`
	ByUser    []CountByKey `json:"by_user"`
	Recent    int          `json:"recent"`
}

// ChannelActivity summarises slash command usage for a single channel.
type ChannelActivity struct {
	IssuesCreated  int        `db:"issues_created"`
	RecentCommands int        `db:"recent_commands"`
	LastActivity   *time.Time `db:"last_activity"`
}

// TrackerCall is one outbound tracker request as seen by the logger.
type TrackerCall struct {
	Method          string
	URL             string
	RequestHeaders  map[string]string
	RequestBody     string
	ResponseCode    int
	ResponseHeaders map[string]string
	ResponseBody    string
	Duration        time.Duration
	Err             error
}
