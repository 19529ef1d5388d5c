package clients

import (
	"context"
	"encoding/json"

	"mmjira/models"
)

// TrackerClient is the Jira REST surface used by the services
type TrackerClient interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)

	CreateIssue(ctx context.Context, input models.IssueInput) (*models.IssueCreateResponse, error)
	GetIssue(ctx context.Context, issueKey string) (*models.TrackerIssue, error)
	AssignIssue(ctx context.Context, issueKey, accountID string) error
	SearchIssues(ctx context.Context, jql string, maxResults int) (*models.IssueSearchResponse, error)
	UploadAttachment(ctx context.Context, issueKey, filePath string) ([]models.AttachmentResponse, error)

	GetIssueTypes(ctx context.Context, projectKey string) ([]models.TrackerIssueType, error)
	ValidateIssueType(ctx context.Context, projectKey, issueTypeName string) (*models.TrackerIssueType, error)

	SearchUsers(ctx context.Context, query string) ([]models.TrackerUser, error)
	ListProjects(ctx context.Context) ([]models.TrackerProject, error)
	Myself(ctx context.Context) (*models.TrackerUser, error)

	// BaseURL is the https origin of the tracker, used to build browse links
	BaseURL() string
}

// CallRecorder receives every outbound tracker call that reached the network
type CallRecorder interface {
	RecordTrackerCall(ctx context.Context, call models.TrackerCall)
}
