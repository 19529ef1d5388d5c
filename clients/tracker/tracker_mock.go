package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"mmjira/clients"
	"mmjira/models"
)

var _ clients.TrackerClient = (*MockTrackerClient)(nil)

// MockTrackerClient implements clients.TrackerClient for testing. Unset
// functions fail with an error naming the method.
type MockTrackerClient struct {
	MockRequest           func(ctx context.Context, method, path string, body any) (json.RawMessage, error)
	MockCreateIssue       func(ctx context.Context, input models.IssueInput) (*models.IssueCreateResponse, error)
	MockGetIssue          func(ctx context.Context, issueKey string) (*models.TrackerIssue, error)
	MockAssignIssue       func(ctx context.Context, issueKey, accountID string) error
	MockSearchIssues      func(ctx context.Context, jql string, maxResults int) (*models.IssueSearchResponse, error)
	MockUploadAttachment  func(ctx context.Context, issueKey, filePath string) ([]models.AttachmentResponse, error)
	MockGetIssueTypes     func(ctx context.Context, projectKey string) ([]models.TrackerIssueType, error)
	MockValidateIssueType func(ctx context.Context, projectKey, issueTypeName string) (*models.TrackerIssueType, error)
	MockSearchUsers       func(ctx context.Context, query string) ([]models.TrackerUser, error)
	MockListProjects      func(ctx context.Context) ([]models.TrackerProject, error)
	MockMyself            func(ctx context.Context) (*models.TrackerUser, error)

	MockBaseURL string
}

func NewMockTrackerClient() *MockTrackerClient {
	return &MockTrackerClient{MockBaseURL: "https://test.atlassian.net"}
}

func notMocked(method string) error {
	return fmt.Errorf("MockTrackerClient.%s not mocked", method)
}

func (m *MockTrackerClient) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if m.MockRequest != nil {
		return m.MockRequest(ctx, method, path, body)
	}
	return nil, notMocked("Request")
}

func (m *MockTrackerClient) CreateIssue(ctx context.Context, input models.IssueInput) (*models.IssueCreateResponse, error) {
	if m.MockCreateIssue != nil {
		return m.MockCreateIssue(ctx, input)
	}
	return nil, notMocked("CreateIssue")
}

func (m *MockTrackerClient) GetIssue(ctx context.Context, issueKey string) (*models.TrackerIssue, error) {
	if m.MockGetIssue != nil {
		return m.MockGetIssue(ctx, issueKey)
	}
	return nil, notMocked("GetIssue")
}

func (m *MockTrackerClient) AssignIssue(ctx context.Context, issueKey, accountID string) error {
	if m.MockAssignIssue != nil {
		return m.MockAssignIssue(ctx, issueKey, accountID)
	}
	return notMocked("AssignIssue")
}

func (m *MockTrackerClient) SearchIssues(ctx context.Context, jql string, maxResults int) (*models.IssueSearchResponse, error) {
	if m.MockSearchIssues != nil {
		return m.MockSearchIssues(ctx, jql, maxResults)
	}
	return nil, notMocked("SearchIssues")
}

func (m *MockTrackerClient) UploadAttachment(ctx context.Context, issueKey, filePath string) ([]models.AttachmentResponse, error) {
	if m.MockUploadAttachment != nil {
		return m.MockUploadAttachment(ctx, issueKey, filePath)
	}
	return nil, notMocked("UploadAttachment")
}

func (m *MockTrackerClient) GetIssueTypes(ctx context.Context, projectKey string) ([]models.TrackerIssueType, error) {
	if m.MockGetIssueTypes != nil {
		return m.MockGetIssueTypes(ctx, projectKey)
	}
	return nil, notMocked("GetIssueTypes")
}

func (m *MockTrackerClient) ValidateIssueType(ctx context.Context, projectKey, issueTypeName string) (*models.TrackerIssueType, error) {
	if m.MockValidateIssueType != nil {
		return m.MockValidateIssueType(ctx, projectKey, issueTypeName)
	}
	return nil, notMocked("ValidateIssueType")
}

func (m *MockTrackerClient) SearchUsers(ctx context.Context, query string) ([]models.TrackerUser, error) {
	if m.MockSearchUsers != nil {
		return m.MockSearchUsers(ctx, query)
	}
	return nil, notMocked("SearchUsers")
}

func (m *MockTrackerClient) ListProjects(ctx context.Context) ([]models.TrackerProject, error) {
	if m.MockListProjects != nil {
		return m.MockListProjects(ctx)
	}
	return nil, notMocked("ListProjects")
}

func (m *MockTrackerClient) Myself(ctx context.Context) (*models.TrackerUser, error) {
	if m.MockMyself != nil {
		return m.MockMyself(ctx)
	}
	return nil, notMocked("Myself")
}

func (m *MockTrackerClient) BaseURL() string {
	return m.MockBaseURL
}
