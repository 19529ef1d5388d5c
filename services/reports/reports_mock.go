package reports

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mmjira/models"
)

type MockReportsService struct {
	mock.Mock
}

func (m *MockReportsService) SubmitReport(ctx context.Context, report models.Report) (*models.ReportResult, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReportResult), args.Error(1)
}

func (m *MockReportsService) AttachFiles(
	ctx context.Context,
	issueKey string,
	paths []string,
) ([]models.AttachmentResponse, []string, error) {
	args := m.Called(ctx, issueKey, paths)
	var attachments []models.AttachmentResponse
	if v := args.Get(0); v != nil {
		attachments = v.([]models.AttachmentResponse)
	}
	var failures []string
	if v := args.Get(1); v != nil {
		failures = v.([]string)
	}
	return attachments, failures, args.Error(2)
}
