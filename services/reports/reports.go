package reports

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"

	"mmjira/clients"
	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
	"mmjira/services"
	"mmjira/utils"
)

var _ services.ReportsService = (*ReportsService)(nil)

const (
	maxUploadWorkers    = 4
	duplicateSearchSize = 5
)

// jqlReserved are stripped from summary text before it goes into a JQL text search
var jqlReserved = strings.NewReplacer(
	`"`, " ", `\`, " ", "+", " ", "-", " ", "&", " ", "|", " ", "!", " ",
	"(", " ", ")", " ", "{", " ", "}", " ", "[", " ", "]", " ",
	"^", " ", "~", " ", "*", " ", "?", " ", ":", " ",
)

// ReportsService turns public submissions into tracker issues: duplicate
// search, creation, then attachment uploads.
type ReportsService struct {
	tracker clients.TrackerClient
	config  config.TrackerConfig
}

func NewReportsService(tracker clients.TrackerClient, cfg config.TrackerConfig) *ReportsService {
	return &ReportsService{tracker: tracker, config: cfg}
}

// SubmitReport stops before creating anything when open issues with a similar
// summary exist, unless report.SkipDuplicateCheck is set. Attachment failures
// do not undo the created issue; they are listed in the result.
func (s *ReportsService) SubmitReport(ctx context.Context, report models.Report) (*models.ReportResult, error) {
	log.Printf("📋 Starting to submit report %q", report.Title)

	input, err := s.buildInput(ctx, report)
	if err != nil {
		return nil, err
	}

	result := &models.ReportResult{}
	if !report.SkipDuplicateCheck {
		duplicates, err := s.tracker.SearchIssues(ctx, DuplicateJQL(input.ProjectKey, input.Summary), duplicateSearchSize)
		if err != nil {
			log.Printf("⚠️ Duplicate search failed, creating issue anyway: %v", err)
		} else if len(duplicates.Issues) > 0 {
			log.Printf("📋 Found %d possible duplicates for %q", len(duplicates.Issues), input.Summary)
			result.PossibleDuplicates = duplicates.Issues
			return result, nil
		}
	}

	created, err := s.tracker.CreateIssue(ctx, input)
	if err != nil {
		return nil, err
	}
	result.Created = created
	result.IssueURL = s.tracker.BaseURL() + "/browse/" + created.Key

	if len(report.AttachmentPaths) > 0 {
		result.Attachments, result.AttachmentErrors = s.uploadAttachments(ctx, created.Key, report.AttachmentPaths)
	}

	log.Printf("📋 Completed successfully - created %s with %d attachments", created.Key, len(result.Attachments))
	return result, nil
}

func (s *ReportsService) buildInput(ctx context.Context, report models.Report) (models.IssueInput, error) {
	projectKey := report.ProjectKey
	if projectKey == "" {
		projectKey = s.config.DefaultProjectKey
	}
	if projectKey == "" {
		return models.IssueInput{}, core.NewConfigurationError("JIRA_DEFAULT_PROJECT_KEY", "no Jira project key provided")
	}
	projectKey, err := utils.NormalizeProjectKey(projectKey)
	if err != nil {
		return models.IssueInput{}, err
	}

	title := strings.TrimSpace(report.Title)
	if title == "" {
		return models.IssueInput{}, core.NewValidationError("Title is required")
	}

	email := strings.TrimSpace(report.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return models.IssueInput{}, core.NewValidationError("Invalid email format. Please provide a valid email address.")
		}
	}

	issueType := strings.TrimSpace(report.IssueType)
	if issueType != "" && s.config.ValidateIssueTypes {
		validated, err := s.tracker.ValidateIssueType(ctx, projectKey, issueType)
		if err != nil {
			return models.IssueInput{}, err
		}
		issueType = validated.Name
	}

	return models.IssueInput{
		ProjectKey:     projectKey,
		Summary:        title,
		Description:    strings.TrimSpace(report.Description),
		IssueType:      issueType,
		Labels:         report.Labels,
		SubmitterName:  strings.TrimSpace(report.Name),
		SubmitterEmail: email,
		Vertical:       strings.TrimSpace(report.Vertical),
		Impact:         strings.TrimSpace(report.Impact),
	}, nil
}

// AttachFiles uploads files to an existing issue. Individual failures are
// returned as messages rather than an error.
func (s *ReportsService) AttachFiles(
	ctx context.Context,
	issueKey string,
	paths []string,
) ([]models.AttachmentResponse, []string, error) {
	if !utils.IsIssueKey(strings.ToUpper(issueKey)) {
		return nil, nil, core.NewValidationError("Invalid issue key format. Expected something like PROJ-123")
	}
	if len(paths) == 0 {
		return nil, nil, core.NewValidationError("At least one file is required")
	}
	issueKey = strings.ToUpper(issueKey)

	log.Printf("📋 Starting to attach %d files to %s", len(paths), issueKey)
	attachments, failures := s.uploadAttachments(ctx, issueKey, paths)
	log.Printf("📋 Completed successfully - attached %d files to %s, %d failed", len(attachments), issueKey, len(failures))
	return attachments, failures, nil
}

// uploadAttachments uploads files concurrently. Results keep the order of paths.
func (s *ReportsService) uploadAttachments(
	ctx context.Context,
	issueKey string,
	paths []string,
) ([]models.AttachmentResponse, []string) {
	wp := workerpool.New(min(len(paths), maxUploadWorkers))

	var mu sync.Mutex
	uploaded := make([][]models.AttachmentResponse, len(paths))
	var failures []string

	for i, path := range paths {
		wp.Submit(func() {
			attachments, err := s.tracker.UploadAttachment(ctx, issueKey, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("❌ Failed to upload %s to %s: %v", path, issueKey, err)
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(path), err))
				return
			}
			uploaded[i] = attachments
		})
	}
	wp.StopWait()

	var attachments []models.AttachmentResponse
	for _, batch := range uploaded {
		attachments = append(attachments, batch...)
	}
	return attachments, failures
}

// DuplicateJQL finds unresolved issues in projectKey whose summary resembles summary.
func DuplicateJQL(projectKey, summary string) string {
	text := strings.Join(strings.Fields(jqlReserved.Replace(summary)), " ")
	return fmt.Sprintf(`project = "%s" AND summary ~ "%s" AND statusCategory != Done ORDER BY created DESC`, projectKey, text)
}
