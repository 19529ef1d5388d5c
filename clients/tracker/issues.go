package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"mmjira/core"
	"mmjira/models"
	"mmjira/utils"
)

const (
	DefaultIssueType        = "Task"
	DefaultSearchMaxResults = 5
)

var searchFields = []string{"summary", "key"}

// CreateIssue posts a new issue. Vertical and impact go to their custom
// fields when ids are configured; if the tracker rejects a custom field the
// request is retried once without them and the values land in the description.
func (c *Client) CreateIssue(ctx context.Context, input models.IssueInput) (*models.IssueCreateResponse, error) {
	if input.ProjectKey == "" {
		return nil, core.NewConfigurationError("project key", "no Jira project key provided")
	}
	if strings.TrimSpace(input.Summary) == "" {
		return nil, core.NewValidationError("issue summary cannot be empty")
	}

	fields := c.buildIssueFields(input)
	raw, err := c.Request(ctx, http.MethodPost, "/rest/api/2/issue", models.IssueCreateRequest{Fields: fields})

	var apiErr *core.APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.IsCustomFieldError() && len(fields.Custom) > 0 {
		log.Printf("⚠️ Jira rejected custom fields (%s), retrying without them", apiErr.Message)
		fallback := fields.WithoutCustomFields()
		fallback.Description += c.customFieldDescription(input)
		raw, err = c.Request(ctx, http.MethodPost, "/rest/api/2/issue", models.IssueCreateRequest{Fields: fallback})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	created, err := decode[models.IssueCreateResponse](raw, "created issue")
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) buildIssueFields(input models.IssueInput) models.IssueFields {
	issueType := input.IssueType
	if issueType == "" {
		issueType = DefaultIssueType
	}

	description := input.Description
	if input.SubmitterName != "" || input.SubmitterEmail != "" {
		description += "\n\n--- Submitted By ---"
		if input.SubmitterName != "" {
			description += "\nName: " + input.SubmitterName
		}
		if input.SubmitterEmail != "" {
			description += "\nEmail: " + input.SubmitterEmail
		}
	}

	fields := models.IssueFields{
		Project:   models.ProjectRef{Key: input.ProjectKey},
		Summary:   strings.TrimSpace(input.Summary),
		IssueType: models.IssueTypeRef{Name: issueType},
		Labels:    mergeLabels(c.opts.DefaultLabels, input.Labels),
	}
	if input.ReporterAccountID != "" {
		fields.Reporter = &models.AccountRef{AccountID: input.ReporterAccountID}
	}

	custom := map[string]any{}
	if input.Vertical != "" {
		if fieldID := customFieldKey(c.opts.CustomFieldVerticalID); fieldID != "" {
			custom[fieldID] = input.Vertical
		} else {
			description += "\nVertical: " + input.Vertical
		}
	}
	if input.Impact != "" {
		if fieldID := customFieldKey(c.opts.CustomFieldImpactID); fieldID != "" {
			custom[fieldID] = utils.HumanizeIdentifier(input.Impact)
		} else {
			description += "\nImpact: " + utils.HumanizeIdentifier(input.Impact)
		}
	}
	if len(custom) > 0 {
		fields.Custom = custom
	}

	fields.Description = description
	return fields
}

// customFieldDescription renders the values that were sent as custom fields.
func (c *Client) customFieldDescription(input models.IssueInput) string {
	var extra string
	if input.Vertical != "" && customFieldKey(c.opts.CustomFieldVerticalID) != "" {
		extra += "\nVertical: " + input.Vertical
	}
	if input.Impact != "" && customFieldKey(c.opts.CustomFieldImpactID) != "" {
		extra += "\nImpact: " + utils.HumanizeIdentifier(input.Impact)
	}
	return extra
}

// customFieldKey accepts "10050" or "customfield_10050".
func customFieldKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "customfield_") {
		return id
	}
	return "customfield_" + id
}

func mergeLabels(defaults, extra []string) []string {
	seen := make(map[string]bool, len(defaults)+len(extra))
	var labels []string
	for _, label := range append(append([]string{}, defaults...), extra...) {
		// Jira labels cannot contain spaces
		label = strings.ReplaceAll(strings.TrimSpace(label), " ", "-")
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

func (c *Client) GetIssue(ctx context.Context, issueKey string) (*models.TrackerIssue, error) {
	path := "/rest/api/2/issue/" + url.PathEscape(issueKey)
	raw, err := c.Request(ctx, http.MethodGet, path, map[string]string{"expand": "renderedFields"})
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", issueKey, err)
	}

	issue, err := decode[models.TrackerIssue](raw, "issue")
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) AssignIssue(ctx context.Context, issueKey, accountID string) error {
	path := fmt.Sprintf("/rest/api/2/issue/%s/assignee", url.PathEscape(issueKey))
	if _, err := c.Request(ctx, http.MethodPut, path, models.AssigneeRequest{AccountID: accountID}); err != nil {
		return fmt.Errorf("failed to assign issue %s: %w", issueKey, err)
	}
	return nil
}

func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*models.IssueSearchResponse, error) {
	if maxResults <= 0 {
		maxResults = DefaultSearchMaxResults
	}

	raw, err := c.Request(ctx, http.MethodPost, "/rest/api/2/search", models.IssueSearchRequest{
		JQL:        jql,
		MaxResults: maxResults,
		Fields:     searchFields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	result, err := decode[models.IssueSearchResponse](raw, "search result")
	if err != nil {
		return nil, err
	}
	return &result, nil
}
