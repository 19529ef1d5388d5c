package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mmjira/core"
	"mmjira/models"
)

// Candidate endpoints in the order they are tried. Cloud instances expose the
// paginated createmeta endpoint; older ones only answer the project endpoint.
var issueTypeEndpoints = []string{
	"/rest/api/3/issue/createmeta/%s/issuetypes",
	"/rest/api/2/issue/createmeta/%s/issuetypes",
	"/rest/api/3/project/%s",
}

func (c *Client) GetIssueTypes(ctx context.Context, projectKey string) ([]models.TrackerIssueType, error) {
	if projectKey == "" {
		return nil, core.NewConfigurationError("project key", "no Jira project key provided")
	}

	var lastErr error
	for _, endpoint := range issueTypeEndpoints {
		raw, err := c.Request(ctx, http.MethodGet, fmt.Sprintf(endpoint, url.PathEscape(projectKey)), nil)
		if err != nil {
			if isConfigurationError(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		var resp models.IssueTypesResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			lastErr = fmt.Errorf("failed to decode issue types: %w", err)
			continue
		}
		return resp.Types(), nil
	}

	return nil, classifyIssueTypeError(projectKey, lastErr)
}

func classifyIssueTypeError(projectKey string, err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if sentinel := apiErr.StatusSentinel(); sentinel != nil {
			return fmt.Errorf("failed to get issue types for project %s: %w: %w", projectKey, sentinel, err)
		}
	}
	return fmt.Errorf("failed to get issue types for project %s: %w", projectKey, err)
}

// ValidateIssueType matches issueTypeName case-insensitively against the
// types available in the project.
func (c *Client) ValidateIssueType(ctx context.Context, projectKey, issueTypeName string) (*models.TrackerIssueType, error) {
	types, err := c.GetIssueTypes(ctx, projectKey)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(types))
	for i := range types {
		if strings.EqualFold(types[i].Name, issueTypeName) {
			return &types[i], nil
		}
		names = append(names, types[i].Name)
	}

	return nil, core.NewValidationError(fmt.Sprintf(
		"Issue type \"%s\" not found in project %s. Available types: %s",
		issueTypeName, projectKey, strings.Join(names, ", ")))
}
