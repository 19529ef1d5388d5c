package tracker

import (
	"context"
	"fmt"
	"net/http"

	"mmjira/models"
)

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.TrackerUser, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/rest/api/2/user/search", map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return decode[[]models.TrackerUser](raw, "user search")
}

func (c *Client) ListProjects(ctx context.Context) ([]models.TrackerProject, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/rest/api/2/project", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return decode[[]models.TrackerProject](raw, "project list")
}

// Myself returns the account the configured credentials belong to.
func (c *Client) Myself(ctx context.Context) (*models.TrackerUser, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/rest/api/2/myself", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	user, err := decode[models.TrackerUser](raw, "current user")
	if err != nil {
		return nil, err
	}
	return &user, nil
}
