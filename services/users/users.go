package users

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"mmjira/clients"
	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
	"mmjira/services"
)

var _ services.UsersService = (*UsersService)(nil)

// UsersService resolves chat identities (email, @username, bare username) to
// tracker account ids.
type UsersService struct {
	tracker clients.TrackerClient
	config  config.TrackerConfig
}

func NewUsersService(tracker clients.TrackerClient, cfg config.TrackerConfig) *UsersService {
	return &UsersService{tracker: tracker, config: cfg}
}

// ResolveAccountID prefers a case-insensitive exact email match. The first
// search result is used only when AllowFirstResultFallback is set.
func (s *UsersService) ResolveAccountID(ctx context.Context, identifier string) (string, error) {
	log.Printf("📋 Starting to resolve tracker account for %s", identifier)

	email, err := s.EmailFor(identifier)
	if err != nil {
		return "", err
	}

	users, err := s.tracker.SearchUsers(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to search tracker users: %w", err)
	}

	for _, user := range users {
		if strings.EqualFold(user.EmailAddress, email) && user.AccountID != "" {
			log.Printf("📋 Completed successfully - resolved %s to account %s", email, user.AccountID)
			return user.AccountID, nil
		}
	}

	if s.config.AllowFirstResultFallback && len(users) > 0 && users[0].AccountID != "" {
		log.Printf("⚠️ No exact match for %s, falling back to first result %s", email, users[0].AccountID)
		return users[0].AccountID, nil
	}

	log.Printf("📋 No tracker account matches %s", email)
	return "", &core.UserNotFoundError{Identifier: email}
}

// EmailFor turns an identifier into an email address. Bare names and
// @mentions are combined with the configured email domain.
func (s *UsersService) EmailFor(identifier string) (string, error) {
	identifier = strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if identifier == "" {
		return "", core.NewValidationError(
			"Please provide a user email or username",
			"`/jira assign PROJ-123 user@example.com`",
			"`/jira assign PROJ-123 @username`",
		)
	}

	if strings.Contains(identifier, "@") {
		address, err := mail.ParseAddress(identifier)
		if err != nil || address.Address != identifier {
			return "", core.NewValidationError(
				"Invalid email format. Please provide a valid email address.",
				"`/jira find user@example.com`",
			)
		}
		return address.Address, nil
	}

	if s.config.EmailDomain == "" {
		return "", core.NewValidationError(
			fmt.Sprintf("No email domain is configured, so @%s cannot be resolved. Use a full email address instead.", identifier),
			"`/jira assign PROJ-123 user@example.com`",
		)
	}
	return identifier + "@" + s.config.EmailDomain, nil
}

// FindUsers returns every search hit whose email or display name matches,
// split into exact and partial matches.
func (s *UsersService) FindUsers(ctx context.Context, identifier string) (*models.UserMatches, error) {
	log.Printf("📋 Starting to find tracker users for %s", identifier)

	query, err := s.EmailFor(identifier)
	if err != nil {
		return nil, err
	}

	users, err := s.tracker.SearchUsers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracker users: %w", err)
	}

	matches := &models.UserMatches{Query: query}
	lowered := strings.ToLower(query)
	for _, user := range users {
		switch {
		case strings.EqualFold(user.EmailAddress, query):
			matches.Exact = append(matches.Exact, user)
		case user.EmailAddress != "" && strings.Contains(strings.ToLower(user.EmailAddress), lowered):
			matches.Partial = append(matches.Partial, user)
		case strings.Contains(strings.ToLower(user.DisplayName), lowered):
			matches.Partial = append(matches.Partial, user)
		}
	}

	log.Printf("📋 Completed successfully - %d exact and %d partial matches for %s",
		len(matches.Exact), len(matches.Partial), query)
	return matches, nil
}
