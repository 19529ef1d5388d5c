package utils

import (
	"regexp"
	"strings"

	"mmjira/core"
)

const MaxProjectKeyLength = 10

var (
	IssueKeyRegex       = regexp.MustCompile(`^[A-Z]+-\d+$`)
	projectKeyRegex     = regexp.MustCompile(`^[A-Z0-9]+$`)
	bareProjectKeyRegex = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// NormalizeProjectKey uppercases raw and checks it is a usable project key.
// The format is checked before the length so "proj!" reports the format.
func NormalizeProjectKey(raw string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", core.NewValidationError("Project key is required", "`/jira bind PROJ`")
	}
	if !projectKeyRegex.MatchString(key) {
		return "", core.NewValidationError(
			"Project key has an invalid format: use only letters and numbers",
			"`/jira bind PROJ`")
	}
	if len(key) > MaxProjectKeyLength {
		return "", core.NewValidationError(
			"Project key is too long: at most 10 characters",
			"`/jira bind PROJ`")
	}
	return key, nil
}

// IsIssueKey reports whether token looks like PROJ-123.
func IsIssueKey(token string) bool {
	return IssueKeyRegex.MatchString(token)
}

// IsBareProjectKey reports whether token is an uppercase key such as PROJ or WEB2.
func IsBareProjectKey(token string) bool {
	return bareProjectKeyRegex.MatchString(token)
}

// ProjectFromIssueKey returns "PROJ" for "PROJ-123".
func ProjectFromIssueKey(issueKey string) string {
	project, _, _ := strings.Cut(issueKey, "-")
	return project
}
