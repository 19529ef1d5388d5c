package utils

import (
	"fmt"
	"regexp"
	"strings"

	"mmjira/core"
)

const DefaultTrackerDomainSuffix = "atlassian.net"

// CleanTrackerDomain normalises user supplied tracker hosts such as
// "https://acme.atlassian.net/jira/" to "acme.atlassian.net". An invalid
// input never yields a partial result.
func CleanTrackerDomain(raw, suffix string) (string, error) {
	if suffix == "" {
		suffix = DefaultTrackerDomainSuffix
	}

	host := strings.TrimSpace(raw)
	lower := strings.ToLower(host)
	switch {
	case strings.HasPrefix(lower, "https://"):
		host = host[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		host = host[len("http://"):]
	}
	host = strings.TrimRight(host, "/")
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}

	pattern := `^[a-zA-Z0-9\-\.]+\.` + regexp.QuoteMeta(strings.Trim(suffix, ".")) + `$`
	matched, err := regexp.MatchString(pattern, host)
	if err != nil {
		return "", fmt.Errorf("failed to match tracker domain: %w", err)
	}
	if !matched {
		return "", fmt.Errorf("%w: %q must look like your-company.%s", core.ErrInvalidDomain, raw, suffix)
	}

	return strings.ToLower(host), nil
}
