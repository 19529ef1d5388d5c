package utils

import (
	"regexp"
	"strings"
)

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripTags removes anything that looks like an HTML/XML tag.
func StripTags(text string) string {
	return htmlTagRegex.ReplaceAllString(text, "")
}

// CleanCommentText flattens a tracker comment for chat display: tags are
// stripped, whitespace runs collapse to one space and the result is cut to
// maxLen runes with a trailing ellipsis.
func CleanCommentText(text string, maxLen int) string {
	cleaned := strings.TrimSpace(whitespaceRegex.ReplaceAllString(StripTags(text), " "))
	return Truncate(cleaned, maxLen)
}

func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

// HumanizeIdentifier turns "high_impact" into "High impact".
func HumanizeIdentifier(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return value
	}
	runes := []rune(value)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// RedactSecret keeps the last four characters of a secret for log correlation.
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
