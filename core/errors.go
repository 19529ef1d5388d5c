package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique resource is created twice
var ErrAlreadyExists = errors.New("already exists")

var (
	ErrInvalidDomain        = errors.New("invalid tracker domain")
	ErrProjectNotFound      = errors.New("project not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrProjectNotFound) {
		return true
	}
	var userErr *UserNotFoundError
	return errors.As(err, &userErr)
}

// ConfigurationError means something required (credentials, domain, project) is missing.
// Nothing is sent to the network when it is raised.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Setting)
}

func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// ValidationError describes malformed user input. Usage carries the help
// lines shown back to the caller.
type ValidationError struct {
	Message string
	Usage   []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, usage ...string) *ValidationError {
	return &ValidationError{Message: message, Usage: usage}
}

// APIError is a non-2xx tracker response.
type APIError struct {
	Message string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker API error (status %d): %s", e.Status, e.Message)
}

// IsCustomFieldError reports whether the tracker rejected a custom field.
func (e *APIError) IsCustomFieldError() bool {
	return strings.Contains(e.Message, "customfield_")
}

// StatusSentinel maps well-known HTTP statuses to sentinel errors.
func (e *APIError) StatusSentinel() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrProjectNotFound
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusUnauthorized:
		return ErrAuthenticationFailed
	}
	return nil
}

// TransportError wraps DNS, TLS, timeout and other network failures.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type UserNotFoundError struct {
	Identifier string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("no tracker user found for %s", e.Identifier)
}

type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}
