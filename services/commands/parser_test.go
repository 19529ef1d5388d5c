package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmjira/core"
	"mmjira/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.ParsedCommand
	}{
		{
			name:     "create with title only",
			input:    "create Fix login bug",
			expected: models.ParsedCommand{Subcommand: models.SubcommandCreate, Title: "Fix login bug"},
		},
		{
			name:  "create with legacy issue key extracts the project",
			input: "create PROJ-1 Title",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "PROJ",
				IssueKey:   "PROJ-1",
				Title:      "Title",
			},
		},
		{
			name:  "create with bare project key",
			input: "create TPFIJB Add new feature",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "TPFIJB",
				Title:      "Add new feature",
			},
		},
		{
			name:  "create with type prefix",
			input: "create Bug:Fix login",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				IssueType:  "Bug",
				Title:      "Fix login",
			},
		},
		{
			name:  "create with project and multi word type",
			input: "CREATE PROJ New Feature: Dark mode",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "PROJ",
				IssueType:  "New Feature",
				Title:      "Dark mode",
			},
		},
		{
			name:  "unknown type prefix stays in the title",
			input: "create Note: remember the milk",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				Title:      "Note: remember the milk",
			},
		},
		{
			name:  "type prefix match is case sensitive",
			input: "create bug: lowercase",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				Title:      "bug: lowercase",
			},
		},
		{
			name:  "whitespace is collapsed",
			input: "  create   PROJ    spaced    out  ",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "PROJ",
				Title:      "spaced out",
			},
		},
		{
			name:  "bug shortcut",
			input: "bug Fix login issue",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				IssueType:  "Bug",
				Title:      "Fix login issue",
			},
		},
		{
			name:  "story shortcut keeps project detection",
			input: "story WEB Add search",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "WEB",
				IssueType:  "Story",
				Title:      "Add search",
			},
		},
		{
			name:  "task shortcut with legacy key",
			input: "Task OPS-12 Rotate keys",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandCreate,
				ProjectKey: "OPS",
				IssueKey:   "OPS-12",
				IssueType:  "Task",
				Title:      "Rotate keys",
			},
		},
		{
			name:  "view",
			input: "view PROJ-123",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandView,
				ProjectKey: "PROJ",
				IssueKey:   "PROJ-123",
			},
		},
		{
			name:  "view uppercases the key",
			input: "view proj-123",
			expected: models.ParsedCommand{
				Subcommand: models.SubcommandView,
				ProjectKey: "PROJ",
				IssueKey:   "PROJ-123",
			},
		},
		{
			name:  "assign",
			input: "assign PROJ-7 dev@example.com",
			expected: models.ParsedCommand{
				Subcommand:         models.SubcommandAssign,
				ProjectKey:         "PROJ",
				IssueKey:           "PROJ-7",
				AssigneeIdentifier: "dev@example.com",
			},
		},
		{
			name:  "assign with mention",
			input: "assign PROJ-7 @dev",
			expected: models.ParsedCommand{
				Subcommand:         models.SubcommandAssign,
				ProjectKey:         "PROJ",
				IssueKey:           "PROJ-7",
				AssigneeIdentifier: "@dev",
			},
		},
		{
			name:  "find",
			input: "find dev@example.com",
			expected: models.ParsedCommand{
				Subcommand:         models.SubcommandFind,
				AssigneeIdentifier: "dev@example.com",
			},
		},
		{
			name:     "bind uppercases",
			input:    "bind proj",
			expected: models.ParsedCommand{Subcommand: models.SubcommandBind, ProjectKey: "PROJ"},
		},
		{
			name:     "bind accepts ten characters",
			input:    "bind ABCDE12345",
			expected: models.ParsedCommand{Subcommand: models.SubcommandBind, ProjectKey: "ABCDE12345"},
		},
		{
			name:     "status",
			input:    "status",
			expected: models.ParsedCommand{Subcommand: models.SubcommandStatus, Args: []string{}},
		},
		{
			name:     "board keeps extra tokens",
			input:    "board backlog",
			expected: models.ParsedCommand{Subcommand: models.SubcommandBoard, Args: []string{"backlog"}},
		},
		{
			name:     "empty input is help",
			input:    "   ",
			expected: models.ParsedCommand{Subcommand: models.SubcommandHelp},
		},
		{
			name:     "unknown subcommand is help",
			input:    "frobnicate now",
			expected: models.ParsedCommand{Subcommand: models.SubcommandHelp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *parsed)
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		messageContains string
	}{
		{"create without title", "create", "title"},
		{"create with project but no title", "create PROJ", "title"},
		{"create with only a type prefix", "create Bug:", "title"},
		{"create with legacy key and only a type", "create PROJ-1 Bug:   ", "title"},
		{"shortcut without title", "bug", "title"},
		{"view without key", "view", "issue key"},
		{"view with two keys", "view PROJ-1 PROJ-2", "exactly one"},
		{"view with malformed key", "view PROJ123", "Invalid issue key"},
		{"assign without identifier", "assign PROJ-1", "issue key and a user"},
		{"assign with malformed key", "assign 123 dev@example.com", "Invalid issue key"},
		{"find without identifier", "find", "email address"},
		{"bind without key", "bind", "project key"},
		{"bind too long", "bind proj123456789", "too long"},
		{"bind invalid format", "bind proj!", "invalid format"},
		{"bind with extra tokens", "bind PROJ extra", "single project key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.input)
			assert.Nil(t, parsed)

			var validationErr *core.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Message, tt.messageContains)
		})
	}
}

func TestParse_TitleErrorsCarryUsage(t *testing.T) {
	_, err := Parse("create")

	var validationErr *core.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Usage)
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"", "create", "create PROJ-1 Bug:", "bug", "view", "assign X-1", "bind ü", "bind ",
		"create :::", "create New Feature:", "story PROJ-9999999999999999999 x", "\t\n",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := Parse(input)
		if err != nil {
			var validationErr *core.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Parse(%q) returned %T, want *core.ValidationError", input, err)
			}
			return
		}
		if parsed == nil {
			t.Fatalf("Parse(%q) returned neither a command nor an error", input)
		}
		if parsed.Subcommand == models.SubcommandCreate && parsed.Title == "" {
			t.Fatalf("Parse(%q) produced a create command with an empty title", input)
		}
	})
}
