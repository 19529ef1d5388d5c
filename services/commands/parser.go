package commands

import (
	"fmt"
	"slices"
	"strings"

	"mmjira/core"
	"mmjira/models"
	"mmjira/utils"
)

// KnownIssueTypes are the prefixes recognised in `create TYPE:Title`. Matching is exact.
var KnownIssueTypes = []string{"Task", "Bug", "Story", "Epic", "Subtask", "Improvement", "New Feature"}

var shortcutIssueTypes = map[string]string{
	"bug":   "Bug",
	"task":  "Task",
	"story": "Story",
}

var createUsage = []string{
	"`/jira create Fix login bug`",
	"`/jira create Bug:Fix login bug`",
	"`/jira create PROJ Story:Add new feature`",
	"`/jira create PROJ-123 Task title`",
}

// Parse splits a slash command body into a ParsedCommand. It never panics and
// the only error it returns is *core.ValidationError. Unknown or empty input
// parses as help.
func Parse(raw string) (*models.ParsedCommand, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return &models.ParsedCommand{Subcommand: models.SubcommandHelp}, nil
	}

	name := strings.ToLower(tokens[0])
	args := tokens[1:]

	if issueType, ok := shortcutIssueTypes[name]; ok {
		if len(args) == 0 {
			return nil, core.NewValidationError(
				"Please provide a title for the issue",
				fmt.Sprintf("`/jira %s Title`", name),
				fmt.Sprintf("`/jira %s PROJ Title`", name),
			)
		}
		return parseCreate(args, issueType)
	}

	switch models.Subcommand(name) {
	case models.SubcommandCreate:
		return parseCreate(args, "")
	case models.SubcommandView:
		return parseView(args)
	case models.SubcommandAssign:
		return parseAssign(args)
	case models.SubcommandFind:
		return parseFind(args)
	case models.SubcommandBind:
		return parseBind(args)
	case models.SubcommandUnbind, models.SubcommandStatus, models.SubcommandLink,
		models.SubcommandBoard, models.SubcommandProjects, models.SubcommandHelp:
		return &models.ParsedCommand{Subcommand: models.Subcommand(name), Args: args}, nil
	default:
		return &models.ParsedCommand{Subcommand: models.SubcommandHelp}, nil
	}
}

// parseCreate handles `create [PROJ | PROJ-123] [TYPE:]Title`. A non-empty
// issueType comes from a bug/task/story shortcut and disables prefix parsing.
func parseCreate(args []string, issueType string) (*models.ParsedCommand, error) {
	parsed := &models.ParsedCommand{Subcommand: models.SubcommandCreate, IssueType: issueType}

	rest := args
	if len(args) > 0 {
		switch first := args[0]; {
		case utils.IsIssueKey(first):
			parsed.IssueKey = first
			parsed.ProjectKey = utils.ProjectFromIssueKey(first)
			rest = args[1:]
		case utils.IsBareProjectKey(first):
			parsed.ProjectKey = first
			rest = args[1:]
		}
	}

	title := strings.Join(rest, " ")
	if issueType == "" {
		if prefix, remainder, ok := strings.Cut(title, ":"); ok {
			prefix, remainder = strings.TrimSpace(prefix), strings.TrimSpace(remainder)
			if slices.Contains(KnownIssueTypes, prefix) {
				parsed.IssueType = prefix
				title = remainder
			}
		}
	}

	parsed.Title = strings.TrimSpace(title)
	if parsed.Title == "" {
		return nil, core.NewValidationError("Please provide a title for the issue", createUsage...)
	}
	return parsed, nil
}

func parseView(args []string) (*models.ParsedCommand, error) {
	usage := []string{"`/jira view PROJ-123`"}
	if len(args) != 1 {
		return nil, core.NewValidationError("Please provide exactly one issue key", usage...)
	}

	issueKey := strings.ToUpper(args[0])
	if !utils.IsIssueKey(issueKey) {
		return nil, core.NewValidationError("Invalid issue key format. Please use format: PROJECT-123", usage...)
	}
	return &models.ParsedCommand{
		Subcommand: models.SubcommandView,
		IssueKey:   issueKey,
		ProjectKey: utils.ProjectFromIssueKey(issueKey),
	}, nil
}

func parseAssign(args []string) (*models.ParsedCommand, error) {
	usage := []string{
		"`/jira assign PROJ-123 user@example.com`",
		"`/jira assign PROJ-123 @username`",
	}
	if len(args) < 2 {
		return nil, core.NewValidationError("Please provide an issue key and a user", usage...)
	}

	issueKey := strings.ToUpper(args[0])
	if !utils.IsIssueKey(issueKey) {
		return nil, core.NewValidationError("Invalid issue key format. Please use format: PROJECT-123", usage...)
	}
	return &models.ParsedCommand{
		Subcommand:         models.SubcommandAssign,
		IssueKey:           issueKey,
		ProjectKey:         utils.ProjectFromIssueKey(issueKey),
		AssigneeIdentifier: args[1],
	}, nil
}

func parseFind(args []string) (*models.ParsedCommand, error) {
	if len(args) == 0 {
		return nil, core.NewValidationError(
			"Please provide an email address or username to search for",
			"`/jira find user@example.com`",
			"`/jira find @username`",
		)
	}
	return &models.ParsedCommand{Subcommand: models.SubcommandFind, AssigneeIdentifier: args[0]}, nil
}

func parseBind(args []string) (*models.ParsedCommand, error) {
	if len(args) != 1 {
		return nil, core.NewValidationError("Please provide a single project key", "`/jira bind PROJ`")
	}
	projectKey, err := utils.NormalizeProjectKey(args[0])
	if err != nil {
		return nil, err
	}
	return &models.ParsedCommand{Subcommand: models.SubcommandBind, ProjectKey: projectKey}, nil
}
