package commands

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"mmjira/clients"
	"mmjira/config"
	"mmjira/core"
	"mmjira/models"
	"mmjira/services"
	"mmjira/utils"
)

var _ services.CommandsService = (*CommandsService)(nil)

// ErrInvalidToken is returned for slash commands whose token does not match
// the configured webhook secret.
var ErrInvalidToken = errors.New("invalid webhook token")

// CommandsService is the slash command dispatcher. Every invocation is
// authenticated, parsed, executed and logged independently.
type CommandsService struct {
	tracker          clients.TrackerClient
	mappingsService  services.MappingsService
	usersService     services.UsersService
	logsService      services.InvocationLogsService
	trackerConfig    config.TrackerConfig
	mattermostConfig config.MattermostConfig
}

func NewCommandsService(
	tracker clients.TrackerClient,
	mappingsService services.MappingsService,
	usersService services.UsersService,
	logsService services.InvocationLogsService,
	trackerConfig config.TrackerConfig,
	mattermostConfig config.MattermostConfig,
) *CommandsService {
	return &CommandsService{
		tracker:          tracker,
		mappingsService:  mappingsService,
		usersService:     usersService,
		logsService:      logsService,
		trackerConfig:    trackerConfig,
		mattermostConfig: mattermostConfig,
	}
}

// operationError names the step that failed so the reply can say what went wrong
type operationError struct {
	operation string
	err       error
}

func (e *operationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.operation, e.err)
}

func (e *operationError) Unwrap() error {
	return e.err
}

func failed(operation string, err error) error {
	return &operationError{operation: operation, err: err}
}

// ProcessCommand always returns a response. Errors and panics become private
// replies and are recorded on the log entry.
func (s *CommandsService) ProcessCommand(
	ctx context.Context,
	request models.SlashCommandRequest,
) (response *models.CommandResponse) {
	start := time.Now()
	var commandErr error

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic while processing command %q: %v\n%s", request.Text, r, debug.Stack())
			commandErr = fmt.Errorf("panic: %v", r)
			response = models.PrivateResponse("❌ An unexpected error occurred while processing your command.")
		}
		s.logsService.LogCommand(ctx, services.CommandInvocation{
			Request:  request,
			Response: response,
			Duration: time.Since(start),
			Err:      commandErr,
		})
	}()

	if !s.authenticate(request.Token) {
		log.Printf("⚠️ Rejected slash command from channel %s: invalid token", request.ChannelID)
		commandErr = ErrInvalidToken
		return models.PrivateResponse("❌ Invalid webhook token")
	}

	log.Printf("📋 Starting to process command %q from @%s in #%s", request.Text, request.UserName, request.ChannelName)
	response, commandErr = s.dispatch(ctx, request)
	if commandErr != nil {
		log.Printf("❌ Command %q failed: %v", request.Text, commandErr)
		response = renderError(commandErr)
	} else {
		utils.AssertInvariant(response != nil, "command handler returned no response")
		log.Printf("📋 Completed successfully - processed command %q", request.Text)
	}
	response.Text = withCommand(response.Text, s.command())
	return response
}

// authenticate rejects everything when no secret is configured
func (s *CommandsService) authenticate(token string) bool {
	expected := s.mattermostConfig.WebhookToken
	if expected == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

func (s *CommandsService) dispatch(
	ctx context.Context,
	request models.SlashCommandRequest,
) (*models.CommandResponse, error) {
	parsed, err := Parse(request.Text)
	if err != nil {
		return nil, err
	}

	switch parsed.Subcommand {
	case models.SubcommandCreate:
		return s.handleCreate(ctx, request, parsed)
	case models.SubcommandView:
		return s.handleView(ctx, parsed)
	case models.SubcommandAssign:
		return s.handleAssign(ctx, request, parsed)
	case models.SubcommandFind:
		return s.handleFind(ctx, parsed)
	case models.SubcommandBind:
		return s.handleBind(ctx, request, parsed)
	case models.SubcommandUnbind:
		return s.handleUnbind(ctx, request)
	case models.SubcommandStatus:
		return s.handleStatus(ctx, request)
	case models.SubcommandLink:
		return s.handleLink(ctx, request)
	case models.SubcommandBoard:
		return s.handleBoard(ctx, request)
	case models.SubcommandProjects:
		return s.handleProjects(ctx)
	default:
		return models.PrivateResponse(helpText()), nil
	}
}

func (s *CommandsService) command() string {
	if s.mattermostConfig.Command != "" {
		return s.mattermostConfig.Command
	}
	return "/jira"
}

func (s *CommandsService) handleCreate(
	ctx context.Context,
	request models.SlashCommandRequest,
	parsed *models.ParsedCommand,
) (*models.CommandResponse, error) {
	projectKey := parsed.ProjectKey
	if projectKey == "" {
		mapping, err := s.mappingsService.GetMapping(ctx, request.ChannelID)
		if err != nil {
			return nil, failed("look up the channel mapping", err)
		}
		if mapping.IsAbsent() {
			return nil, core.NewValidationError(
				"No project mapped to this channel. Bind one or name the project in your command.",
				"`/jira bind PROJ`",
				"`/jira create PROJ Add new feature`",
				"`/jira create PROJ-123 Task title`",
			)
		}
		projectKey = mapping.MustGet().ProjectKey
	}

	issueType := parsed.IssueType
	if issueType == "" {
		issueType = inferIssueType(request.ChannelName)
	}
	if s.trackerConfig.ValidateIssueTypes {
		validated, err := s.tracker.ValidateIssueType(ctx, projectKey, issueType)
		if err != nil {
			return nil, failed("validate the issue type", err)
		}
		issueType = validated.Name
	}

	reporter := s.lookupReporter(ctx, request.UserName)
	reporterEmail := ""
	if reporter != "" {
		reporterEmail = request.UserName + "@" + s.trackerConfig.EmailDomain
	}

	created, err := s.tracker.CreateIssue(ctx, models.IssueInput{
		ProjectKey: projectKey,
		Summary:    parsed.Title,
		Description: fmt.Sprintf("Issue created via Mattermost slash command by @%s from channel #%s",
			request.UserName, request.ChannelName),
		IssueType:         issueType,
		ReporterAccountID: reporter,
	})
	if err != nil {
		return nil, failed("create issue", err)
	}

	return models.ChannelResponse(createdText(createdDetails{
		IssueKey:      created.Key,
		Title:         parsed.Title,
		UserName:      request.UserName,
		ProjectKey:    projectKey,
		IssueType:     issueType,
		ReporterEmail: reporterEmail,
		URL:           s.issueURL(created.Key),
	})), nil
}

// lookupReporter maps the chat user to a tracker account. Failure only means
// the issue is reported by the API user.
func (s *CommandsService) lookupReporter(ctx context.Context, userName string) string {
	if s.trackerConfig.EmailDomain == "" || userName == "" {
		return ""
	}
	accountID, err := s.usersService.ResolveAccountID(ctx, userName)
	if err != nil {
		log.Printf("⚠️ Could not set reporter for @%s: %v", userName, err)
		return ""
	}
	return accountID
}

func inferIssueType(channelName string) string {
	name := strings.ToLower(channelName)
	switch {
	case strings.Contains(name, "bug"):
		return "Bug"
	case strings.Contains(name, "feature"), strings.Contains(name, "enhancement"):
		return "Story"
	default:
		return defaultIssueType
	}
}

func (s *CommandsService) handleView(ctx context.Context, parsed *models.ParsedCommand) (*models.CommandResponse, error) {
	issue, err := s.tracker.GetIssue(ctx, parsed.IssueKey)
	if err != nil {
		return nil, failed("get issue details", err)
	}
	return models.ChannelResponse(issueText(issue, s.issueURL(issue.Key))), nil
}

func (s *CommandsService) handleAssign(
	ctx context.Context,
	request models.SlashCommandRequest,
	parsed *models.ParsedCommand,
) (*models.CommandResponse, error) {
	accountID, err := s.usersService.ResolveAccountID(ctx, parsed.AssigneeIdentifier)
	if err != nil {
		return nil, failed("assign issue", err)
	}
	if err := s.tracker.AssignIssue(ctx, parsed.IssueKey, accountID); err != nil {
		return nil, failed("assign issue", err)
	}

	return models.ChannelResponse(fmt.Sprintf(
		"✅ Issue assigned successfully!\n\n**Issue:** %s\n**Assigned to:** %s\n**Assigned by:** @%s\n\n[View in Jira](%s)",
		parsed.IssueKey, parsed.AssigneeIdentifier, request.UserName, s.issueURL(parsed.IssueKey),
	)), nil
}

func (s *CommandsService) handleFind(ctx context.Context, parsed *models.ParsedCommand) (*models.CommandResponse, error) {
	matches, err := s.usersService.FindUsers(ctx, parsed.AssigneeIdentifier)
	if err != nil {
		return nil, failed("search for user", err)
	}
	return models.ChannelResponse(userMatchesText(matches, s.tracker.BaseURL())), nil
}

func (s *CommandsService) handleBind(
	ctx context.Context,
	request models.SlashCommandRequest,
	parsed *models.ParsedCommand,
) (*models.CommandResponse, error) {
	mapping, previous, err := s.mappingsService.BindChannel(ctx, request.ChannelID, request.ChannelName, parsed.ProjectKey)
	if err != nil {
		return nil, failed("bind channel", err)
	}

	if previous.IsPresent() {
		return models.ChannelResponse(fmt.Sprintf(
			"✅ Channel mapping updated successfully!\n\n**Channel:** #%s\n**Project Key:** %s\n**Updated by:** @%s\n\n**Previous mapping:** %s → **New mapping:** %s",
			request.ChannelName, mapping.ProjectKey, request.UserName, previous.MustGet().ProjectKey, mapping.ProjectKey,
		)), nil
	}
	return models.ChannelResponse(fmt.Sprintf(
		"✅ Channel mapping created successfully!\n\n**Channel:** #%s\n**Project Key:** %s\n**Created by:** @%s\n\nNow you can use `%s create Title` to create issues in this project.",
		request.ChannelName, mapping.ProjectKey, request.UserName, s.command(),
	)), nil
}

// handleUnbind on an unbound channel is a private error every time, never a crash.
func (s *CommandsService) handleUnbind(
	ctx context.Context,
	request models.SlashCommandRequest,
) (*models.CommandResponse, error) {
	removed, err := s.mappingsService.UnbindChannel(ctx, request.ChannelID)
	if err != nil {
		return nil, failed("unbind channel", err)
	}
	if removed.IsAbsent() {
		return nil, core.NewValidationError(
			fmt.Sprintf("No project binding found for this channel.\n\n**Channel:** #%s\n\nThis channel is not currently mapped to any Jira project.", request.ChannelName),
			"`/jira bind PROJECT-KEY`",
		)
	}

	return models.ChannelResponse(unboundText(request.ChannelName, removed.MustGet().ProjectKey, request.UserName)), nil
}

func (s *CommandsService) handleStatus(
	ctx context.Context,
	request models.SlashCommandRequest,
) (*models.CommandResponse, error) {
	mapping, err := s.mappingsService.GetMapping(ctx, request.ChannelID)
	if err != nil {
		return nil, failed("check channel status", err)
	}
	if mapping.IsAbsent() {
		return models.PrivateResponse(unmappedStatusText(request.ChannelName)), nil
	}

	var activity *models.ChannelActivity
	if s.logsService.IsEnabled() {
		activity, err = s.logsService.GetChannelActivity(ctx, request.ChannelID)
		if err != nil {
			log.Printf("⚠️ Failed to load activity for channel %s: %v", request.ChannelID, err)
			activity = nil
		}
	}
	return models.ChannelResponse(statusText(request.ChannelName, mapping.MustGet(), activity)), nil
}

func (s *CommandsService) handleLink(
	ctx context.Context,
	request models.SlashCommandRequest,
) (*models.CommandResponse, error) {
	baseURL, err := s.requireBaseURL()
	if err != nil {
		return nil, err
	}
	mapping, err := s.mappingsService.GetMapping(ctx, request.ChannelID)
	if err != nil {
		return nil, failed("look up the channel mapping", err)
	}
	return models.ChannelResponse(linksText(request.ChannelName, baseURL, projectKeyOf(mapping.OrEmpty()))), nil
}

func (s *CommandsService) handleBoard(
	ctx context.Context,
	request models.SlashCommandRequest,
) (*models.CommandResponse, error) {
	baseURL, err := s.requireBaseURL()
	if err != nil {
		return nil, err
	}
	mapping, err := s.mappingsService.GetMapping(ctx, request.ChannelID)
	if err != nil {
		return nil, failed("look up the channel mapping", err)
	}
	return models.ChannelResponse(boardText(request.ChannelName, baseURL, projectKeyOf(mapping.OrEmpty()))), nil
}

func (s *CommandsService) handleProjects(ctx context.Context) (*models.CommandResponse, error) {
	projects, err := s.tracker.ListProjects(ctx)
	if err != nil {
		return nil, failed("fetch projects", err)
	}
	return models.ChannelResponse(projectsText(projects, s.tracker.BaseURL())), nil
}

func (s *CommandsService) requireBaseURL() (string, error) {
	baseURL := s.tracker.BaseURL()
	if baseURL == "" {
		return "", core.NewConfigurationError("JIRA_DOMAIN", "Jira domain not configured")
	}
	return baseURL, nil
}

func (s *CommandsService) issueURL(issueKey string) string {
	return s.tracker.BaseURL() + "/browse/" + issueKey
}

func projectKeyOf(mapping *models.ChannelProjectMapping) string {
	if mapping == nil {
		return ""
	}
	return mapping.ProjectKey
}
