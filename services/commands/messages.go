package commands

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"mmjira/core"
	"mmjira/models"
)

const (
	dateLayout         = "Jan 2, 2006"
	dateTimeLayout     = "Jan 2, 2006 3:04 PM"
	trackerTimeLayout  = "2006-01-02T15:04:05.000-0700"
	maxCommentLength   = 200
	maxRecentComments  = 5
	defaultIssueType   = "Task"
	unassignedAssignee = "Unassigned"
)

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

func helpText() string {
	lines := []string{
		"**Jira Slash Command Help**",
		"",
		"**Create an issue:**",
		"• `/jira create Title` - Creates issue in mapped project",
		"• `/jira create PROJECT-KEY Title` - Creates issue with specific project key",
		"• `/jira create PROJ-123 Title` - Creates issue with specific project key (legacy format)",
		"• `/jira create TYPE:Title` - Creates issue with specific type (Task, Bug, Story, Epic, etc.)",
		"• `/jira create PROJECT-KEY TYPE:Title` - Creates issue with specific project and type",
		"",
		"**Quick issue creation (shortcuts):**",
		"• `/jira bug [PROJECT-KEY] Title` - Creates a bug issue",
		"• `/jira task [PROJECT-KEY] Title` - Creates a task issue",
		"• `/jira story [PROJECT-KEY] Title` - Creates a story issue",
		"",
		"**View issue details:**",
		"• `/jira view PROJ-123` - View detailed information about an issue",
		"",
		"**Assign an issue:**",
		"• `/jira assign PROJ-123 user@example.com` - Assigns issue to user by email",
		"• `/jira assign PROJ-123 @username` - Assigns issue to a chat user",
		"",
		"**Find a user:**",
		"• `/jira find user@example.com` - Search for a user by email address",
		"",
		"**Channel binding:**",
		"• `/jira bind PROJECT-KEY` - Binds current channel to Jira project",
		"• `/jira unbind` - Removes current channel's project binding",
		"• `/jira status` - Shows current project binding and statistics",
		"",
		"**Get Jira links:**",
		"• `/jira link` - Get links for creating new tasks",
		"• `/jira board` - Get links to Jira boards and backlogs",
		"• `/jira projects` - List all available Jira projects",
		"",
		"**Examples:**",
		"• `/jira create Fix login bug`",
		"• `/jira bug Fix login issue`",
		"• `/jira create PROJ Story:Add new feature`",
		"• `/jira create TPFIJB Add new feature`",
		"• `/jira assign PROJ-123 developer@company.com`",
		"• `/jira bind PROJ`",
		"",
		"**Available Issue Types:**",
		"• " + strings.Join(KnownIssueTypes, ", "),
		"",
		"**Note:** If no project key is specified, the issue will be created in the project mapped to this channel. " +
			"If no issue type is specified, it is chosen from the channel name or defaults to 'Task'.",
	}
	return strings.Join(lines, "\n")
}

// withCommand rewrites the documented `/jira` prefix when the slash command
// is installed under another trigger.
func withCommand(text, command string) string {
	if command == "" || command == "/jira" {
		return text
	}
	return strings.ReplaceAll(text, "`/jira ", "`"+command+" ")
}

// renderError turns a dispatcher failure into the private reply shown to the user.
func renderError(err error) *models.CommandResponse {
	var (
		validationErr *core.ValidationError
		configErr     *core.ConfigurationError
		userErr       *core.UserNotFoundError
		opErr         *operationError
	)

	switch {
	case errors.As(err, &validationErr):
		text := "❌ " + validationErr.Message
		if len(validationErr.Usage) > 0 {
			text += "\n\n**Examples:**\n• " + strings.Join(validationErr.Usage, "\n• ")
		}
		return models.PrivateResponse(text)
	case errors.As(err, &configErr):
		return models.PrivateResponse(fmt.Sprintf("❌ %s. Please contact an administrator.", configErr.Message))
	case errors.As(err, &userErr):
		return models.PrivateResponse(fmt.Sprintf(
			"❌ User not found: %s\n\nUse `/jira find %s` to search for the right account.",
			userErr.Identifier, userErr.Identifier,
		))
	case errors.As(err, &opErr):
		return models.PrivateResponse(fmt.Sprintf("❌ Failed to %s: %s", opErr.operation, describe(opErr.err)))
	default:
		return models.PrivateResponse("❌ An error occurred: " + describe(err))
	}
}

// describe prefers the tracker's own message over the wrapped error chain
func describe(err error) string {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		switch {
		case errors.Is(apiErr.StatusSentinel(), core.ErrAuthenticationFailed):
			return "authentication with Jira failed. Check the API credentials."
		case errors.Is(apiErr.StatusSentinel(), core.ErrPermissionDenied):
			return "permission denied by Jira: " + apiErr.Message
		}
		return apiErr.Message
	}
	var transportErr *core.TransportError
	if errors.As(err, &transportErr) {
		return "could not reach Jira: " + transportErr.Err.Error()
	}
	return err.Error()
}

type createdDetails struct {
	IssueKey      string
	Title         string
	UserName      string
	ProjectKey    string
	IssueType     string
	ReporterEmail string
	URL           string
}

func createdText(d createdDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Issue created successfully!\n\n**Issue:** %s\n**Title:** %s\n**Created by:** @%s\n**Project:** %s",
		d.IssueKey, d.Title, d.UserName, d.ProjectKey)
	if d.IssueType != "" {
		fmt.Fprintf(&b, "\n**Type:** %s", d.IssueType)
	}
	if d.ReporterEmail != "" {
		fmt.Fprintf(&b, "\n**Reporter:** @%s (%s)", d.UserName, d.ReporterEmail)
	}
	fmt.Fprintf(&b, "\n\n[View in Jira](%s)", d.URL)
	return b.String()
}

func issueText(issue *models.TrackerIssue, issueURL string) string {
	fields := issue.Fields
	var b strings.Builder

	fmt.Fprintf(&b, "📋 **Issue Details: %s**\n\n", issue.Key)
	fmt.Fprintf(&b, "**Summary:** %s\n", orDefault(fields.Summary, "No summary"))
	fmt.Fprintf(&b, "**Type:** %s\n", namedOr(fields.IssueType, "Unknown"))
	fmt.Fprintf(&b, "**Status:** %s\n", namedOr(fields.Status, "Unknown"))
	fmt.Fprintf(&b, "**Priority:** %s\n", namedOr(fields.Priority, "Unset"))
	fmt.Fprintf(&b, "**Assignee:** %s\n", displayNameOr(fields.Assignee, unassignedAssignee))
	if fields.Reporter != nil && fields.Reporter.DisplayName != "" {
		fmt.Fprintf(&b, "**Reporter:** %s\n", fields.Reporter.DisplayName)
	}
	if points, ok := issue.StoryPoints(); ok {
		fmt.Fprintf(&b, "**Story Points:** %s\n", formatPoints(points))
	}
	if len(fields.Labels) > 0 {
		fmt.Fprintf(&b, "**Labels:** %s\n", strings.Join(fields.Labels, ", "))
	}
	if len(fields.Components) > 0 {
		names := make([]string, 0, len(fields.Components))
		for _, component := range fields.Components {
			names = append(names, component.Name)
		}
		fmt.Fprintf(&b, "**Components:** %s\n", strings.Join(names, ", "))
	}
	if fields.Description != "" {
		fmt.Fprintf(&b, "\n**Description:**\n%s\n", fields.Description)
	}

	if fields.Comment != nil && len(fields.Comment.Comments) > 0 {
		comments := fields.Comment.Comments
		fmt.Fprintf(&b, "\n**Comments (%d):**\n", len(comments))
		if len(comments) > maxRecentComments {
			comments = comments[len(comments)-maxRecentComments:]
		}
		for _, comment := range comments {
			fmt.Fprintf(&b, "• **%s** (%s): %s\n",
				displayNameOr(comment.Author, "Unknown"), formatTrackerTime(comment.Created), cleanCommentText(comment.Body))
		}
	}

	fmt.Fprintf(&b, "\n[View in Jira](%s)", issueURL)
	return b.String()
}

func formatPoints(points float64) string {
	if points == float64(int64(points)) {
		return fmt.Sprintf("%d", int64(points))
	}
	return fmt.Sprintf("%g", points)
}

func formatTrackerTime(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(trackerTimeLayout, value)
	if err != nil {
		return value
	}
	return parsed.Format(dateTimeLayout)
}

// cleanCommentText strips markup, collapses whitespace and truncates long bodies.
func cleanCommentText(text string) string {
	text = htmlTags.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(text) > maxCommentLength {
		runes := []rune(text)
		text = string(runes[:maxCommentLength]) + "..."
	}
	return text
}

func userMatchesText(matches *models.UserMatches, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 **User Search Results for: %s**\n\n", matches.Query)

	if len(matches.Exact) == 0 && len(matches.Partial) == 0 {
		fmt.Fprintf(&b, "❌ **No users found** with the email address `%s`\n\n", matches.Query)
		b.WriteString("**Possible reasons:**\n")
		b.WriteString("• User doesn't exist in Jira\n")
		b.WriteString("• User email is different\n")
		b.WriteString("• User account is inactive\n")
		b.WriteString("• Insufficient permissions to view user\n")
		return b.String()
	}

	if len(matches.Exact) > 0 {
		b.WriteString("✅ **Exact Email Matches:**\n")
		for _, user := range matches.Exact {
			writeUser(&b, user, baseURL)
		}
	}
	if len(matches.Partial) > 0 {
		b.WriteString("🔍 **Partial Matches:**\n")
		for _, user := range matches.Partial {
			writeUser(&b, user, baseURL)
		}
	}

	b.WriteString("**To assign issues to a user:**\n")
	fmt.Fprintf(&b, "• `/jira assign PROJ-123 %s` - Assign issue to user\n", matches.Query)
	return b.String()
}

func writeUser(b *strings.Builder, user models.TrackerUser, baseURL string) {
	status := "Inactive"
	if user.Active {
		status = "Active"
	}
	fmt.Fprintf(b, "• **%s**\n", orDefault(user.DisplayName, "Unknown"))
	fmt.Fprintf(b, "  📧 Email: `%s`\n", orDefault(user.EmailAddress, "No email"))
	fmt.Fprintf(b, "  🆔 Account ID: `%s`\n", orDefault(user.AccountID, "No account ID"))
	fmt.Fprintf(b, "  📊 Status: %s\n", status)
	fmt.Fprintf(b, "  🌍 Timezone: %s\n", orDefault(user.TimeZone, "Unknown"))
	fmt.Fprintf(b, "  🔗 [View Profile](%s/secure/ViewProfile.jspa?name=%s)\n\n", baseURL, url.QueryEscape(user.AccountID))
}

func unboundText(channelName, projectKey, userName string) string {
	return fmt.Sprintf("✅ Channel binding removed successfully!\n\n**Channel:** #%s\n**Removed Project:** %s\n**Removed by:** @%s\n\n"+
		"**What this means:**\n"+
		"• You can no longer use `/jira create Title` without specifying a project\n"+
		"• You must specify project keys in commands: `/jira create PROJ Title`\n"+
		"• Use `/jira bind PROJECT-KEY` to bind to a different project\n"+
		"• Use `/jira projects` to see available projects",
		channelName, projectKey, userName)
}

func unmappedStatusText(channelName string) string {
	return fmt.Sprintf("📋 **Channel Status: #%s**\n\n"+
		"❌ **No project binding found**\n\n"+
		"This channel is not currently mapped to any Jira project.\n\n"+
		"**To bind this channel to a project:**\n"+
		"• `/jira bind PROJECT-KEY` - Bind to a specific project\n\n"+
		"**To create issues without binding:**\n"+
		"• `/jira create PROJ Title` - Specify project in command",
		channelName)
}

func statusText(channelName string, mapping *models.ChannelProjectMapping, activity *models.ChannelActivity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Channel Status: #%s**\n\n", channelName)
	fmt.Fprintf(&b, "✅ **Project Binding:** %s\n", mapping.ProjectKey)
	fmt.Fprintf(&b, "📅 **Bound since:** %s\n\n", mapping.CreatedAt.Format(dateLayout))

	if activity != nil && activity.IssuesCreated > 0 {
		b.WriteString("📊 **Statistics:**\n")
		fmt.Fprintf(&b, "• Total issues created: %d\n", activity.IssuesCreated)
		fmt.Fprintf(&b, "• Activity (7 days): %d commands\n", activity.RecentCommands)
		if activity.LastActivity != nil {
			fmt.Fprintf(&b, "• Last activity: %s\n", activity.LastActivity.Format(dateTimeLayout))
		}
		b.WriteString("\n")
	}

	b.WriteString("**Available commands:**\n")
	fmt.Fprintf(&b, "• `/jira create Title` - Create issue in %s\n", mapping.ProjectKey)
	b.WriteString("• `/jira bind NEWPROJ` - Change to different project\n")
	b.WriteString("• `/jira unbind` - Remove current project binding\n")
	b.WriteString("• `/jira help` - Show all commands")
	return b.String()
}

func linksText(channelName, baseURL, projectKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 **Jira Links for #%s**\n\n", channelName)

	if projectKey != "" {
		fmt.Fprintf(&b, "**Current Project:** %s\n\n", projectKey)
		b.WriteString("**Quick Links:**\n")
		fmt.Fprintf(&b, "• [Create Issue in %s](%s/secure/CreateIssue.jspa?pid=%s)\n", projectKey, baseURL, projectKey)
		fmt.Fprintf(&b, "• [View %s Project](%s/browse/%s)\n", projectKey, baseURL, projectKey)
		fmt.Fprintf(&b, "• [%s Backlog](%s/secure/RapidBoard.jspa?rapidView=%s)\n\n", projectKey, baseURL, projectKey)
	} else {
		b.WriteString("❌ **No project binding found**\n\n")
		b.WriteString("**General Jira Links:**\n")
		fmt.Fprintf(&b, "• [Create Issue](%s/secure/CreateIssue.jspa)\n", baseURL)
		fmt.Fprintf(&b, "• [View All Projects](%s/browse)\n", baseURL)
		fmt.Fprintf(&b, "• [Dashboard](%s/secure/Dashboard.jspa)\n\n", baseURL)
		b.WriteString("**To bind this channel to a project:**\n")
		b.WriteString("• `/jira bind PROJECT-KEY` - Then use `/jira link` again\n")
	}

	b.WriteString("**Other Commands:**\n")
	b.WriteString("• `/jira create Title` - Create issue via chat\n")
	b.WriteString("• `/jira status` - Check current binding\n")
	b.WriteString("• `/jira board` - Get board links\n")
	return b.String()
}

func boardText(channelName, baseURL, projectKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Jira Board Links for #%s**\n\n", channelName)

	if projectKey != "" {
		board := fmt.Sprintf("%s/secure/RapidBoard.jspa?rapidView=%s", baseURL, projectKey)
		fmt.Fprintf(&b, "**Current Project:** %s\n\n", projectKey)
		b.WriteString("**Board Links:**\n")
		fmt.Fprintf(&b, "• [%s Kanban Board](%s)\n", projectKey, board)
		fmt.Fprintf(&b, "• [%s Scrum Board](%s&view=planning)\n", projectKey, board)
		fmt.Fprintf(&b, "• [%s Backlog](%s&view=backlog)\n", projectKey, board)
		fmt.Fprintf(&b, "• [%s Active Sprints](%s&view=reporting)\n\n", projectKey, board)
	} else {
		b.WriteString("❌ **No project binding found**\n\n")
		b.WriteString("**General Board Links:**\n")
		fmt.Fprintf(&b, "• [All Boards](%s/secure/RapidBoard.jspa)\n", baseURL)
		fmt.Fprintf(&b, "• [Project Boards](%s/secure/BrowseProjects.jspa)\n", baseURL)
		fmt.Fprintf(&b, "• [Dashboard](%s/secure/Dashboard.jspa)\n\n", baseURL)
		b.WriteString("**To bind this channel to a project:**\n")
		b.WriteString("• `/jira bind PROJECT-KEY` - Then use `/jira board` again\n")
	}

	b.WriteString("**Other Commands:**\n")
	b.WriteString("• `/jira link` - Get issue creation links\n")
	b.WriteString("• `/jira status` - Check current binding\n")
	b.WriteString("• `/jira create Title` - Create issue via chat\n")
	return b.String()
}

// projectsText lists projects alphabetically by name, grouped by first letter.
func projectsText(projects []models.TrackerProject, baseURL string) string {
	sorted := append([]models.TrackerProject(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	var b strings.Builder
	b.WriteString("📋 **Available Jira Projects**\n\n")
	fmt.Fprintf(&b, "**Total Projects:** %d\n\n", len(sorted))

	currentLetter := ""
	for _, project := range sorted {
		letter := firstLetter(project.Name)
		if letter != currentLetter {
			if currentLetter != "" {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "**%s**\n", letter)
			currentLetter = letter
		}
		fmt.Fprintf(&b, "• **%s** - [%s](%s/browse/%s)\n", project.Key, project.Name, baseURL, project.Key)
	}
	if len(sorted) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("**To bind this channel to a project:**\n")
	b.WriteString("• `/jira bind PROJECT-KEY` - Replace PROJECT-KEY with one of the keys above\n")
	return b.String()
}

func firstLetter(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "#"
	}
	return string(unicode.ToUpper(r))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func namedOr(field *models.NamedField, fallback string) string {
	if field == nil {
		return fallback
	}
	return orDefault(field.Name, fallback)
}

func displayNameOr(user *models.TrackerUser, fallback string) string {
	if user == nil {
		return fallback
	}
	return orDefault(user.DisplayName, fallback)
}
