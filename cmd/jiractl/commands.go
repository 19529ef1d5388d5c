package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"mmjira/models"
	"mmjira/services/reports"
	"mmjira/utils"
)

type CheckAuthCommand struct{}

func (c *CheckAuthCommand) Execute(args []string) error {
	client, cfg, err := env.tracker()
	if err != nil {
		return err
	}

	me, err := client.Myself(context.Background())
	if err != nil {
		return fmt.Errorf("failed to authenticate against %s: %w", client.BaseURL(), err)
	}

	fmt.Fprintf(env.out, "✅ Authenticated as %s (%s)\n", me.DisplayName, me.EmailAddress)
	fmt.Fprintf(env.out, "Jira:     %s\n", client.BaseURL())
	fmt.Fprintf(env.out, "API user: %s\n", cfg.APIUserEmail)
	fmt.Fprintf(env.out, "Token:    %s\n", utils.RedactSecret(cfg.APIToken))
	return nil
}

type IssueTypesCommand struct {
	Args struct {
		ProjectKey string `positional-arg-name:"project-key"`
	} `positional-args:"yes" required:"yes"`
}

func (c *IssueTypesCommand) Execute(args []string) error {
	projectKey, err := utils.NormalizeProjectKey(c.Args.ProjectKey)
	if err != nil {
		return err
	}
	client, _, err := env.tracker()
	if err != nil {
		return err
	}

	issueTypes, err := client.GetIssueTypes(context.Background(), projectKey)
	if err != nil {
		return fmt.Errorf("failed to get issue types for %s: %w", projectKey, err)
	}

	fmt.Fprintf(env.out, "Issue types for %s:\n", projectKey)
	for _, issueType := range issueTypes {
		if issueType.Subtask {
			fmt.Fprintf(env.out, "  • %s (subtask)\n", issueType.Name)
			continue
		}
		fmt.Fprintf(env.out, "  • %s\n", issueType.Name)
	}
	return nil
}

type MappingsCommand struct{}

func (c *MappingsCommand) Execute(args []string) error {
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.close()

	mappings, err := st.mappings.ListMappings(context.Background())
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		fmt.Fprintln(env.out, "No channel mappings configured.")
		return nil
	}

	w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHANNEL ID\tCHANNEL\tPROJECT\tUPDATED")
	for _, m := range mappings {
		fmt.Fprintf(w, "%s\t%s\t#%s\t%s\t%s\n",
			m.ID, m.ChannelID, m.ChannelName, m.ProjectKey, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type BindCommand struct {
	ChannelName string `long:"channel-name" short:"n" description:"Display name of the channel"`
	Args        struct {
		ChannelID  string `positional-arg-name:"channel-id"`
		ProjectKey string `positional-arg-name:"project-key"`
	} `positional-args:"yes" required:"yes"`
}

func (c *BindCommand) Execute(args []string) error {
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.close()

	channelName := c.ChannelName
	if channelName == "" {
		channelName = c.Args.ChannelID
	}

	mapping, previous, err := st.mappings.BindChannel(context.Background(), c.Args.ChannelID, channelName, c.Args.ProjectKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "✅ Bound #%s (%s) to %s\n", mapping.ChannelName, mapping.ChannelID, mapping.ProjectKey)
	if old, ok := previous.Get(); ok && old.ProjectKey != mapping.ProjectKey {
		fmt.Fprintf(env.out, "Previous mapping: %s\n", old.ProjectKey)
	}
	return nil
}

type UnbindCommand struct {
	Args struct {
		ChannelID string `positional-arg-name:"channel-id"`
	} `positional-args:"yes" required:"yes"`
}

func (c *UnbindCommand) Execute(args []string) error {
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.close()

	removed, err := st.mappings.UnbindChannel(context.Background(), c.Args.ChannelID)
	if err != nil {
		return err
	}

	old, ok := removed.Get()
	if !ok {
		fmt.Fprintf(env.out, "⚠️ Channel %s is not bound to a project\n", c.Args.ChannelID)
		return nil
	}
	fmt.Fprintf(env.out, "🗑️ Unbound #%s from %s\n", old.ChannelName, old.ProjectKey)
	return nil
}

type LogsCleanupCommand struct {
	Days int `long:"days" short:"d" description:"Retention in days (defaults to LOG_RETENTION_DAYS)"`
}

// Execute shares the retention lock with the server so only one cleanup runs per schema.
func (c *LogsCleanupCommand) Execute(args []string) error {
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.close()

	var deleted int64
	err = utils.WithJobLock(env.lockDir, "log-retention-"+st.schema, func() error {
		var err error
		deleted, err = st.logs.CleanupOldLogs(context.Background(), c.Days)
		return err
	})
	if errors.Is(err, utils.ErrLockHeld) {
		return fmt.Errorf("another log cleanup is running: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "🗑️ Removed %d log entries\n", deleted)
	return nil
}

type LogsClearCommand struct {
	Yes bool `long:"yes" short:"y" description:"Confirm deleting every log entry"`
}

func (c *LogsClearCommand) Execute(args []string) error {
	if !c.Yes {
		return errors.New("refusing to clear all logs without --yes")
	}
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.close()

	deleted, err := st.logs.ClearLogs(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "🗑️ Cleared %d log entries\n", deleted)
	return nil
}

type ReportCommand struct {
	Project     string   `long:"project" short:"p" description:"Project key (defaults to JIRA_DEFAULT_PROJECT_KEY)"`
	IssueType   string   `long:"type" short:"t" description:"Issue type name"`
	Title       string   `long:"title" description:"Issue summary" required:"yes"`
	Description string   `long:"description" short:"m" description:"Issue description"`
	Name        string   `long:"name" description:"Submitter name"`
	Email       string   `long:"email" description:"Submitter email"`
	Vertical    string   `long:"vertical" description:"Business vertical"`
	Impact      string   `long:"impact" description:"Impact level"`
	Labels      []string `long:"label" short:"l" description:"Extra label (repeatable)"`
	Files       []string `long:"attach" short:"a" description:"File to attach (repeatable)"`
	Force       bool     `long:"force" short:"f" description:"Create even when similar open issues exist"`
}

func (c *ReportCommand) Execute(args []string) error {
	client, cfg, err := env.tracker()
	if err != nil {
		return err
	}

	result, err := reports.NewReportsService(client, cfg).SubmitReport(context.Background(), models.Report{
		ProjectKey:         c.Project,
		IssueType:          c.IssueType,
		Title:              c.Title,
		Description:        c.Description,
		Name:               c.Name,
		Email:              c.Email,
		Vertical:           c.Vertical,
		Impact:             c.Impact,
		Labels:             c.Labels,
		AttachmentPaths:    c.Files,
		SkipDuplicateCheck: c.Force,
	})
	if err != nil {
		return err
	}

	if result.Created == nil {
		fmt.Fprintln(env.out, "⚠️ Possible duplicates found, rerun with --force to create anyway:")
		for _, issue := range result.PossibleDuplicates {
			fmt.Fprintf(env.out, "  • %s %s (%s/browse/%s)\n", issue.Key, issue.Fields.Summary, client.BaseURL(), issue.Key)
		}
		return nil
	}

	fmt.Fprintf(env.out, "✅ Created %s: %s\n", result.Created.Key, result.IssueURL)
	return printAttachments(result.Attachments, result.AttachmentErrors, len(c.Files))
}

type AttachCommand struct {
	Args struct {
		IssueKey string   `positional-arg-name:"issue-key"`
		Files    []string `positional-arg-name:"file" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *AttachCommand) Execute(args []string) error {
	client, cfg, err := env.tracker()
	if err != nil {
		return err
	}

	attachments, failures, err := reports.NewReportsService(client, cfg).
		AttachFiles(context.Background(), c.Args.IssueKey, c.Args.Files)
	if err != nil {
		return err
	}
	return printAttachments(attachments, failures, len(c.Args.Files))
}

func printAttachments(attachments []models.AttachmentResponse, failures []string, requested int) error {
	for _, attachment := range attachments {
		fmt.Fprintf(env.out, "📎 %s (%d bytes)\n", attachment.Filename, attachment.Size)
	}
	for _, failure := range failures {
		fmt.Fprintf(env.out, "❌ %s\n", failure)
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to upload %d of %d files: %s", len(failures), requested, strings.Join(failures, "; "))
	}
	return nil
}
