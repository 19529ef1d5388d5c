package main

import (
	"context"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"mmjira/clients"
	"mmjira/clients/tracker"
	"mmjira/config"
	"mmjira/core"
	"mmjira/db"
	"mmjira/services"
	"mmjira/services/invocationlogs"
	"mmjira/services/mappings"
	"mmjira/services/txmanager"
)

type Options struct {
	CheckAuth   CheckAuthCommand   `command:"check-auth"   description:"Verify the Jira credentials"`
	IssueTypes  IssueTypesCommand  `command:"issue-types"  description:"List issue types available in a project"`
	Mappings    MappingsCommand    `command:"mappings"     description:"List channel to project mappings"`
	Bind        BindCommand        `command:"bind"         description:"Bind a channel to a project"`
	Unbind      UnbindCommand      `command:"unbind"       description:"Remove a channel binding"`
	LogsCleanup LogsCleanupCommand `command:"logs-cleanup" description:"Delete invocation logs past the retention window"`
	LogsClear   LogsClearCommand   `command:"logs-clear"   description:"Delete every invocation log"`
	Report      ReportCommand      `command:"report"       description:"File a report as a Jira issue"`
	Attach      AttachCommand      `command:"attach"       description:"Upload files to an existing issue"`
}

// store is the database backed part of the environment
type store struct {
	mappings services.MappingsService
	logs     services.InvocationLogsService
	schema   string
	close    func() error
}

// environment builds what the commands need. Tests replace it.
type environment struct {
	out     io.Writer
	lockDir string
	tracker func() (clients.TrackerClient, config.TrackerConfig, error)
	store   func() (*store, error)
}

var env = defaultEnvironment()

func defaultEnvironment() *environment {
	return &environment{
		out:     os.Stdout,
		tracker: openTracker,
		store:   openStore,
	}
}

func openTracker() (clients.TrackerClient, config.TrackerConfig, error) {
	cfg := config.LoadTrackerConfig()
	if !cfg.IsConfigured() {
		return nil, cfg, core.NewConfigurationError("JIRA_DOMAIN", "JIRA_DOMAIN and JIRA_API_TOKEN must be set")
	}
	return tracker.NewClient(tracker.OptionsFromConfig(cfg), nil, nil), cfg, nil
}

func openStore() (*store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(context.Background(), dbConn, cfg.DatabaseSchema); err != nil {
		dbConn.Close()
		return nil, err
	}

	mappingsRepo := db.NewPostgresMappingsRepository(dbConn, cfg.DatabaseSchema)
	logsRepo := db.NewPostgresInvocationLogsRepository(dbConn, cfg.DatabaseSchema)
	return &store{
		mappings: mappings.NewMappingsService(mappingsRepo, txmanager.NewTransactionManager(dbConn)),
		logs:     invocationlogs.NewInvocationLogsService(logsRepo, cfg.LoggingConfig),
		schema:   cfg.DatabaseSchema,
		close:    dbConn.Close,
	}, nil
}

func run(args []string) error {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "jiractl"

	_, err := parser.ParseArgs(args)
	return err
}

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
