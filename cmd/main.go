package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"mmjira/clients/tracker"
	"mmjira/config"
	"mmjira/db"
	"mmjira/handlers"
	"mmjira/middleware"
	"mmjira/services"
	"mmjira/services/commands"
	"mmjira/services/invocationlogs"
	"mmjira/services/mappings"
	"mmjira/services/reports"
	"mmjira/services/txmanager"
	"mmjira/services/users"
	"mmjira/utils"
)

const retentionInterval = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "mmjira",
		LogsURL:     cfg.ServerLogsURL,
	})

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.EnsureSchema(context.Background(), dbConn, cfg.DatabaseSchema); err != nil {
		return err
	}

	mappingsRepo := db.NewPostgresMappingsRepository(dbConn, cfg.DatabaseSchema)
	logsRepo := db.NewPostgresInvocationLogsRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)

	mappingsService := mappings.NewMappingsService(mappingsRepo, txManager)
	logsService := invocationlogs.NewInvocationLogsService(logsRepo, cfg.LoggingConfig)
	trackerClient := tracker.NewClient(tracker.OptionsFromConfig(cfg.TrackerConfig), nil, logsService)
	usersService := users.NewUsersService(trackerClient, cfg.TrackerConfig)
	reportsService := reports.NewReportsService(trackerClient, cfg.TrackerConfig)
	commandsService := commands.NewCommandsService(
		trackerClient,
		mappingsService,
		usersService,
		logsService,
		cfg.TrackerConfig,
		cfg.MattermostConfig,
	)

	slashHandler := handlers.NewSlashCommandsHandler(commandsService)
	adminHandler := handlers.NewAdminHTTPHandler(mappingsService, logsService, reportsService, trackerClient)
	authMiddleware := middleware.NewClerkAuthMiddleware(cfg.ClerkConfig.SecretKey)

	router := mux.NewRouter()
	slashHandler.SetupEndpoints(router)
	adminHandler.SetupEndpoints(router, authMiddleware)

	retentionCtx, stopRetention := context.WithCancel(context.Background())
	defer stopRetention()
	if cfg.LoggingConfig.Enabled && cfg.LoggingConfig.RetentionDays > 0 {
		go runLogRetention(retentionCtx, alertMiddleware, logsService, "log-retention-"+cfg.DatabaseSchema)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(corsHandler(cfg.CORSAllowedOrigins, router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

// corsHandler applies CORS_ALLOWED_ORIGINS to every route
func corsHandler(origins string, next http.Handler) http.Handler {
	var allowedOrigins []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(next)
}

// runLogRetention prunes invocation logs once a day until ctx is done. The
// file lock is shared with `jiractl logs-cleanup`.
func runLogRetention(
	ctx context.Context,
	alerts *middleware.ErrorAlertMiddleware,
	logsService services.InvocationLogsService,
	lockName string,
) {
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()

	cleanup := alerts.WrapBackgroundTask("CleanupOldLogs", func() error {
		err := utils.WithJobLock("", lockName, func() error {
			_, err := logsService.CleanupOldLogs(ctx, 0)
			return err
		})
		if errors.Is(err, utils.ErrLockHeld) {
			log.Printf("⚠️ Skipping log retention, another process holds %s", lockName)
			return nil
		}
		return err
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = cleanup()
		}
	}
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
