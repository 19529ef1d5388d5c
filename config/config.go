package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type TrackerConfig struct {
	Domain                   string
	DomainSuffix             string
	APIUserEmail             string
	APIToken                 string
	EmailDomain              string
	DefaultLabels            []string
	CustomFieldVerticalID    string
	CustomFieldImpactID      string
	DefaultProjectKey        string
	AllowFirstResultFallback bool
	ValidateIssueTypes       bool
}

// IsConfigured returns true if the tracker can be reached with credentials
func (c TrackerConfig) IsConfigured() bool {
	return c.Domain != "" && c.APIToken != ""
	// Note: APIUserEmail is optional, a bare token is sent as a bearer token
}

// BaseURL returns the https origin for the configured domain
func (c TrackerConfig) BaseURL() string {
	if c.Domain == "" {
		return ""
	}
	return "https://" + c.Domain
}

type MattermostConfig struct {
	WebhookToken string
	Command      string
}

// IsConfigured returns true if the slash command token is present
func (c MattermostConfig) IsConfigured() bool {
	return c.WebhookToken != ""
}

type LoggingConfig struct {
	Enabled       bool
	RetentionDays int
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ServerLogsURL      string
	AlertWebhookURL    string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	TrackerConfig    TrackerConfig
	MattermostConfig MattermostConfig
	LoggingConfig    LoggingConfig
	ClerkConfig      ClerkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),
		AlertWebhookURL:    os.Getenv("ALERT_WEBHOOK_URL"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "false") == "true",

		TrackerConfig: LoadTrackerConfig(),

		MattermostConfig: MattermostConfig{
			WebhookToken: os.Getenv("MATTERMOST_WEBHOOK_TOKEN"),
			Command:      getEnvWithDefault("MATTERMOST_COMMAND", "/jira"),
		},

		LoggingConfig: LoggingConfig{
			Enabled:       getEnvBool("LOGGING_ENABLED", true),
			RetentionDays: getEnvInt("LOG_RETENTION_DAYS", 30),
		},

		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
	}

	if config.TrackerConfig.IsConfigured() {
		log.Printf("✅ Jira integration configured for %s", config.TrackerConfig.Domain)
	} else {
		log.Printf("⚠️ Jira integration not configured - commands will report a configuration error")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("jira integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.MattermostConfig.IsConfigured() {
		log.Printf("✅ Mattermost slash command configured for %s", config.MattermostConfig.Command)
	} else {
		log.Printf("⚠️ Mattermost webhook token not set - every slash command will be rejected")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("mattermost webhook token is not set (USE_STRICT_CONFIG=true)")
		}
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - admin API will reject every request")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

// LoadTrackerConfig reads only the JIRA_* settings. The admin CLI uses it
// without requiring a database.
func LoadTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Domain:                   os.Getenv("JIRA_DOMAIN"),
		DomainSuffix:             getEnvWithDefault("JIRA_DOMAIN_SUFFIX", "atlassian.net"),
		APIUserEmail:             os.Getenv("JIRA_API_USER_EMAIL"),
		APIToken:                 os.Getenv("JIRA_API_TOKEN"),
		EmailDomain:              strings.TrimPrefix(os.Getenv("JIRA_EMAIL_DOMAIN"), "@"),
		DefaultLabels:            splitList(getEnvWithDefault("JIRA_DEFAULT_LABELS", "public-submitted")),
		CustomFieldVerticalID:    os.Getenv("JIRA_CUSTOM_FIELD_VERTICAL"),
		CustomFieldImpactID:      os.Getenv("JIRA_CUSTOM_FIELD_IMPACT"),
		DefaultProjectKey:        strings.ToUpper(os.Getenv("JIRA_DEFAULT_PROJECT_KEY")),
		AllowFirstResultFallback: getEnvBool("JIRA_ALLOW_FIRST_USER_FALLBACK", false),
		ValidateIssueTypes:       getEnvBool("JIRA_VALIDATE_ISSUE_TYPES", false),
	}
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("⚠️ Invalid boolean for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
