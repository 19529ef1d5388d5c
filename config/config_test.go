package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DB_SCHEMA", "mmjira")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL is not set")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/mmjira")
	t.Setenv("DB_SCHEMA", "mmjira")
	t.Setenv("USE_STRICT_CONFIG", "false")
	t.Setenv("PORT", "")
	t.Setenv("LOGGING_ENABLED", "")
	t.Setenv("JIRA_DEFAULT_LABELS", "")
	t.Setenv("JIRA_ALLOW_FIRST_USER_FALLBACK", "")
	t.Setenv("MATTERMOST_COMMAND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.LoggingConfig.Enabled)
	assert.Equal(t, []string{"public-submitted"}, cfg.TrackerConfig.DefaultLabels)
	assert.False(t, cfg.TrackerConfig.AllowFirstResultFallback)
	assert.Equal(t, "/jira", cfg.MattermostConfig.Command)
}

func TestLoadConfig_StrictRequiresTracker(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/mmjira")
	t.Setenv("DB_SCHEMA", "mmjira")
	t.Setenv("USE_STRICT_CONFIG", "true")
	t.Setenv("JIRA_DOMAIN", "")
	t.Setenv("JIRA_API_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira integration")
}

func TestLoadTrackerConfig(t *testing.T) {
	t.Setenv("JIRA_DOMAIN", "acme.atlassian.net")
	t.Setenv("JIRA_API_TOKEN", "secret")
	t.Setenv("JIRA_EMAIL_DOMAIN", "@acme.com")
	t.Setenv("JIRA_DEFAULT_LABELS", "mattermost, triage ,,")
	t.Setenv("JIRA_DEFAULT_PROJECT_KEY", "ops")
	t.Setenv("JIRA_ALLOW_FIRST_USER_FALLBACK", "not-a-bool")

	cfg := LoadTrackerConfig()

	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "https://acme.atlassian.net", cfg.BaseURL())
	assert.Equal(t, "acme.com", cfg.EmailDomain)
	assert.Equal(t, []string{"mattermost", "triage"}, cfg.DefaultLabels)
	assert.Equal(t, "OPS", cfg.DefaultProjectKey)
	assert.False(t, cfg.AllowFirstResultFallback)
}
