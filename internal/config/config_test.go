package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jes/cursor-claw/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLAW_STATE_DIR", t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ALLOWED_USER_ID", "42")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Token)
	assert.Equal(t, int64(42), cfg.AllowedUserID)
	assert.Equal(t, config.DefaultAgentCommand, cfg.AgentCommand)
	assert.Equal(t, config.DefaultAgentTimeout, cfg.AgentTimeout)
	assert.Equal(t, config.DefaultPollTimeout, cfg.PollTimeout)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.RequireUser())
}

// clearenv unsets keys for the duration of the test, restoring them after,
// so godotenv's writes into the process environment don't leak across tests.
func clearenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearenv(t, "TELEGRAM_BOT_TOKEN", "AGENT_TIMEOUT")
	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "config"), []byte(
		"# comment\n"+
			"TELEGRAM_BOT_TOKEN=file-token\n"+
			"AGENT_TIMEOUT=60\n",
	), 0o600))
	t.Setenv("CLAW_STATE_DIR", stateDir)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, time.Minute, cfg.AgentTimeout)
}

func TestEnvWinsOverConfigFile(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "config"),
		[]byte("TELEGRAM_BOT_TOKEN=file-token\n"), 0o600))
	t.Setenv("CLAW_STATE_DIR", stateDir)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestValidate(t *testing.T) {
	t.Setenv("CLAW_STATE_DIR", t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_ALLOWED_USER_ID", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "missing token")
	assert.Error(t, cfg.RequireUser(), "missing user id")
}

func TestStatePaths(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("CLAW_STATE_DIR", stateDir)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stateDir, "session"), cfg.SessionFile())
	assert.Equal(t, filepath.Join(stateDir, "chat_id"), cfg.ChatIDFile())
	assert.Equal(t, filepath.Join(stateDir, "reminders.json"), cfg.RemindersFile())
}
