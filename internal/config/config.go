// Package config provides application configuration, read from the
// environment with an optional dotenv-style config file loaded first.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults for knobs that are deployment parameters, not design constants.
const (
	DefaultAgentCommand = "cursor-agent"
	DefaultAgentModel   = "Auto"
	DefaultAgentTimeout = 5 * time.Minute
	DefaultPollTimeout  = 30 * time.Second
)

// Config holds all application configuration.
type Config struct {
	// Token authenticates against the Telegram Bot API.
	Token string
	// AllowedUserID is the single user whose messages reach the agent.
	AllowedUserID int64
	// StateDir holds the session token, chat id, reminders store and
	// pending attachment directories.
	StateDir string
	// Workspace is the directory the agent is invoked in.
	Workspace string
	// AgentCommand is the agent executable.
	AgentCommand string
	// AgentModel is passed through to the agent's --model flag.
	AgentModel string
	// AgentTimeout bounds a single agent invocation; zero means unlimited.
	AgentTimeout time.Duration
	// PollTimeout is the long-poll window for getUpdates.
	PollTimeout time.Duration
	// Debug raises the log level.
	Debug bool
}

// Load reads configuration from the environment. A KEY=VALUE config file at
// $CLAW_CONFIG (or <state dir>/config) is loaded into the environment first,
// matching the original single-file deployment layout; real environment
// variables win over file values.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	stateDir := v.GetString("CLAW_STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".cursor-claw")
	}

	configFile := v.GetString("CLAW_CONFIG")
	if configFile == "" {
		configFile = filepath.Join(stateDir, "config")
	}
	if _, err := os.Stat(configFile); err == nil {
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	v.SetDefault("AGENT_COMMAND", DefaultAgentCommand)
	v.SetDefault("AGENT_MODEL", DefaultAgentModel)
	v.SetDefault("AGENT_TIMEOUT", int64(DefaultAgentTimeout/time.Second))
	v.SetDefault("POLL_TIMEOUT", int64(DefaultPollTimeout/time.Second))

	workspace := v.GetString("CLAW_WORKSPACE")
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		workspace = wd
	}

	cfg := &Config{
		Token:         v.GetString("TELEGRAM_BOT_TOKEN"),
		AllowedUserID: v.GetInt64("TELEGRAM_ALLOWED_USER_ID"),
		StateDir:      stateDir,
		Workspace:     workspace,
		AgentCommand:  v.GetString("AGENT_COMMAND"),
		AgentModel:    v.GetString("AGENT_MODEL"),
		AgentTimeout:  time.Duration(v.GetInt64("AGENT_TIMEOUT")) * time.Second,
		PollTimeout:   time.Duration(v.GetInt64("POLL_TIMEOUT")) * time.Second,
		Debug:         v.GetBool("CLAW_DEBUG"),
	}
	return cfg, nil
}

// Validate checks the fields every networked subcommand needs.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}
	if c.AgentCommand == "" {
		return fmt.Errorf("AGENT_COMMAND cannot be empty")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive")
	}
	return nil
}

// RequireUser additionally checks the authorized user id, which only the
// relay needs; other subcommands work without it.
func (c *Config) RequireUser() error {
	if c.AllowedUserID == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_ID must be set (run `cursorclaw whoami` to find yours)")
	}
	return nil
}

// SessionFile is the path of the agent session token store.
func (c *Config) SessionFile() string { return filepath.Join(c.StateDir, "session") }

// ChatIDFile is the path of the chat id store.
func (c *Config) ChatIDFile() string { return filepath.Join(c.StateDir, "chat_id") }

// RemindersFile is the path of the reminders store.
func (c *Config) RemindersFile() string { return filepath.Join(c.StateDir, "reminders.json") }
