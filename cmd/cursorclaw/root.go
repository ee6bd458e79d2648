package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jes/cursor-claw/internal/agent"
	"github.com/jes/cursor-claw/internal/config"
	"github.com/jes/cursor-claw/internal/telegram"
)

func newRootCmd() *cobra.Command {
	var (
		stateDir string
		debug    bool
	)

	root := &cobra.Command{
		Use:           "cursorclaw",
		Short:         "Relay Telegram messages to a local coding agent",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Flags override the environment; config.Load reads env only.
			if stateDir != "" {
				_ = os.Setenv("CLAW_STATE_DIR", stateDir)
			}
			if debug {
				_ = os.Setenv("CLAW_DEBUG", "1")
			}
		},
	}
	root.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (default ~/.cursor-claw)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newRelayCmd(),
		newRemindCmd(),
		newSendCmd(),
		newAttachCmd(),
		newWhoamiCmd(),
	)
	return root
}

// loadConfig loads configuration and installs the process-wide logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newTelegramClient(cfg *config.Config, logger *slog.Logger) (*telegram.Client, error) {
	client, err := telegram.NewClient(cfg.Token, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return client, nil
}

func newAgentCLI(cfg *config.Config, logger *slog.Logger) (*agent.CLI, error) {
	cli, err := agent.NewCLI(agent.Config{
		Command:   cfg.AgentCommand,
		Workspace: cfg.Workspace,
		Model:     cfg.AgentModel,
		Timeout:   cfg.AgentTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent client: %w", err)
	}
	return cli, nil
}
