package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jes/cursor-claw/internal/attach"
	"github.com/jes/cursor-claw/internal/relay"
	"github.com/jes/cursor-claw/internal/store"
	"github.com/jes/cursor-claw/internal/telegram"
)

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run the long-lived Telegram relay loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err = cfg.Validate(); err != nil {
				return err
			}
			if err = cfg.RequireUser(); err != nil {
				return err
			}

			client, err := newTelegramClient(cfg, logger)
			if err != nil {
				return err
			}
			invoker, err := newAgentCLI(cfg, logger)
			if err != nil {
				return err
			}

			loop, err := relay.NewLoop(relay.Config{
				Transport:      client,
				Invoker:        invoker,
				Sessions:       store.NewSessionStore(cfg.SessionFile()),
				Chats:          store.NewChatStore(cfg.ChatIDFile()),
				Queue:          attach.NewQueue(cfg.StateDir, logger),
				AllowedUserID:  cfg.AllowedUserID,
				PollTimeout:    cfg.PollTimeout,
				TypingInterval: telegram.DefaultTypingInterval,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = loop.Run(ctx)
			logger.Info("relay stopped")
			return err
		},
	}
}
