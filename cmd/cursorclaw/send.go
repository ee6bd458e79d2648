package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jes/cursor-claw/internal/store"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>...",
		Short: "Send a fixed message to the saved chat",
		Long: "Send a message directly to the authorized user's chat, using the chat id\n" +
			"saved by the relay. Useful from agent scripts and cron jobs.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Token == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
			}
			chatID, ok := store.NewChatStore(cfg.ChatIDFile()).Load()
			if !ok {
				return fmt.Errorf("no chat id saved yet (message the bot once first)")
			}
			client, err := newTelegramClient(cfg, logger)
			if err != nil {
				return err
			}
			return client.SendText(cmd.Context(), chatID, strings.Join(args, " "))
		},
	}
}
