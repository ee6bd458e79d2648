package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the user ids of anyone messaging the bot",
		Long: "Poll for updates and print each sender's user id, for discovering the id\n" +
			"to set as TELEGRAM_ALLOWED_USER_ID. Ctrl+C to stop.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Token == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
			}
			client, err := newTelegramClient(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Println("Listening; send your bot a message to see your user id. Ctrl+C to stop.")
			var offset int64
			for ctx.Err() == nil {
				updates, err := client.GetUpdates(ctx, offset, cfg.PollTimeout)
				if err != nil {
					if ctx.Err() != nil {
						break
					}
					logger.Warn("poll failed", "error", err)
					continue
				}
				for _, u := range updates {
					offset = u.UpdateID + 1
					msg := u.Msg()
					if msg == nil || msg.From == nil {
						continue
					}
					fmt.Printf("user_id=%d username=%q chat_id=%d text=%q\n",
						msg.From.ID, msg.From.Username, msg.Chat.ID, msg.Text)
				}
			}
			return nil
		},
	}
}
