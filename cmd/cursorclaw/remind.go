package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jes/cursor-claw/internal/reminder"
	"github.com/jes/cursor-claw/internal/store"
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Fire due reminders once and exit (run from a timer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			// Unconfigured is not an error for a timer-run command; exit
			// clean so the timer unit doesn't flap.
			if cfg.Token == "" {
				logger.Warn("no bot token configured, skipping reminder run")
				return nil
			}
			if err = cfg.Validate(); err != nil {
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

			sched := reminder.NewScheduler(
				reminder.NewStore(cfg.RemindersFile()),
				client,
				invoker,
				store.NewChatStore(cfg.ChatIDFile()),
				store.NewSessionStore(cfg.SessionFile()),
				logger,
			)
			return sched.Run(cmd.Context(), time.Now())
		},
	}
	cmd.AddCommand(newRemindAddCmd())
	return cmd
}

func newRemindAddCmd() *cobra.Command {
	var (
		at       string
		isPrompt bool
	)
	add := &cobra.Command{
		Use:   "add --at <time> <text>...",
		Short: "Append a reminder to the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			r := reminder.Reminder{At: at}
			body := strings.Join(args, " ")
			if isPrompt {
				r.Prompt = body
			} else {
				r.Text = body
			}
			saved, err := reminder.NewStore(cfg.RemindersFile()).Append(r)
			if err != nil {
				return err
			}
			fmt.Printf("added reminder %s at %s\n", saved.ID, saved.At)
			return nil
		},
	}
	add.Flags().StringVar(&at, "at", "", "trigger time, e.g. 2026-08-28T09:00 (local) or RFC 3339")
	add.Flags().BoolVar(&isPrompt, "prompt", false, "run the text as an agent prompt and deliver its reply")
	_ = add.MarkFlagRequired("at")
	return add
}
