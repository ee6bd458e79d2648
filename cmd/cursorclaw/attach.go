package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jes/cursor-claw/internal/attach"
)

func newAttachCmd() *cobra.Command {
	var image bool
	cmd := &cobra.Command{
		Use:   "attach [--image] <file>...",
		Short: "Queue files to be sent with the next reply",
		Long: "Copy files into the pending-attachment queue. They are delivered to the\n" +
			"user together with the next outgoing reply and then deleted. With --image,\n" +
			"files must be images and are always sent as photos.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			queue := attach.NewQueue(cfg.StateDir, logger)
			kind := attach.KindDocument
			if image {
				kind = attach.KindImage
			}
			var firstErr error
			for _, src := range args {
				dest, err := queue.Enqueue(src, kind)
				if err != nil {
					logger.Error("failed to enqueue", "file", src, "error", err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Println(dest)
			}
			return firstErr
		},
	}
	cmd.Flags().BoolVar(&image, "image", false, "queue as images (sent as photos)")
	return cmd
}
