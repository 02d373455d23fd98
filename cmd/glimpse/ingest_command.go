package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glimpse/internal/config"
	"glimpse/internal/ipc"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ingest <image-path>",
		Short: "Run an existing image through the dedup decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve image path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ingest(ipc.IngestRequest{SessionID: sessionID, ImagePath: imagePath})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Accepted {
					fmt.Fprintf(stdout, "Accepted (similarity %.3f): %s\n", resp.Similarity, resp.ImagePath)
					return nil
				}
				switch resp.DiscardReason {
				case "no_text":
					fmt.Fprintln(stdout, "Discarded: no text recognized in image")
				case "duplicate":
					fmt.Fprintf(stdout, "Discarded as duplicate (similarity %.3f)\n", resp.Similarity)
				default:
					fmt.Fprintf(stdout, "Discarded: %s\n", resp.DiscardReason)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "manual", "Session id to file the image under")
	return cmd
}
