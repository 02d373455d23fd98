package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"glimpse/internal/ipc"
)

const textPreviewLimit = 60

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored captures",
	}

	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsStatsCommand(ctx))
	recordsCmd.AddCommand(newRecordsClearCommand(ctx))

	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var sessionID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordsList(ipc.RecordsListRequest{SessionID: sessionID, Limit: limit})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "No stored captures")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, record := range resp.Records {
					rows = append(rows, []string{
						strconv.FormatInt(record.ID, 10),
						record.SessionID,
						record.CapturedAt.Local().Format(time.RFC3339),
						record.ImagePath,
						previewText(record.ExtractedText),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Session", "Captured", "Image", "Text"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Limit the listing to one session")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum captures to show when listing across sessions")
	return cmd
}

func newRecordsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-session capture counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordsStats()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Stats) == 0 {
					fmt.Fprintln(stdout, "No stored captures")
					return nil
				}
				rows := make([][]string, 0, len(resp.Stats))
				for _, entry := range resp.Stats {
					latest := ""
					if !entry.Latest.IsZero() {
						latest = entry.Latest.Local().Format(time.RFC3339)
					}
					rows = append(rows, []string{entry.SessionID, strconv.Itoa(entry.Count), latest})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Session", "Captures", "Latest"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newRecordsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Remove all stored captures for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordsClear(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d capture(s) for session %s\n", resp.Removed, args[0])
				return nil
			})
		},
	}
}

func previewText(text string) string {
	if len(text) <= textPreviewLimit {
		return text
	}
	return text[:textPreviewLimit] + "..."
}
