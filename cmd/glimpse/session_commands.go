package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"glimpse/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage capture sessions",
	}

	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionStopCommand(ctx))
	sessionCmd.AddCommand(newSessionListCommand(ctx))

	return sessionCmd
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var intervalSeconds int
	var durationSeconds int

	cmd := &cobra.Command{
		Use:   "start <session-id>",
		Short: "Start a periodic capture session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionStart(ipc.SessionStartRequest{
					SessionID:       args[0],
					OutputDir:       outputDir,
					IntervalSeconds: intervalSeconds,
					DurationSeconds: durationSeconds,
				})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Started {
					return fmt.Errorf("session not started: %s", resp.Message)
				}
				fmt.Fprintf(stdout, "Session %s started\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for accepted images (defaults to the configured images dir)")
	cmd.Flags().IntVarP(&intervalSeconds, "interval", "i", 0, "Seconds between capture attempts (defaults to the configured interval)")
	cmd.Flags().IntVarP(&durationSeconds, "duration", "d", 0, "Session lifetime in seconds (0 runs until stopped)")
	return cmd
}

func newSessionStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a capture session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SessionStop(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stop requested for session %s\n", args[0])
				return nil
			})
		},
	}
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sessions()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(stdout, "No active sessions")
					return nil
				}
				rows := make([][]string, 0, len(resp.Sessions))
				for _, session := range resp.Sessions {
					rows = append(rows, []string{
						session.SessionID,
						session.StartedAt.Local().Format(time.RFC3339),
						strconv.Itoa(session.IntervalSeconds) + "s",
						formatDuration(session.DurationSeconds),
						strconv.Itoa(session.Processed),
						strconv.Itoa(session.Accepted),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Session", "Started", "Interval", "Duration", "Processed", "Accepted"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "unbounded"
	}
	return (time.Duration(seconds) * time.Second).String()
}
