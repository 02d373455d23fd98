package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"glimpse/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusError
				runningMsg := "not running"
				if status.Running {
					runningKind = statusOK
					runningMsg = fmt.Sprintf("pid %d, up since %s", status.PID, status.StartedAt.Local().Format(time.RFC3339))
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, runningMsg, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))

				sessionsKind := statusInfo
				sessionsMsg := "none active"
				if len(status.Sessions) > 0 {
					sessionsKind = statusOK
					sessionsMsg = strconv.Itoa(len(status.Sessions)) + " active"
				}
				fmt.Fprintln(stdout, renderStatusLine("Sessions", sessionsKind, sessionsMsg, colorize))

				for _, session := range status.Sessions {
					detail := fmt.Sprintf("interval %ds, processed %d, accepted %d",
						session.IntervalSeconds, session.Processed, session.Accepted)
					fmt.Fprintln(stdout, renderStatusLine(session.SessionID, statusInfo, detail, colorize))
				}
				return nil
			})
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show captures database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Database Health", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Exists", boolKind(health.DatabaseExists), yesNo(health.DatabaseExists), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Readable", boolKind(health.DatabaseReadable), yesNo(health.DatabaseReadable), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Table", boolKind(health.TableExists), yesNo(health.TableExists), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), yesNo(health.IntegrityCheck), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Records", statusInfo, strconv.FormatInt(health.TotalRecords, 10), colorize))
				if len(health.MissingColumns) > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Missing columns", statusWarn, fmt.Sprintf("%v", health.MissingColumns), colorize))
				}
				if health.Error != "" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, health.Error, colorize))
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
