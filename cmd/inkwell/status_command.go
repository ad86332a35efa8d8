package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running shell's state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}

			lastBackup := "never"
			if !status.LastBackup.IsZero() {
				lastBackup = status.LastBackup.Format("2006-01-02 15:04:05")
			}

			rows := [][2]string{
				{"Primary", strconv.FormatBool(status.Primary)},
				{"PID", strconv.Itoa(status.PID)},
				{"Extensions server", status.ExtensionsAddress},
				{"Start document", status.StartDocument},
				{"Window exists", strconv.FormatBool(status.WindowExists)},
				{"Window visible", strconv.FormatBool(status.WindowVisible)},
				{"Backups running", strconv.FormatBool(status.BackupsRunning)},
				{"Last backup", lastBackup},
			}
			renderKeyValueTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}
