package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "now",
		Short: "Write a backup archive immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.MajorDataChange()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s\n", resp.Archive)
			return nil
		},
	})

	return cmd
}
