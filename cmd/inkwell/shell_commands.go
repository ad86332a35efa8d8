package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFocusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Surface the running shell's window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.FocusWindow(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Focus request delivered.")
			return nil
		},
	}
}

func newQuitCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Ask the running shell to terminate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Quit()
			if err != nil {
				return err
			}
			if resp.Quitting {
				fmt.Fprintln(cmd.OutOrStdout(), "Shell is shutting down.")
			}
			return nil
		},
	}
}
